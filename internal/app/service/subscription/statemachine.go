package subscription

import (
	"github.com/samber/lo"

	"github.com/syedaatik8/LemmeWrite/pkg/types"
)

// allowedTransitions encodes the subscription lifecycle:
// created → active ⇄ suspended, active → cancelled, any non-terminal →
// expired. Cancelled and expired admit nothing.
var allowedTransitions = map[types.SubscriptionStatus][]types.SubscriptionStatus{
	types.SubscriptionStatusCreated: {
		types.SubscriptionStatusActive,
		types.SubscriptionStatusExpired,
	},
	types.SubscriptionStatusActive: {
		types.SubscriptionStatusSuspended,
		types.SubscriptionStatusCancelled,
		types.SubscriptionStatusExpired,
	},
	types.SubscriptionStatusSuspended: {
		types.SubscriptionStatusActive,
		types.SubscriptionStatusExpired,
	},
	types.SubscriptionStatusCancelled: {},
	types.SubscriptionStatusExpired:   {},
}

// CanTransition reports whether from → to is a legal lifecycle move.
// Same-state "transitions" are not legal moves; callers treat them as
// redelivered events and no-op.
func CanTransition(from, to types.SubscriptionStatus) bool {
	return lo.Contains(allowedTransitions[from], to)
}
