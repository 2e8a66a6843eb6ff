package subscription

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/syedaatik8/LemmeWrite/pkg/types"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		name string
		from types.SubscriptionStatus
		to   types.SubscriptionStatus
		want bool
	}{
		{"created to active", types.SubscriptionStatusCreated, types.SubscriptionStatusActive, true},
		{"created to expired", types.SubscriptionStatusCreated, types.SubscriptionStatusExpired, true},
		{"created to cancelled", types.SubscriptionStatusCreated, types.SubscriptionStatusCancelled, false},
		{"created to suspended", types.SubscriptionStatusCreated, types.SubscriptionStatusSuspended, false},
		{"active to suspended", types.SubscriptionStatusActive, types.SubscriptionStatusSuspended, true},
		{"active to cancelled", types.SubscriptionStatusActive, types.SubscriptionStatusCancelled, true},
		{"active to expired", types.SubscriptionStatusActive, types.SubscriptionStatusExpired, true},
		{"suspended to active", types.SubscriptionStatusSuspended, types.SubscriptionStatusActive, true},
		{"suspended to expired", types.SubscriptionStatusSuspended, types.SubscriptionStatusExpired, true},
		{"suspended to cancelled", types.SubscriptionStatusSuspended, types.SubscriptionStatusCancelled, false},
		{"cancelled admits nothing", types.SubscriptionStatusCancelled, types.SubscriptionStatusActive, false},
		{"expired admits nothing", types.SubscriptionStatusExpired, types.SubscriptionStatusActive, false},
		{"same state is not a move", types.SubscriptionStatusActive, types.SubscriptionStatusActive, false},
		{"unknown from", types.SubscriptionStatus("bogus"), types.SubscriptionStatusActive, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, CanTransition(tc.from, tc.to))
		})
	}
}

func TestTerminalStatusesAdmitNothing(t *testing.T) {
	all := []types.SubscriptionStatus{
		types.SubscriptionStatusCreated,
		types.SubscriptionStatusActive,
		types.SubscriptionStatusCancelled,
		types.SubscriptionStatusSuspended,
		types.SubscriptionStatusExpired,
	}
	for _, from := range all {
		if !from.Terminal() {
			continue
		}
		for _, to := range all {
			require.False(t, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}
