package ledger

import "errors"

var (
	// ErrInvalidCredit marks a credit request that cannot form an idempotency
	// key or carries a non-positive amount. Never retriable.
	ErrInvalidCredit = errors.New("invalid credit request")

	// ErrLockUnavailable marks a failed lock acquisition. Retriable; nothing
	// was written.
	ErrLockUnavailable = errors.New("credit lock unavailable")
)
