package ledger

import (
	"context"

	"github.com/syedaatik8/LemmeWrite/internal/models"
	"github.com/syedaatik8/LemmeWrite/pkg/types"
)

// Store is the ledger's storage handle. Update runs fn as one atomic unit:
// either every write inside fn commits or none does, so a crash mid-credit
// cannot leave a balance increment without its allocation row.
type Store interface {
	Update(ctx context.Context, fn func(tx StoreTx) error) error

	// FindBalance returns nil when no row exists for userID.
	FindBalance(ctx context.Context, userID string) (*models.AccountBalance, error)

	// ListAllocations returns the user's allocation rows, newest first.
	ListAllocations(ctx context.Context, userID string, offset, limit int) ([]*models.PointAllocation, error)
}

// StoreTx is the transactional view handed to Update callbacks.
type StoreTx interface {
	// CountedAllocationExists reports whether an allocation with a kind in
	// kinds already exists for (userID, externalEventID).
	CountedAllocationExists(userID, externalEventID string, kinds []types.EventKind) (bool, error)

	// BalanceForUpdate returns the user's balance row locked for update, or
	// nil when absent.
	BalanceForUpdate(userID string) (*models.AccountBalance, error)

	SaveBalance(b *models.AccountBalance) error

	InsertAllocation(a *models.PointAllocation) error

	// DeleteDuplicateAllocations removes every counted allocation row except
	// the earliest one per (user_id, external_event_id), returning the number
	// of rows removed. Administrative cleanup of legacy duplicates only.
	DeleteDuplicateAllocations(kinds []types.EventKind) (int64, error)
}
