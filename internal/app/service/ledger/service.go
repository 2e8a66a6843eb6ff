package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/syedaatik8/LemmeWrite/internal/models"
	"github.com/syedaatik8/LemmeWrite/pkg/config"
	"github.com/syedaatik8/LemmeWrite/pkg/keylock"
	"github.com/syedaatik8/LemmeWrite/pkg/logctx"
	"github.com/syedaatik8/LemmeWrite/pkg/metrics"
	"github.com/syedaatik8/LemmeWrite/pkg/tool"
	"github.com/syedaatik8/LemmeWrite/pkg/types"
)

type CreditRequest struct {
	UserID string
	// Amount is the number of points to credit. Must be positive.
	Amount int64
	// ExternalEventID is the processor's identifier for the billing event.
	// The caller must pick an id that is stable across redeliveries of the
	// same event and distinct across different billing events.
	ExternalEventID string
	Kind            types.EventKind
	Currency        string
	// PriceCents is the money amount of the billing event, for display.
	PriceCents int64
}

type CreditResult struct {
	// Allocated is false when the credit was a suppressed duplicate. That is
	// a successful no-op, not an error.
	Allocated bool `json:"allocated"`
	// NewBalance is set only when Allocated is true.
	NewBalance *int64 `json:"new_balance,omitempty"`
}

// Service is the points ledger. It owns the account_balance and
// point_allocation tables and is the only writer of either.
type Service struct {
	cfg    *config.Config
	store  Store
	locker keylock.Locker
	log    *zap.SugaredLogger
}

func NewService(cfg *config.Config, store Store, locker keylock.Locker, log *zap.SugaredLogger) *Service {
	return &Service{cfg: cfg, store: store, locker: locker, log: log}
}

func creditLockKey(userID, externalEventID string) string {
	return fmt.Sprintf("points:credit:%s:%s", userID, externalEventID)
}

// Credit adds points to the user's balance exactly once per
// (user_id, external_event_id) pair. Concurrent and redelivered calls with
// the same pair collapse to a single allocation; calls with different pairs
// proceed independently. Any error after lock acquisition leaves no partial
// state, so the caller may retry with the same arguments.
func (s *Service) Credit(ctx context.Context, req *CreditRequest) (*CreditResult, error) {
	if req == nil || req.UserID == "" || req.ExternalEventID == "" || req.Kind == "" {
		return nil, fmt.Errorf("%w: user id, event id and kind are required", ErrInvalidCredit)
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive, got %d", ErrInvalidCredit, req.Amount)
	}

	release, err := s.locker.Acquire(ctx, creditLockKey(req.UserID, req.ExternalEventID))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLockUnavailable, err)
	}
	defer release()

	res := &CreditResult{}
	err = s.store.Update(ctx, func(tx StoreTx) error {
		exists, err := tx.CountedAllocationExists(req.UserID, req.ExternalEventID, types.CountedAllocationKinds)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}

		balance, err := tx.BalanceForUpdate(req.UserID)
		if err != nil {
			return err
		}
		if balance == nil {
			balance = &models.AccountBalance{
				UserID:          req.UserID,
				PointsRemaining: s.cfg.Points.StartingBalance,
				PointsTotal:     s.cfg.Points.StartingBalance,
			}
		}

		newBalance := balance.PointsRemaining + req.Amount
		balance.PointsRemaining = newBalance
		if newBalance > balance.PointsTotal {
			balance.PointsTotal = newBalance
		}
		balance.LastReset = lo.ToPtr(time.Now())
		if err := tx.SaveBalance(balance); err != nil {
			return err
		}

		if err := tx.InsertAllocation(&models.PointAllocation{
			ID:              tool.GenerateUUIDV7(),
			UserID:          req.UserID,
			ExternalEventID: req.ExternalEventID,
			EventKind:       req.Kind,
			AmountCredited:  req.Amount,
			Currency:        req.Currency,
			PriceCents:      req.PriceCents,
		}); err != nil {
			return err
		}

		res.Allocated = true
		res.NewBalance = lo.ToPtr(newBalance)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to credit points: %w", err)
	}

	if res.Allocated {
		metrics.CreditsAllocated.WithLabelValues(string(req.Kind)).Inc()
		logctx.FromCtx(ctx, s.log).Infow("points_credited",
			"user_id", req.UserID, "event_id", req.ExternalEventID,
			"kind", req.Kind, "amount", req.Amount, "new_balance", *res.NewBalance)
	} else {
		metrics.CreditsSuppressed.WithLabelValues(string(req.Kind)).Inc()
		logctx.FromCtx(ctx, s.log).Infow("points_credit_suppressed_duplicate",
			"user_id", req.UserID, "event_id", req.ExternalEventID, "kind", req.Kind)
	}
	return res, nil
}

// Balance returns the user's balance row, creating it with the starting
// balance on first read.
func (s *Service) Balance(ctx context.Context, userID string) (*models.AccountBalance, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	b, err := s.store.FindBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	if b != nil {
		return b, nil
	}

	// First read. Re-check under the transaction; a concurrent credit may
	// have created the row between the read above and here.
	var created *models.AccountBalance
	err = s.store.Update(ctx, func(tx StoreTx) error {
		existing, err := tx.BalanceForUpdate(userID)
		if err != nil {
			return err
		}
		if existing != nil {
			created = existing
			return nil
		}
		created = &models.AccountBalance{
			UserID:          userID,
			PointsRemaining: s.cfg.Points.StartingBalance,
			PointsTotal:     s.cfg.Points.StartingBalance,
		}
		return tx.SaveBalance(created)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize account balance: %w", err)
	}
	return created, nil
}

// History returns the user's allocation records, newest first.
func (s *Service) History(ctx context.Context, userID string, from, size int) ([]*models.PointAllocation, error) {
	if size <= 0 {
		size = 50
	}
	if from < 0 {
		from = 0
	}
	return s.store.ListAllocations(ctx, userID, from, size)
}

// CleanupLegacyDuplicates removes all but the earliest counted allocation per
// (user_id, external_event_id). Balances are left untouched; this is an audit
// table repair for rows written before duplicate suppression existed.
func (s *Service) CleanupLegacyDuplicates(ctx context.Context) (int64, error) {
	var removed int64
	err := s.store.Update(ctx, func(tx StoreTx) error {
		var err error
		removed, err = tx.DeleteDuplicateAllocations(types.CountedAllocationKinds)
		return err
	})
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		logctx.FromCtx(ctx, s.log).Warnw("legacy_duplicate_allocations_removed", "rows", removed)
	}
	return removed, nil
}
