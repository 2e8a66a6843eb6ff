package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/syedaatik8/LemmeWrite/internal/app/service/ledger"
	"github.com/syedaatik8/LemmeWrite/internal/models"
	"github.com/syedaatik8/LemmeWrite/pkg/config"
	"github.com/syedaatik8/LemmeWrite/pkg/keylock"
	"github.com/syedaatik8/LemmeWrite/pkg/types"
)

// stubLedgerStore backs a real ledger.Service with in-memory state for route
// tests.
type stubLedgerStore struct {
	mu          sync.Mutex
	balances    map[string]*models.AccountBalance
	allocations []*models.PointAllocation
}

func newStubLedgerStore() *stubLedgerStore {
	return &stubLedgerStore{balances: map[string]*models.AccountBalance{}}
}

func (s *stubLedgerStore) Update(_ context.Context, fn func(tx ledger.StoreTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn((*stubLedgerTx)(s))
}

func (s *stubLedgerStore) FindBalance(_ context.Context, userID string) (*models.AccountBalance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.balances[userID]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (s *stubLedgerStore) ListAllocations(_ context.Context, userID string, offset, limit int) ([]*models.PointAllocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.PointAllocation
	for i := len(s.allocations) - 1; i >= 0; i-- {
		if s.allocations[i].UserID == userID {
			out = append(out, s.allocations[i])
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type stubLedgerTx stubLedgerStore

func (t *stubLedgerTx) CountedAllocationExists(userID, externalEventID string, kinds []types.EventKind) (bool, error) {
	for _, a := range t.allocations {
		if a.UserID == userID && a.ExternalEventID == externalEventID && lo.Contains(kinds, a.EventKind) {
			return true, nil
		}
	}
	return false, nil
}

func (t *stubLedgerTx) BalanceForUpdate(userID string) (*models.AccountBalance, error) {
	return t.balances[userID], nil
}

func (t *stubLedgerTx) SaveBalance(b *models.AccountBalance) error {
	t.balances[b.UserID] = b
	return nil
}

func (t *stubLedgerTx) InsertAllocation(a *models.PointAllocation) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	t.allocations = append(t.allocations, a)
	return nil
}

func (t *stubLedgerTx) DeleteDuplicateAllocations(_ []types.EventKind) (int64, error) {
	return 0, nil
}

func newStubLedgerService(store *stubLedgerStore) *ledger.Service {
	cfg := &config.Config{Points: config.PointsConfig{StartingBalance: 500}}
	return ledger.NewService(cfg, store, keylock.NewKeyedMutex(), zap.NewNop().Sugar())
}
