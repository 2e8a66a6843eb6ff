package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/syedaatik8/LemmeWrite/internal/models"
	"github.com/syedaatik8/LemmeWrite/pkg/config"
	"github.com/syedaatik8/LemmeWrite/pkg/keylock"
	"github.com/syedaatik8/LemmeWrite/pkg/types"
)

// memStore is an in-memory Store with transactional Update: writes staged by
// the callback are merged only when it returns nil.
type memStore struct {
	mu          sync.Mutex
	balances    map[string]*models.AccountBalance
	allocations []*models.PointAllocation
	failInsert  error
}

func newMemStore() *memStore {
	return &memStore{balances: map[string]*models.AccountBalance{}}
}

func (s *memStore) Update(_ context.Context, fn func(tx StoreTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &memTx{store: s, balances: map[string]*models.AccountBalance{}}
	if err := fn(tx); err != nil {
		return err
	}
	for id, b := range tx.balances {
		cp := *b
		s.balances[id] = &cp
	}
	s.allocations = append(s.allocations, tx.allocations...)
	if tx.removeDuplicates {
		s.allocations = dedupeAllocations(s.allocations, tx.dedupeKinds)
	}
	return nil
}

func (s *memStore) FindBalance(_ context.Context, userID string) (*models.AccountBalance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.balances[userID]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (s *memStore) ListAllocations(_ context.Context, userID string, offset, limit int) ([]*models.PointAllocation, error) {
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

type memTx struct {
	store            *memStore
	balances         map[string]*models.AccountBalance
	allocations      []*models.PointAllocation
	removeDuplicates bool
	dedupeKinds      []types.EventKind
}

func (t *memTx) CountedAllocationExists(userID, externalEventID string, kinds []types.EventKind) (bool, error) {
	for _, rows := range [][]*models.PointAllocation{t.store.allocations, t.allocations} {
		for _, a := range rows {
			if a.UserID == userID && a.ExternalEventID == externalEventID && lo.Contains(kinds, a.EventKind) {
				return true, nil
			}
		}
	}
	return false, nil
}

func (t *memTx) BalanceForUpdate(userID string) (*models.AccountBalance, error) {
	if b, ok := t.balances[userID]; ok {
		return b, nil
	}
	b, ok := t.store.balances[userID]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (t *memTx) SaveBalance(b *models.AccountBalance) error {
	cp := *b
	t.balances[b.UserID] = &cp
	return nil
}

func (t *memTx) InsertAllocation(a *models.PointAllocation) error {
	if t.store.failInsert != nil {
		return t.store.failInsert
	}
	cp := *a
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	t.allocations = append(t.allocations, &cp)
	return nil
}

func (t *memTx) DeleteDuplicateAllocations(kinds []types.EventKind) (int64, error) {
	before := len(t.store.allocations)
	after := dedupeAllocations(t.store.allocations, kinds)
	t.removeDuplicates = true
	t.dedupeKinds = kinds
	return int64(before - len(after)), nil
}

func dedupeAllocations(rows []*models.PointAllocation, kinds []types.EventKind) []*models.PointAllocation {
	earliest := map[string]*models.PointAllocation{}
	for _, a := range rows {
		if !lo.Contains(kinds, a.EventKind) {
			continue
		}
		key := a.UserID + "/" + a.ExternalEventID
		cur, ok := earliest[key]
		if !ok || a.CreatedAt.Before(cur.CreatedAt) {
			earliest[key] = a
		}
	}
	var out []*models.PointAllocation
	for _, a := range rows {
		if !lo.Contains(kinds, a.EventKind) {
			out = append(out, a)
			continue
		}
		if earliest[a.UserID+"/"+a.ExternalEventID] == a {
			out = append(out, a)
		}
	}
	return out
}

func newTestService(store Store) *Service {
	cfg := &config.Config{Points: config.PointsConfig{StartingBalance: 500}}
	return NewService(cfg, store, keylock.NewKeyedMutex(), zap.NewNop().Sugar())
}

func TestCredit_AllocatesAndRaisesBalance(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	res, err := svc.Credit(context.Background(), &CreditRequest{
		UserID:          "user-1",
		Amount:          1000,
		ExternalEventID: "sale-1",
		Kind:            types.EventKindPayment,
		Currency:        "USD",
		PriceCents:      1900,
	})
	require.NoError(t, err)
	require.True(t, res.Allocated)
	require.NotNil(t, res.NewBalance)
	require.Equal(t, int64(1500), *res.NewBalance)

	b, err := store.FindBalance(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, int64(1500), b.PointsRemaining)
	require.Equal(t, int64(1500), b.PointsTotal)
	require.NotNil(t, b.LastReset)
	require.Len(t, store.allocations, 1)
	require.Equal(t, types.EventKindPayment, store.allocations[0].EventKind)
	require.Equal(t, int64(1900), store.allocations[0].PriceCents)
}

func TestCredit_DuplicateEventSuppressed(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	req := &CreditRequest{UserID: "user-1", Amount: 1000, ExternalEventID: "sale-1", Kind: types.EventKindPayment}

	first, err := svc.Credit(context.Background(), req)
	require.NoError(t, err)
	require.True(t, first.Allocated)

	second, err := svc.Credit(context.Background(), req)
	require.NoError(t, err)
	require.False(t, second.Allocated)
	require.Nil(t, second.NewBalance)

	b, err := store.FindBalance(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, int64(1500), b.PointsRemaining)
	require.Len(t, store.allocations, 1)
}

func TestCredit_DuplicateAcrossKinds(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	first, err := svc.Credit(context.Background(), &CreditRequest{
		UserID: "user-1", Amount: 1000, ExternalEventID: "sub-1", Kind: types.EventKindActivation,
	})
	require.NoError(t, err)
	require.True(t, first.Allocated)

	// Same event id under a different counted kind is still a duplicate.
	second, err := svc.Credit(context.Background(), &CreditRequest{
		UserID: "user-1", Amount: 1000, ExternalEventID: "sub-1", Kind: types.EventKindManual,
	})
	require.NoError(t, err)
	require.False(t, second.Allocated)
	require.Len(t, store.allocations, 1)
}

func TestCredit_ConcurrentSameEvent_ExactlyOnce(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	const workers = 25
	var wg sync.WaitGroup
	results := make(chan *CreditResult, workers)
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.Credit(context.Background(), &CreditRequest{
				UserID: "user-1", Amount: 1000, ExternalEventID: "sale-1", Kind: types.EventKindPayment,
			})
			if err != nil {
				errs <- err
				return
			}
			results <- res
		}()
	}
	wg.Wait()
	close(results)
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	count := 0
	for res := range results {
		if res.Allocated {
			count++
		}
	}
	require.Equal(t, 1, count)
	require.Len(t, store.allocations, 1)

	b, err := store.FindBalance(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, int64(1500), b.PointsRemaining)
}

func TestCredit_DistinctEventsAccumulate(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	var wg sync.WaitGroup
	errs := make(chan error, 3)
	for i := 0; i < 3; i++ {
		eventID := fmt.Sprintf("sale-%d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Credit(context.Background(), &CreditRequest{
				UserID: "user-1", Amount: 1000, ExternalEventID: eventID, Kind: types.EventKindPayment,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	b, err := store.FindBalance(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, int64(3500), b.PointsRemaining)
	require.Equal(t, int64(3500), b.PointsTotal)
	require.Len(t, store.allocations, 3)
}

func TestCredit_FailureLeavesNoPartialState(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	req := &CreditRequest{UserID: "user-1", Amount: 1000, ExternalEventID: "sale-1", Kind: types.EventKindPayment}

	store.failInsert = errors.New("connection reset")
	_, err := svc.Credit(context.Background(), req)
	require.Error(t, err)

	b, err := store.FindBalance(context.Background(), "user-1")
	require.NoError(t, err)
	require.Nil(t, b)
	require.Empty(t, store.allocations)

	// Redelivery with the same arguments succeeds once the store recovers.
	store.failInsert = nil
	res, err := svc.Credit(context.Background(), req)
	require.NoError(t, err)
	require.True(t, res.Allocated)
	require.Equal(t, int64(1500), *res.NewBalance)
	require.Len(t, store.allocations, 1)
}

func TestCredit_Validation(t *testing.T) {
	svc := newTestService(newMemStore())

	cases := []*CreditRequest{
		nil,
		{UserID: "", Amount: 100, ExternalEventID: "e", Kind: types.EventKindManual},
		{UserID: "u", Amount: 100, ExternalEventID: "", Kind: types.EventKindManual},
		{UserID: "u", Amount: 100, ExternalEventID: "e", Kind: ""},
		{UserID: "u", Amount: 0, ExternalEventID: "e", Kind: types.EventKindManual},
		{UserID: "u", Amount: -5, ExternalEventID: "e", Kind: types.EventKindManual},
	}
	for _, req := range cases {
		_, err := svc.Credit(context.Background(), req)
		require.ErrorIs(t, err, ErrInvalidCredit)
	}
}

func TestBalance_LazyCreate(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	b, err := svc.Balance(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, int64(500), b.PointsRemaining)
	require.Equal(t, int64(500), b.PointsTotal)

	again, err := svc.Balance(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, int64(500), again.PointsRemaining)
}

func TestHistory_NewestFirst(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	for i := 0; i < 5; i++ {
		_, err := svc.Credit(context.Background(), &CreditRequest{
			UserID: "user-1", Amount: 100, ExternalEventID: fmt.Sprintf("sale-%d", i), Kind: types.EventKindPayment,
		})
		require.NoError(t, err)
	}
	_, err := svc.Credit(context.Background(), &CreditRequest{
		UserID: "user-2", Amount: 100, ExternalEventID: "sale-0", Kind: types.EventKindPayment,
	})
	require.NoError(t, err)

	rows, err := svc.History(context.Background(), "user-1", 0, 3)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "sale-4", rows[0].ExternalEventID)
	require.Equal(t, "sale-2", rows[2].ExternalEventID)
}

func TestCleanupLegacyDuplicates(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	base := time.Now().Add(-time.Hour)
	store.allocations = []*models.PointAllocation{
		{ID: "a", UserID: "user-1", ExternalEventID: "sub-1", EventKind: types.EventKindActivation, AmountCredited: 1000, CreatedAt: base},
		{ID: "b", UserID: "user-1", ExternalEventID: "sub-1", EventKind: types.EventKindActivation, AmountCredited: 1000, CreatedAt: base.Add(time.Minute)},
		{ID: "c", UserID: "user-1", ExternalEventID: "sub-1", EventKind: types.EventKindPayment, AmountCredited: 1000, CreatedAt: base.Add(2 * time.Minute)},
		{ID: "d", UserID: "user-2", ExternalEventID: "sub-1", EventKind: types.EventKindActivation, AmountCredited: 1000, CreatedAt: base},
	}

	removed, err := svc.CleanupLegacyDuplicates(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(2), removed)
	require.Len(t, store.allocations, 2)
	require.Equal(t, "a", store.allocations[0].ID)
	require.Equal(t, "d", store.allocations[1].ID)
}
