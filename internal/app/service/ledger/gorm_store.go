package ledger

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/syedaatik8/LemmeWrite/internal/models"
	"github.com/syedaatik8/LemmeWrite/pkg/types"
)

// GormStore implements Store on Postgres.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Update(ctx context.Context, fn func(tx StoreTx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStoreTx{ctx: ctx, tx: tx})
	})
}

func (s *GormStore) FindBalance(ctx context.Context, userID string) (*models.AccountBalance, error) {
	var b models.AccountBalance
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account balance: %w", err)
	}
	return &b, nil
}

func (s *GormStore) ListAllocations(ctx context.Context, userID string, offset, limit int) ([]*models.PointAllocation, error) {
	var items []*models.PointAllocation
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc, id desc").
		Offset(offset).Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list allocations: %w", err)
	}
	return items, nil
}

type gormStoreTx struct {
	ctx context.Context
	tx  *gorm.DB
}

func (t *gormStoreTx) CountedAllocationExists(userID, externalEventID string, kinds []types.EventKind) (bool, error) {
	var n int64
	err := t.tx.WithContext(t.ctx).Model(&models.PointAllocation{}).
		Where("user_id = ? AND external_event_id = ? AND event_kind IN ?", userID, externalEventID, kinds).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("failed to check existing allocation: %w", err)
	}
	return n > 0, nil
}

func (t *gormStoreTx) BalanceForUpdate(userID string) (*models.AccountBalance, error) {
	var b models.AccountBalance
	err := t.tx.WithContext(t.ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account balance: %w", err)
	}
	return &b, nil
}

func (t *gormStoreTx) SaveBalance(b *models.AccountBalance) error {
	if err := t.tx.WithContext(t.ctx).Save(b).Error; err != nil {
		return fmt.Errorf("failed to save account balance: %w", err)
	}
	return nil
}

func (t *gormStoreTx) InsertAllocation(a *models.PointAllocation) error {
	if err := t.tx.WithContext(t.ctx).Create(a).Error; err != nil {
		return fmt.Errorf("failed to insert allocation: %w", err)
	}
	return nil
}

func (t *gormStoreTx) DeleteDuplicateAllocations(kinds []types.EventKind) (int64, error) {
	// Keep the earliest counted row per (user_id, external_event_id) with id
	// as a tie break, delete the rest.
	res := t.tx.WithContext(t.ctx).Exec(
		`DELETE FROM point_allocation a
		 USING point_allocation b
		 WHERE a.user_id = b.user_id
		   AND a.external_event_id = b.external_event_id
		   AND a.event_kind IN ?
		   AND b.event_kind IN ?
		   AND (a.created_at, a.id) > (b.created_at, b.id)`,
		kinds, kinds,
	)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete duplicate allocations: %w", res.Error)
	}
	return res.RowsAffected, nil
}
