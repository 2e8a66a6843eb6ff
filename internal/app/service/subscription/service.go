package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/syedaatik8/LemmeWrite/internal/models"
	"github.com/syedaatik8/LemmeWrite/pkg/config"
	"github.com/syedaatik8/LemmeWrite/pkg/logctx"
	"github.com/syedaatik8/LemmeWrite/pkg/tool"
	"github.com/syedaatik8/LemmeWrite/pkg/types"
)

type Service struct {
	cfg *config.Config
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewService(cfg *config.Config, db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{cfg: cfg, db: db, log: log}
}

// FindByExternalID returns nil when no record exists.
func (s *Service) FindByExternalID(ctx context.Context, externalID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.WithContext(ctx).Where("external_subscription_id = ?", externalID).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}
	return &sub, nil
}

// FindByUserID returns the user's most recently updated subscription, or nil.
func (s *Service) FindByUserID(ctx context.Context, userID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at desc").
		First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}
	return &sub, nil
}

// Upsert creates the subscription record on first sight of a "created" event
// and updates the plan on redelivery. The status of an existing record is
// never regressed to created; redelivered created events arrive after
// activation routinely.
func (s *Service) Upsert(ctx context.Context, userID, externalID string, plan types.PlanType, reason string) (*models.Subscription, error) {
	var out *models.Subscription
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var original models.Subscription
		err := tx.WithContext(ctx).Where("external_subscription_id = ?", externalID).First(&original).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to load original subscription: %w", err)
		}

		if original.ID == "" {
			out = &models.Subscription{
				ID:                     tool.GenerateUUIDV7(),
				UserID:                 userID,
				ExternalSubscriptionID: externalID,
				PlanType:               plan,
				Status:                 types.SubscriptionStatusCreated,
			}
			if err := tx.WithContext(ctx).Create(out).Error; err != nil {
				return fmt.Errorf("failed to create subscription: %w", err)
			}
			s.saveLog(ctx, nil, out, reason)
			return nil
		}

		updated := original
		updated.PlanType = plan
		if err := tx.WithContext(ctx).Save(&updated).Error; err != nil {
			return fmt.Errorf("failed to update subscription: %w", err)
		}
		if original.PlanType != plan {
			s.saveLog(ctx, &original, &updated, reason)
		}
		out = &updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Transition moves the subscription to the target status when the lifecycle
// allows it. Illegal moves are logged and skipped, not failed: delivery is
// unordered and redelivered, so a stale event must not error the request.
// The returned bool reports whether the transition was applied.
func (s *Service) Transition(ctx context.Context, externalID string, to types.SubscriptionStatus, at time.Time, reason string) (*models.Subscription, bool, error) {
	var out *models.Subscription
	applied := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var original models.Subscription
		err := tx.WithContext(ctx).Where("external_subscription_id = ?", externalID).First(&original).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logctx.FromCtx(ctx, s.log).Warnw("subscription_transition_unknown_subscription",
				"external_subscription_id", externalID, "to", to)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to load subscription: %w", err)
		}

		if !CanTransition(original.Status, to) {
			logctx.FromCtx(ctx, s.log).Warnw("subscription_transition_skipped",
				"external_subscription_id", externalID, "from", original.Status, "to", to)
			cp := original
			out = &cp
			return nil
		}

		updated := original
		updated.Status = to
		switch to {
		case types.SubscriptionStatusActive:
			if updated.ActivatedAt == nil {
				updated.ActivatedAt = &at
			}
		case types.SubscriptionStatusCancelled:
			updated.CancelledAt = &at
		case types.SubscriptionStatusSuspended:
			updated.SuspendedAt = &at
		}
		if err := tx.WithContext(ctx).Save(&updated).Error; err != nil {
			return fmt.Errorf("failed to save subscription: %w", err)
		}
		s.saveLog(ctx, &original, &updated, reason)
		out = &updated
		applied = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, applied, nil
}

// saveLog writes the change log asynchronously; errors are logged, not returned.
func (s *Service) saveLog(ctx context.Context, before, after *models.Subscription, reason string) {
	go func() {
		entry := &models.SubscriptionLog{
			ID:     tool.GenerateUUIDV7(),
			UserID: after.UserID,
			Reason: reason,
			Before: datatypes.NewJSONType(before),
			After:  datatypes.NewJSONType(after),
			Extra:  datatypes.JSONMap{},
		}
		if err := s.db.Save(entry).Error; err != nil {
			logctx.FromCtx(ctx, s.log).Errorf("failed to save subscription log: %v", err)
		}
	}()
}
