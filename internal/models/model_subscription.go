package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/syedaatik8/LemmeWrite/pkg/types"
)

// Subscription is one row per (user, external subscription). Status moves
// through created → active ⇄ suspended, active → cancelled, any non-terminal
// state → expired. Cancelled and expired are terminal.
type Subscription struct {
	ID                     string                   `gorm:"column:id;type:uuid;primary_key" json:"id"`
	UserID                 string                   `gorm:"column:user_id;type:varchar(64);not null;index" json:"user_id"`
	ExternalSubscriptionID string                   `gorm:"column:external_subscription_id;type:varchar(128);not null;uniqueIndex" json:"external_subscription_id"`
	PlanType               types.PlanType           `gorm:"column:plan_type;type:varchar(32);not null" json:"plan_type"`
	Status                 types.SubscriptionStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	ActivatedAt            *time.Time               `gorm:"column:activated_at;default:null" json:"activated_at"`
	CancelledAt            *time.Time               `gorm:"column:cancelled_at;default:null" json:"cancelled_at"`
	SuspendedAt            *time.Time               `gorm:"column:suspended_at;default:null" json:"suspended_at"`
	// Extra stores additional JSON data from the processor payload.
	Extra     datatypes.JSON `gorm:"column:extra;type:jsonb;default:'{}'" json:"extra"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscription"
}

func (s *Subscription) Active() bool {
	return s != nil && s.Status == types.SubscriptionStatusActive
}
