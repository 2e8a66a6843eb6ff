package models

import (
	"time"
)

// AccountBalance is one row per user, owned exclusively by the points ledger.
// It is created lazily on first credit or first read and mutated only through
// the credit operation; consumption happens elsewhere.
type AccountBalance struct {
	UserID string `gorm:"column:user_id;type:varchar(64);primary_key" json:"user_id"`
	// PointsRemaining is never negative; credits only add.
	PointsRemaining int64 `gorm:"column:points_remaining;type:bigint;not null;default:0" json:"points_remaining"`
	// PointsTotal is a monotonically non-decreasing high-water mark of the
	// lifetime allocation, used only for display.
	PointsTotal int64 `gorm:"column:points_total;type:bigint;not null;default:0" json:"points_total"`
	// LastReset is the time of the most recent credit.
	LastReset *time.Time `gorm:"column:last_reset;default:null" json:"last_reset"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (AccountBalance) TableName() string {
	return "account_balance"
}
