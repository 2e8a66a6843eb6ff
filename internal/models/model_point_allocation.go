package models

import (
	"time"

	"github.com/syedaatik8/LemmeWrite/pkg/types"
)

// PointAllocation is the append-only audit log of the points ledger: one row
// per successful credit. For a given (user_id, external_event_id) pair at most
// one row may exist whose kind is in types.CountedAllocationKinds; the ledger
// enforces this under its keyed lock. Rows are never updated, and deleted only
// by the administrative cleanup of legacy duplicates.
type PointAllocation struct {
	ID     string `gorm:"column:id;type:uuid;primary_key" json:"id"`
	UserID string `gorm:"column:user_id;type:varchar(64);not null;index:idx_user_event,priority:1" json:"user_id"`
	// ExternalEventID is the processor's subscription or transaction id. It is
	// unique per user only, not globally.
	ExternalEventID string          `gorm:"column:external_event_id;type:varchar(128);not null;index:idx_user_event,priority:2" json:"external_event_id"`
	EventKind       types.EventKind `gorm:"column:event_kind;type:varchar(32);not null" json:"event_kind"`
	AmountCredited  int64           `gorm:"column:amount_credited;type:bigint;not null" json:"amount_credited"`
	Currency        string          `gorm:"column:currency;type:varchar(8);not null" json:"currency"`
	// PriceCents is the money amount of the triggering billing event, kept for
	// display alongside the points credited.
	PriceCents int64     `gorm:"column:price_cents;type:bigint;not null;default:0" json:"price_cents"`
	CreatedAt  time.Time `json:"created_at"`
}

func (PointAllocation) TableName() string {
	return "point_allocation"
}
