package models

import (
	"time"

	"gorm.io/datatypes"
)

type WebhookEventLogStatus string

const (
	WebhookEventLogStatusReceived     WebhookEventLogStatus = "received"
	WebhookEventLogStatusHandled      WebhookEventLogStatus = "handled"
	WebhookEventLogStatusHandleFailed WebhookEventLogStatus = "handle_failed"
)

// WebhookEventLog is the append-only record of every processor notification,
// written once on receipt and once with the handling outcome.
type WebhookEventLog struct {
	ID             string                `gorm:"column:id;type:uuid;primary_key" json:"id"`
	Processor      string                `gorm:"column:processor;type:varchar(32);not null" json:"processor"`
	EventID        string                `gorm:"column:event_id;type:varchar(128)" json:"event_id"`
	EventType      string                `gorm:"column:event_type;type:varchar(128)" json:"event_type"`
	UserID         *string               `gorm:"column:user_id;type:varchar(64)" json:"user_id"`
	SubscriptionID string                `gorm:"column:subscription_id;type:varchar(128)" json:"subscription_id"`
	TraceID        string                `gorm:"column:trace_id;type:varchar(128)" json:"trace_id"`
	Data           datatypes.JSON        `gorm:"column:data;type:jsonb" json:"data"`
	Result         *datatypes.JSON       `gorm:"column:result;type:jsonb" json:"result"`
	Status         WebhookEventLogStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

func (WebhookEventLog) TableName() string { return "webhook_event_log" }
