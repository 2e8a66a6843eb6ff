package types

type PaymentProcessor string

const (
	PaymentProcessorPayPal PaymentProcessor = "paypal"
	PaymentProcessorInner  PaymentProcessor = "inner"
)

type PlanType string

const (
	PlanTypeFree       PlanType = "free"
	PlanTypePro        PlanType = "pro"
	PlanTypeBusiness   PlanType = "business"
	PlanTypeEnterprise PlanType = "enterprise"
)

type SubscriptionStatus string

const (
	SubscriptionStatusCreated   SubscriptionStatus = "created"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusSuspended SubscriptionStatus = "suspended"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
)

// Terminal reports whether no further status transitions are allowed.
func (s SubscriptionStatus) Terminal() bool {
	return s == SubscriptionStatusCancelled || s == SubscriptionStatusExpired
}

// Plan maps a payment processor's plan id to an internal plan tier and its
// monthly point allocation. The catalog lives in configuration, not code.
type Plan struct {
	ExternalID      string   `json:"external_id" mapstructure:"external_id"`
	Type            PlanType `json:"type" mapstructure:"type"`
	DisplayName     string   `json:"display_name" mapstructure:"display_name"`
	PointAllocation int64    `json:"point_allocation" mapstructure:"point_allocation"`
	PriceCents      int64    `json:"price_cents" mapstructure:"price_cents"`
	Currency        string   `json:"currency" mapstructure:"currency"`
}
