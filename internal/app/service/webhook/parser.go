package webhook

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/syedaatik8/LemmeWrite/pkg/types"
)

// Processor event types this receiver understands. Anything else is logged
// and acknowledged without action; the sender retries on non-2xx, so an
// unknown type must never fail the request.
const (
	EventSubscriptionCreated   = "BILLING.SUBSCRIPTION.CREATED"
	EventSubscriptionActivated = "BILLING.SUBSCRIPTION.ACTIVATED"
	EventSubscriptionCancelled = "BILLING.SUBSCRIPTION.CANCELLED"
	EventSubscriptionSuspended = "BILLING.SUBSCRIPTION.SUSPENDED"
	EventSubscriptionExpired   = "BILLING.SUBSCRIPTION.EXPIRED"
	EventPaymentCompleted      = "PAYMENT.SALE.COMPLETED"
	EventPaymentFailed         = "BILLING.SUBSCRIPTION.PAYMENT.FAILED"
)

// ErrMalformedEvent marks a payload that cannot be processed safely: without
// its correlating ids the idempotency key cannot be formed, so the only safe
// answer is outright rejection, never a guess.
var ErrMalformedEvent = errors.New("malformed webhook event")

// Event is the processor-neutral view of one notification.
type Event struct {
	ID   string
	Type string
	// SubscriptionID is the processor's subscription identifier.
	SubscriptionID string
	// TransactionID is the processor's payment/sale identifier, set on
	// payment events. It is unique per billing cycle, which makes it the
	// idempotency key for recurring credits.
	TransactionID string
	// PlanID is the processor's plan identifier, set on created events.
	PlanID string
	// UserID is the application user carried in the processor's custom field.
	UserID     string
	PriceCents int64
	Currency   string
	OccurredAt time.Time
	Raw        json.RawMessage
}

// Parser turns one processor's wire payload into an Event.
type Parser interface {
	Processor() types.PaymentProcessor
	Parse(body []byte) (*Event, error)
}
