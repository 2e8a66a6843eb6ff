package webhook

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/syedaatik8/LemmeWrite/pkg/types"
)

type paypalAmount struct {
	Total    string `json:"total"`
	Currency string `json:"currency"`
}

type paypalResource struct {
	ID                 string        `json:"id"`
	PlanID             string        `json:"plan_id"`
	CustomID           string        `json:"custom_id"`
	Custom             string        `json:"custom"`
	BillingAgreementID string        `json:"billing_agreement_id"`
	Amount             *paypalAmount `json:"amount"`
}

type paypalNotification struct {
	ID         string          `json:"id"`
	EventType  string          `json:"event_type"`
	CreateTime string          `json:"create_time"`
	Resource   *paypalResource `json:"resource"`
}

// PayPalParser parses PayPal webhook notifications. Subscription events carry
// the subscription id in resource.id; sale events carry the sale id there and
// the subscription id in resource.billing_agreement_id.
type PayPalParser struct{}

func NewPayPalParser() *PayPalParser { return &PayPalParser{} }

func (p *PayPalParser) Processor() types.PaymentProcessor {
	return types.PaymentProcessorPayPal
}

func (p *PayPalParser) Parse(body []byte) (*Event, error) {
	var n paypalNotification
	if err := json.Unmarshal(body, &n); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if n.EventType == "" {
		return nil, fmt.Errorf("%w: missing event_type", ErrMalformedEvent)
	}
	if n.Resource == nil {
		return nil, fmt.Errorf("%w: missing resource", ErrMalformedEvent)
	}

	ev := &Event{
		ID:         n.ID,
		Type:       n.EventType,
		PlanID:     n.Resource.PlanID,
		UserID:     n.Resource.CustomID,
		OccurredAt: time.Now(),
		Raw:        body,
	}
	if ev.UserID == "" {
		// Legacy sale payloads carry the passthrough field as "custom".
		ev.UserID = n.Resource.Custom
	}
	if n.CreateTime != "" {
		if t, err := time.Parse(time.RFC3339, n.CreateTime); err == nil {
			ev.OccurredAt = t
		}
	}

	if n.Resource.BillingAgreementID != "" {
		ev.SubscriptionID = n.Resource.BillingAgreementID
		ev.TransactionID = n.Resource.ID
	} else {
		ev.SubscriptionID = n.Resource.ID
	}

	if n.Resource.Amount != nil {
		ev.Currency = n.Resource.Amount.Currency
		if n.Resource.Amount.Total != "" {
			total, err := strconv.ParseFloat(n.Resource.Amount.Total, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: bad amount %q", ErrMalformedEvent, n.Resource.Amount.Total)
			}
			ev.PriceCents = int64(math.Round(total * 100))
		}
	}
	return ev, nil
}
