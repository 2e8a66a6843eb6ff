package webhook

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/syedaatik8/LemmeWrite/pkg/types"
)

func TestPayPalParser_SubscriptionEvent(t *testing.T) {
	body := []byte(`{
		"id": "WH-1",
		"event_type": "BILLING.SUBSCRIPTION.ACTIVATED",
		"create_time": "2026-01-15T10:30:00Z",
		"resource": {
			"id": "I-SUB123",
			"plan_id": "P-PRO",
			"custom_id": "user-42"
		}
	}`)

	ev, err := NewPayPalParser().Parse(body)
	require.NoError(t, err)
	require.Equal(t, "WH-1", ev.ID)
	require.Equal(t, EventSubscriptionActivated, ev.Type)
	require.Equal(t, "I-SUB123", ev.SubscriptionID)
	require.Empty(t, ev.TransactionID)
	require.Equal(t, "P-PRO", ev.PlanID)
	require.Equal(t, "user-42", ev.UserID)
	require.Equal(t, time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC), ev.OccurredAt.UTC())
}

func TestPayPalParser_SaleEvent(t *testing.T) {
	body := []byte(`{
		"id": "WH-2",
		"event_type": "PAYMENT.SALE.COMPLETED",
		"resource": {
			"id": "SALE-789",
			"billing_agreement_id": "I-SUB123",
			"custom": "user-42",
			"amount": {"total": "19.99", "currency": "USD"}
		}
	}`)

	ev, err := NewPayPalParser().Parse(body)
	require.NoError(t, err)
	require.Equal(t, EventPaymentCompleted, ev.Type)
	require.Equal(t, "I-SUB123", ev.SubscriptionID)
	require.Equal(t, "SALE-789", ev.TransactionID)
	require.Equal(t, "user-42", ev.UserID)
	require.Equal(t, int64(1999), ev.PriceCents)
	require.Equal(t, "USD", ev.Currency)
}

func TestPayPalParser_Malformed(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"not json", `{{`},
		{"missing event_type", `{"id": "WH-1", "resource": {"id": "I-1"}}`},
		{"missing resource", `{"id": "WH-1", "event_type": "BILLING.SUBSCRIPTION.ACTIVATED"}`},
		{"bad amount", `{"event_type": "PAYMENT.SALE.COMPLETED", "resource": {"id": "S-1", "amount": {"total": "abc"}}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewPayPalParser().Parse([]byte(tc.body))
			require.ErrorIs(t, err, ErrMalformedEvent)
		})
	}
}

func TestPayPalParser_Processor(t *testing.T) {
	require.Equal(t, types.PaymentProcessorPayPal, NewPayPalParser().Processor())
}
