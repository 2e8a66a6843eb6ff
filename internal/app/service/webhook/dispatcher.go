package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/syedaatik8/LemmeWrite/internal/app/service/ledger"
	"github.com/syedaatik8/LemmeWrite/internal/models"
	"github.com/syedaatik8/LemmeWrite/pkg/config"
	"github.com/syedaatik8/LemmeWrite/pkg/logctx"
	"github.com/syedaatik8/LemmeWrite/pkg/metrics"
	"github.com/syedaatik8/LemmeWrite/pkg/types"
)

// Ledger is the credit operation the dispatcher drives.
type Ledger interface {
	Credit(ctx context.Context, req *ledger.CreditRequest) (*ledger.CreditResult, error)
}

// Subscriptions is the subscription-state surface the dispatcher drives.
type Subscriptions interface {
	Upsert(ctx context.Context, userID, externalID string, plan types.PlanType, reason string) (*models.Subscription, error)
	Transition(ctx context.Context, externalID string, to types.SubscriptionStatus, at time.Time, reason string) (*models.Subscription, bool, error)
	FindByExternalID(ctx context.Context, externalID string) (*models.Subscription, error)
}

// EventRecorder persists the webhook event audit trail.
type EventRecorder interface {
	Save(ctx context.Context, entry *models.WebhookEventLog)
}

// Dispatcher maps processor events to subscription transitions and ledger
// credits. Delivery is at-least-once and unordered; every branch is written
// to tolerate duplicates and stale events.
type Dispatcher struct {
	cfg     *config.Config
	ledger  Ledger
	subs    Subscriptions
	events  EventRecorder
	Logger  *zap.SugaredLogger
	parsers map[types.PaymentProcessor]Parser
}

func NewDispatcher(cfg *config.Config, led Ledger, subs Subscriptions, events EventRecorder, log *zap.SugaredLogger) *Dispatcher {
	return &Dispatcher{
		cfg:    cfg,
		ledger: led,
		subs:   subs,
		events: events,
		Logger: log,
		parsers: map[types.PaymentProcessor]Parser{
			types.PaymentProcessorPayPal: NewPayPalParser(),
		},
	}
}

// HandleNotification parses and dispatches one raw notification. A nil return
// means the sender should get a 2xx, including for suppressed duplicates and
// unknown event types. ErrMalformedEvent means reject outright; anything else
// is transient and the sender should redeliver.
func (d *Dispatcher) HandleNotification(ctx context.Context, processor types.PaymentProcessor, body []byte, traceID string) (resErr error) {
	parser, ok := d.parsers[processor]
	if !ok {
		return fmt.Errorf("%w: unsupported processor %s", ErrMalformedEvent, processor)
	}

	ev, err := parser.Parse(body)
	if err != nil {
		metrics.WebhookEvents.WithLabelValues("unparseable", "rejected").Inc()
		return err
	}

	d.events.Save(ctx, &models.WebhookEventLog{
		Processor:      string(processor),
		EventID:        ev.ID,
		EventType:      ev.Type,
		UserID:         userIDPtr(ev.UserID),
		SubscriptionID: ev.SubscriptionID,
		TraceID:        traceID,
		Data:           datatypes.JSON(ev.Raw),
		Status:         models.WebhookEventLogStatusReceived,
	})

	defer func() {
		resMap := map[string]any{}
		status := models.WebhookEventLogStatusHandled
		outcome := "handled"
		if resErr != nil {
			resMap["error"] = resErr.Error()
			status = models.WebhookEventLogStatusHandleFailed
			outcome = "failed"
		}
		resBytes, _ := json.Marshal(resMap)
		d.events.Save(ctx, &models.WebhookEventLog{
			Processor:      string(processor),
			EventID:        ev.ID,
			EventType:      ev.Type,
			UserID:         userIDPtr(ev.UserID),
			SubscriptionID: ev.SubscriptionID,
			TraceID:        traceID,
			Data:           datatypes.JSON(ev.Raw),
			Result:         lo.ToPtr(datatypes.JSON(resBytes)),
			Status:         status,
		})
		metrics.WebhookEvents.WithLabelValues(ev.Type, outcome).Inc()
	}()

	resErr = d.dispatch(ctx, ev)
	return resErr
}

func (d *Dispatcher) dispatch(ctx context.Context, ev *Event) error {
	log := logctx.FromCtx(ctx, d.Logger)

	switch ev.Type {
	case EventSubscriptionCreated:
		if ev.SubscriptionID == "" || ev.UserID == "" {
			return fmt.Errorf("%w: created event missing subscription or user id", ErrMalformedEvent)
		}
		plan := d.resolvePlan(ctx, ev.PlanID)
		_, err := d.subs.Upsert(ctx, ev.UserID, ev.SubscriptionID, plan.Type, ev.Type)
		return err

	case EventSubscriptionActivated:
		if ev.SubscriptionID == "" {
			return fmt.Errorf("%w: activated event missing subscription id", ErrMalformedEvent)
		}
		sub, _, err := d.subs.Transition(ctx, ev.SubscriptionID, types.SubscriptionStatusActive, ev.OccurredAt, ev.Type)
		if err != nil {
			return err
		}
		userID, plan := d.creditTarget(ctx, ev, sub)
		if userID == "" {
			return fmt.Errorf("%w: activated event for unknown subscription %s with no user id", ErrMalformedEvent, ev.SubscriptionID)
		}
		// The subscription id is a stable key across redeliveries of the
		// activation; the first payment arrives separately with its own sale id.
		_, err = d.ledger.Credit(ctx, &ledger.CreditRequest{
			UserID:          userID,
			Amount:          plan.PointAllocation,
			ExternalEventID: ev.SubscriptionID,
			Kind:            types.EventKindActivation,
			Currency:        creditCurrency(ev, plan),
			PriceCents:      ev.PriceCents,
		})
		return err

	case EventPaymentCompleted:
		if ev.TransactionID == "" {
			return fmt.Errorf("%w: payment event missing transaction id", ErrMalformedEvent)
		}
		sub, err := d.subs.FindByExternalID(ctx, ev.SubscriptionID)
		if err != nil {
			return err
		}
		if sub != nil && sub.Status.Terminal() {
			log.Warnw("payment_for_terminal_subscription_skipped",
				"subscription_id", ev.SubscriptionID, "status", sub.Status, "transaction_id", ev.TransactionID)
			return nil
		}
		userID, plan := d.creditTarget(ctx, ev, sub)
		if userID == "" {
			return fmt.Errorf("%w: payment event for unknown subscription %s with no user id", ErrMalformedEvent, ev.SubscriptionID)
		}
		// Keyed by the sale id, not the subscription id: each billing cycle
		// has its own sale, so recurring credits are never suppressed as
		// duplicates of the activation credit.
		_, err = d.ledger.Credit(ctx, &ledger.CreditRequest{
			UserID:          userID,
			Amount:          plan.PointAllocation,
			ExternalEventID: ev.TransactionID,
			Kind:            types.EventKindPayment,
			Currency:        creditCurrency(ev, plan),
			PriceCents:      ev.PriceCents,
		})
		return err

	case EventSubscriptionCancelled:
		return d.transitionOnly(ctx, ev, types.SubscriptionStatusCancelled)

	case EventSubscriptionSuspended:
		return d.transitionOnly(ctx, ev, types.SubscriptionStatusSuspended)

	case EventSubscriptionExpired:
		return d.transitionOnly(ctx, ev, types.SubscriptionStatusExpired)

	case EventPaymentFailed:
		// Recorded by the event log; no ledger interaction and no status
		// change on its own.
		log.Warnw("payment_failed_event", "subscription_id", ev.SubscriptionID, "event_id", ev.ID)
		return nil

	default:
		log.Infow("webhook_event_ignored", "event_type", ev.Type, "event_id", ev.ID)
		return nil
	}
}

func (d *Dispatcher) transitionOnly(ctx context.Context, ev *Event, to types.SubscriptionStatus) error {
	if ev.SubscriptionID == "" {
		return fmt.Errorf("%w: %s event missing subscription id", ErrMalformedEvent, ev.Type)
	}
	_, _, err := d.subs.Transition(ctx, ev.SubscriptionID, to, ev.OccurredAt, ev.Type)
	return err
}

// creditTarget resolves who gets the credit and at which plan's allocation.
// The subscription record wins; the event's custom user field and the default
// plan cover out-of-order deliveries that beat the created event.
func (d *Dispatcher) creditTarget(ctx context.Context, ev *Event, sub *models.Subscription) (string, *types.Plan) {
	if sub != nil {
		plan := d.cfg.PlanByType(sub.PlanType)
		if plan == nil {
			logctx.FromCtx(ctx, d.Logger).Warnw("plan_type_not_in_catalog_using_default",
				"plan_type", sub.PlanType, "subscription_id", sub.ExternalSubscriptionID)
			plan = d.cfg.DefaultPlan()
		}
		return sub.UserID, plan
	}
	if ev.UserID != "" {
		logctx.FromCtx(ctx, d.Logger).Warnw("credit_for_unknown_subscription_using_default_plan",
			"subscription_id", ev.SubscriptionID, "user_id", ev.UserID)
		return ev.UserID, d.cfg.DefaultPlan()
	}
	return "", nil
}

func (d *Dispatcher) resolvePlan(ctx context.Context, planID string) *types.Plan {
	if plan := d.cfg.PlanByExternalID(planID); plan != nil {
		return plan
	}
	logctx.FromCtx(ctx, d.Logger).Warnw("unknown_plan_id_using_default", "plan_id", planID)
	return d.cfg.DefaultPlan()
}

func creditCurrency(ev *Event, plan *types.Plan) string {
	if ev.Currency != "" {
		return ev.Currency
	}
	if plan.Currency != "" {
		return plan.Currency
	}
	return "USD"
}

func userIDPtr(id string) *string {
	if id == "" {
		return nil
	}
	return lo.ToPtr(id)
}
