package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lemmewrite"

// Domain counters. Webhook redelivery makes request counts meaningless on
// their own; these track actual ledger and dispatch outcomes.
var (
	CreditsAllocated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ledger",
		Name:      "credits_allocated_total",
		Help:      "Point credits that incremented a balance.",
	}, []string{"kind"})

	CreditsSuppressed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ledger",
		Name:      "credits_suppressed_total",
		Help:      "Duplicate credit attempts suppressed by the idempotency check.",
	}, []string{"kind"})

	WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "webhook",
		Name:      "events_total",
		Help:      "Processor webhook events by type and handling outcome.",
	}, []string{"event_type", "outcome"})
)
