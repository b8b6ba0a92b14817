package metrics

import "github.com/prometheus/client_golang/prometheus"

// Webhook event outcomes as recorded by reconciliation.
const (
	OutcomeApplied   = "applied"
	OutcomeNoop      = "noop"
	OutcomeUnmatched = "unmatched"
	OutcomeIllegal   = "illegal"
	OutcomeError     = "error"
	OutcomeDuplicate = "duplicate"
	OutcomeIgnored   = "ignored"
)

// WebhookMetrics tracks payment webhook reconciliation outcomes plus the
// pending-order backlog gauge watched by alerting.
type WebhookMetrics struct {
	events  *prometheus.CounterVec
	pending prometheus.Gauge
}

// NewWebhookMetrics registers the webhook metrics on the provided registerer.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Processed Stripe webhook events by type and outcome.",
	}, []string{"type", "outcome"})
	pending := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pending_orders_without_session",
		Help: "Orders stuck in pending past the configured age with no checkout session attached.",
	})
	reg.MustRegister(events, pending)
	return &WebhookMetrics{
		events:  events,
		pending: pending,
	}
}

// IncEvent counts a processed webhook event.
func (w *WebhookMetrics) IncEvent(eventType, outcome string) {
	if w == nil || w.events == nil {
		return
	}
	if eventType == "" {
		eventType = "unknown"
	}
	w.events.WithLabelValues(eventType, outcome).Inc()
}

// SetPendingOrders records the current count of stale pending orders.
func (w *WebhookMetrics) SetPendingOrders(count float64) {
	if w == nil || w.pending == nil {
		return
	}
	w.pending.Set(count)
}
