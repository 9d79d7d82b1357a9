package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "petstore_orders"

// Metrics holds the business counters of the order core.
type Metrics struct {
	Checkouts         *prometheus.CounterVec
	IdempotentReplays prometheus.Counter
	StatusTransitions *prometheus.CounterVec
	OrderValue        prometheus.Histogram
	EventsDropped     prometheus.Counter
	EventsPublished   *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_total",
			Help:      "Checkout attempts by result code.",
		}, []string{"result"}),
		IdempotentReplays: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "idempotent_replays_total",
			Help:      "Checkouts answered from a stored idempotency record.",
		}),
		StatusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_transitions_total",
			Help:      "Committed order status transitions.",
		}, []string{"from", "to"}),
		OrderValue: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "order_value",
			Help:      "Total amount of created orders.",
			Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}),
		EventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Order events dropped because the queue was full.",
		}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Order events handed to the publisher by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(m.Checkouts, m.IdempotentReplays, m.StatusTransitions, m.OrderValue, m.EventsDropped, m.EventsPublished)
	return m
}
