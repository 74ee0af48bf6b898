package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeSkipped = "skipped"
)

// Metrics holds the Prometheus collectors for the reservation service.
type Metrics struct {
	Reservations     *prometheus.CounterVec
	UpstreamFailures *prometheus.CounterVec
	Notifications    *prometheus.CounterVec
	StoreEntries     prometheus.Gauge
	RequestDuration  *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg. Passing a fresh
// prometheus.NewRegistry() keeps tests independent of the default registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Reservations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "carrental_reservations_total",
			Help: "Reservations handled, by flow and outcome",
		}, []string{"flow", "outcome"}),
		UpstreamFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "carrental_upstream_failures_total",
			Help: "Failed calls to external services",
		}, []string{"service"}),
		Notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "carrental_notifications_total",
			Help: "Outbound notifications by channel and outcome",
		}, []string{"channel", "outcome"}),
		StoreEntries: factory.NewGauge(prometheus.GaugeOpts{
			Name: "carrental_store_entries",
			Help: "Reservations currently held in the store",
		}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "carrental_request_duration_seconds",
			Help:    "Latency of HTTP routes in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// NewNoop returns collectors bound to a private registry.
func NewNoop() *Metrics {
	return New(prometheus.NewRegistry())
}
