package webhook

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the transport-level Prometheus metrics for the webhook
// endpoints. Ingest-level counters live in the service package.
type Metrics struct {
	Deliveries      *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	VerifyAttempts  *prometheus.CounterVec
}

// NewMetrics creates and registers all webhook metrics with the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Deliveries: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "channelgate",
				Name:      "webhook_deliveries_total",
				Help:      "Webhook deliveries received",
			},
			[]string{"provider", "outcome"}, // outcome=ok/malformed/rejected
		),
		RequestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "channelgate",
				Name:      "webhook_duration_seconds",
				Help:      "Webhook handling duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
		VerifyAttempts: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "channelgate",
				Name:      "webhook_verify_attempts_total",
				Help:      "Webhook verification handshakes",
			},
			[]string{"provider", "outcome"}, // outcome=ok/denied
		),
	}
}
