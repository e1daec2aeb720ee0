package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus metrics
type Metrics struct {
	FeedFetches         *prometheus.CounterVec
	FeedEvents          prometheus.Gauge
	StatusTransitions   *prometheus.CounterVec
	ReconcileTime       prometheus.Histogram
	ConfirmationFailure prometheus.Counter
	EmailsSent          prometheus.Counter
	ErrorsCount         *prometheus.CounterVec
}

// NewMetrics creates new prometheus metrics on the default registry
func NewMetrics(namespace string) *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer, namespace)
}

// NewMetricsWith registers the metrics on reg; tests pass a fresh prometheus.NewRegistry()
func NewMetricsWith(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		FeedFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calendar_feed_fetches_total",
			Help:      "The total number of calendar feed lookups by result",
		}, []string{"result"}),
		FeedEvents: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "calendar_feed_events",
			Help:      "Number of upcoming events in the last parsed feed",
		}),
		StatusTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservation_transitions_total",
			Help:      "The total number of reservation status transitions",
		}, []string{"status"}),
		ReconcileTime: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reservation_reconcile_seconds",
			Help:      "Time taken to reconcile reservation statuses",
			Buckets:   prometheus.DefBuckets,
		}),
		ConfirmationFailure: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservation_confirmation_failures_total",
			Help:      "Pending reservations that could not be confirmed after email verification",
		}),
		EmailsSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_sent_total",
			Help:      "The total number of emails handed to the mail provider",
		}),
		ErrorsCount: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "The total number of errors",
		}, []string{"operation"}),
	}
}
