package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder counts ledger invocations and their latency by function and outcome.
type PrometheusRecorder struct {
	invocations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

func NewPrometheusRecorder(reg prometheus.Registerer) (*PrometheusRecorder, error) {
	r := &PrometheusRecorder{
		invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bloodbank",
			Subsystem: "ledger",
			Name:      "invocations_total",
			Help:      "Ledger invocations by function and outcome.",
		}, []string{"function", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bloodbank",
			Subsystem: "ledger",
			Name:      "invocation_duration_seconds",
			Help:      "Ledger invocation latency, including transaction retries.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"function"}),
	}

	for _, c := range []prometheus.Collector{r.invocations, r.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *PrometheusRecorder) Observe(ctx context.Context, function, outcome string, duration time.Duration) {
	r.invocations.WithLabelValues(function, outcome).Inc()
	r.duration.WithLabelValues(function).Observe(duration.Seconds())
}
