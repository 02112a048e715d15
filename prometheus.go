package bowgo

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements MetricsCollector on top of Prometheus
// counters and histograms.
type PrometheusCollector struct {
	ops       *prometheus.CounterVec
	errors    *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

// Ensure PrometheusCollector implements MetricsCollector
var _ MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheusCollector creates a collector and registers its metrics with
// reg. Pass prometheus.DefaultRegisterer to use the default registry.
func NewPrometheusCollector(reg prometheus.Registerer) (*PrometheusCollector, error) {
	c := &PrometheusCollector{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bowgo",
			Name:      "operations_total",
			Help:      "Total number of operations by type.",
		}, []string{"op"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bowgo",
			Name:      "operation_errors_total",
			Help:      "Total number of failed operations by type.",
		}, []string{"op"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bowgo",
			Name:      "operation_duration_seconds",
			Help:      "Operation latency by type.",
			Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 12),
		}, []string{"op"}),
	}

	for _, col := range []prometheus.Collector{c.ops, c.errors, c.durations} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *PrometheusCollector) record(op string, duration time.Duration, err error) {
	c.ops.WithLabelValues(op).Inc()
	c.durations.WithLabelValues(op).Observe(duration.Seconds())
	if err != nil {
		c.errors.WithLabelValues(op).Inc()
	}
}

// RecordTrain implements MetricsCollector.
func (c *PrometheusCollector) RecordTrain(duration time.Duration, err error) {
	c.record("train", duration, err)
}

// RecordAdd implements MetricsCollector.
func (c *PrometheusCollector) RecordAdd(duration time.Duration, err error) {
	c.record("add", duration, err)
}

// RecordQuery implements MetricsCollector.
func (c *PrometheusCollector) RecordQuery(topN int, duration time.Duration, err error) {
	c.record("query", duration, err)
}

// RecordSnapshot implements MetricsCollector.
func (c *PrometheusCollector) RecordSnapshot(duration time.Duration, err error) {
	c.record("snapshot", duration, err)
}
