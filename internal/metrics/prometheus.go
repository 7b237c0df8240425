// Package metrics records refresh metrics with Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder records pipeline activity as Prometheus metrics.
type Recorder struct {
	refreshes  *prometheus.CounterVec
	skipped    *prometheus.CounterVec
	superseded prometheus.Counter
	lastValue  prometheus.Gauge
	latency    *prometheus.HistogramVec
}

// New creates a recorder registered with reg. Pass
// prometheus.DefaultRegisterer to expose it on the default /metrics handler.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		refreshes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nightscout_refreshes_total",
				Help: "Total number of refreshes by outcome",
			},
			[]string{"outcome"},
		),
		skipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nightscout_records_skipped_total",
				Help: "Feed records dropped during normalization",
			},
			[]string{"reason"},
		),
		superseded: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "nightscout_refreshes_superseded_total",
				Help: "Refreshes discarded because a newer one already published",
			},
		),
		lastValue: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "nightscout_last_glucose_mgdl",
				Help: "Most recent glucose value in mg/dL",
			},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nightscout_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordRefresh counts a finished refresh.
func (r *Recorder) RecordRefresh(outcome string) {
	r.refreshes.WithLabelValues(outcome).Inc()
}

// RecordSkipped adds n skipped records for reason.
func (r *Recorder) RecordSkipped(reason string, n int) {
	if n <= 0 {
		return
	}
	r.skipped.WithLabelValues(reason).Add(float64(n))
}

func (r *Recorder) RecordSuperseded() {
	r.superseded.Inc()
}

func (r *Recorder) RecordLastGlucose(mgdl int) {
	r.lastValue.Set(float64(mgdl))
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
