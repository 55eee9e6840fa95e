package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	rowsLoaded     prometheus.Counter
	rowsDropped    *prometheus.CounterVec
	stageDuration  *prometheus.HistogramVec
	lastDelta      prometheus.Gauge
	lastConfidence prometheus.Gauge
	exportsTotal   *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		rowsLoaded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "brentshift_rows_loaded_total",
			Help: "Total number of valid price rows loaded",
		}),
		rowsDropped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brentshift_rows_dropped_total",
				Help: "Total number of input rows dropped during parsing",
			},
			[]string{"reason"},
		),
		stageDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "brentshift_stage_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
			},
			[]string{"stage"},
		),
		lastDelta: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "brentshift_last_delta",
			Help: "Delta of the most recently detected change point",
		}),
		lastConfidence: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "brentshift_last_confidence",
			Help: "Posterior concentration of the most recent change point",
		}),
		exportsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brentshift_exports_total",
				Help: "Total number of detected-event exports per backend",
			},
			[]string{"backend"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brentshift_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
	}
}

// RecordRowsLoaded records the number of valid rows in a loaded series.
func (r *Recorder) RecordRowsLoaded(n int) {
	r.rowsLoaded.Add(float64(n))
}

// RecordRowsDropped records rows discarded during parsing.
func (r *Recorder) RecordRowsDropped(reason string, n int) {
	r.rowsDropped.WithLabelValues(reason).Add(float64(n))
}

// RecordStageDuration records the wall-clock time of one pipeline stage.
func (r *Recorder) RecordStageDuration(stage string, seconds float64) {
	r.stageDuration.WithLabelValues(stage).Observe(seconds)
}

// RecordDetection records the headline figures of the latest run.
func (r *Recorder) RecordDetection(delta, confidence float64) {
	r.lastDelta.Set(delta)
	r.lastConfidence.Set(confidence)
}

// RecordExport records a completed export.
func (r *Recorder) RecordExport(backend string) {
	r.exportsTotal.WithLabelValues(backend).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}
