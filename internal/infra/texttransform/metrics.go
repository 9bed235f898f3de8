package texttransform

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsRecorder abstracts metrics emission so providers can be unit
// tested without a live Prometheus registry.
type MetricsRecorder interface {
	RecordOutputLength(length int)
	RecordDuration(provider string, d time.Duration)
	RecordError(provider string)
}

type prometheusMetrics struct {
	lengthHistogram   prometheus.Histogram
	durationHistogram *prometheus.HistogramVec
	errorCounter      *prometheus.CounterVec
}

var (
	promMetrics     *prometheusMetrics
	promMetricsOnce sync.Once
)

// NewPrometheusMetrics returns the process-wide singleton metrics recorder.
func NewPrometheusMetrics() MetricsRecorder {
	promMetricsOnce.Do(func() {
		promMetrics = &prometheusMetrics{
			lengthHistogram: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "texttransform_output_length_characters",
				Help:    "Distribution of text-transform output lengths in characters",
				Buckets: []float64{100, 300, 500, 700, 900, 1100, 1500, 2000},
			}),
			durationHistogram: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "texttransform_duration_seconds",
				Help:    "Time taken by a text-transform provider call",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
			}, []string{"provider"}),
			errorCounter: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "texttransform_errors_total",
				Help: "Total number of text-transform provider errors",
			}, []string{"provider"}),
		}
	})
	return promMetrics
}

func (p *prometheusMetrics) RecordOutputLength(length int) {
	p.lengthHistogram.Observe(float64(length))
}

func (p *prometheusMetrics) RecordDuration(provider string, d time.Duration) {
	p.durationHistogram.WithLabelValues(provider).Observe(d.Seconds())
}

func (p *prometheusMetrics) RecordError(provider string) {
	p.errorCounter.WithLabelValues(provider).Inc()
}
