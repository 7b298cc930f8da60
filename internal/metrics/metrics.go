// Package metrics exposes Prometheus instruments for the transformation pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"channelapi/internal/model"
)

// Recorder receives the outcome of every transformation attempt.
type Recorder interface {
	ObserveTransform(source, target model.Format, status model.TransformationStatus, elapsed time.Duration)
}

// TransformMetrics records transformation counts and latency.
type TransformMetrics struct {
	transforms *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewTransformMetrics creates the instruments and registers them on reg.
func NewTransformMetrics(reg prometheus.Registerer) (*TransformMetrics, error) {
	m := &TransformMetrics{
		transforms: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transforms_total",
				Help: "Total number of document transformations by outcome.",
			},
			[]string{"source_format", "target_format", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "transform_duration_seconds",
				Help:    "Time spent parsing, mapping and rendering a document.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source_format", "target_format"},
		),
	}

	if err := reg.Register(m.transforms); err != nil {
		return nil, err
	}
	if err := reg.Register(m.duration); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *TransformMetrics) ObserveTransform(source, target model.Format, status model.TransformationStatus, elapsed time.Duration) {
	m.transforms.WithLabelValues(string(source), string(target), string(status)).Inc()
	m.duration.WithLabelValues(string(source), string(target)).Observe(elapsed.Seconds())
}

// Noop discards every observation.
type Noop struct{}

func (Noop) ObserveTransform(model.Format, model.Format, model.TransformationStatus, time.Duration) {}
