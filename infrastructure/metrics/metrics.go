// Package metrics provides Prometheus metrics for vocal isolation runs.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for one run
type Metrics struct {
	registry *prometheus.Registry

	StageDuration *prometheus.HistogramVec
	Segments      *prometheus.CounterVec
	Runs          *prometheus.CounterVec
	AudioSeconds  prometheus.Gauge
	Workers       prometheus.Gauge
}

// New creates metrics registered on a private registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "media_processor",
				Subsystem: "pipeline",
				Name:      "stage_duration_seconds",
				Help:      "Duration of each pipeline stage in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 900, 1800},
			},
			[]string{"stage"},
		),
		Segments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "media_processor",
				Subsystem: "segments",
				Name:      "total",
				Help:      "Segments processed by status",
			},
			[]string{"status"},
		),
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "media_processor",
				Subsystem: "pipeline",
				Name:      "runs_total",
				Help:      "Pipeline runs by result",
			},
			[]string{"result"},
		),
		AudioSeconds: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "media_processor",
				Subsystem: "pipeline",
				Name:      "audio_duration_seconds",
				Help:      "Duration of the extracted audio",
			},
		),
		Workers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "media_processor",
				Subsystem: "filter",
				Name:      "workers",
				Help:      "Concurrent filter workers",
			},
		),
	}

	m.registry.MustRegister(m.StageDuration, m.Segments, m.Runs, m.AudioSeconds, m.Workers)
	return m
}

// ObserveStage records how long a stage took
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// SegmentDone counts one segment with status "ok" or "failed"
func (m *Metrics) SegmentDone(ok bool) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "failed"
	}
	m.Segments.WithLabelValues(status).Inc()
}

// RunDone counts a finished pipeline run
func (m *Metrics) RunDone(err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.Runs.WithLabelValues(result).Inc()
}

// SetAudioDuration records the probed duration
func (m *Metrics) SetAudioDuration(seconds float64) {
	if m == nil {
		return
	}
	m.AudioSeconds.Set(seconds)
}

// SetWorkers records the filter pool size
func (m *Metrics) SetWorkers(n int) {
	if m == nil {
		return
	}
	m.Workers.Set(float64(n))
}

// Gatherer exposes the registry (for tests and exporters)
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteTextfile writes the metrics in the node_exporter textfile format
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
