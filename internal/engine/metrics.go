package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"transformer/types"
)

// Metrics records run and transform statistics. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	RowsProcessed    *prometheus.CounterVec
	RunDuration      *prometheus.HistogramVec
	CellsUnavailable *prometheus.CounterVec
	TransformLatency *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RowsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "transformer",
			Name:      "rows_processed_total",
			Help:      "Rows with every transform applied, by mode.",
		}, []string{"mode"}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "transformer",
			Name:      "run_duration_seconds",
			Help:      "Wall time of a complete run, by mode.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"mode"}),
		CellsUnavailable: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "transformer",
			Name:      "cells_unavailable_total",
			Help:      "Derived cells written as not available, by column.",
		}, []string{"column"}),
		TransformLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "transformer",
			Name:      "transform_duration_seconds",
			Help:      "Time spent evaluating one transform for one row.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}, []string{"column"}),
	}
	reg.MustRegister(m.RowsProcessed, m.RunDuration, m.CellsUnavailable, m.TransformLatency)
	return m
}

// Observe implements transform.Observer.
func (m *Metrics) Observe(column string, v types.Value, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.TransformLatency.WithLabelValues(column).Observe(elapsed.Seconds())
	if !v.Valid {
		m.CellsUnavailable.WithLabelValues(column).Inc()
	}
}

func (m *Metrics) rowDone(mode Mode) {
	if m == nil {
		return
	}
	m.RowsProcessed.WithLabelValues(string(mode)).Inc()
}

func (m *Metrics) runDone(mode Mode, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RunDuration.WithLabelValues(string(mode)).Observe(elapsed.Seconds())
}
