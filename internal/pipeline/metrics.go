// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "preprint_herald"

// Run results.
const (
	ResultSuccess = "success"
	ResultEmpty   = "empty"
	ResultFailed  = "failed"
)

// Item outcomes.
const (
	OutcomeNotified        = "notified"
	OutcomeSummarizeFailed = "summarize_failed"
	OutcomePersistFailed   = "persist_failed"
	OutcomeAlreadyPresent  = "already_present"
	OutcomeNotifyFailed    = "notify_failed"
	OutcomeDryRun          = "dry_run"
)

// Metrics holds the driver's Prometheus collectors.
type Metrics struct {
	RunsTotal          *prometheus.CounterVec
	ItemsTotal         *prometheus.CounterVec
	NovelItems         prometheus.Gauge
	RunDuration        prometheus.Histogram
	LastSuccessSeconds prometheus.Gauge
}

// NewMetrics creates and registers the driver metrics on reg. A nil reg
// selects the default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by result",
		}, []string{"result"}),
		ItemsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "items_total",
			Help:      "Novel records processed by outcome",
		}, []string{"outcome"}),
		NovelItems: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "novel_items",
			Help:      "Novel records found by the latest run",
		}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of pipeline runs",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		}),
		LastSuccessSeconds: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run that did not fail",
		}),
	}
}
