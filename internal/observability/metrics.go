package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// observation mapping pipeline.
type Metrics struct {
	RecordsRead        prometheus.Counter
	RecordsRejected    prometheus.Counter
	ProjectionFailures prometheus.Counter
	DescriptorsBuilt   prometheus.Counter
	PipelineRunning    prometheus.Gauge

	RunDuration prometheus.Histogram

	// Render target metrics.
	RenderOutcomes *prometheus.CounterVec   // labels: target, outcome={success,error}
	RenderDuration *prometheus.HistogramVec // labels: target

	// Place-name enrichment metrics.
	PlaceLookups *prometheus.CounterVec // labels: outcome={success,error,empty}
	PlaceCache   *prometheus.CounterVec // labels: result={hit,miss}
	PlaceEnabled prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RecordsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "obsmap",
			Name:      "records_read_total",
			Help:      "Total observation rows read from the source table.",
		}),
		RecordsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "obsmap",
			Name:      "records_rejected_total",
			Help:      "Rows dropped by coordinate validation.",
		}),
		ProjectionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "obsmap",
			Name:      "projection_failures_total",
			Help:      "Records whose coordinates fell outside the transform domain.",
		}),
		DescriptorsBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "obsmap",
			Name:      "descriptors_built_total",
			Help:      "Marker descriptors produced for rendering.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "obsmap",
			Name:      "pipeline_running",
			Help:      "1 while a pipeline run is active, 0 otherwise.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "obsmap",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete read-validate-reproject-build-render run.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		RenderOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "obsmap",
			Name:      "render_outcomes_total",
			Help:      "Render attempts by target and outcome.",
		}, []string{"target", "outcome"}),
		RenderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "obsmap",
			Name:      "render_duration_seconds",
			Help:      "Time spent handing descriptors to one render target.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		}, []string{"target"}),
		PlaceLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "obsmap",
			Name:      "place_lookups_total",
			Help:      "Reverse place-name lookups by outcome.",
		}, []string{"outcome"}),
		PlaceCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "obsmap",
			Name:      "place_cache_total",
			Help:      "Place-name cache lookups by result.",
		}, []string{"result"}),
		PlaceEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "obsmap",
			Name:      "place_enrichment_enabled",
			Help:      "1 when place-name enrichment is enabled, 0 otherwise.",
		}),
	}

	prometheus.MustRegister(
		m.RecordsRead,
		m.RecordsRejected,
		m.ProjectionFailures,
		m.DescriptorsBuilt,
		m.PipelineRunning,
		m.RunDuration,
		m.RenderOutcomes,
		m.RenderDuration,
		m.PlaceLookups,
		m.PlaceCache,
		m.PlaceEnabled,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RecordsRead:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "obsmap", Name: "records_read_total"}),
		RecordsRejected:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "obsmap", Name: "records_rejected_total"}),
		ProjectionFailures: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "obsmap", Name: "projection_failures_total"}),
		DescriptorsBuilt:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "obsmap", Name: "descriptors_built_total"}),
		PipelineRunning:    prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "obsmap", Name: "pipeline_running"}),
		RunDuration:        prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "obsmap", Name: "run_duration_seconds"}),
		RenderOutcomes:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "obsmap", Name: "render_outcomes_total"}, []string{"target", "outcome"}),
		RenderDuration:     prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "obsmap", Name: "render_duration_seconds"}, []string{"target"}),
		PlaceLookups:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "obsmap", Name: "place_lookups_total"}, []string{"outcome"}),
		PlaceCache:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "obsmap", Name: "place_cache_total"}, []string{"result"}),
		PlaceEnabled:       prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "obsmap", Name: "place_enrichment_enabled"}),
	}
}
