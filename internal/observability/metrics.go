package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "energy_dashboard"

// Metrics holds the Prometheus collectors for the dashboard service.
type Metrics struct {
	ViewRequests *prometheus.CounterVec   // labels: view
	ViewCache    *prometheus.CounterVec   // labels: result={hit,miss}
	ViewDuration *prometheus.HistogramVec // labels: view

	// Asset snapshot.
	AssetsLoaded prometheus.Gauge
	DatasetRows  prometheus.Gauge
	AssetLoads   *prometheus.CounterVec // labels: outcome={success,error}

	// Remote prediction.
	Predictions        *prometheus.CounterVec // labels: outcome={success,invalid,error}
	PredictionDuration prometheus.Histogram
	PredictionEnabled  prometheus.Gauge
	EventsPublished    *prometheus.CounterVec // labels: outcome={success,error}
}

// NewMetrics creates and registers all dashboard metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ViewRequests,
		m.ViewCache,
		m.ViewDuration,
		m.AssetsLoaded,
		m.DatasetRows,
		m.AssetLoads,
		m.Predictions,
		m.PredictionDuration,
		m.PredictionEnabled,
		m.EventsPublished,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid "already
// registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ViewRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "view_requests_total",
			Help:      "Derived view computations requested, by view.",
		}, []string{"view"}),
		ViewCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "view_cache_total",
			Help:      "Memoised view lookups by result.",
		}, []string{"result"}),
		ViewDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "view_duration_seconds",
			Help:      "Time to compute a derived view on a cache miss.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}, []string{"view"}),
		AssetsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "assets_loaded",
			Help:      "1 when an asset snapshot is being served, 0 otherwise.",
		}),
		DatasetRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_rows",
			Help:      "Rows in the served dataset.",
		}),
		AssetLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "asset_loads_total",
			Help:      "Asset load attempts by outcome.",
		}, []string{"outcome"}),
		Predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Prediction submissions by outcome.",
		}, []string{"outcome"}),
		PredictionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "prediction_duration_seconds",
			Help:      "Remote prediction request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		PredictionEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "prediction_enabled",
			Help:      "1 when the remote prediction endpoint is configured, 0 otherwise.",
		}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prediction_events_total",
			Help:      "Prediction events published to Kafka by outcome.",
		}, []string{"outcome"}),
	}
}
