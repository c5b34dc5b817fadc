package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// scraping pipeline.
type Metrics struct {
	EventsScraped  *prometheus.CounterVec // labels: source
	EventsNew      *prometheus.CounterVec // labels: source
	EventsDupes    *prometheus.CounterVec // labels: source
	ItemFailures   *prometheus.CounterVec // labels: source
	SourceFailures *prometheus.CounterVec // labels: source
	RunRunning     prometheus.Gauge

	RunDuration prometheus.Histogram
	BatchSize   prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.EventsScraped,
		m.EventsNew,
		m.EventsDupes,
		m.ItemFailures,
		m.SourceFailures,
		m.RunRunning,
		m.RunDuration,
		m.BatchSize,
	)
	return m
}

// NewMetricsForTesting creates Metrics with unregistered collectors to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		EventsScraped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "markitit",
			Name:      "events_scraped_total",
			Help:      "Raw events extracted per source before normalization.",
		}, []string{"source"}),
		EventsNew: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "markitit",
			Name:      "events_new_total",
			Help:      "Events persisted as new per source.",
		}, []string{"source"}),
		EventsDupes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "markitit",
			Name:      "events_duplicate_total",
			Help:      "Events dropped as duplicates per source.",
		}, []string{"source"}),
		ItemFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "markitit",
			Name:      "item_failures_total",
			Help:      "Raw items dropped during normalization per source.",
		}, []string{"source"}),
		SourceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "markitit",
			Name:      "source_failures_total",
			Help:      "Adapter-level failures that zeroed a source's contribution.",
		}, []string{"source"}),
		RunRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "markitit",
			Name:      "run_running",
			Help:      "1 while a scraping run is active.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "markitit",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete scraping run.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "markitit",
			Name:      "batch_size",
			Help:      "Number of new events per batched write.",
			Buckets:   []float64{1, 5, 10, 20, 50, 100, 200},
		}),
	}
}
