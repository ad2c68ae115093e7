package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ndx"

// Metrics groups the collectors shared by the API and the CLIs. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	loads           *prometheus.CounterVec
	refreshRuns     *prometheus.CounterVec
	refreshDuration prometheus.Histogram
	symbols         *prometheus.CounterVec
	upstreamRetries *prometheus.CounterVec
	ingestedBars    prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		loads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_loads_total",
			Help:      "Quote loads by the tier that served them.",
		}, []string{"source"}),
		refreshRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_runs_total",
			Help:      "Refresh runs by final status.",
		}, []string{"status"}),
		refreshDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Wall time of refresh runs.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300},
		}),
		symbols: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_symbols_total",
			Help:      "Symbols per refresh outcome.",
		}, []string{"outcome"}),
		upstreamRetries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_retries_total",
			Help:      "Upstream call retries by operation and failure kind.",
		}, []string{"op", "kind"}),
		ingestedBars: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingested_bars_total",
			Help:      "Daily bars inserted by historical ingestion.",
		}),
	}
}

func (m *Metrics) ObserveLoad(source string) {
	if m == nil {
		return
	}
	m.loads.WithLabelValues(source).Inc()
}

func (m *Metrics) ObserveRefresh(status string, seconds float64, refreshed, skipped, dropped int) {
	if m == nil {
		return
	}
	m.refreshRuns.WithLabelValues(status).Inc()
	m.refreshDuration.Observe(seconds)
	m.symbols.WithLabelValues("refreshed").Add(float64(refreshed))
	m.symbols.WithLabelValues("skipped").Add(float64(skipped))
	m.symbols.WithLabelValues("dropped").Add(float64(dropped))
}

func (m *Metrics) ObserveRetry(op, kind string) {
	if m == nil {
		return
	}
	m.upstreamRetries.WithLabelValues(op, kind).Inc()
}

func (m *Metrics) ObserveIngestedBars(n int) {
	if m == nil {
		return
	}
	m.ingestedBars.Add(float64(n))
}
