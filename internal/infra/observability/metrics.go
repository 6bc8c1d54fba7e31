package observability

import (
	"time"

	"github.com/boddenberg/mint-dashboard-bfa/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// View outcomes recorded by IncrView.
const (
	OutcomeOK               = "ok"
	OutcomeUnauthenticated  = "unauthenticated"
	OutcomeAggregationError = "aggregation_error"
	// OutcomeDegraded is a view returned with at least one failed fetch.
	OutcomeDegraded = "degraded"
)

// Fetch sources, one per record table.
var fetchSources = []string{"balances", "transactions", "holdings", "credit_account", "credit_score_history", "goals", "profile"}

// Metrics holds all Prometheus metrics for the dashboard BFF.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	viewDuration *prometheus.HistogramVec
	fetchErrors  *prometheus.CounterVec
	cacheHits    *prometheus.CounterVec
	cacheMisses  *prometheus.CounterVec
	viewsTotal   *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		viewDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dashboard_view_duration_seconds",
				Help:    "Duration of view aggregation, fan-out included.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"view"},
		),
		fetchErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_fetch_errors_total",
				Help: "Record fetches that failed and were defaulted.",
			},
			[]string{"source"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_view_cache_hits_total",
				Help: "View-models served from the current slot.",
			},
			[]string{"view"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_view_cache_misses_total",
				Help: "View-models that had to be aggregated.",
			},
			[]string{"view"},
		),
		viewsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_views_total",
				Help: "View-models produced, by outcome.",
			},
			[]string{"view", "outcome"},
		),
	}
}

// RecordViewDuration records how long a view took to aggregate.
func (m *Metrics) RecordViewDuration(view domain.View, d time.Duration) {
	m.viewDuration.WithLabelValues(string(view)).Observe(d.Seconds())
}

// IncrFetchError counts a failed record fetch.
func (m *Metrics) IncrFetchError(source string) {
	m.fetchErrors.WithLabelValues(source).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(view domain.View) {
	m.cacheHits.WithLabelValues(string(view)).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(view domain.View) {
	m.cacheMisses.WithLabelValues(string(view)).Inc()
}

// IncrView counts a produced view-model.
func (m *Metrics) IncrView(view domain.View, outcome string) {
	m.viewsTotal.WithLabelValues(string(view), outcome).Inc()
}

var allViews = []domain.View{
	domain.ViewFinancialSummary,
	domain.ViewMintBalance,
	domain.ViewTransactions,
	domain.ViewCredit,
	domain.ViewInvestments,
	domain.ViewProfile,
}

// Snapshot summarizes the counters for GET /v1/metrics/views.
func (m *Metrics) Snapshot() *domain.ViewMetrics {
	var served, unauth, failed, degraded, hits, misses float64
	for _, v := range allViews {
		name := string(v)
		ok := counterValue(m.viewsTotal, name, OutcomeOK)
		u := counterValue(m.viewsTotal, name, OutcomeUnauthenticated)
		f := counterValue(m.viewsTotal, name, OutcomeAggregationError)
		d := counterValue(m.viewsTotal, name, OutcomeDegraded)
		served += ok + u + f + d
		unauth += u
		failed += f
		degraded += d
		hits += counterValue(m.cacheHits, name)
		misses += counterValue(m.cacheMisses, name)
	}

	fetchErrors := make(map[string]int64, len(fetchSources))
	for _, src := range fetchSources {
		fetchErrors[src] = int64(counterValue(m.fetchErrors, src))
	}

	hitRate := float64(0)
	if hits+misses > 0 {
		hitRate = hits / (hits + misses)
	}

	return &domain.ViewMetrics{
		ViewsServed:      int64(served),
		Unauthenticated:  int64(unauth),
		AggregationFails: int64(failed),
		Degraded:         int64(degraded),
		FetchErrors:      fetchErrors,
		CacheHitRate:     hitRate,
		Period:           "all_time",
	}
}

// counterValue extracts the current float64 value from a CounterVec.
func counterValue(cv *prometheus.CounterVec, labels ...string) float64 {
	counter := cv.WithLabelValues(labels...)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
