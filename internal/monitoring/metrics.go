package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dai"

// Metrics holds the Prometheus collectors for the service. A nil *Metrics is
// valid and records nothing, so components can be built without one in tests.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec
	cacheErrors *prometheus.CounterVec

	providerCalls    *prometheus.CounterVec
	providerFailures *prometheus.CounterVec
	providerLatency  *prometheus.HistogramVec

	scoreComputations prometheus.Counter
	provisionalScores prometheus.Counter
	rankRebuilds      prometheus.Counter
	rankedUsers       prometheus.Gauge

	refreshTicks   prometheus.Counter
	refreshRecords prometheus.Counter

	rateLimitBlocks   prometheus.Counter
	rateLimitFallback prometheus.Counter
}

// NewMetrics registers all collectors on a dedicated registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		cacheHits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "hits_total",
			Help: "Cache hits by tier.",
		}, []string{"tier"}),
		cacheMisses: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "misses_total",
			Help: "Cache misses by tier.",
		}, []string{"tier"}),
		cacheErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "errors_total",
			Help: "Cache backend failures by operation.",
		}, []string{"operation"}),
		providerCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "provider", Name: "calls_total",
			Help: "Upstream provider calls.",
		}, []string{"provider"}),
		providerFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "provider", Name: "failures_total",
			Help: "Upstream provider calls that failed after retries.",
		}, []string{"provider"}),
		providerLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "provider", Name: "duration_seconds",
			Help:    "Upstream provider latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		scoreComputations: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "score", Name: "computations_total",
			Help: "Scores computed from fresh provider data.",
		}),
		provisionalScores: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "score", Name: "provisional_total",
			Help: "Scores computed with at least one defaulted source.",
		}),
		rankRebuilds: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "ranking", Name: "rebuilds_total",
			Help: "Full rank recomputations.",
		}),
		rankedUsers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "ranking", Name: "users",
			Help: "Users in the rank index.",
		}),
		refreshTicks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "refresh", Name: "ticks_total",
			Help: "Scheduler ticks.",
		}),
		refreshRecords: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "refresh", Name: "records_total",
			Help: "Stale records invalidated by the scheduler.",
		}),
		rateLimitBlocks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "ratelimit", Name: "blocks_total",
			Help: "Refresh requests rejected by the rate limiter.",
		}),
		rateLimitFallback: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "ratelimit", Name: "fallback_total",
			Help: "Rate limit checks served by the in-memory limiter after a Redis error.",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordRequest records one HTTP request
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// CacheHit increments the hit counter for a TTL tier
func (m *Metrics) CacheHit(tier string) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(tier).Inc()
}

// CacheMiss increments the miss counter for a TTL tier
func (m *Metrics) CacheMiss(tier string) {
	if m == nil {
		return
	}
	m.cacheMisses.WithLabelValues(tier).Inc()
}

// CacheError increments the backend failure counter
func (m *Metrics) CacheError(operation string) {
	if m == nil {
		return
	}
	m.cacheErrors.WithLabelValues(operation).Inc()
}

// RecordProviderCall records one upstream call and its outcome
func (m *Metrics) RecordProviderCall(provider string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.providerCalls.WithLabelValues(provider).Inc()
	m.providerLatency.WithLabelValues(provider).Observe(duration.Seconds())
	if err != nil {
		m.providerFailures.WithLabelValues(provider).Inc()
	}
}

// RecordScore counts a computed score
func (m *Metrics) RecordScore(provisional bool) {
	if m == nil {
		return
	}
	m.scoreComputations.Inc()
	if provisional {
		m.provisionalScores.Inc()
	}
}

// RecordRankRebuild counts a full recompute
func (m *Metrics) RecordRankRebuild(size int) {
	if m == nil {
		return
	}
	m.rankRebuilds.Inc()
	m.rankedUsers.Set(float64(size))
}

// SetRankedUsers reports the index size
func (m *Metrics) SetRankedUsers(size int) {
	if m == nil {
		return
	}
	m.rankedUsers.Set(float64(size))
}

// RecordRefreshTick counts a scheduler tick and the records it touched
func (m *Metrics) RecordRefreshTick(records int) {
	if m == nil {
		return
	}
	m.refreshTicks.Inc()
	m.refreshRecords.Add(float64(records))
}

// RecordRateLimitBlock counts a rejected refresh
func (m *Metrics) RecordRateLimitBlock() {
	if m == nil {
		return
	}
	m.rateLimitBlocks.Inc()
}

// RecordRateLimitFallback counts a check served by the in-memory limiter
func (m *Metrics) RecordRateLimitFallback() {
	if m == nil {
		return
	}
	m.rateLimitFallback.Inc()
}
