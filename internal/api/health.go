package api

import (
	"context"
	"time"

	"github.com/xthxr/DevAura/internal/ranking"
	"github.com/xthxr/DevAura/internal/resilience"
)

const (
	StatusOK        = "ok"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

const healthCheckTimeout = 2 * time.Second

// Checker is a dependency that can be pinged
type Checker interface {
	HealthCheck(ctx context.Context) error
}

// RankingState reports the rank index
type RankingState interface {
	Snapshot() ranking.Snapshot
}

// StatsSource is anything that reports a flat stats map
type StatsSource interface {
	Stats() map[string]interface{}
}

// HealthSources are the components /health reports on. Nil fields are
// omitted from the report.
type HealthSources struct {
	Database    Checker
	Redis       Checker
	Breakers    *resilience.CircuitBreakerRegistry
	Degradation *resilience.DegradationManager
	Ranking     RankingState
	Cache       StatsSource
	RateLimit   StatsSource
	Compression interface{ GetStats() map[string]interface{} }
}

// DependencyStatus is the state of one pinged dependency
type DependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// HealthReport is the /health payload
type HealthReport struct {
	Status       string                      `json:"status"`
	Timestamp    time.Time                   `json:"timestamp"`
	Version      string                      `json:"version"`
	Dependencies map[string]DependencyStatus `json:"dependencies"`
	Breakers     []resilience.BreakerStats   `json:"circuit_breakers,omitempty"`
	Sources      []resilience.ServiceHealth  `json:"sources,omitempty"`
	Ranking      *ranking.Snapshot           `json:"ranking,omitempty"`
	Stats        map[string]map[string]any   `json:"stats,omitempty"`
}

// HealthReporter assembles health reports
type HealthReporter struct {
	sources HealthSources
	version string
	now     func() time.Time
}

// NewHealthReporter creates a reporter over the given sources
func NewHealthReporter(sources HealthSources, version string) *HealthReporter {
	return &HealthReporter{sources: sources, version: version, now: time.Now}
}

// Report pings dependencies and collects component state. A failing
// database makes the service unhealthy; Redis failures and critical
// sources only degrade it since both have fallbacks.
func (h *HealthReporter) Report(ctx context.Context) HealthReport {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	report := HealthReport{
		Status:       StatusOK,
		Timestamp:    h.now().UTC(),
		Version:      h.version,
		Dependencies: make(map[string]DependencyStatus),
	}

	if h.sources.Database != nil {
		if err := h.sources.Database.HealthCheck(ctx); err != nil {
			report.Dependencies["database"] = DependencyStatus{Status: StatusUnhealthy, Error: err.Error()}
			report.Status = StatusUnhealthy
		} else {
			report.Dependencies["database"] = DependencyStatus{Status: StatusOK}
		}
	}

	if h.sources.Redis != nil {
		if err := h.sources.Redis.HealthCheck(ctx); err != nil {
			report.Dependencies["redis"] = DependencyStatus{Status: StatusDegraded, Error: err.Error()}
			report.degrade()
		} else {
			report.Dependencies["redis"] = DependencyStatus{Status: StatusOK}
		}
	}

	if h.sources.Breakers != nil {
		report.Breakers = h.sources.Breakers.Stats()
	}

	if h.sources.Degradation != nil {
		report.Sources = h.sources.Degradation.Health()
		for _, s := range report.Sources {
			if s.Level == resilience.LevelCritical.String() {
				report.degrade()
			}
		}
	}

	if h.sources.Ranking != nil {
		snap := h.sources.Ranking.Snapshot()
		report.Ranking = &snap
	}

	stats := make(map[string]map[string]any)
	if h.sources.Cache != nil {
		stats["cache"] = h.sources.Cache.Stats()
	}
	if h.sources.RateLimit != nil {
		stats["ratelimit"] = h.sources.RateLimit.Stats()
	}
	if h.sources.Compression != nil {
		stats["compression"] = h.sources.Compression.GetStats()
	}
	if len(stats) > 0 {
		report.Stats = stats
	}

	return report
}

func (r *HealthReport) degrade() {
	if r.Status == StatusOK {
		r.Status = StatusDegraded
	}
}
