package resilience

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

// DegradationLevel represents the current degradation state of a source
type DegradationLevel int

const (
	LevelNormal DegradationLevel = iota
	LevelDegraded
	LevelCritical
)

func (l DegradationLevel) String() string {
	switch l {
	case LevelNormal:
		return "normal"
	case LevelDegraded:
		return "degraded"
	case LevelCritical:
		return "critical"
	}
	return "unknown"
}

// DegradationConfig holds the error-rate thresholds
type DegradationConfig struct {
	DegradedThreshold float64 `json:"degraded_threshold"`
	CriticalThreshold float64 `json:"critical_threshold"`
	// Window is how long outcomes count towards the error rate.
	Window time.Duration `json:"window"`
}

// DefaultDegradationConfig returns sensible defaults
func DefaultDegradationConfig() DegradationConfig {
	return DegradationConfig{
		DegradedThreshold: 0.1,
		CriticalThreshold: 0.5,
		Window:            5 * time.Minute,
	}
}

// ServiceHealth is the health view of one scoring source
type ServiceHealth struct {
	ServiceName   string    `json:"service_name"`
	Level         string    `json:"level"`
	ErrorRate     float64   `json:"error_rate"`
	TotalRequests int64     `json:"total_requests"`
	ErrorCount    int64     `json:"error_count"`
	Defaulted     int64     `json:"defaulted"`
	LastErrorTime time.Time `json:"last_error_time,omitempty"`
}

type serviceWindow struct {
	start     time.Time
	total     int64
	errors    int64
	defaulted int64
	lastError time.Time
	level     DegradationLevel
}

// DegradationManager tracks how often each scoring source had to be
// replaced by its zero vector
type DegradationManager struct {
	config DegradationConfig
	now    func() time.Time

	mu       sync.Mutex
	services map[string]*serviceWindow
}

// NewDegradationManager creates a new degradation manager
func NewDegradationManager(config DegradationConfig) *DegradationManager {
	return &DegradationManager{
		config:   config,
		now:      time.Now,
		services: make(map[string]*serviceWindow),
	}
}

func (dm *DegradationManager) window(name string) *serviceWindow {
	now := dm.now()
	w, ok := dm.services[name]
	if !ok || now.Sub(w.start) > dm.config.Window {
		level := LevelNormal
		if ok {
			level = w.level
		}
		w = &serviceWindow{start: now, level: level}
		dm.services[name] = w
	}
	return w
}

// RecordSuccess records a successful fetch from a source
func (dm *DegradationManager) RecordSuccess(name string) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	w := dm.window(name)
	w.total++
	dm.updateLevel(name, w)
}

// RecordDefaulted records a fetch that failed and was replaced by defaults
func (dm *DegradationManager) RecordDefaulted(name string, err error) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	w := dm.window(name)
	w.total++
	w.errors++
	w.defaulted++
	w.lastError = dm.now()
	dm.updateLevel(name, w)
}

func (dm *DegradationManager) updateLevel(name string, w *serviceWindow) {
	rate := float64(w.errors) / float64(w.total)
	level := LevelNormal
	switch {
	case rate >= dm.config.CriticalThreshold:
		level = LevelCritical
	case rate >= dm.config.DegradedThreshold:
		level = LevelDegraded
	}

	if level != w.level {
		slog.Warn("Scoring source health changed",
			"source", name,
			"from", w.level.String(),
			"to", level.String(),
			"error_rate", rate,
		)
		w.level = level
	}
}

// Health returns every tracked source, sorted by name
func (dm *DegradationManager) Health() []ServiceHealth {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	out := make([]ServiceHealth, 0, len(dm.services))
	for name, w := range dm.services {
		var rate float64
		if w.total > 0 {
			rate = float64(w.errors) / float64(w.total)
		}
		out = append(out, ServiceHealth{
			ServiceName:   name,
			Level:         w.level.String(),
			ErrorRate:     rate,
			TotalRequests: w.total,
			ErrorCount:    w.errors,
			Defaulted:     w.defaulted,
			LastErrorTime: w.lastError,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ServiceName < out[j].ServiceName })
	return out
}
