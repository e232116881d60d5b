// Package refresh expires stale scores so the next read recomputes them.
package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/xthxr/DevAura/internal/database"
	"github.com/xthxr/DevAura/internal/monitoring"
)

// Store reads stale scores and records refresh attempts
type Store interface {
	ListStale(ctx context.Context, before time.Time, limit int) ([]database.ScoreRecord, error)
	CreateRefreshLog(ctx context.Context, log *database.RefreshLog) error
}

// Invalidator drops a user's cached score and the cached leaderboard
type Invalidator interface {
	Invalidate(ctx context.Context, userID string)
}

// Result is the outcome of one tick
type Result struct {
	Success   bool      `json:"success"`
	Refreshed int       `json:"refreshed"`
	Timestamp time.Time `json:"timestamp"`
}

// Scheduler selects stale scores in batches
type Scheduler struct {
	store      Store
	cache      Invalidator
	staleAfter time.Duration
	batchSize  int
	metrics    *monitoring.Metrics
	logger     *monitoring.Logger
	now        func() time.Time
}

// NewScheduler creates a scheduler. metrics and logger may be nil.
func NewScheduler(store Store, cache Invalidator, staleAfter time.Duration, batchSize int, metrics *monitoring.Metrics, logger *monitoring.Logger) *Scheduler {
	if logger == nil {
		logger = &monitoring.Logger{Logger: slog.Default()}
	}
	return &Scheduler{
		store:      store,
		cache:      cache,
		staleAfter: staleAfter,
		batchSize:  batchSize,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// Tick invalidates up to batchSize stale users and logs each one as
// in-progress. Log write failures are aggregated; the result is still
// returned alongside them.
func (s *Scheduler) Tick(ctx context.Context) (*Result, error) {
	start := s.now()
	cutoff := start.Add(-s.staleAfter)

	stale, err := s.store.ListStale(ctx, cutoff, s.batchSize)
	if err != nil {
		return nil, fmt.Errorf("list stale scores: %w", err)
	}

	var result *multierror.Error
	for _, rec := range stale {
		s.cache.Invalidate(ctx, rec.UserID)

		entry := database.NewRefreshLog(rec.UserID, database.RefreshInProgress, s.now())
		if err := s.store.CreateRefreshLog(ctx, entry); err != nil {
			result = multierror.Append(result, fmt.Errorf("refresh log %s: %w", rec.UserID, err))
		}
	}

	err = result.ErrorOrNil()
	s.metrics.RecordRefreshTick(len(stale))
	s.logger.RefreshLogger(len(stale), s.now().Sub(start), err)

	return &Result{
		Success:   err == nil,
		Refreshed: len(stale),
		Timestamp: s.now().UTC(),
	}, err
}

// Run ticks every interval until ctx is cancelled. A non-positive interval
// returns immediately.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.SystemLogger("refresh_scheduler_started", interval.String())
	for {
		select {
		case <-ctx.Done():
			s.logger.SystemLogger("refresh_scheduler_stopped", ctx.Err().Error())
			return
		case <-ticker.C:
			if _, err := s.Tick(ctx); err != nil {
				s.logger.Warn("Refresh tick failed", "error", err)
			}
		}
	}
}
