package ranking

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/xthxr/DevAura/internal/database"
	"github.com/xthxr/DevAura/internal/monitoring"
)

// Store is the persistence the recomputer reads totals from and writes
// ranks back to.
type Store interface {
	ListRankOrder(ctx context.Context) ([]database.RankedScore, error)
	CountScores(ctx context.Context) (int, error)
	UpdateRanks(ctx context.Context, ranks map[string]int) error
}

// Snapshot reports the recomputer state for health checks.
type Snapshot struct {
	Built    bool  `json:"built"`
	Size     int   `json:"size"`
	Rebuilds int64 `json:"rebuilds"`
}

// Recomputer keeps stored ranks equal to position+1 in the total order.
// Writes are serialized; reads go straight to the index.
type Recomputer struct {
	store   Store
	index   *Index
	metrics *monitoring.Metrics

	writeMu  sync.Mutex
	built    atomic.Bool
	rebuilds atomic.Int64
}

func NewRecomputer(store Store, metrics *monitoring.Metrics) *Recomputer {
	return &Recomputer{
		store:   store,
		index:   NewIndex(),
		metrics: metrics,
	}
}

// Index exposes the read side
func (r *Recomputer) Index() *Index {
	return r.index
}

// Rank returns the current rank and the ranked population size
func (r *Recomputer) Rank(userID string) (rank, n int, ok bool) {
	rank, ok = r.index.Rank(userID)
	return rank, r.index.Len(), ok
}

// Rebuild reloads every total and rewrites every rank
func (r *Recomputer) Rebuild(ctx context.Context) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	return r.rebuildLocked(ctx)
}

func (r *Recomputer) rebuildLocked(ctx context.Context) error {
	r.built.Store(false)

	order, err := r.store.ListRankOrder(ctx)
	if err != nil {
		return fmt.Errorf("rebuild ranks: %w", err)
	}

	scores := make(map[string]float64, len(order))
	ranks := make(map[string]int, len(order))
	for i, s := range order {
		scores[s.UserID] = s.Total
		ranks[s.UserID] = i + 1
	}
	r.index.Reset(scores)

	if err := r.store.UpdateRanks(ctx, ranks); err != nil {
		return fmt.Errorf("rebuild ranks: %w", err)
	}

	r.built.Store(true)
	r.rebuilds.Add(1)
	r.metrics.RecordRankRebuild(len(order))
	slog.Info("Rank index rebuilt", "users", len(order))
	return nil
}

// Apply moves one user to a new total and writes back only the ranks that
// changed. It falls back to a full rebuild when the index is cold or its
// size disagrees with the store.
func (r *Recomputer) Apply(ctx context.Context, userID string, total float64) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	if !r.built.Load() {
		return r.rebuildLocked(ctx)
	}

	count, err := r.store.CountScores(ctx)
	if err != nil {
		// The new total never reached the index; the next Apply rebuilds.
		r.built.Store(false)
		return fmt.Errorf("apply rank %s: %w", userID, err)
	}
	expected := r.index.Len()
	if !r.index.Contains(userID) {
		expected++
	}
	if count != expected {
		slog.Warn("Rank index drifted from store, rebuilding",
			"index_size", expected,
			"store_count", count,
		)
		return r.rebuildLocked(ctx)
	}

	before, after := r.index.Upsert(userID, total)
	changed := changedRanks(r.index, before, after)

	if err := r.store.UpdateRanks(ctx, changed); err != nil {
		// Stored ranks are now behind the index; the next Apply rebuilds.
		r.built.Store(false)
		return fmt.Errorf("apply rank %s: %w", userID, err)
	}
	r.metrics.SetRankedUsers(r.index.Len())
	return nil
}

// changedRanks lists the ranks touched by moving one entry from before to
// after. A new entry (before == 0) shifts everyone from after to the end.
func changedRanks(index *Index, before, after int) map[string]int {
	lo, hi := after, before
	if before == 0 {
		hi = index.Len()
	}
	if lo > hi {
		lo, hi = hi, lo
	}

	out := make(map[string]int, hi-lo+1)
	for _, e := range index.Range(lo-1, hi-lo+1) {
		out[e.UserID] = e.Rank
	}
	return out
}

// Snapshot reports index state
func (r *Recomputer) Snapshot() Snapshot {
	return Snapshot{
		Built:    r.built.Load(),
		Size:     r.index.Len(),
		Rebuilds: r.rebuilds.Load(),
	}
}
