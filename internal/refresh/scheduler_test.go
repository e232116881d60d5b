package refresh

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xthxr/DevAura/internal/cache"
	"github.com/xthxr/DevAura/internal/database"
)

type fakeStore struct {
	mu       sync.Mutex
	stale    []database.ScoreRecord
	logs     []*database.RefreshLog
	before   time.Time
	limit    int
	listErr  error
	failLogs map[string]bool
}

func (f *fakeStore) ListStale(_ context.Context, before time.Time, limit int) ([]database.ScoreRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.before, f.limit = before, limit
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.stale, nil
}

func (f *fakeStore) CreateRefreshLog(_ context.Context, log *database.RefreshLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failLogs[log.UserID] {
		return errors.New("database is locked")
	}
	f.logs = append(f.logs, log)
	return nil
}

func (f *fakeStore) logCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.logs)
}

func newTestScheduler(store Store) (*Scheduler, *cache.ScoreCache, time.Time) {
	sc := cache.NewScoreCache(cache.NewMemoryStore(), cache.DefaultTTLs(), nil)
	s := NewScheduler(store, sc, 3*time.Hour, 100, nil, nil)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	return s, sc, now
}

func TestTick_InvalidatesAndLogs(t *testing.T) {
	store := &fakeStore{stale: []database.ScoreRecord{{UserID: "u1"}, {UserID: "u2"}}}
	s, sc, now := newTestScheduler(store)
	ctx := context.Background()

	sc.SetUserScore(ctx, "u1", map[string]int{"total": 1})
	sc.SetUserScore(ctx, "u3", map[string]int{"total": 3})
	sc.SetLeaderboard(ctx, []string{"u1"})

	result, err := s.Tick(ctx)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 2, result.Refreshed)
	assert.Equal(t, now, result.Timestamp)
	assert.Equal(t, now.Add(-3*time.Hour), store.before)
	assert.Equal(t, 100, store.limit)

	var v map[string]int
	assert.False(t, sc.GetUserScore(ctx, "u1", &v))
	assert.True(t, sc.GetUserScore(ctx, "u3", &v), "fresh users keep their cache")
	var board []string
	assert.False(t, sc.GetLeaderboard(ctx, &board))

	require.Len(t, store.logs, 2)
	for _, log := range store.logs {
		assert.Equal(t, database.RefreshInProgress, log.Status)
		assert.NotEmpty(t, log.ID)
	}
}

func TestTick_IsRepeatable(t *testing.T) {
	store := &fakeStore{stale: []database.ScoreRecord{{UserID: "u1"}}}
	s, _, _ := newTestScheduler(store)

	for i := 0; i < 3; i++ {
		result, err := s.Tick(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, result.Refreshed)
	}
	assert.Equal(t, 3, store.logCount(), "one log entry per record per tick")
}

func TestTick_AggregatesLogFailures(t *testing.T) {
	store := &fakeStore{
		stale:    []database.ScoreRecord{{UserID: "u1"}, {UserID: "u2"}, {UserID: "u3"}},
		failLogs: map[string]bool{"u1": true, "u3": true},
	}
	s, _, _ := newTestScheduler(store)

	result, err := s.Tick(context.Background())
	require.Error(t, err)
	require.NotNil(t, result)
	assert.False(t, result.Success)
	assert.Equal(t, 3, result.Refreshed)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 2)
}

func TestTick_ListFailure(t *testing.T) {
	s, _, _ := newTestScheduler(&fakeStore{listErr: errors.New("no such table")})

	result, err := s.Tick(context.Background())
	assert.Error(t, err)
	assert.Nil(t, result)
}

func TestRun_StopsOnCancel(t *testing.T) {
	store := &fakeStore{stale: []database.ScoreRecord{{UserID: "u1"}}}
	s, _, _ := newTestScheduler(store)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return store.logCount() > 0 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestRun_DisabledInterval(t *testing.T) {
	s, _, _ := newTestScheduler(&fakeStore{})
	s.Run(context.Background(), 0)
}
