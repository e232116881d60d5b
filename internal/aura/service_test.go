package aura

import (
	"context"
	stderrors "errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xthxr/DevAura/internal/cache"
	"github.com/xthxr/DevAura/internal/database"
	"github.com/xthxr/DevAura/internal/errors"
	"github.com/xthxr/DevAura/internal/providers"
	"github.com/xthxr/DevAura/internal/ranking"
	"github.com/xthxr/DevAura/internal/resilience"
	"github.com/xthxr/DevAura/internal/scoring"
)

type countingGitHub struct {
	calls atomic.Int32
}

func (c *countingGitHub) FetchGitHubStats(ctx context.Context, username string) (scoring.GitHubStats, error) {
	c.calls.Add(1)
	return providers.MockGitHub{}.FetchGitHubStats(ctx, username)
}

type failingLeetCode struct {
	err error
}

func (f failingLeetCode) FetchLeetCodeStats(context.Context, string) (scoring.LeetCodeStats, error) {
	return scoring.LeetCodeStats{}, f.err
}

type slowLeetCode struct {
	delay time.Duration
}

func (s slowLeetCode) FetchLeetCodeStats(ctx context.Context, username string) (scoring.LeetCodeStats, error) {
	select {
	case <-ctx.Done():
		return scoring.LeetCodeStats{}, ctx.Err()
	case <-time.After(s.delay):
	}
	return providers.MockLeetCode{}.FetchLeetCodeStats(ctx, username)
}

type fixture struct {
	svc    *Service
	repo   *database.Repository
	cache  *cache.ScoreCache
	github *countingGitHub
	degr   *resilience.DegradationManager
}

func newFixture(t *testing.T, mutate func(*providers.Set)) *fixture {
	t.Helper()

	db, err := database.Open(context.Background(), t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := database.NewRepository(db)
	sc := cache.NewScoreCache(cache.NewMemoryStore(), cache.DefaultTTLs(), nil)
	gh := &countingGitHub{}

	set := providers.MockSet()
	set.GitHub = gh
	if mutate != nil {
		mutate(&set)
	}

	degr := resilience.NewDegradationManager(resilience.DefaultDegradationConfig())
	svc := NewService(repo, set, ranking.NewRecomputer(repo, nil), sc, degr, nil, nil)
	return &fixture{svc: svc, repo: repo, cache: sc, github: gh, degr: degr}
}

func (f *fixture) addUser(t *testing.T, id, github string) {
	t.Helper()
	require.NoError(t, f.repo.UpsertUser(context.Background(), &database.User{
		ID:             id,
		Name:           "User " + id,
		GitHubUsername: github,
	}))
}

func requireAppStatus(t *testing.T, err error, status int) {
	t.Helper()
	var appErr *errors.AppError
	require.True(t, stderrors.As(err, &appErr), "want AppError, got %v", err)
	assert.Equal(t, status, appErr.HTTPStatus)
}

func TestGetScore_MissingLinkage(t *testing.T) {
	tests := []struct {
		name   string
		github string
		create bool
	}{
		{name: "unknown user", create: false},
		{name: "no GitHub linked", create: true, github: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			if tt.create {
				f.addUser(t, "u1", tt.github)
			}

			_, err := f.svc.GetScore(context.Background(), "u1", false)
			requireAppStatus(t, err, http.StatusPreconditionFailed)
			assert.Contains(t, err.Error(), "link your GitHub account")
			assert.Zero(t, f.github.calls.Load())
		})
	}
}

func TestGetScore_ComputesPersistsAndCaches(t *testing.T) {
	f := newFixture(t, nil)
	f.addUser(t, "u1", "octocat")
	ctx := context.Background()

	want := f.svc.Calculate(ctx, Handles{GitHub: "octocat", LeetCode: "octocat", StackOverflow: "octocat"})
	f.github.calls.Store(0)

	resp, err := f.svc.GetScore(ctx, "u1", false)
	require.NoError(t, err)

	assert.Equal(t, "u1", resp.User.ID)
	assert.Equal(t, "octocat", resp.User.GitHubUsername)
	assert.Equal(t, want.Total, resp.DAIScore.Total)
	assert.Equal(t, scoring.GradeFor(want.Total), resp.Grade)
	assert.False(t, resp.DAIScore.Provisional)
	require.NotNil(t, resp.DAIScore.Rank)
	assert.Equal(t, 1, *resp.DAIScore.Rank)
	assert.Equal(t, int32(1), f.github.calls.Load())

	rec, err := f.repo.GetScore(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, want.Total, rec.DAIScore)
	assert.Equal(t, 1, rec.CalculationCount)
	require.NotNil(t, rec.Rank)
	assert.Equal(t, 1, *rec.Rank)
	assert.Contains(t, rec.Breakdown, `"stackOverflow"`)

	// served from cache
	cached, err := f.svc.GetScore(ctx, "u1", false)
	require.NoError(t, err)
	assert.Equal(t, resp.DAIScore.Total, cached.DAIScore.Total)
	assert.Equal(t, int32(1), f.github.calls.Load())

	// refresh bypasses the cache read and counts another calculation
	_, err = f.svc.GetScore(ctx, "u1", true)
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.github.calls.Load())

	rec, err = f.repo.GetScore(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, rec.CalculationCount)
}

func TestGetScore_ProviderFailureIsProvisional(t *testing.T) {
	f := newFixture(t, func(set *providers.Set) {
		set.LeetCode = failingLeetCode{err: stderrors.New("connection refused")}
	})
	f.addUser(t, "u1", "octocat")

	resp, err := f.svc.GetScore(context.Background(), "u1", false)
	require.NoError(t, err)

	assert.True(t, resp.DAIScore.Provisional)
	assert.Equal(t, []string{providers.NameLeetCode}, resp.DAIScore.DegradedSources)
	assert.Equal(t, scoring.LeetCodeStats{Username: "octocat"}, resp.DAIScore.Breakdown.LeetCode)
	assert.NotZero(t, resp.DAIScore.Breakdown.GitHub.PublicRepos)

	var leetcode resilience.ServiceHealth
	for _, h := range f.degr.Health() {
		if h.ServiceName == providers.NameLeetCode {
			leetcode = h
		}
	}
	assert.Equal(t, int64(1), leetcode.Defaulted)
	assert.NotEqual(t, resilience.LevelNormal.String(), leetcode.Level)

	_, err = f.repo.GetScore(context.Background(), "u1")
	assert.NoError(t, err, "a degraded score is still persisted")
}

func TestGetScore_MissingAccountIsNotProvisional(t *testing.T) {
	f := newFixture(t, func(set *providers.Set) {
		set.LeetCode = failingLeetCode{err: resilience.NewHTTPError(404, "404 Not Found")}
	})
	f.addUser(t, "u1", "octocat")

	resp, err := f.svc.GetScore(context.Background(), "u1", false)
	require.NoError(t, err)
	assert.False(t, resp.DAIScore.Provisional)
	assert.Empty(t, resp.DAIScore.DegradedSources)
	assert.Zero(t, resp.DAIScore.Breakdown.LeetCode.TotalSolved)
}

func TestGetScore_RanksAcrossUsers(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	names := map[string]string{"u1": "octocat", "u2": "torvalds", "u3": "gopher"}
	for id, gh := range names {
		f.addUser(t, id, gh)
	}

	totals := make(map[string]float64)
	for id := range names {
		resp, err := f.svc.GetScore(ctx, id, false)
		require.NoError(t, err)
		totals[id] = resp.DAIScore.Total
	}

	order, err := f.repo.ListRankOrder(ctx)
	require.NoError(t, err)
	require.Len(t, order, 3)
	for i, entry := range order {
		rec, err := f.repo.GetScore(ctx, entry.UserID)
		require.NoError(t, err)
		require.NotNil(t, rec.Rank)
		assert.Equal(t, i+1, *rec.Rank, "stored rank of %s", entry.UserID)
		assert.Equal(t, totals[entry.UserID], entry.Total)
	}
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.UpdateProfile(ctx, "u1", ProfileUpdate{GitHubUsername: "-bad name-"})
	requireAppStatus(t, err, http.StatusBadRequest)

	user, err := f.svc.UpdateProfile(ctx, "u1", ProfileUpdate{Name: "Ada", GitHubUsername: "octocat"})
	require.NoError(t, err)
	assert.Equal(t, "octocat", user.GitHubUsername)

	_, err = f.svc.GetScore(ctx, "u1", false)
	require.NoError(t, err)
	var cached UserScoreResponse
	require.True(t, f.cache.GetUserScore(ctx, "u1", &cached))

	user, err = f.svc.UpdateProfile(ctx, "u1", ProfileUpdate{LeetCodeUsername: "ada-lc"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.Name, "empty fields keep stored values")
	assert.Equal(t, "octocat", user.GitHubUsername)
	assert.Equal(t, "ada-lc", user.LeetCodeUsername)
	assert.False(t, f.cache.GetUserScore(ctx, "u1", &cached), "profile change drops the cached score")
}

func TestGetScore_AbandonedRefreshKeepsFullScore(t *testing.T) {
	f := newFixture(t, func(set *providers.Set) {
		set.LeetCode = slowLeetCode{delay: 150 * time.Millisecond}
	})
	f.addUser(t, "u1", "octocat")
	bg := context.Background()

	first, err := f.svc.GetScore(bg, "u1", false)
	require.NoError(t, err)
	require.False(t, first.DAIScore.Provisional)

	ctx, cancel := context.WithCancel(bg)
	time.AfterFunc(30*time.Millisecond, cancel)

	type result struct {
		resp *UserScoreResponse
		err  error
	}
	waiter := make(chan result, 1)
	go func() {
		time.Sleep(10 * time.Millisecond)
		resp, err := f.svc.GetScore(bg, "u1", true)
		waiter <- result{resp, err}
	}()

	_, err = f.svc.GetScore(ctx, "u1", true)
	requireAppStatus(t, err, http.StatusGatewayTimeout)

	shared := <-waiter
	require.NoError(t, shared.err)
	assert.False(t, shared.resp.DAIScore.Provisional)
	assert.Empty(t, shared.resp.DAIScore.DegradedSources)
	assert.Equal(t, 254, shared.resp.DAIScore.Breakdown.LeetCode.TotalSolved)

	rec, err := f.repo.GetScore(bg, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, rec.CalculationCount)
	assert.Equal(t, first.DAIScore.Total, rec.DAIScore)

	var cached UserScoreResponse
	require.True(t, f.cache.GetUserScore(bg, "u1", &cached))
	assert.False(t, cached.DAIScore.Provisional)
	assert.Equal(t, first.DAIScore.Total, cached.DAIScore.Total)
}

func TestGetScore_RefreshBypassesProviderCache(t *testing.T) {
	db, err := database.Open(context.Background(), t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := database.NewRepository(db)
	sc := cache.NewScoreCache(cache.NewMemoryStore(), cache.DefaultTTLs(), nil)
	gh := &countingGitHub{}
	base := providers.MockSet()
	base.GitHub = gh
	set := providers.Decorate(base, sc, nil)
	svc := NewService(repo, set, ranking.NewRecomputer(repo, nil), sc, nil, nil, nil)

	ctx := context.Background()
	require.NoError(t, repo.UpsertUser(ctx, &database.User{ID: "u1", GitHubUsername: "octocat"}))

	_, err = svc.GetScore(ctx, "u1", false)
	require.NoError(t, err)
	assert.Equal(t, int32(1), gh.calls.Load())

	// a cache miss on the score reuses provider data
	sc.Invalidate(ctx, "u1")
	_, err = svc.GetScore(ctx, "u1", false)
	require.NoError(t, err)
	assert.Equal(t, int32(1), gh.calls.Load())

	_, err = svc.GetScore(ctx, "u1", true)
	require.NoError(t, err)
	assert.Equal(t, int32(2), gh.calls.Load())
}
