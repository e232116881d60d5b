package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xthxr/DevAura/internal/aura"
	"github.com/xthxr/DevAura/internal/auth"
	"github.com/xthxr/DevAura/internal/database"
	apperrors "github.com/xthxr/DevAura/internal/errors"
	"github.com/xthxr/DevAura/internal/leaderboard"
	"github.com/xthxr/DevAura/internal/monitoring"
	"github.com/xthxr/DevAura/internal/ranking"
	"github.com/xthxr/DevAura/internal/ratelimit"
	"github.com/xthxr/DevAura/internal/refresh"
	"github.com/xthxr/DevAura/internal/resilience"
	"github.com/xthxr/DevAura/internal/scoring"
	"github.com/xthxr/DevAura/internal/security"
)

const (
	testJWTSecret  = "jwt-secret"
	testCronSecret = "cron-secret"
)

type fakeScores struct {
	err         error
	refreshes   []bool
	lastProfile aura.ProfileUpdate
}

func (f *fakeScores) GetScore(_ context.Context, userID string, refresh bool) (*aura.UserScoreResponse, error) {
	f.refreshes = append(f.refreshes, refresh)
	if f.err != nil {
		return nil, f.err
	}
	score := scoring.Score{Total: 125.1}
	return &aura.UserScoreResponse{
		User:     aura.UserSummary{ID: userID, GitHubUsername: "octocat"},
		DAIScore: score,
		Grade:    scoring.GradeFor(score.Total),
	}, nil
}

func (f *fakeScores) UpdateProfile(_ context.Context, userID string, p aura.ProfileUpdate) (*database.User, error) {
	f.lastProfile = p
	if f.err != nil {
		return nil, f.err
	}
	return &database.User{ID: userID, Name: p.Name, Email: p.Email, Image: p.Image, GitHubUsername: p.GitHubUsername}, nil
}

type fakeBoard struct {
	page, limit int
	refresh     bool
}

func (f *fakeBoard) Page(_ context.Context, page, limit int, refresh bool) (*leaderboard.Response, error) {
	f.page, f.limit, f.refresh = page, limit, refresh
	page, limit = leaderboard.Clamp(page, limit)
	return &leaderboard.Response{Leaderboard: []leaderboard.Entry{}, Page: page, Limit: limit}, nil
}

type fakeTicker struct {
	calls int
	err   error
}

func (f *fakeTicker) Tick(context.Context) (*refresh.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &refresh.Result{Success: true, Refreshed: 3, Timestamp: time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)}, nil
}

type fakeChecker struct{ err error }

func (f fakeChecker) HealthCheck(context.Context) error { return f.err }

type fixture struct {
	router *gin.Engine
	scores *fakeScores
	board  *fakeBoard
	ticker *fakeTicker
	tokens *auth.TokenService
}

func newFixture(t *testing.T, sources HealthSources, perHour int) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	limiter := ratelimit.NewRateLimiter(nil, ratelimit.Config{RefreshPerHour: perHour}, nil)
	t.Cleanup(limiter.Close)

	f := &fixture{
		scores: &fakeScores{},
		board:  &fakeBoard{},
		ticker: &fakeTicker{},
		tokens: auth.NewTokenService(testJWTSecret),
	}
	logger := monitoring.NewLoggerTo(io.Discard, "error")
	f.router = NewRouter(RouterConfig{
		Handlers:       NewHandlers(f.scores, f.board, f.ticker, NewHealthReporter(sources, "test")),
		Tokens:         f.tokens,
		Limiter:        limiter,
		Security:       security.NewSecurityMiddleware(security.DefaultSecurityConfig()),
		Metrics:        monitoring.NewMetrics(),
		Logger:         logger,
		CronSecret:     testCronSecret,
		AllowedOrigins: []string{"http://localhost:3000"},
	})
	return f
}

func (f *fixture) token(t *testing.T) string {
	t.Helper()
	tok, err := f.tokens.GenerateToken(auth.Identity{UserID: "user-1", Name: "Mona", Email: "mona@example.com", Image: "https://img/mona.png"}, time.Hour)
	require.NoError(t, err)
	return tok
}

func (f *fixture) do(method, path, bearer, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestGetUser(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		auth       bool
		err        error
		wantStatus int
		wantBody   string
	}{
		{name: "no token", path: "/api/user", wantStatus: http.StatusUnauthorized, wantBody: `"code":"UNAUTHORIZED"`},
		{name: "cached score", path: "/api/user", auth: true, wantStatus: http.StatusOK, wantBody: `"grade":"S+"`},
		{name: "forced refresh", path: "/api/user?refresh=true", auth: true, wantStatus: http.StatusOK, wantBody: `"total":125.1`},
		{name: "github not linked", path: "/api/user", auth: true, err: apperrors.NewMissingLinkageError("GitHub"), wantStatus: http.StatusPreconditionFailed, wantBody: `"code":"LINKAGE_REQUIRED"`},
		{name: "internal failure hides cause", path: "/api/user", auth: true, err: apperrors.NewInternalError("persist user-1", errors.New("disk full")), wantStatus: http.StatusInternalServerError, wantBody: `"error":"Internal server error"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, HealthSources{}, 10)
			f.scores.err = tt.err

			bearer := ""
			if tt.auth {
				bearer = f.token(t)
			}
			w := f.do(http.MethodGet, tt.path, bearer, "")

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
			assert.NotContains(t, w.Body.String(), "disk full")
		})
	}
}

func TestGetUserRefreshFlag(t *testing.T) {
	f := newFixture(t, HealthSources{}, 10)
	tok := f.token(t)

	f.do(http.MethodGet, "/api/user", tok, "")
	f.do(http.MethodGet, "/api/user?refresh=true", tok, "")
	f.do(http.MethodGet, "/api/user?refresh=yes", tok, "")

	assert.Equal(t, []bool{false, true, false}, f.scores.refreshes)
}

func TestGetUserRefreshRateLimited(t *testing.T) {
	f := newFixture(t, HealthSources{}, 2)
	tok := f.token(t)

	for i := 0; i < 2; i++ {
		w := f.do(http.MethodGet, "/api/user?refresh=true", tok, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	}

	w := f.do(http.MethodGet, "/api/user?refresh=true", tok, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "RATE_LIMIT_EXCEEDED")

	// Cached reads are never limited.
	w = f.do(http.MethodGet, "/api/user", tok, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, f.scores.refreshes, 3)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t, HealthSources{}, 10)
	tok := f.token(t)

	w := f.do(http.MethodPut, "/api/user/profile", tok, `{"githubUsername":"octocat","leetcodeUsername":"lc-octo","name":"Octo"}`)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, aura.ProfileUpdate{
		Name:             "Octo",
		Email:            "mona@example.com",
		Image:            "https://img/mona.png",
		GitHubUsername:   "octocat",
		LeetCodeUsername: "lc-octo",
	}, f.scores.lastProfile)
	assert.JSONEq(t, `{"id":"user-1","name":"Octo","email":"mona@example.com","image":"https://img/mona.png","githubUsername":"octocat"}`, w.Body.String())
}

func TestUpdateProfileRejects(t *testing.T) {
	tests := []struct {
		name       string
		auth       bool
		body       string
		wantStatus int
	}{
		{name: "no token", body: `{}`, wantStatus: http.StatusUnauthorized},
		{name: "malformed JSON", auth: true, body: `{"githubUsername":`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, HealthSources{}, 10)
			bearer := ""
			if tt.auth {
				bearer = f.token(t)
			}
			w := f.do(http.MethodPut, "/api/user/profile", bearer, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestLeaderboard(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		wantPage    int
		wantLimit   int
		wantRefresh bool
	}{
		{name: "defaults", path: "/api/leaderboard", wantPage: 1, wantLimit: 50},
		{name: "explicit", path: "/api/leaderboard?page=3&limit=25&refresh=true", wantPage: 3, wantLimit: 25, wantRefresh: true},
		{name: "garbage falls back to defaults", path: "/api/leaderboard?page=abc&limit=-", wantPage: 1, wantLimit: 50},
		{name: "explicit zero is passed through for clamping", path: "/api/leaderboard?page=0&limit=0", wantPage: 0, wantLimit: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, HealthSources{}, 10)
			w := f.do(http.MethodGet, tt.path, "", "")

			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.wantPage, f.board.page)
			assert.Equal(t, tt.wantLimit, f.board.limit)
			assert.Equal(t, tt.wantRefresh, f.board.refresh)
			assert.Contains(t, w.Body.String(), `"leaderboard":[]`)
		})
	}
}

func TestCronRefresh(t *testing.T) {
	tests := []struct {
		name       string
		bearer     string
		tickErr    error
		wantStatus int
		wantCalls  int
	}{
		{name: "missing secret", wantStatus: http.StatusUnauthorized},
		{name: "wrong secret", bearer: "nope", wantStatus: http.StatusUnauthorized},
		{name: "valid secret", bearer: testCronSecret, wantStatus: http.StatusOK, wantCalls: 1},
		{name: "tick failure", bearer: testCronSecret, tickErr: errors.New("db locked"), wantStatus: http.StatusInternalServerError, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, HealthSources{}, 10)
			f.ticker.err = tt.tickErr

			w := f.do(http.MethodGet, "/api/cron/refresh", tt.bearer, "")

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCalls, f.ticker.calls)
			if tt.wantStatus == http.StatusOK {
				assert.JSONEq(t, `{"success":true,"refreshed":3,"timestamp":"2026-10-19T12:00:00Z"}`, w.Body.String())
			}
		})
	}
}

type fixedRanking struct{}

func (fixedRanking) Snapshot() ranking.Snapshot {
	return ranking.Snapshot{Built: true, Size: 7, Rebuilds: 1}
}

func TestHealth(t *testing.T) {
	breakers := resilience.NewCircuitBreakerRegistry(resilience.CircuitBreakerConfig{})
	breakers.Get("github")

	tests := []struct {
		name       string
		sources    HealthSources
		wantStatus int
		wantState  string
	}{
		{
			name:       "all healthy",
			sources:    HealthSources{Database: fakeChecker{}, Redis: fakeChecker{}, Breakers: breakers, Ranking: fixedRanking{}},
			wantStatus: http.StatusOK,
			wantState:  StatusOK,
		},
		{
			name:       "redis down degrades",
			sources:    HealthSources{Database: fakeChecker{}, Redis: fakeChecker{err: errors.New("connection refused")}},
			wantStatus: http.StatusOK,
			wantState:  StatusDegraded,
		},
		{
			name:       "database down",
			sources:    HealthSources{Database: fakeChecker{err: errors.New("locked")}, Redis: fakeChecker{}},
			wantStatus: http.StatusServiceUnavailable,
			wantState:  StatusUnhealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.sources, 10)
			w := f.do(http.MethodGet, "/health", "", "")

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), `"status":"`+tt.wantState+`"`)
		})
	}
}

func TestHealthReportContents(t *testing.T) {
	breakers := resilience.NewCircuitBreakerRegistry(resilience.CircuitBreakerConfig{})
	breakers.Get("leetcode")
	degradation := resilience.NewDegradationManager(resilience.DefaultDegradationConfig())
	degradation.RecordDefaulted("stackoverflow", errors.New("timeout"))

	reporter := NewHealthReporter(HealthSources{
		Breakers:    breakers,
		Degradation: degradation,
		Ranking:     fixedRanking{},
	}, "1.0.0")

	report := reporter.Report(context.Background())

	assert.Equal(t, StatusDegraded, report.Status)
	assert.Equal(t, "1.0.0", report.Version)
	require.Len(t, report.Breakers, 1)
	assert.Equal(t, "leetcode", report.Breakers[0].Name)
	require.Len(t, report.Sources, 1)
	assert.Equal(t, int64(1), report.Sources[0].Defaulted)
	require.NotNil(t, report.Ranking)
	assert.Equal(t, 7, report.Ranking.Size)
}

func TestOpsEndpoints(t *testing.T) {
	f := newFixture(t, HealthSources{}, 10)
	f.do(http.MethodGet, "/health", "", "")

	w := f.do(http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "dai_http_requests_total")

	w = f.do(http.MethodGet, "/swagger/doc.json", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Developer Aura Index API")
	assert.Contains(t, w.Body.String(), "/api/leaderboard")

	w = f.do(http.MethodGet, "/nope", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORS(t *testing.T) {
	f := newFixture(t, HealthSources{}, 10)

	req := httptest.NewRequest(http.MethodOptions, "/api/leaderboard", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/leaderboard", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
