// Package api exposes the score, leaderboard and scheduler operations over
// HTTP.
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/xthxr/DevAura/internal/aura"
	"github.com/xthxr/DevAura/internal/auth"
	"github.com/xthxr/DevAura/internal/database"
	apperrors "github.com/xthxr/DevAura/internal/errors"
	"github.com/xthxr/DevAura/internal/leaderboard"
	"github.com/xthxr/DevAura/internal/refresh"
)

// ScoreService computes and caches a signed-in user's score
type ScoreService interface {
	GetScore(ctx context.Context, userID string, refresh bool) (*aura.UserScoreResponse, error)
	UpdateProfile(ctx context.Context, userID string, p aura.ProfileUpdate) (*database.User, error)
}

// LeaderboardService serves ranked pages
type LeaderboardService interface {
	Page(ctx context.Context, page, limit int, refresh bool) (*leaderboard.Response, error)
}

// RefreshTicker runs one scheduler pass
type RefreshTicker interface {
	Tick(ctx context.Context) (*refresh.Result, error)
}

// Handlers binds the HTTP surface to the domain services
type Handlers struct {
	scores      ScoreService
	leaderboard LeaderboardService
	refresher   RefreshTicker
	health      *HealthReporter
}

// NewHandlers creates the route handlers
func NewHandlers(scores ScoreService, board LeaderboardService, refresher RefreshTicker, health *HealthReporter) *Handlers {
	return &Handlers{
		scores:      scores,
		leaderboard: board,
		refresher:   refresher,
		health:      health,
	}
}

func queryBool(c *gin.Context, key string) bool {
	v, _ := strconv.ParseBool(c.Query(key))
	return v
}

// queryInt returns def for a missing or malformed value; callers clamp.
func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}

// GetUser godoc
// @Summary      Current user's Developer Aura Index
// @Description  Returns the cached score, or recomputes it from every linked source when refresh=true or nothing is cached.
// @Tags         user
// @Produce      json
// @Security     BearerAuth
// @Param        refresh  query     bool  false  "Force a recompute (rate limited)"
// @Success      200      {object}  aura.UserScoreResponse
// @Failure      401      {object}  errors.Response
// @Failure      412      {object}  errors.Response
// @Failure      429      {object}  errors.Response
// @Failure      500      {object}  errors.Response
// @Router       /api/user [get]
func (h *Handlers) GetUser(c *gin.Context) {
	userID := c.GetString(auth.UserIDKey)

	resp, err := h.scores.GetScore(c.Request.Context(), userID, queryBool(c, "refresh"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// UpdateProfile godoc
// @Summary      Link external accounts
// @Description  Stores the GitHub, LeetCode and Stack Overflow handles used for scoring. Empty fields keep their stored value; name, email and image default to the token claims.
// @Tags         user
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        profile  body      aura.ProfileUpdate  true  "Profile fields"
// @Success      200      {object}  aura.UserSummary
// @Failure      400      {object}  errors.Response
// @Failure      401      {object}  errors.Response
// @Router       /api/user/profile [put]
func (h *Handlers) UpdateProfile(c *gin.Context) {
	var p aura.ProfileUpdate
	if err := c.ShouldBindJSON(&p); err != nil {
		_ = c.Error(apperrors.NewValidationError("Invalid request body", err.Error()))
		return
	}

	userID := c.GetString(auth.UserIDKey)
	if id, ok := auth.IdentityFrom(c); ok {
		if p.Name == "" {
			p.Name = id.Name
		}
		if p.Email == "" {
			p.Email = id.Email
		}
		if p.Image == "" {
			p.Image = id.Image
		}
	}

	user, err := h.scores.UpdateProfile(c.Request.Context(), userID, p)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, aura.UserSummary{
		ID:             user.ID,
		Name:           user.Name,
		Email:          user.Email,
		Image:          user.Image,
		GitHubUsername: user.GitHubUsername,
	})
}

// Leaderboard godoc
// @Summary      Global leaderboard
// @Description  Pages through users ordered by score. limit is clamped to [10,100].
// @Tags         leaderboard
// @Produce      json
// @Param        page     query     int   false  "Page number"     default(1)
// @Param        limit    query     int   false  "Entries per page" default(50)
// @Param        refresh  query     bool  false  "Bypass the first-page cache"
// @Success      200      {object}  leaderboard.Response
// @Failure      500      {object}  errors.Response
// @Router       /api/leaderboard [get]
func (h *Handlers) Leaderboard(c *gin.Context) {
	resp, err := h.leaderboard.Page(c.Request.Context(),
		queryInt(c, "page", leaderboard.DefaultPage),
		queryInt(c, "limit", leaderboard.DefaultLimit),
		queryBool(c, "refresh"),
	)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// CronRefresh godoc
// @Summary      Scheduler tick
// @Description  Invalidates cached scores older than the staleness threshold so the next read recomputes them.
// @Tags         cron
// @Produce      json
// @Security     CronSecret
// @Success      200  {object}  refresh.Result
// @Failure      401  {object}  errors.Response
// @Failure      500  {object}  errors.Response
// @Router       /api/cron/refresh [get]
func (h *Handlers) CronRefresh(c *gin.Context) {
	result, err := h.refresher.Tick(c.Request.Context())
	if err != nil {
		_ = c.Error(apperrors.NewInternalError("refresh tick failed", err))
		return
	}

	c.JSON(http.StatusOK, result)
}

// Health godoc
// @Summary      Service health
// @Description  Database and Redis state, circuit breakers, source degradation and ranking index size.
// @Tags         ops
// @Produce      json
// @Success      200  {object}  HealthReport
// @Failure      503  {object}  HealthReport
// @Router       /health [get]
func (h *Handlers) Health(c *gin.Context) {
	report := h.health.Report(c.Request.Context())

	status := http.StatusOK
	if report.Status == StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, report)
}
