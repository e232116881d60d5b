package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/xthxr/DevAura/docs"
	"github.com/xthxr/DevAura/internal/auth"
	apperrors "github.com/xthxr/DevAura/internal/errors"
	"github.com/xthxr/DevAura/internal/middleware"
	"github.com/xthxr/DevAura/internal/monitoring"
	"github.com/xthxr/DevAura/internal/ratelimit"
	"github.com/xthxr/DevAura/internal/security"
)

// RouterConfig carries everything NewRouter installs
type RouterConfig struct {
	Handlers       *Handlers
	Tokens         *auth.TokenService
	Limiter        *ratelimit.RateLimiter
	Security       *security.SecurityMiddleware
	Compression    *middleware.CompressionMiddleware
	Metrics        *monitoring.Metrics
	Logger         *monitoring.Logger
	CronSecret     string
	AllowedOrigins []string
}

// NewRouter builds the gin engine with the middleware chain and routes
func NewRouter(rc RouterConfig) *gin.Engine {
	if rc.Metrics == nil {
		rc.Metrics = monitoring.NewMetrics()
	}
	if rc.Logger == nil {
		rc.Logger = &monitoring.Logger{Logger: slog.Default()}
	}

	r := gin.New()

	r.Use(apperrors.RecoveryHandler())
	r.Use(monitoring.MonitoringMiddleware(rc.Metrics, rc.Logger))
	if rc.Compression != nil {
		r.Use(rc.Compression.Handler())
	}
	r.Use(apperrors.ErrorHandler())
	if corsMiddleware := newCORS(rc.AllowedOrigins); corsMiddleware != nil {
		r.Use(corsMiddleware)
	}
	if rc.Security != nil {
		r.Use(rc.Security.Handlers()...)
	}

	h := rc.Handlers

	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(rc.Metrics.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api")
	api.GET("/leaderboard", h.Leaderboard)
	api.GET("/cron/refresh", auth.RequireCronSecret(rc.CronSecret), h.CronRefresh)

	user := api.Group("/user", auth.RequireUser(rc.Tokens))
	user.GET("", rc.Limiter.RefreshLimitMiddleware(), h.GetUser)
	user.PUT("/profile", h.UpdateProfile)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	return r
}

// newCORS returns nil when no origin is allowed. A single "*" allows every
// origin without credentials.
func newCORS(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		return nil
	}

	config := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPut, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 1 && origins[0] == "*" {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = origins
		config.AllowCredentials = true
	}
	return cors.New(config)
}
