package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-multierror"

	"github.com/xthxr/DevAura/internal/api"
	"github.com/xthxr/DevAura/internal/aura"
	"github.com/xthxr/DevAura/internal/auth"
	"github.com/xthxr/DevAura/internal/cache"
	"github.com/xthxr/DevAura/internal/config"
	"github.com/xthxr/DevAura/internal/database"
	"github.com/xthxr/DevAura/internal/leaderboard"
	"github.com/xthxr/DevAura/internal/middleware"
	"github.com/xthxr/DevAura/internal/monitoring"
	"github.com/xthxr/DevAura/internal/providers"
	"github.com/xthxr/DevAura/internal/ranking"
	"github.com/xthxr/DevAura/internal/ratelimit"
	"github.com/xthxr/DevAura/internal/refresh"
	"github.com/xthxr/DevAura/internal/resilience"
	"github.com/xthxr/DevAura/internal/security"
)

// components is everything the commands share. Only serve uses all of it.
type components struct {
	cfg     *config.Config
	logger  *monitoring.Logger
	metrics *monitoring.Metrics

	redis      *cache.RedisClient
	store      cache.Store
	scoreCache *cache.ScoreCache

	db     *database.DB
	repo   *database.Repository
	ranker *ranking.Recomputer

	breakers    *resilience.CircuitBreakerRegistry
	degradation *resilience.DegradationManager
	providers   providers.Set

	scores    *aura.Service
	board     *leaderboard.Service
	scheduler *refresh.Scheduler
}

func newLogger(cfg *config.Config) *monitoring.Logger {
	logger := monitoring.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger.Logger)
	return logger
}

// buildCache connects Redis when configured. A failed connection is logged
// and the in-memory store takes over.
func buildCache(ctx context.Context, cfg *config.Config, metrics *monitoring.Metrics, logger *monitoring.Logger) (*cache.RedisClient, cache.Store, *cache.ScoreCache) {
	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		slog.Warn("Redis unavailable, continuing with in-memory cache", "error", err)
	}

	store := cache.NewStore(ctx, redisClient, metrics)
	scoreCache := cache.NewScoreCache(store, cache.TTLs{
		UserScore:   cfg.Cache.UserScoreTTL,
		Leaderboard: cfg.Cache.LeaderboardTTL,
		Provider:    cfg.Cache.ProviderTTL,
	}, metrics).WithLogger(logger)
	return redisClient, store, scoreCache
}

// buildProviders wraps the configured sources in cache, retry and breaker
// layers
func buildProviders(cfg *config.Config, scoreCache *cache.ScoreCache, metrics *monitoring.Metrics, logger *monitoring.Logger) (providers.Set, *resilience.CircuitBreakerRegistry) {
	breakers := resilience.NewCircuitBreakerRegistry(resilience.CircuitBreakerConfig{
		FailureThreshold: 5,
		RecoveryTimeout:  30 * time.Second,
		SuccessThreshold: 1,
	})
	guard := providers.NewGuard(breakers, cfg.Providers.Timeout, metrics, logger)
	return providers.NewSet(cfg.Providers, scoreCache, guard), breakers
}

func build(ctx context.Context, cfg *config.Config) (*components, error) {
	c := &components{
		cfg:     cfg,
		logger:  newLogger(cfg),
		metrics: monitoring.NewMetrics(),
	}

	c.redis, c.store, c.scoreCache = buildCache(ctx, cfg, c.metrics, c.logger)

	db, err := database.Open(ctx, cfg.DataDir)
	if err != nil {
		_ = c.redis.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}
	c.db = db
	c.repo = database.NewRepository(db)

	c.ranker = ranking.NewRecomputer(c.repo, c.metrics)
	c.degradation = resilience.NewDegradationManager(resilience.DefaultDegradationConfig())
	c.providers, c.breakers = buildProviders(cfg, c.scoreCache, c.metrics, c.logger)

	c.scores = aura.NewService(c.repo, c.providers, c.ranker, c.scoreCache, c.degradation, c.metrics, c.logger)
	c.board = leaderboard.NewService(c.repo, c.scoreCache)
	c.scheduler = refresh.NewScheduler(c.repo, c.scoreCache, cfg.Refresh.StaleAfter, cfg.Refresh.BatchSize, c.metrics, c.logger)

	return c, nil
}

// router assembles the HTTP surface. The returned limiter must be closed.
func (c *components) router() (*gin.Engine, *ratelimit.RateLimiter) {
	limiter := ratelimit.NewRateLimiter(c.redis, ratelimit.Config{
		RefreshPerHour: c.cfg.RateLimit.RefreshPerHour,
	}, c.metrics)

	secConfig := security.DefaultSecurityConfig()
	secConfig.EnableHSTS = c.cfg.IsProduction()

	compression := middleware.NewCompressionMiddleware(middleware.DefaultCompressionConfig())

	sources := api.HealthSources{
		Database:    c.db,
		Breakers:    c.breakers,
		Degradation: c.degradation,
		Ranking:     c.ranker,
		Cache:       c.store,
		RateLimit:   limiter,
		Compression: compression,
	}
	if c.redis.IsEnabled() {
		sources.Redis = c.redis
	}

	handlers := api.NewHandlers(c.scores, c.board, c.scheduler, api.NewHealthReporter(sources, version))

	return api.NewRouter(api.RouterConfig{
		Handlers:       handlers,
		Tokens:         auth.NewTokenService(c.cfg.Auth.JWTSecret),
		Limiter:        limiter,
		Security:       security.NewSecurityMiddleware(secConfig),
		Compression:    compression,
		Metrics:        c.metrics,
		Logger:         c.logger,
		CronSecret:     c.cfg.Auth.CronSecret,
		AllowedOrigins: c.cfg.CORS.AllowedOrigins,
	}), limiter
}

// Close releases the database and Redis connections
func (c *components) Close() error {
	var result *multierror.Error
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close database: %w", err))
		}
	}
	if err := c.redis.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("close redis: %w", err))
	}
	return result.ErrorOrNil()
}
