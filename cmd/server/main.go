// Command devaura serves the Developer Aura Index API and runs its
// maintenance tasks.
//
// @title                       Developer Aura Index API
// @version                     1.0
// @description                 Scores developers from GitHub, LeetCode, Stack Overflow and an AI project review, and ranks them on a global leaderboard.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @securityDefinitions.apikey  CronSecret
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-multierror"
	"github.com/urfave/cli/v2"

	"github.com/xthxr/DevAura/internal/aura"
	"github.com/xthxr/DevAura/internal/config"
	apperrors "github.com/xthxr/DevAura/internal/errors"
	"github.com/xthxr/DevAura/internal/monitoring"
	"github.com/xthxr/DevAura/internal/resilience"
	"github.com/xthxr/DevAura/internal/scoring"
)

const (
	version         = "1.0.0"
	shutdownTimeout = 30 * time.Second
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		slog.Error("devaura failed", "error", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:           "devaura",
		Usage:          "Developer Aura Index service",
		Version:        version,
		DefaultCommand: "serve",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "start the HTTP server",
				Action: serve,
			},
			{
				Name:   "refresh",
				Usage:  "run one refresh tick and print the result",
				Action: refreshOnce,
			},
			{
				Name:  "score",
				Usage: "compute a score from the configured providers without storing it",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "github", Usage: "GitHub username", Required: true},
					&cli.StringFlag{Name: "leetcode", Usage: "LeetCode username (defaults to the GitHub username)"},
					&cli.StringFlag{Name: "stackoverflow", Usage: "Stack Overflow user id or display name (defaults to the GitHub username)"},
				},
				Action: scoreOnce,
			},
		},
	}
}

func printJSON(c *cli.Context, v any) error {
	out, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(c.App.Writer, string(out))
	return err
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, apperrors.NewConfigurationError("load configuration", err)
	}
	return cfg, nil
}

func serve(c *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	comps, err := build(c.Context, cfg)
	if err != nil {
		return err
	}

	if cfg.Auth.JWTSecret == "" {
		comps.logger.Warn("auth.jwt_secret is empty, every user request will be rejected")
	}

	if err := comps.ranker.Rebuild(c.Context); err != nil {
		comps.logger.Warn("Initial rank rebuild failed, the first score write will retry", "error", err)
	}

	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()
	if cfg.Refresh.Interval > 0 {
		go comps.scheduler.Run(bgCtx, cfg.Refresh.Interval)
		comps.logger.SystemLogger("refresh_loop_started", cfg.Refresh.Interval.String())
	}

	router, limiter := comps.router()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      45 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		comps.logger.Info("Starting server", "addr", cfg.Addr, "environment", cfg.Environment, "providers", cfg.Providers.Mode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var result *multierror.Error
	select {
	case sig := <-quit:
		comps.logger.Info("Shutting down server", "signal", sig.String())
	case err := <-serverErr:
		result = multierror.Append(result, fmt.Errorf("server failed: %w", err))
	}

	stopBackground()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		result = multierror.Append(result, fmt.Errorf("shutdown: %w", err))
	}
	limiter.Close()
	if err := comps.Close(); err != nil {
		result = multierror.Append(result, err)
	}

	comps.logger.Info("Server exited")
	return result.ErrorOrNil()
}

func refreshOnce(c *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	comps, err := build(c.Context, cfg)
	if err != nil {
		return err
	}
	defer apperrors.SafeClose(comps, "components")

	result, err := comps.scheduler.Tick(c.Context)
	if result != nil {
		if perr := printJSON(c, result); perr != nil {
			return perr
		}
	}
	return err
}

// scoreResult is what the score command prints
type scoreResult struct {
	Score scoring.Score `json:"daiScore"`
	Grade scoring.Grade `json:"grade"`
}

// scoreOnce needs no database: nothing is persisted or ranked.
func scoreOnce(c *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	metrics := monitoring.NewMetrics()
	redisClient, _, scoreCache := buildCache(c.Context, cfg, metrics, logger)
	defer apperrors.SafeClose(redisClient, "redis")

	set, _ := buildProviders(cfg, scoreCache, metrics, logger)
	degradation := resilience.NewDegradationManager(resilience.DefaultDegradationConfig())
	svc := aura.NewService(nil, set, nil, scoreCache, degradation, metrics, logger)

	score := svc.Calculate(c.Context, aura.Handles{
		GitHub:        c.String("github"),
		LeetCode:      firstNonEmpty(c.String("leetcode"), c.String("github")),
		StackOverflow: firstNonEmpty(c.String("stackoverflow"), c.String("github")),
	})

	return printJSON(c, scoreResult{Score: score, Grade: scoring.GradeFor(score.Total)})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
