package providers

import (
	"context"
	"time"

	"github.com/xthxr/DevAura/internal/cache"
	"github.com/xthxr/DevAura/internal/monitoring"
	"github.com/xthxr/DevAura/internal/resilience"
	"github.com/xthxr/DevAura/internal/scoring"
)

// Guard applies the per-call timeout, retry policy and per-provider
// circuit breaker to upstream calls
type Guard struct {
	breakers *resilience.CircuitBreakerRegistry
	policy   resilience.RetryPolicy
	timeout  time.Duration
	metrics  *monitoring.Metrics
	logger   *monitoring.Logger
}

// NewGuard creates a guard using the provider retry policy
func NewGuard(breakers *resilience.CircuitBreakerRegistry, timeout time.Duration, metrics *monitoring.Metrics, logger *monitoring.Logger) *Guard {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Guard{
		breakers: breakers,
		policy:   resilience.ProviderRetryPolicy,
		timeout:  timeout,
		metrics:  metrics,
		logger:   logger,
	}
}

// Breakers returns the registry backing the guard
func (g *Guard) Breakers() *resilience.CircuitBreakerRegistry {
	return g.breakers
}

// guarded runs fn under the guard. A not-found reply is returned as is
// without counting against the breaker or being retried.
func guarded[T any](ctx context.Context, g *Guard, provider, username string, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	breaker := g.breakers.Get(provider)
	start := time.Now()

	var (
		out     T
		missing error
	)
	err := resilience.RetryWithPolicy(ctx, g.policy, func() error {
		return breaker.Call(func() error {
			v, err := fn(ctx)
			if err != nil {
				if resilience.IsNotFound(err) {
					missing = err
					return nil
				}
				return err
			}
			out = v
			return nil
		})
	})
	if err == nil {
		err = missing
	}

	duration := time.Since(start)
	g.metrics.RecordProviderCall(provider, duration, err)
	if g.logger != nil {
		g.logger.ProviderLogger(provider, username, duration, err)
	}
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

type ResilientGitHub struct {
	next  GitHubFetcher
	guard *Guard
}

func (r *ResilientGitHub) FetchGitHubStats(ctx context.Context, username string) (scoring.GitHubStats, error) {
	return guarded(ctx, r.guard, NameGitHub, username, func(ctx context.Context) (scoring.GitHubStats, error) {
		return r.next.FetchGitHubStats(ctx, username)
	})
}

type ResilientLeetCode struct {
	next  LeetCodeFetcher
	guard *Guard
}

func (r *ResilientLeetCode) FetchLeetCodeStats(ctx context.Context, username string) (scoring.LeetCodeStats, error) {
	return guarded(ctx, r.guard, NameLeetCode, username, func(ctx context.Context) (scoring.LeetCodeStats, error) {
		return r.next.FetchLeetCodeStats(ctx, username)
	})
}

type ResilientStackOverflow struct {
	next  StackOverflowFetcher
	guard *Guard
}

func (r *ResilientStackOverflow) FetchStackOverflowStats(ctx context.Context, user string) (scoring.StackOverflowStats, error) {
	return guarded(ctx, r.guard, NameStackOverflow, user, func(ctx context.Context) (scoring.StackOverflowStats, error) {
		return r.next.FetchStackOverflowStats(ctx, user)
	})
}

type ResilientEvaluator struct {
	next  Evaluator
	guard *Guard
}

func (r *ResilientEvaluator) EvaluateProjectQuality(ctx context.Context, gh scoring.GitHubStats) (scoring.AIEvaluation, error) {
	return guarded(ctx, r.guard, NameAI, gh.Username, func(ctx context.Context) (scoring.AIEvaluation, error) {
		return r.next.EvaluateProjectQuality(ctx, gh)
	})
}

type bypassKey struct{}

// WithCacheBypass marks ctx so cached decorators skip the read and fetch
// from the source. The fresh result is still stored.
func WithCacheBypass(ctx context.Context) context.Context {
	return context.WithValue(ctx, bypassKey{}, true)
}

func cacheBypassed(ctx context.Context) bool {
	v, _ := ctx.Value(bypassKey{}).(bool)
	return v
}

// cached serves provider:{name}:{key} from the cache and stores fresh
// results. Failures are never cached.
func cached[T any](ctx context.Context, c *cache.ScoreCache, provider, key string, fetch func() (T, error)) (T, error) {
	var out T
	if !cacheBypassed(ctx) && c.GetProviderData(ctx, provider, key, &out) {
		return out, nil
	}
	out, err := fetch()
	if err != nil {
		return out, err
	}
	c.SetProviderData(ctx, provider, key, out)
	return out, nil
}

type CachedGitHub struct {
	next  GitHubFetcher
	cache *cache.ScoreCache
}

func (c *CachedGitHub) FetchGitHubStats(ctx context.Context, username string) (scoring.GitHubStats, error) {
	return cached(ctx, c.cache, NameGitHub, username, func() (scoring.GitHubStats, error) {
		return c.next.FetchGitHubStats(ctx, username)
	})
}

type CachedLeetCode struct {
	next  LeetCodeFetcher
	cache *cache.ScoreCache
}

func (c *CachedLeetCode) FetchLeetCodeStats(ctx context.Context, username string) (scoring.LeetCodeStats, error) {
	return cached(ctx, c.cache, NameLeetCode, username, func() (scoring.LeetCodeStats, error) {
		return c.next.FetchLeetCodeStats(ctx, username)
	})
}

type CachedStackOverflow struct {
	next  StackOverflowFetcher
	cache *cache.ScoreCache
}

func (c *CachedStackOverflow) FetchStackOverflowStats(ctx context.Context, user string) (scoring.StackOverflowStats, error) {
	return cached(ctx, c.cache, NameStackOverflow, user, func() (scoring.StackOverflowStats, error) {
		return c.next.FetchStackOverflowStats(ctx, user)
	})
}

// CachedEvaluator keys evaluations by GitHub username, so an evaluation
// lives as long as the GitHub data it was made from.
type CachedEvaluator struct {
	next  Evaluator
	cache *cache.ScoreCache
}

func (c *CachedEvaluator) EvaluateProjectQuality(ctx context.Context, gh scoring.GitHubStats) (scoring.AIEvaluation, error) {
	return cached(ctx, c.cache, NameAI, gh.Username, func() (scoring.AIEvaluation, error) {
		return c.next.EvaluateProjectQuality(ctx, gh)
	})
}
