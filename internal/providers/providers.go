// Package providers exposes one capability per developer stat source and
// assembles mock or live implementations behind cache and resilience
// decorators.
package providers

import (
	"context"
	"time"

	"github.com/xthxr/DevAura/internal/adapters"
	"github.com/xthxr/DevAura/internal/cache"
	"github.com/xthxr/DevAura/internal/config"
	"github.com/xthxr/DevAura/internal/scoring"
)

// Source names, used for cache keys, breaker names and degraded sources.
const (
	NameGitHub        = "github"
	NameLeetCode      = "leetcode"
	NameStackOverflow = "stackoverflow"
	NameAI            = "ai"
)

type GitHubFetcher interface {
	FetchGitHubStats(ctx context.Context, username string) (scoring.GitHubStats, error)
}

type LeetCodeFetcher interface {
	FetchLeetCodeStats(ctx context.Context, username string) (scoring.LeetCodeStats, error)
}

type StackOverflowFetcher interface {
	FetchStackOverflowStats(ctx context.Context, user string) (scoring.StackOverflowStats, error)
}

type Evaluator interface {
	EvaluateProjectQuality(ctx context.Context, gh scoring.GitHubStats) (scoring.AIEvaluation, error)
}

// Set bundles one implementation per source
type Set struct {
	GitHub        GitHubFetcher
	LeetCode      LeetCodeFetcher
	StackOverflow StackOverflowFetcher
	AI            Evaluator
}

// MockSet returns the deterministic offline implementations, undecorated
func MockSet() Set {
	return Set{
		GitHub:        MockGitHub{},
		LeetCode:      MockLeetCode{},
		StackOverflow: MockStackOverflow{},
		AI:            HeuristicEvaluator{},
	}
}

// LiveSet returns HTTP clients for every source. Without a Gemini key the
// evaluator stays on the heuristic.
func LiveSet(cfg config.ProvidersConfig) Set {
	set := Set{
		GitHub:        adapters.NewGitHubAdapter(cfg.GitHubURL, cfg.GitHubToken, cfg.Timeout),
		LeetCode:      adapters.NewLeetCodeAdapter(cfg.LeetCodeURL, cfg.Timeout),
		StackOverflow: adapters.NewStackExchangeAdapter(cfg.StackExchangeURL, cfg.StackExchangeKey, cfg.Timeout),
		AI:            HeuristicEvaluator{},
	}
	if cfg.GeminiKey != "" {
		set.AI = adapters.NewGeminiAdapter(cfg.GeminiURL, cfg.GeminiKey, cfg.Timeout)
	}
	return set
}

// NewSet selects mock or live sources by cfg.Mode and wraps each one so
// that cached data short-circuits the resilient upstream call. A nil
// scoreCache disables the cache layer.
func NewSet(cfg config.ProvidersConfig, scoreCache *cache.ScoreCache, guard *Guard) Set {
	base := MockSet()
	if cfg.Mode == config.ProviderModeLive {
		base = LiveSet(cfg)
	}
	return Decorate(base, scoreCache, guard)
}

// Decorate wraps every source of base with the resilience guard and then
// the provider-data cache
func Decorate(base Set, scoreCache *cache.ScoreCache, guard *Guard) Set {
	set := base
	if guard != nil {
		set = Set{
			GitHub:        &ResilientGitHub{next: set.GitHub, guard: guard},
			LeetCode:      &ResilientLeetCode{next: set.LeetCode, guard: guard},
			StackOverflow: &ResilientStackOverflow{next: set.StackOverflow, guard: guard},
			AI:            &ResilientEvaluator{next: set.AI, guard: guard},
		}
	}
	if scoreCache != nil {
		set = Set{
			GitHub:        &CachedGitHub{next: set.GitHub, cache: scoreCache},
			LeetCode:      &CachedLeetCode{next: set.LeetCode, cache: scoreCache},
			StackOverflow: &CachedStackOverflow{next: set.StackOverflow, cache: scoreCache},
			AI:            &CachedEvaluator{next: set.AI, cache: scoreCache},
		}
	}
	return set
}

// DefaultTimeout bounds a provider call when config leaves it unset.
const DefaultTimeout = 10 * time.Second
