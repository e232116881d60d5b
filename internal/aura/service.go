// Package aura computes, persists and serves a developer's aura score.
package aura

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/xthxr/DevAura/internal/cache"
	"github.com/xthxr/DevAura/internal/database"
	"github.com/xthxr/DevAura/internal/errors"
	"github.com/xthxr/DevAura/internal/monitoring"
	"github.com/xthxr/DevAura/internal/providers"
	"github.com/xthxr/DevAura/internal/resilience"
	"github.com/xthxr/DevAura/internal/scoring"
)

// Failure stages attached to internal errors.
const (
	StageLoadUser = "load_user"
	StagePersist  = "persist"
	StageRank     = "rank"
)

var githubUsername = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9-]{0,38})$`)

// Store is the persistence the service needs
type Store interface {
	GetUser(ctx context.Context, id string) (*database.User, error)
	UpsertUser(ctx context.Context, u *database.User) error
	UpsertScore(ctx context.Context, rec *database.ScoreRecord) error
}

// Ranker keeps the global rank order current
type Ranker interface {
	Apply(ctx context.Context, userID string, total float64) error
	Rank(userID string) (rank, n int, ok bool)
}

// UserSummary is the public part of a profile
type UserSummary struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Image          string `json:"image"`
	GitHubUsername string `json:"githubUsername"`
}

// UserScoreResponse is the payload of the score endpoint
type UserScoreResponse struct {
	User        UserSummary   `json:"user"`
	DAIScore    scoring.Score `json:"daiScore"`
	Grade       scoring.Grade `json:"grade"`
	LastUpdated time.Time     `json:"lastUpdated"`
}

// Handles are the per-source account names a score is computed from
type Handles struct {
	GitHub        string
	LeetCode      string
	StackOverflow string
}

// HandlesFor resolves a user's linked accounts
func HandlesFor(u *database.User) Handles {
	return Handles{
		GitHub:        u.GitHubUsername,
		LeetCode:      u.LeetCodeHandle(),
		StackOverflow: u.StackOverflowHandle(),
	}
}

// ProfileUpdate carries linkage and profile fields; empty fields keep the
// stored value
type ProfileUpdate struct {
	Name              string `json:"name"`
	Email             string `json:"email"`
	Image             string `json:"image"`
	GitHubUsername    string `json:"githubUsername"`
	LeetCodeUsername  string `json:"leetcodeUsername"`
	StackOverflowUser string `json:"stackOverflowUser"`
}

// Service orchestrates fetch, compose, persist, rank and cache
type Service struct {
	store       Store
	providers   providers.Set
	ranker      Ranker
	cache       *cache.ScoreCache
	degradation *resilience.DegradationManager
	metrics     *monitoring.Metrics
	logger      *monitoring.Logger

	group singleflight.Group
	now   func() time.Time
}

// NewService wires the score service. degradation, metrics and logger may be nil.
func NewService(
	store Store,
	set providers.Set,
	ranker Ranker,
	scoreCache *cache.ScoreCache,
	degradation *resilience.DegradationManager,
	metrics *monitoring.Metrics,
	logger *monitoring.Logger,
) *Service {
	if degradation == nil {
		degradation = resilience.NewDegradationManager(resilience.DefaultDegradationConfig())
	}
	if logger == nil {
		logger = &monitoring.Logger{Logger: slog.Default()}
	}
	return &Service{
		store:       store,
		providers:   set,
		ranker:      ranker,
		cache:       scoreCache,
		degradation: degradation,
		metrics:     metrics,
		logger:      logger,
		now:         time.Now,
	}
}

// GetScore returns the cached score unless refresh is set or nothing is
// cached, in which case it recomputes. Concurrent recomputes of one user
// share a single run. A refresh also bypasses the provider-data cache.
func (s *Service) GetScore(ctx context.Context, userID string, refresh bool) (*UserScoreResponse, error) {
	if !refresh {
		var cached UserScoreResponse
		if s.cache.GetUserScore(ctx, userID, &cached) {
			return &cached, nil
		}
	}

	// The shared run outlives any single caller: an abandoned request must
	// neither zero unfinished sources nor cancel the other waiters.
	runCtx := context.WithoutCancel(ctx)
	if refresh {
		runCtx = providers.WithCacheBypass(runCtx)
	}
	ch := s.group.DoChan(userID, func() (interface{}, error) {
		return s.recompute(runCtx, userID)
	})

	select {
	case <-ctx.Done():
		return nil, errors.NewTimeoutError("score computation abandoned", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*UserScoreResponse), nil
	}
}

func (s *Service) recompute(ctx context.Context, userID string) (*UserScoreResponse, error) {
	start := s.now()

	user, err := s.store.GetUser(ctx, userID)
	if stderrors.Is(err, database.ErrNotFound) {
		return nil, errors.NewMissingLinkageError("GitHub")
	}
	if err != nil {
		return nil, errors.NewInternalError("load user "+userID, err).WithStage(StageLoadUser)
	}
	if user.GitHubUsername == "" {
		return nil, errors.NewMissingLinkageError("GitHub")
	}

	score := s.Calculate(ctx, HandlesFor(user))

	rec, err := recordFromScore(userID, score, s.now())
	if err != nil {
		return nil, errors.NewInternalError("encode breakdown "+userID, err).WithStage(StagePersist)
	}
	if err := s.store.UpsertScore(ctx, rec); err != nil {
		return nil, errors.NewInternalError("persist score "+userID, err).WithStage(StagePersist)
	}

	if err := s.ranker.Apply(ctx, userID, score.Total); err != nil {
		s.logger.Error("Rank update failed",
			"user_id", userID,
			"stage", StageRank,
			"error", err,
		)
	}

	s.cache.Invalidate(ctx, userID)

	if rank, n, ok := s.ranker.Rank(userID); ok {
		score = score.WithRank(rank, n)
	}

	resp := &UserScoreResponse{
		User:        summaryOf(user),
		DAIScore:    score,
		Grade:       scoring.GradeFor(score.Total),
		LastUpdated: rec.LastCalculated,
	}
	s.cache.SetUserScore(ctx, userID, resp)

	s.metrics.RecordScore(score.Provisional)
	s.logger.ScoreLogger(userID, score.Total, score.Provisional, score.DegradedSources, s.now().Sub(start))
	return resp, nil
}

// Calculate fetches every source concurrently and composes the score. It
// never fails: a source that errors contributes its zero vector and marks
// the score provisional.
func (s *Service) Calculate(ctx context.Context, h Handles) scoring.Score {
	var (
		gh scoring.GitHubStats
		lc scoring.LeetCodeStats
		so scoring.StackOverflowStats
		ai scoring.AIEvaluation

		mu       sync.Mutex
		degraded []string
	)
	fail := func(name, handle string, err error) {
		if resilience.IsNotFound(err) {
			// No such account is a valid zero, not an outage.
			s.logger.Info("Source account not found, using zero stats", "provider", name, "username", handle)
			s.degradation.RecordSuccess(name)
			return
		}
		s.logger.Warn("Source failed, using zero stats", "provider", name, "username", handle, "error", err)
		s.degradation.RecordDefaulted(name, err)
		mu.Lock()
		degraded = append(degraded, name)
		mu.Unlock()
	}

	var eg errgroup.Group
	eg.Go(func() error {
		stats, err := s.providers.GitHub.FetchGitHubStats(ctx, h.GitHub)
		if err != nil {
			fail(providers.NameGitHub, h.GitHub, err)
			stats = scoring.GitHubStats{Username: h.GitHub, TopLanguages: map[string]int{}}
		} else {
			s.degradation.RecordSuccess(providers.NameGitHub)
		}
		gh = stats

		eval, err := s.providers.AI.EvaluateProjectQuality(ctx, gh)
		if err != nil {
			fail(providers.NameAI, h.GitHub, err)
			eval = scoring.AIEvaluation{}
		} else {
			s.degradation.RecordSuccess(providers.NameAI)
		}
		ai = eval
		return nil
	})
	eg.Go(func() error {
		stats, err := s.providers.LeetCode.FetchLeetCodeStats(ctx, h.LeetCode)
		if err != nil {
			fail(providers.NameLeetCode, h.LeetCode, err)
			stats = scoring.LeetCodeStats{Username: h.LeetCode}
		} else {
			s.degradation.RecordSuccess(providers.NameLeetCode)
		}
		lc = stats
		return nil
	})
	eg.Go(func() error {
		stats, err := s.providers.StackOverflow.FetchStackOverflowStats(ctx, h.StackOverflow)
		if err != nil {
			fail(providers.NameStackOverflow, h.StackOverflow, err)
			stats = scoring.StackOverflowStats{}
		} else {
			s.degradation.RecordSuccess(providers.NameStackOverflow)
		}
		so = stats
		return nil
	})
	_ = eg.Wait()

	score := scoring.Compose(gh, lc, so, ai)
	if len(degraded) > 0 {
		slices.Sort(degraded)
		score.Provisional = true
		score.DegradedSources = degraded
	}
	return score
}

// UpdateProfile upserts the local profile mirror and drops the user's
// cached score
func (s *Service) UpdateProfile(ctx context.Context, userID string, p ProfileUpdate) (*database.User, error) {
	if p.GitHubUsername != "" && !githubUsername.MatchString(p.GitHubUsername) {
		return nil, errors.NewValidationError("Invalid GitHub username", "githubUsername must be 1-39 letters, digits or hyphens")
	}

	user, err := s.store.GetUser(ctx, userID)
	if stderrors.Is(err, database.ErrNotFound) {
		user = &database.User{ID: userID}
	} else if err != nil {
		return nil, errors.NewInternalError("load user "+userID, err).WithStage(StageLoadUser)
	}

	assign := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	assign(&user.Name, p.Name)
	assign(&user.Email, p.Email)
	assign(&user.Image, p.Image)
	assign(&user.GitHubUsername, p.GitHubUsername)
	assign(&user.LeetCodeUsername, p.LeetCodeUsername)
	assign(&user.StackOverflowUser, p.StackOverflowUser)

	if err := s.store.UpsertUser(ctx, user); err != nil {
		return nil, errors.NewInternalError("persist user "+userID, err).WithStage(StagePersist)
	}
	s.cache.Invalidate(ctx, userID)
	return user, nil
}

func summaryOf(u *database.User) UserSummary {
	return UserSummary{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		Image:          u.Image,
		GitHubUsername: u.GitHubUsername,
	}
}

func recordFromScore(userID string, score scoring.Score, at time.Time) (*database.ScoreRecord, error) {
	breakdown, err := sonic.MarshalString(score)
	if err != nil {
		return nil, fmt.Errorf("marshal breakdown: %w", err)
	}
	b := score.Breakdown
	return &database.ScoreRecord{
		UserID:                  userID,
		DAIScore:                score.Total,
		TechnicalScore:          score.Components.Technical,
		CreativityScore:         score.Components.Creativity,
		SocialScore:             score.Components.Social,
		Multiplier:              score.Components.Multiplier,
		GitHubStars:             b.GitHub.TotalStars,
		GitHubRepos:             b.GitHub.PublicRepos,
		GitHubCommits:           b.GitHub.TotalCommits,
		GitHubFollowers:         b.GitHub.Followers,
		GitHubContributions:     b.GitHub.Contributions,
		LeetCodeSolved:          b.LeetCode.TotalSolved,
		LeetCodeRating:          b.LeetCode.Rating,
		StackOverflowReputation: b.StackOverflow.Reputation,
		StackOverflowAnswers:    b.StackOverflow.Answers,
		ProjectOriginality:      b.AI.ProjectOriginality,
		DocumentationQuality:    b.AI.DocumentationQuality,
		Breakdown:               breakdown,
		LastCalculated:          at.UTC(),
	}, nil
}
