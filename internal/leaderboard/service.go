// Package leaderboard serves the global ranking a page at a time.
package leaderboard

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xthxr/DevAura/internal/cache"
	"github.com/xthxr/DevAura/internal/database"
)

// Paging bounds.
const (
	DefaultPage  = 1
	DefaultLimit = 50
	MinLimit     = 10
	MaxLimit     = 100
)

// AnonymousName stands in for users without a profile name.
const AnonymousName = "Anonymous"

// Entry represents one leaderboard ranking
type Entry struct {
	Rank            int     `json:"rank"`
	UserID          string  `json:"userId"`
	Name            string  `json:"name"`
	Image           string  `json:"image"`
	GitHubUsername  string  `json:"githubUsername"`
	DAIScore        float64 `json:"daiScore"`
	TechnicalScore  float64 `json:"technicalScore"`
	CreativityScore float64 `json:"creativityScore"`
	SocialScore     float64 `json:"socialScore"`
}

// Response represents the response for leaderboard queries
type Response struct {
	Leaderboard []Entry `json:"leaderboard"`
	Total       int     `json:"total"`
	Page        int     `json:"page"`
	Limit       int     `json:"limit"`
	TotalPages  int     `json:"totalPages"`
}

// Store reads ranked rows
type Store interface {
	LeaderboardPage(ctx context.Context, offset, limit int) ([]database.LeaderboardRow, error)
	CountScores(ctx context.Context) (int, error)
}

// firstPage is what leaderboard:global holds: the top MaxLimit entries, so
// any page-1 limit can be served by slicing.
type firstPage struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
}

// Service handles leaderboard operations
type Service struct {
	store Store
	cache *cache.ScoreCache
}

// NewService creates a new leaderboard service
func NewService(store Store, scoreCache *cache.ScoreCache) *Service {
	return &Service{store: store, cache: scoreCache}
}

// Clamp bounds paging input to page >= 1 and limit in [MinLimit, MaxLimit].
// Defaults for absent parameters are the caller's concern.
func Clamp(page, limit int) (int, int) {
	page = max(page, 1)
	limit = min(max(limit, MinLimit), MaxLimit)
	return page, limit
}

// Page returns one page of the leaderboard. Page 1 is served from the cache
// unless refresh is set.
func (s *Service) Page(ctx context.Context, page, limit int, refresh bool) (*Response, error) {
	page, limit = Clamp(page, limit)

	if page == 1 {
		top, err := s.firstPage(ctx, refresh)
		if err != nil {
			return nil, err
		}
		entries := top.Entries
		if len(entries) > limit {
			entries = entries[:limit]
		}
		return newResponse(entries, top.Total, page, limit), nil
	}

	offset := (page - 1) * limit
	entries, total, err := s.load(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	return newResponse(entries, total, page, limit), nil
}

func (s *Service) firstPage(ctx context.Context, refresh bool) (*firstPage, error) {
	if !refresh {
		var cached firstPage
		if s.cache.GetLeaderboard(ctx, &cached) {
			slog.Debug("Leaderboard cache hit", "entries", len(cached.Entries))
			return &cached, nil
		}
	}

	entries, total, err := s.load(ctx, 0, MaxLimit)
	if err != nil {
		return nil, err
	}
	top := &firstPage{Entries: entries, Total: total}
	s.cache.SetLeaderboard(ctx, top)
	return top, nil
}

func (s *Service) load(ctx context.Context, offset, limit int) ([]Entry, int, error) {
	rows, err := s.store.LeaderboardPage(ctx, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load leaderboard: %w", err)
	}
	total, err := s.store.CountScores(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count leaderboard: %w", err)
	}

	entries := make([]Entry, len(rows))
	for i, row := range rows {
		name := row.Name
		if name == "" {
			name = AnonymousName
		}
		entries[i] = Entry{
			Rank:            offset + i + 1,
			UserID:          row.UserID,
			Name:            name,
			Image:           row.Image,
			GitHubUsername:  row.GitHubUsername,
			DAIScore:        row.DAIScore,
			TechnicalScore:  row.TechnicalScore,
			CreativityScore: row.CreativityScore,
			SocialScore:     row.SocialScore,
		}
	}
	return entries, total, nil
}

func newResponse(entries []Entry, total, page, limit int) *Response {
	if entries == nil {
		entries = []Entry{}
	}
	return &Response{
		Leaderboard: entries,
		Total:       total,
		Page:        page,
		Limit:       limit,
		TotalPages:  (total + limit - 1) / limit,
	}
}
