package adapters

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/errgroup"

	"github.com/xthxr/DevAura/internal/scoring"
)

// Commit activity is sampled on the most recently updated repos only.
const (
	commitProbeRepos  = 10
	commitProbeFactor = 10
	recentWindow      = 30 * 24 * time.Hour
)

// GitHubRepo represents GitHub repository data
type GitHubRepo struct {
	Name            string    `json:"name"`
	FullName        string    `json:"full_name"`
	StargazersCount int       `json:"stargazers_count"`
	ForksCount      int       `json:"forks_count"`
	Language        string    `json:"language"`
	HasWiki         bool      `json:"has_wiki"`
	HasPages        bool      `json:"has_pages"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// GitHubUser represents GitHub user data
type GitHubUser struct {
	Login       string `json:"login"`
	Followers   int    `json:"followers"`
	Following   int    `json:"following"`
	PublicRepos int    `json:"public_repos"`
}

// GitHubAdapter fetches data from the GitHub REST API
type GitHubAdapter struct {
	client *resty.Client
	now    func() time.Time
}

// NewGitHubAdapter creates a GitHub client; token may be empty
func NewGitHubAdapter(baseURL, token string, timeout time.Duration) *GitHubAdapter {
	client := newClient(baseURL, timeout).
		SetHeader("Accept", "application/vnd.github+json")
	if token != "" {
		client.SetAuthToken(token)
	}
	return &GitHubAdapter{client: client, now: time.Now}
}

// FetchGitHubStats aggregates profile, repositories and sampled commit
// activity into GitHubStats
func (g *GitHubAdapter) FetchGitHubStats(ctx context.Context, username string) (scoring.GitHubStats, error) {
	user, err := g.fetchUser(ctx, username)
	if err != nil {
		return scoring.GitHubStats{}, err
	}
	repos, err := g.fetchRepos(ctx, username)
	if err != nil {
		return scoring.GitHubStats{}, err
	}

	stats := scoring.GitHubStats{
		Username:     username,
		Followers:    user.Followers,
		PublicRepos:  user.PublicRepos,
		TopLanguages: make(map[string]int),
	}

	cutoff := g.now().Add(-recentWindow)
	var quality float64
	for _, repo := range repos {
		stats.TotalStars += repo.StargazersCount
		if repo.Language != "" {
			stats.TopLanguages[repo.Language]++
		}
		quality += float64(2*repo.StargazersCount + 3*repo.ForksCount)
		if repo.HasWiki || repo.HasPages {
			quality += 5
		}
		if repo.UpdatedAt.After(cutoff) {
			quality += 10
		}
	}
	stats.RepoQualityScore = math.Round(quality / float64(max(1, len(repos))))

	stats.TotalCommits = g.probeCommits(ctx, username, repos) * commitProbeFactor
	stats.Contributions = stats.TotalCommits + 10*len(repos)

	return stats, nil
}

func (g *GitHubAdapter) fetchUser(ctx context.Context, username string) (GitHubUser, error) {
	var user GitHubUser
	resp, err := g.client.R().
		SetContext(ctx).
		SetPathParam("user", username).
		SetResult(&user).
		Get("/users/{user}")
	if err := checkResponse(resp, err, fmt.Sprintf("github user %s", username)); err != nil {
		return GitHubUser{}, err
	}
	return user, nil
}

func (g *GitHubAdapter) fetchRepos(ctx context.Context, username string) ([]GitHubRepo, error) {
	var repos []GitHubRepo
	resp, err := g.client.R().
		SetContext(ctx).
		SetPathParam("user", username).
		SetQueryParams(map[string]string{"per_page": "100", "sort": "updated"}).
		SetResult(&repos).
		Get("/users/{user}/repos")
	if err := checkResponse(resp, err, fmt.Sprintf("github repos %s", username)); err != nil {
		return nil, err
	}
	return repos, nil
}

// probeCommits counts how many of the top repos have at least one commit
// authored by the user. A failed probe counts as zero.
func (g *GitHubAdapter) probeCommits(ctx context.Context, username string, repos []GitHubRepo) int {
	if len(repos) > commitProbeRepos {
		repos = repos[:commitProbeRepos]
	}

	hits := make([]int, len(repos))
	var eg errgroup.Group
	eg.SetLimit(5)
	for i, repo := range repos {
		eg.Go(func() error {
			var commits []struct {
				SHA string `json:"sha"`
			}
			resp, err := g.client.R().
				SetContext(ctx).
				SetPathParams(map[string]string{"owner": username, "repo": repo.Name}).
				SetQueryParams(map[string]string{"author": username, "per_page": "1"}).
				SetResult(&commits).
				Get("/repos/{owner}/{repo}/commits")
			if checkResponse(resp, err, "github commits") == nil {
				hits[i] = len(commits)
			}
			return nil
		})
	}
	_ = eg.Wait()

	total := 0
	for _, h := range hits {
		total += h
	}
	return total
}
