package providers

import (
	"context"
	"fmt"
	"math"
	"unicode/utf16"

	"github.com/xthxr/DevAura/internal/scoring"
)

var mockLanguages = []string{"JavaScript", "TypeScript", "Python", "Go", "Rust", "Java", "C++", "Ruby"}

// usernameHash sums the UTF-16 code units of name.
func usernameHash(name string) int {
	h := 0
	for _, u := range utf16.Encode([]rune(name)) {
		h += int(u)
	}
	return h
}

// MockGitHub derives plausible GitHub stats from the username
type MockGitHub struct{}

func (MockGitHub) FetchGitHubStats(ctx context.Context, username string) (scoring.GitHubStats, error) {
	if err := ctx.Err(); err != nil {
		return scoring.GitHubStats{}, err
	}
	h := usernameHash(username)

	langs := make(map[string]int)
	n := 1 + h%len(mockLanguages)
	for i := 0; i < n; i++ {
		langs[mockLanguages[(h+i)%len(mockLanguages)]] = 1 + (h>>i)%5
	}

	repos := 5 + h%45
	commits := (h % 200) * 10
	return scoring.GitHubStats{
		Username:         username,
		Followers:        h % 500,
		PublicRepos:      repos,
		TotalStars:       (h * 7) % 1000,
		TotalCommits:     commits,
		Contributions:    commits + 10*repos,
		TopLanguages:     langs,
		RepoQualityScore: float64(h % 60),
	}, nil
}

// MockLeetCode derives solved counts from the username
type MockLeetCode struct{}

func (MockLeetCode) FetchLeetCodeStats(ctx context.Context, username string) (scoring.LeetCodeStats, error) {
	if err := ctx.Err(); err != nil {
		return scoring.LeetCodeStats{}, err
	}
	seed := usernameHash(username) % 1000

	easy := (seed % 100) * 3
	medium := (seed % 80) * 2
	hard := seed % 50
	return scoring.LeetCodeStats{
		Username:     username,
		TotalSolved:  easy + medium + hard,
		EasySolved:   easy,
		MediumSolved: medium,
		HardSolved:   hard,
		Rating:       1200 + seed%800,
		Ranking:      10000 + seed%90000,
	}, nil
}

// MockStackOverflow derives reputation and badges from the username
type MockStackOverflow struct{}

func (MockStackOverflow) FetchStackOverflowStats(ctx context.Context, user string) (scoring.StackOverflowStats, error) {
	if err := ctx.Err(); err != nil {
		return scoring.StackOverflowStats{}, err
	}
	h := usernameHash(user)
	seed := h % 10000

	rep := seed*10 + h%5000
	return scoring.StackOverflowStats{
		UserID:     fmt.Sprintf("SO-%d", h),
		Reputation: rep,
		Badges: scoring.Badges{
			Gold:   rep / 3000,
			Silver: rep / 1000,
			Bronze: rep / 300,
		},
		Answers:   (seed % 100) * 2,
		Questions: seed % 50,
	}, nil
}

// HeuristicEvaluator rates a profile from its GitHub stats alone
type HeuristicEvaluator struct{}

func (HeuristicEvaluator) EvaluateProjectQuality(ctx context.Context, gh scoring.GitHubStats) (scoring.AIEvaluation, error) {
	if err := ctx.Err(); err != nil {
		return scoring.AIEvaluation{}, err
	}
	langs := float64(gh.LanguageCount())
	repos := float64(gh.PublicRepos)
	stars := float64(gh.TotalStars)
	rqs := gh.RepoQualityScore

	return scoring.AIEvaluation{
		ProjectOriginality:   math.Round(min(100, langs*10+rqs/10+repos*2)),
		DocumentationQuality: math.Round(min(100, rqs/5+stars/10+repos*3)),
		CodeQuality:          math.Round(min(100, rqs/3+stars/5)),
		InnovationScore:      math.Round(min(100, stars/20+langs*8+repos*1.5)),
	}, nil
}
