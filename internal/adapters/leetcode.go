package adapters

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/xthxr/DevAura/internal/scoring"
)

const leetCodeProfileQuery = `query userProfile($username: String!) {
  matchedUser(username: $username) {
    profile { ranking }
    submitStatsGlobal { acSubmissionNum { difficulty count } }
  }
  userContestRanking(username: $username) { rating }
}`

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type leetCodeResponse struct {
	Data struct {
		MatchedUser *struct {
			Profile struct {
				Ranking int `json:"ranking"`
			} `json:"profile"`
			SubmitStatsGlobal struct {
				AcSubmissionNum []struct {
					Difficulty string `json:"difficulty"`
					Count      int    `json:"count"`
				} `json:"acSubmissionNum"`
			} `json:"submitStatsGlobal"`
		} `json:"matchedUser"`
		UserContestRanking *struct {
			Rating float64 `json:"rating"`
		} `json:"userContestRanking"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// LeetCodeAdapter queries the public LeetCode GraphQL endpoint
type LeetCodeAdapter struct {
	client *resty.Client
}

// NewLeetCodeAdapter creates a LeetCode client bound to the GraphQL URL
func NewLeetCodeAdapter(graphqlURL string, timeout time.Duration) *LeetCodeAdapter {
	return &LeetCodeAdapter{
		client: newClient(graphqlURL, timeout).SetHeader("Referer", "https://leetcode.com"),
	}
}

// FetchLeetCodeStats returns solved counts by difficulty plus contest rating
func (l *LeetCodeAdapter) FetchLeetCodeStats(ctx context.Context, username string) (scoring.LeetCodeStats, error) {
	var out leetCodeResponse
	resp, err := l.client.R().
		SetContext(ctx).
		SetBody(graphQLRequest{
			Query:     leetCodeProfileQuery,
			Variables: map[string]any{"username": username},
		}).
		SetResult(&out).
		Post("")
	what := fmt.Sprintf("leetcode user %s", username)
	if err := checkResponse(resp, err, what); err != nil {
		return scoring.LeetCodeStats{}, err
	}

	user := out.Data.MatchedUser
	if user == nil {
		if len(out.Errors) > 0 && out.Errors[0].Message != "" {
			return scoring.LeetCodeStats{}, fmt.Errorf("%s: %s: %w", what, out.Errors[0].Message, notFound(what))
		}
		return scoring.LeetCodeStats{}, notFound(what)
	}

	stats := scoring.LeetCodeStats{Username: username, Ranking: user.Profile.Ranking}
	for _, n := range user.SubmitStatsGlobal.AcSubmissionNum {
		switch n.Difficulty {
		case "All":
			stats.TotalSolved = n.Count
		case "Easy":
			stats.EasySolved = n.Count
		case "Medium":
			stats.MediumSolved = n.Count
		case "Hard":
			stats.HardSolved = n.Count
		}
	}
	if stats.TotalSolved == 0 {
		stats.TotalSolved = stats.EasySolved + stats.MediumSolved + stats.HardSolved
	}
	if r := out.Data.UserContestRanking; r != nil {
		stats.Rating = int(math.Round(r.Rating))
	}
	return stats, nil
}
