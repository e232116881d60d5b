package adapters

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xthxr/DevAura/internal/resilience"
)

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestGitHubAdapter_FetchGitHubStats(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	recent := now.Add(-24 * time.Hour).Format(time.RFC3339)
	stale := now.Add(-90 * 24 * time.Hour).Format(time.RFC3339)

	var authHeader atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader.Store(r.Header.Get("Authorization"))
		switch {
		case r.URL.Path == "/users/octo":
			writeJSON(w, 200, `{"login":"octo","followers":42,"public_repos":2}`)
		case r.URL.Path == "/users/octo/repos":
			assert.Equal(t, "100", r.URL.Query().Get("per_page"))
			assert.Equal(t, "updated", r.URL.Query().Get("sort"))
			writeJSON(w, 200, `[
				{"name":"alpha","stargazers_count":10,"forks_count":2,"language":"Go","has_wiki":true,"updated_at":"`+recent+`"},
				{"name":"beta","stargazers_count":4,"forks_count":0,"language":"Go","has_pages":false,"updated_at":"`+stale+`"}
			]`)
		case r.URL.Path == "/repos/octo/alpha/commits":
			assert.Equal(t, "octo", r.URL.Query().Get("author"))
			writeJSON(w, 200, `[{"sha":"abc"}]`)
		case r.URL.Path == "/repos/octo/beta/commits":
			writeJSON(w, 409, `{"message":"Git Repository is empty."}`)
		default:
			writeJSON(w, 404, `{"message":"Not Found"}`)
		}
	}))
	defer srv.Close()

	gh := NewGitHubAdapter(srv.URL, "secret", 5*time.Second)
	gh.now = func() time.Time { return now }

	stats, err := gh.FetchGitHubStats(context.Background(), "octo")
	require.NoError(t, err)

	assert.Equal(t, "octo", stats.Username)
	assert.Equal(t, 42, stats.Followers)
	assert.Equal(t, 2, stats.PublicRepos)
	assert.Equal(t, 14, stats.TotalStars)
	assert.Equal(t, map[string]int{"Go": 2}, stats.TopLanguages)
	// alpha: 20+6+5+10 = 41, beta: 8 -> round(49/2)
	assert.Equal(t, 25.0, stats.RepoQualityScore)
	assert.Equal(t, 10, stats.TotalCommits)
	assert.Equal(t, 30, stats.Contributions)
	assert.Equal(t, "Bearer secret", authHeader.Load())
}

func TestGitHubAdapter_UnknownUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 404, `{"message":"Not Found"}`)
	}))
	defer srv.Close()

	_, err := NewGitHubAdapter(srv.URL, "", time.Second).FetchGitHubStats(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, resilience.IsNotFound(err))
	assert.False(t, resilience.IsRetryable(err))
}

func TestGitHubAdapter_ServerErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 503, `{}`)
	}))
	defer srv.Close()

	_, err := NewGitHubAdapter(srv.URL, "", time.Second).FetchGitHubStats(context.Background(), "octo")
	require.Error(t, err)
	assert.True(t, resilience.IsRetryable(err))
}

func TestStackExchangeAdapter(t *testing.T) {
	tests := []struct {
		name     string
		user     string
		wantPath string
	}{
		{name: "numeric id", user: "12345", wantPath: "/users/12345"},
		{name: "display name", user: "jon", wantPath: "/users"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "stackoverflow", r.URL.Query().Get("site"))
				assert.Equal(t, "k", r.URL.Query().Get("key"))
				switch r.URL.Path {
				case tt.wantPath:
					if tt.wantPath == "/users" {
						assert.Equal(t, "jon", r.URL.Query().Get("inname"))
					}
					writeJSON(w, 200, `{"items":[{"user_id":12345,"reputation":5000,"badge_counts":{"gold":1,"silver":5,"bronze":16}}]}`)
				case "/users/12345/answers":
					assert.Equal(t, "total", r.URL.Query().Get("filter"))
					writeJSON(w, 200, `{"total":120}`)
				case "/users/12345/questions":
					writeJSON(w, 200, `{"total":7}`)
				default:
					writeJSON(w, 400, `{}`)
				}
			}))
			defer srv.Close()

			stats, err := NewStackExchangeAdapter(srv.URL, "k", time.Second).
				FetchStackOverflowStats(context.Background(), tt.user)
			require.NoError(t, err)
			assert.Equal(t, "12345", stats.UserID)
			assert.Equal(t, 5000, stats.Reputation)
			assert.Equal(t, 1, stats.Badges.Gold)
			assert.Equal(t, 5, stats.Badges.Silver)
			assert.Equal(t, 16, stats.Badges.Bronze)
			assert.Equal(t, 120, stats.Answers)
			assert.Equal(t, 7, stats.Questions)
		})
	}
}

func TestStackExchangeAdapter_NoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, `{"items":[]}`)
	}))
	defer srv.Close()

	_, err := NewStackExchangeAdapter(srv.URL, "", time.Second).
		FetchStackOverflowStats(context.Background(), "nobody")
	require.Error(t, err)
	assert.True(t, resilience.IsNotFound(err))
}

func TestLeetCodeAdapter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var req struct {
			Query     string            `json:"query"`
			Variables map[string]string `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.Query, "matchedUser")

		if req.Variables["username"] == "ghost" {
			writeJSON(w, 200, `{"data":{"matchedUser":null,"userContestRanking":null},"errors":[{"message":"That user does not exist."}]}`)
			return
		}
		writeJSON(w, 200, `{"data":{
			"matchedUser":{"profile":{"ranking":4321},"submitStatsGlobal":{"acSubmissionNum":[
				{"difficulty":"All","count":310},{"difficulty":"Easy","count":150},
				{"difficulty":"Medium","count":120},{"difficulty":"Hard","count":40}]}},
			"userContestRanking":{"rating":1789.6}}}`)
	}))
	defer srv.Close()

	lc := NewLeetCodeAdapter(srv.URL, time.Second)

	stats, err := lc.FetchLeetCodeStats(context.Background(), "coder")
	require.NoError(t, err)
	assert.Equal(t, 310, stats.TotalSolved)
	assert.Equal(t, 150, stats.EasySolved)
	assert.Equal(t, 120, stats.MediumSolved)
	assert.Equal(t, 40, stats.HardSolved)
	assert.Equal(t, 1790, stats.Rating)
	assert.Equal(t, 4321, stats.Ranking)

	_, err = lc.FetchLeetCodeStats(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, resilience.IsNotFound(err))
	assert.Contains(t, err.Error(), "does not exist")
}

func TestGeminiAdapter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "gkey", r.URL.Query().Get("key"))
		var req geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 0.4, req.GenerationConfig.Temperature)
		assert.Equal(t, 32, req.GenerationConfig.TopK)
		assert.Equal(t, 512, req.GenerationConfig.MaxOutputTokens)
		require.Len(t, req.Contents, 1)
		assert.Contains(t, req.Contents[0].Parts[0].Text, "GitHub Username: octo")

		writeJSON(w, 200, `{"candidates":[{"content":{"parts":[{"text":"Sure!\n`+"```json"+`\n{\"projectOriginality\": 80, \"documentationQuality\": 65, \"codeQuality\": 140, \"innovationScore\": -5}\n`+"```"+`"}]}}]}`)
	}))
	defer srv.Close()

	gm := NewGeminiAdapter(srv.URL, "gkey", time.Second)
	eval, err := gm.EvaluateProjectQuality(context.Background(), sampleStats())
	require.NoError(t, err)
	assert.Equal(t, 80.0, eval.ProjectOriginality)
	assert.Equal(t, 65.0, eval.DocumentationQuality)
	assert.Equal(t, 100.0, eval.CodeQuality)
	assert.Equal(t, 0.0, eval.InnovationScore)
}

func TestGeminiAdapter_EmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, `{"candidates":[]}`)
	}))
	defer srv.Close()

	_, err := NewGeminiAdapter(srv.URL, "k", time.Second).EvaluateProjectQuality(context.Background(), sampleStats())
	assert.ErrorIs(t, err, ErrNoEvaluation)
}

func TestParseEvaluation(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{name: "bare object", text: `{"projectOriginality":1,"documentationQuality":2,"codeQuality":3,"innovationScore":4}`},
		{name: "wrapped in prose", text: "Here you go: {\"projectOriginality\":1} thanks"},
		{name: "no object", text: "I cannot rate this profile.", wantErr: true},
		{name: "malformed", text: "{not json}", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEvaluation(tt.text)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoEvaluation)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestEvaluationPrompt_SortsLanguages(t *testing.T) {
	prompt := evaluationPrompt(sampleStats())
	assert.Contains(t, prompt, "Languages: Go, Rust")
	assert.True(t, strings.HasSuffix(prompt, `"innovationScore": number }`))
}
