package adapters

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/xthxr/DevAura/internal/scoring"
)

const stackOverflowSite = "stackoverflow"

type seUser struct {
	UserID      int64 `json:"user_id"`
	Reputation  int   `json:"reputation"`
	BadgeCounts struct {
		Gold   int `json:"gold"`
		Silver int `json:"silver"`
		Bronze int `json:"bronze"`
	} `json:"badge_counts"`
}

type seUsers struct {
	Items []seUser `json:"items"`
}

type seTotal struct {
	Total int `json:"total"`
}

// StackExchangeAdapter reads Stack Overflow profiles from the Stack Exchange API
type StackExchangeAdapter struct {
	client *resty.Client
}

// NewStackExchangeAdapter creates a Stack Exchange client; key may be empty
func NewStackExchangeAdapter(baseURL, key string, timeout time.Duration) *StackExchangeAdapter {
	client := newClient(baseURL, timeout).
		SetQueryParam("site", stackOverflowSite)
	if key != "" {
		client.SetQueryParam("key", key)
	}
	return &StackExchangeAdapter{client: client}
}

// FetchStackOverflowStats accepts either a numeric user id or a display
// name. Display names resolve to the highest reputation match.
func (s *StackExchangeAdapter) FetchStackOverflowStats(ctx context.Context, user string) (scoring.StackOverflowStats, error) {
	profile, err := s.lookup(ctx, user)
	if err != nil {
		return scoring.StackOverflowStats{}, err
	}

	id := strconv.FormatInt(profile.UserID, 10)
	answers, err := s.total(ctx, id, "answers")
	if err != nil {
		return scoring.StackOverflowStats{}, err
	}
	questions, err := s.total(ctx, id, "questions")
	if err != nil {
		return scoring.StackOverflowStats{}, err
	}

	return scoring.StackOverflowStats{
		UserID:     id,
		Reputation: profile.Reputation,
		Badges: scoring.Badges{
			Gold:   profile.BadgeCounts.Gold,
			Silver: profile.BadgeCounts.Silver,
			Bronze: profile.BadgeCounts.Bronze,
		},
		Answers:   answers,
		Questions: questions,
	}, nil
}

func (s *StackExchangeAdapter) lookup(ctx context.Context, user string) (seUser, error) {
	var out seUsers
	req := s.client.R().SetContext(ctx).SetResult(&out)

	var (
		resp *resty.Response
		err  error
	)
	if _, convErr := strconv.ParseInt(user, 10, 64); convErr == nil {
		resp, err = req.SetPathParam("id", user).Get("/users/{id}")
	} else {
		resp, err = req.SetQueryParams(map[string]string{
			"inname":   user,
			"sort":     "reputation",
			"order":    "desc",
			"pagesize": "1",
		}).Get("/users")
	}
	what := fmt.Sprintf("stackexchange user %s", user)
	if err := checkResponse(resp, err, what); err != nil {
		return seUser{}, err
	}
	if len(out.Items) == 0 {
		return seUser{}, notFound(what)
	}
	return out.Items[0], nil
}

func (s *StackExchangeAdapter) total(ctx context.Context, id, kind string) (int, error) {
	var out seTotal
	resp, err := s.client.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"id": id, "kind": kind}).
		SetQueryParam("filter", "total").
		SetResult(&out).
		Get("/users/{id}/{kind}")
	if err := checkResponse(resp, err, fmt.Sprintf("stackexchange %s for %s", kind, id)); err != nil {
		return 0, err
	}
	return out.Total, nil
}
