package database

import (
	"time"

	"github.com/google/uuid"
)

// Refresh log states.
const (
	RefreshInProgress = "in-progress"
	RefreshCompleted  = "completed"
	RefreshFailed     = "failed"
)

// User mirrors the profile owned by the external identity provider together
// with the linked account handles.
type User struct {
	ID                string    `json:"id" db:"id"`
	Name              string    `json:"name" db:"name"`
	Email             string    `json:"email" db:"email"`
	Image             string    `json:"image" db:"image"`
	GitHubUsername    string    `json:"githubUsername" db:"github_username"`
	LeetCodeUsername  string    `json:"leetcodeUsername,omitempty" db:"leetcode_username"`
	StackOverflowUser string    `json:"stackOverflowUser,omitempty" db:"stackoverflow_user"`
	CreatedAt         time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time `json:"updatedAt" db:"updated_at"`
}

// LeetCodeHandle falls back to the GitHub username when none is linked.
func (u *User) LeetCodeHandle() string {
	if u.LeetCodeUsername != "" {
		return u.LeetCodeUsername
	}
	return u.GitHubUsername
}

// StackOverflowHandle falls back to the GitHub username when none is linked.
func (u *User) StackOverflowHandle() string {
	if u.StackOverflowUser != "" {
		return u.StackOverflowUser
	}
	return u.GitHubUsername
}

// ScoreRecord is the one persisted score row per user
type ScoreRecord struct {
	ID                      string    `json:"id" db:"id"`
	UserID                  string    `json:"userId" db:"user_id"`
	DAIScore                float64   `json:"daiScore" db:"dai_score"`
	TechnicalScore          float64   `json:"technicalScore" db:"technical_score"`
	CreativityScore         float64   `json:"creativityScore" db:"creativity_score"`
	SocialScore             float64   `json:"socialScore" db:"social_score"`
	Multiplier              float64   `json:"multiplier" db:"multiplier"`
	GitHubStars             int       `json:"githubStars" db:"github_stars"`
	GitHubRepos             int       `json:"githubRepos" db:"github_repos"`
	GitHubCommits           int       `json:"githubCommits" db:"github_commits"`
	GitHubFollowers         int       `json:"githubFollowers" db:"github_followers"`
	GitHubContributions     int       `json:"githubContributions" db:"github_contributions"`
	LeetCodeSolved          int       `json:"leetcodeSolved" db:"leetcode_solved"`
	LeetCodeRating          int       `json:"leetcodeRating" db:"leetcode_rating"`
	StackOverflowReputation int       `json:"stackOverflowReputation" db:"stackoverflow_reputation"`
	StackOverflowAnswers    int       `json:"stackOverflowAnswers" db:"stackoverflow_answers"`
	ProjectOriginality      float64   `json:"projectOriginality" db:"project_originality"`
	DocumentationQuality    float64   `json:"documentationQuality" db:"documentation_quality"`
	Breakdown               string    `json:"-" db:"breakdown"`
	LastCalculated          time.Time `json:"lastCalculated" db:"last_calculated"`
	CalculationCount        int       `json:"calculationCount" db:"calculation_count"`
	Rank                    *int      `json:"rank,omitempty" db:"rank"`
}

// RankedScore is the projection the rank index is built from
type RankedScore struct {
	UserID string  `db:"user_id"`
	Total  float64 `db:"dai_score"`
}

// LeaderboardRow is a score joined with its owner's public profile
type LeaderboardRow struct {
	UserID          string  `db:"user_id"`
	Name            string  `db:"name"`
	Image           string  `db:"image"`
	GitHubUsername  string  `db:"github_username"`
	DAIScore        float64 `db:"dai_score"`
	TechnicalScore  float64 `db:"technical_score"`
	CreativityScore float64 `db:"creativity_score"`
	SocialScore     float64 `db:"social_score"`
}

// RefreshLog records one scheduler attempt for a user
type RefreshLog struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"userId" db:"user_id"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// NewRefreshLog creates a log entry with a generated ID
func NewRefreshLog(userID, status string, at time.Time) *RefreshLog {
	return &RefreshLog{
		ID:        uuid.New().String(),
		UserID:    userID,
		Status:    status,
		CreatedAt: at.UTC(),
	}
}
