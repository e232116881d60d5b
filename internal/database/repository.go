package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
)

// ErrNotFound is returned when a user or score row does not exist.
var ErrNotFound = errors.New("not found")

// Repository handles database operations
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// UpsertUser creates or updates the local profile mirror
func (r *Repository) UpsertUser(ctx context.Context, u *User) error {
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO users (id, name, email, image, github_username, leetcode_username, stackoverflow_user, created_at, updated_at)
		VALUES (:id, :name, :email, :image, :github_username, :leetcode_username, :stackoverflow_user, :created_at, :updated_at)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			image = excluded.image,
			github_username = excluded.github_username,
			leetcode_username = excluded.leetcode_username,
			stackoverflow_user = excluded.stackoverflow_user,
			updated_at = excluded.updated_at
	`, u)
	if err != nil {
		return fmt.Errorf("upsert user %s: %w", u.ID, err)
	}
	return nil
}

// GetUser loads a user by id
func (r *Repository) GetUser(ctx context.Context, id string) (*User, error) {
	var u User
	err := r.db.GetContext(ctx, &u, `SELECT * FROM users WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return &u, nil
}

// UpsertScore writes the user's score row and increments its calculation
// count. The stored rank is left untouched; ranking owns it.
func (r *Repository) UpsertScore(ctx context.Context, rec *ScoreRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	rec.LastCalculated = rec.LastCalculated.UTC()

	query, args, err := r.db.BindNamed(`
		INSERT INTO score_records (
			id, user_id, dai_score, technical_score, creativity_score, social_score, multiplier,
			github_stars, github_repos, github_commits, github_followers, github_contributions,
			leetcode_solved, leetcode_rating, stackoverflow_reputation, stackoverflow_answers,
			project_originality, documentation_quality, breakdown, last_calculated, calculation_count
		) VALUES (
			:id, :user_id, :dai_score, :technical_score, :creativity_score, :social_score, :multiplier,
			:github_stars, :github_repos, :github_commits, :github_followers, :github_contributions,
			:leetcode_solved, :leetcode_rating, :stackoverflow_reputation, :stackoverflow_answers,
			:project_originality, :documentation_quality, :breakdown, :last_calculated, 1
		)
		ON CONFLICT(user_id) DO UPDATE SET
			dai_score = excluded.dai_score,
			technical_score = excluded.technical_score,
			creativity_score = excluded.creativity_score,
			social_score = excluded.social_score,
			multiplier = excluded.multiplier,
			github_stars = excluded.github_stars,
			github_repos = excluded.github_repos,
			github_commits = excluded.github_commits,
			github_followers = excluded.github_followers,
			github_contributions = excluded.github_contributions,
			leetcode_solved = excluded.leetcode_solved,
			leetcode_rating = excluded.leetcode_rating,
			stackoverflow_reputation = excluded.stackoverflow_reputation,
			stackoverflow_answers = excluded.stackoverflow_answers,
			project_originality = excluded.project_originality,
			documentation_quality = excluded.documentation_quality,
			breakdown = excluded.breakdown,
			last_calculated = excluded.last_calculated,
			calculation_count = score_records.calculation_count + 1
		RETURNING id, calculation_count, rank
	`, rec)
	if err != nil {
		return fmt.Errorf("bind upsert score %s: %w", rec.UserID, err)
	}

	row := r.db.QueryRowxContext(ctx, query, args...)
	if err := row.Scan(&rec.ID, &rec.CalculationCount, &rec.Rank); err != nil {
		return fmt.Errorf("upsert score %s: %w", rec.UserID, err)
	}
	return nil
}

// GetScore loads the score row of a user
func (r *Repository) GetScore(ctx context.Context, userID string) (*ScoreRecord, error) {
	var rec ScoreRecord
	err := r.db.GetContext(ctx, &rec, `SELECT * FROM score_records WHERE user_id = ?`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get score %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get score %s: %w", userID, err)
	}
	return &rec, nil
}

// ListRankOrder returns every score in rank order: total desc, user id asc
func (r *Repository) ListRankOrder(ctx context.Context) ([]RankedScore, error) {
	var out []RankedScore
	err := r.db.SelectContext(ctx, &out,
		`SELECT user_id, dai_score FROM score_records ORDER BY dai_score DESC, user_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list rank order: %w", err)
	}
	return out, nil
}

// CountScores returns the number of score rows
func (r *Repository) CountScores(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM score_records`); err != nil {
		return 0, fmt.Errorf("count scores: %w", err)
	}
	return n, nil
}

// UpdateRanks writes the given ranks in one transaction. Every row is
// attempted; if any fails the whole batch is rolled back and all failures
// are returned together.
func (r *Repository) UpdateRanks(ctx context.Context, ranks map[string]int) error {
	if len(ranks) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rank update: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx, `UPDATE score_records SET rank = ? WHERE user_id = ?`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare rank update: %w", err)
	}
	defer stmt.Close()

	var result *multierror.Error
	for userID, rank := range ranks {
		if _, err := stmt.ExecContext(ctx, rank, userID); err != nil {
			result = multierror.Append(result, fmt.Errorf("rank %s: %w", userID, err))
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rank update: %w", err)
	}
	return nil
}

// LeaderboardPage returns scores joined with profiles in rank order
func (r *Repository) LeaderboardPage(ctx context.Context, offset, limit int) ([]LeaderboardRow, error) {
	var rows []LeaderboardRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT s.user_id, u.name, u.image, u.github_username,
			s.dai_score, s.technical_score, s.creativity_score, s.social_score
		FROM score_records s
		JOIN users u ON u.id = s.user_id
		ORDER BY s.dai_score DESC, s.user_id ASC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("leaderboard page offset=%d limit=%d: %w", offset, limit, err)
	}
	return rows, nil
}

// ListStale returns up to limit scores last calculated before the cutoff,
// oldest first
func (r *Repository) ListStale(ctx context.Context, before time.Time, limit int) ([]ScoreRecord, error) {
	var out []ScoreRecord
	err := r.db.SelectContext(ctx, &out, `
		SELECT * FROM score_records
		WHERE last_calculated < ?
		ORDER BY last_calculated ASC
		LIMIT ?
	`, before.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("list stale scores: %w", err)
	}
	return out, nil
}

// CreateRefreshLog inserts one refresh attempt
func (r *Repository) CreateRefreshLog(ctx context.Context, log *RefreshLog) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO refresh_logs (id, user_id, status, created_at)
		VALUES (:id, :user_id, :status, :created_at)
	`, log)
	if err != nil {
		return fmt.Errorf("create refresh log %s: %w", log.UserID, err)
	}
	return nil
}

// ListRefreshLogs returns a user's refresh attempts, newest first
func (r *Repository) ListRefreshLogs(ctx context.Context, userID string) ([]RefreshLog, error) {
	var out []RefreshLog
	err := r.db.SelectContext(ctx, &out,
		`SELECT * FROM refresh_logs WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list refresh logs %s: %w", userID, err)
	}
	return out, nil
}
