package database

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const fileName = "dai.db"

// DB represents the database connection with pooling
type DB struct {
	*sqlx.DB
	pool *ConnectionPool
}

// ConnectionPool records the pool limits applied to the handle
type ConnectionPool struct {
	db           *sqlx.DB
	maxOpenConns int
	maxIdleConns int
	maxLifetime  time.Duration
}

// NewConnectionPool applies pool limits to db
func NewConnectionPool(db *sqlx.DB, maxOpen, maxIdle int, maxLifetime time.Duration) *ConnectionPool {
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(maxLifetime)

	return &ConnectionPool{
		db:           db,
		maxOpenConns: maxOpen,
		maxIdleConns: maxIdle,
		maxLifetime:  maxLifetime,
	}
}

// Stats returns connection pool statistics
func (cp *ConnectionPool) Stats() map[string]interface{} {
	stats := cp.db.Stats()

	return map[string]interface{}{
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"max_open_connections": cp.maxOpenConns,
		"max_idle_connections": cp.maxIdleConns,
		"max_lifetime_seconds": cp.maxLifetime.Seconds(),
		"wait_count":           stats.WaitCount,
		"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
	}
}

// Open creates the data directory, opens the SQLite file and migrates it
func Open(ctx context.Context, dataDir string) (*DB, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, fileName)
	dsn := dbPath + "?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on&_busy_timeout=5000"

	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pool := NewConnectionPool(db, 25, 5, 5*time.Minute)

	database := &DB{DB: db, pool: pool}

	if err := database.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Info("Database initialized",
		"path", dbPath,
		"max_open_conns", pool.maxOpenConns,
		"max_idle_conns", pool.maxIdleConns,
		"max_lifetime", pool.maxLifetime)

	return database, nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		image TEXT NOT NULL DEFAULT '',
		github_username TEXT NOT NULL DEFAULT '',
		leetcode_username TEXT NOT NULL DEFAULT '',
		stackoverflow_user TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS score_records (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL UNIQUE,
		dai_score REAL NOT NULL,
		technical_score REAL NOT NULL,
		creativity_score REAL NOT NULL,
		social_score REAL NOT NULL,
		multiplier REAL NOT NULL,
		github_stars INTEGER NOT NULL DEFAULT 0,
		github_repos INTEGER NOT NULL DEFAULT 0,
		github_commits INTEGER NOT NULL DEFAULT 0,
		github_followers INTEGER NOT NULL DEFAULT 0,
		github_contributions INTEGER NOT NULL DEFAULT 0,
		leetcode_solved INTEGER NOT NULL DEFAULT 0,
		leetcode_rating INTEGER NOT NULL DEFAULT 0,
		stackoverflow_reputation INTEGER NOT NULL DEFAULT 0,
		stackoverflow_answers INTEGER NOT NULL DEFAULT 0,
		project_originality REAL NOT NULL DEFAULT 0,
		documentation_quality REAL NOT NULL DEFAULT 0,
		breakdown TEXT NOT NULL DEFAULT '{}',
		last_calculated DATETIME NOT NULL,
		calculation_count INTEGER NOT NULL DEFAULT 1,
		rank INTEGER,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	)`,

	`CREATE TABLE IF NOT EXISTS refresh_logs (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	)`,

	`CREATE INDEX IF NOT EXISTS idx_score_records_order ON score_records(dai_score DESC, user_id ASC)`,
	`CREATE INDEX IF NOT EXISTS idx_score_records_last_calculated ON score_records(last_calculated)`,
	`CREATE INDEX IF NOT EXISTS idx_refresh_logs_user ON refresh_logs(user_id, created_at DESC)`,
}

// migrate runs every statement in order; each is idempotent
func (db *DB) migrate(ctx context.Context) error {
	for _, query := range migrations {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}
	return nil
}

// PoolStats returns database connection pool statistics
func (db *DB) PoolStats() map[string]interface{} {
	return db.pool.Stats()
}

// HealthCheck pings the database
func (db *DB) HealthCheck(ctx context.Context) error {
	return db.PingContext(ctx)
}
