package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/bytedance/sonic"

	"github.com/xthxr/DevAura/internal/monitoring"
)

// LeaderboardKey holds the first leaderboard page.
const LeaderboardKey = "leaderboard:global"

// Cache tiers, used as metric labels.
const (
	TierUserScore   = "user_score"
	TierLeaderboard = "leaderboard"
	TierProvider    = "provider"
)

// TTLs are the expiry of each tier.
type TTLs struct {
	UserScore   time.Duration
	Leaderboard time.Duration
	Provider    time.Duration
}

// DefaultTTLs: 3h for scores, 30m for the leaderboard, 2h for provider data.
func DefaultTTLs() TTLs {
	return TTLs{
		UserScore:   3 * time.Hour,
		Leaderboard: 30 * time.Minute,
		Provider:    2 * time.Hour,
	}
}

func UserScoreKey(userID string) string {
	return "user-score:" + userID
}

func ProviderKey(provider, username string) string {
	return "provider:" + provider + ":" + username
}

// ScoreCache owns keys, TTLs and invalidation on top of a Store.
type ScoreCache struct {
	store   Store
	ttl     TTLs
	metrics *monitoring.Metrics
	logger  *monitoring.Logger
}

func NewScoreCache(store Store, ttl TTLs, metrics *monitoring.Metrics) *ScoreCache {
	return &ScoreCache{store: store, ttl: ttl, metrics: metrics}
}

// WithLogger sets the logger for per-operation debug lines. Without one the
// default slog logger is used.
func (c *ScoreCache) WithLogger(logger *monitoring.Logger) *ScoreCache {
	c.logger = logger
	return c
}

func (c *ScoreCache) log() *monitoring.Logger {
	if c.logger != nil {
		return c.logger
	}
	return &monitoring.Logger{Logger: slog.Default()}
}

// Store returns the backing store
func (c *ScoreCache) Store() Store {
	return c.store
}

func (c *ScoreCache) get(ctx context.Context, tier, key string, dst any) bool {
	data, ok := c.store.Get(ctx, key)
	if !ok {
		c.metrics.CacheMiss(tier)
		c.log().CacheLogger("get", key, false)
		return false
	}
	if err := sonic.Unmarshal(data, dst); err != nil {
		// A payload that no longer decodes is treated as a miss and dropped.
		slog.Warn("Discarding undecodable cache entry", "key", key, "error", err)
		c.store.Delete(ctx, key)
		c.metrics.CacheMiss(tier)
		return false
	}
	c.metrics.CacheHit(tier)
	c.log().CacheLogger("get", key, true)
	return true
}

func (c *ScoreCache) set(ctx context.Context, key string, v any, ttl time.Duration) {
	data, err := sonic.Marshal(v)
	if err != nil {
		slog.Warn("Failed to encode cache entry", "key", key, "error", err)
		return
	}
	c.store.Set(ctx, key, data, ttl)
	c.log().CacheLogger("set", key, false)
}

// GetUserScore decodes the cached score response of a user into dst
func (c *ScoreCache) GetUserScore(ctx context.Context, userID string, dst any) bool {
	return c.get(ctx, TierUserScore, UserScoreKey(userID), dst)
}

func (c *ScoreCache) SetUserScore(ctx context.Context, userID string, v any) {
	c.set(ctx, UserScoreKey(userID), v, c.ttl.UserScore)
}

// GetLeaderboard decodes the cached first page into dst
func (c *ScoreCache) GetLeaderboard(ctx context.Context, dst any) bool {
	return c.get(ctx, TierLeaderboard, LeaderboardKey, dst)
}

func (c *ScoreCache) SetLeaderboard(ctx context.Context, v any) {
	c.set(ctx, LeaderboardKey, v, c.ttl.Leaderboard)
}

// GetProviderData decodes cached upstream data for provider/username into dst
func (c *ScoreCache) GetProviderData(ctx context.Context, provider, username string, dst any) bool {
	return c.get(ctx, TierProvider, ProviderKey(provider, username), dst)
}

func (c *ScoreCache) SetProviderData(ctx context.Context, provider, username string, v any) {
	c.set(ctx, ProviderKey(provider, username), v, c.ttl.Provider)
}

// BatchGetUserScores returns the raw cached payloads of the users that have one
func (c *ScoreCache) BatchGetUserScores(ctx context.Context, userIDs []string) map[string][]byte {
	keys := make([]string, len(userIDs))
	byKey := make(map[string]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = UserScoreKey(id)
		byKey[keys[i]] = id
	}

	found := c.store.BatchGet(ctx, keys)
	out := make(map[string][]byte, len(found))
	for key, data := range found {
		out[byKey[key]] = data
	}
	return out
}

// Invalidate drops the user's score and the leaderboard page in one delete
func (c *ScoreCache) Invalidate(ctx context.Context, userID string) {
	c.store.Delete(ctx, UserScoreKey(userID), LeaderboardKey)
	c.log().CacheLogger("invalidate", UserScoreKey(userID), false)
}
