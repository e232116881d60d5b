package monitoring

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Logger provides structured logging with domain helpers
type Logger struct {
	*slog.Logger
}

// ParseLevel maps a config string to a slog level, defaulting to info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a JSON logger on stdout
func NewLogger(level string) *Logger {
	return NewLoggerTo(os.Stdout, level)
}

// NewLoggerTo creates a JSON logger writing to w
func NewLoggerTo(w io.Writer, level string) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{
					Key:   "timestamp",
					Value: slog.StringValue(a.Value.Time().Format(time.RFC3339)),
				}
			}
			return a
		},
	})

	return &Logger{
		Logger: slog.New(handler),
	}
}

// RequestLogger logs HTTP request details
func (l *Logger) RequestLogger(method, path, ip, userAgent string, statusCode int, duration time.Duration) {
	level := slog.LevelInfo
	if statusCode >= 500 {
		level = slog.LevelError
	} else if statusCode >= 400 {
		level = slog.LevelWarn
	}
	l.Log(context.Background(), level, "HTTP Request",
		"method", method,
		"path", path,
		"ip", ip,
		"user_agent", userAgent,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
	)
}

// ProviderLogger logs one upstream provider call
func (l *Logger) ProviderLogger(provider, username string, duration time.Duration, err error) {
	if err != nil {
		l.Warn("Provider call failed",
			"provider", provider,
			"username", username,
			"duration_ms", duration.Milliseconds(),
			"success", false,
			"error", err,
		)
		return
	}
	l.Debug("Provider call",
		"provider", provider,
		"username", username,
		"duration_ms", duration.Milliseconds(),
		"success", true,
	)
}

// CacheLogger logs cache operations
func (l *Logger) CacheLogger(operation, key string, hit bool) {
	l.Debug("Cache Operation",
		"operation", operation,
		"key", key,
		"hit", hit,
	)
}

// ScoreLogger logs a completed score computation
func (l *Logger) ScoreLogger(userID string, total float64, provisional bool, degraded []string, duration time.Duration) {
	l.Info("Score computed",
		"user_id", userID,
		"total", total,
		"provisional", provisional,
		"degraded_sources", degraded,
		"duration_ms", duration.Milliseconds(),
	)
}

// RefreshLogger logs a scheduler tick
func (l *Logger) RefreshLogger(refreshed int, duration time.Duration, err error) {
	if err != nil {
		l.Warn("Refresh tick completed with errors",
			"refreshed", refreshed,
			"duration_ms", duration.Milliseconds(),
			"error", err,
		)
		return
	}
	l.Info("Refresh tick completed",
		"refreshed", refreshed,
		"duration_ms", duration.Milliseconds(),
	)
}

// SystemLogger logs system events
func (l *Logger) SystemLogger(event, details string) {
	l.Info("System Event",
		"event", event,
		"details", details,
	)
}
