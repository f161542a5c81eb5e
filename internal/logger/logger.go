// Package logger builds the process slog logger and the gin request middleware.
package logger

import (
	"log/slog"
	"os"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
)

// NewLogger creates a slog Logger with the given level and format and installs it as
// the default. Unknown levels fall back to info.
func NewLogger(levelStr string, jsonOutput bool) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if jsonOutput {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// Middleware logs one line per HTTP request once the handler chain has finished.
func Middleware(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		entry := log.With(
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"duration", time.Since(startTime),
			"client_ip", c.ClientIP(),
		)
		if len(c.Errors) > 0 {
			entry = entry.With("errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			entry.ErrorContext(c.Request.Context(), "Request failed")
		case status >= 400:
			entry.WarnContext(c.Request.Context(), "Request rejected")
		default:
			entry.InfoContext(c.Request.Context(), "Request handled")
		}
	}
}

// TruncateString shortens s for log previews without splitting a UTF-8 sequence.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	cut := maxLen - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
