// Package logging provides a zerolog-based, context-scoped logger. Grounded
// on CedrosPay-server's internal/logger: a process-wide base logger built
// once at startup, request-scoped child loggers injected into context by
// the API middleware, and address/signature truncation so request logs
// never carry a full on-chain secret in the clear.
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type contextKey string

const loggerKey contextKey = "logger"

// Config controls the base logger's level, output format, and the static
// fields attached to every log line emitted by this process.
type Config struct {
	Level   string // debug, info, warn, error
	Format  string // json, console
	Service string
	Version string
}

// New builds the process-wide base logger and sets zerolog's global level.
func New(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	var output io.Writer = os.Stdout
	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	return zerolog.New(output).With().
		Timestamp().
		Str("service", cfg.Service).
		Str("version", cfg.Version).
		Logger()
}

// WithContext attaches a logger to ctx for later retrieval by FromContext.
func WithContext(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext retrieves the request-scoped logger, or a disabled logger if
// ctx carries none (e.g. in a unit test that never ran the middleware).
func FromContext(ctx context.Context) zerolog.Logger {
	if ctx == nil {
		return zerolog.Nop()
	}
	if logger, ok := ctx.Value(loggerKey).(zerolog.Logger); ok {
		return logger
	}
	return zerolog.Nop()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// TruncateAddress shows a value's first 8 and last 4 characters, used when
// logging wallet addresses, signatures, and transaction hashes so a log
// aggregator never holds one in full.
func TruncateAddress(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:8] + "..." + addr[len(addr)-4:]
}
