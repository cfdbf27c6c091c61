// Package logger configures the process-wide structured logger.
//
// Third-party library logs (vector-db clients, SDK transports, etc.)
// below warn are filtered out unless the configured level is
// debug — this keeps production logs focused on agentforge's own
// request/tool/session events.
package logger

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"strings"
)

const modulePrefix = "github.com/brandloom/agentforge"

// ParseLevel converts a string log level to slog.Level.
// Valid levels: debug, info, warn, error. Unknown values default to info.
func ParseLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Format selects the on-disk/terminal rendering of log records.
type Format string

const (
	// FormatJSON emits one JSON object per record — the default for
	// deployed services so logs are directly ingestible.
	FormatJSON Format = "json"
	// FormatText emits slog's human-readable text format, used for
	// local development.
	FormatText Format = "text"
)

// Init installs the process-wide slog logger. Safe to call once at
// startup; subsequent calls replace the default logger.
func Init(level slog.Level, format Format, output *os.File) {
	if output == nil {
		output = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: level}

	var base slog.Handler
	switch format {
	case FormatText:
		base = slog.NewTextHandler(output, opts)
	default:
		base = slog.NewJSONHandler(output, opts)
	}

	slog.SetDefault(slog.New(&filteringHandler{handler: base, minLevel: level}))
}

// filteringHandler suppresses non-agentforge (third-party) records
// below warn unless the configured level is debug, so dependency chatter doesn't drown out our own
// request/tool/session events at info/warn.
type filteringHandler struct {
	handler  slog.Handler
	minLevel slog.Level
}

func (h *filteringHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *filteringHandler) Handle(ctx context.Context, record slog.Record) error {
	if h.minLevel <= slog.LevelDebug || record.Level >= slog.LevelWarn || isOwnPackage(record.PC) {
		return h.handler.Handle(ctx, record)
	}
	return nil
}

func (h *filteringHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &filteringHandler{handler: h.handler.WithAttrs(attrs), minLevel: h.minLevel}
}

func (h *filteringHandler) WithGroup(name string) slog.Handler {
	return &filteringHandler{handler: h.handler.WithGroup(name), minLevel: h.minLevel}
}

func isOwnPackage(pc uintptr) bool {
	if pc == 0 {
		return false
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return false
	}
	return strings.Contains(fn.Name(), modulePrefix)
}
