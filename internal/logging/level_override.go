package logging

import (
	"context"
	"log/slog"
	"strings"
)

// levelOverrideHandler enforces a per-logger minimum level while delegating
// output to the wrapped handler, which runs at the most verbose level any
// component needs.
type levelOverrideHandler struct {
	next  slog.Handler
	level slog.Level
}

func newLevelOverrideHandler(next slog.Handler, level slog.Level) slog.Handler {
	if next == nil {
		return NoopHandler{}
	}
	if existing, ok := next.(*levelOverrideHandler); ok {
		next = existing.next
	}
	return &levelOverrideHandler{next: next, level: level}
}

func (h *levelOverrideHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level && h.next.Enabled(ctx, level)
}

func (h *levelOverrideHandler) Handle(ctx context.Context, record slog.Record) error {
	if record.Level < h.level {
		return nil
	}
	return h.next.Handle(ctx, record)
}

func (h *levelOverrideHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelOverrideHandler{next: h.next.WithAttrs(attrs), level: h.level}
}

func (h *levelOverrideHandler) WithGroup(name string) slog.Handler {
	return &levelOverrideHandler{next: h.next.WithGroup(name), level: h.level}
}

// WithLevelOverride returns a logger that enforces the provided minimum level
// while preserving existing attributes and handler wiring.
func WithLevelOverride(logger *slog.Logger, level slog.Level) *slog.Logger {
	if logger == nil {
		return NewNop()
	}
	return slog.New(newLevelOverrideHandler(logger.Handler(), level))
}

// ForComponent tags logger with component and applies the matching entry of
// levels, if any. Keys are compared case-insensitively.
func ForComponent(logger *slog.Logger, component string, levels map[string]string) *slog.Logger {
	logger = NewComponentLogger(logger, component)
	for key, value := range levels {
		if strings.EqualFold(strings.TrimSpace(key), component) {
			return WithLevelOverride(logger, parseLevel(value))
		}
	}
	return logger
}
