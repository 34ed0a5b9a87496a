package logging

import (
	"context"
	"log/slog"

	"platewright/internal/runctx"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldProtocol names the protocol being compiled.
	FieldProtocol = "protocol"
	// FieldSessionID identifies one builder session.
	FieldSessionID = "session_id"
	// FieldManifest is the manifest file a run was loaded from.
	FieldManifest = "manifest"
	// FieldContainer names the container an operation touched.
	FieldContainer = "container"
	// FieldOp is the instruction op being emitted.
	FieldOp = "op"
	// FieldEventType classifies a log line for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to try next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if name, ok := runctx.ProtocolFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldProtocol, name))
	}
	if id, ok := runctx.SessionIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldSessionID, id))
	}
	if path, ok := runctx.ManifestFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldManifest, path))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
