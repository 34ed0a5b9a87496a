// Package runctx stamps authoring-session identifiers onto a context so log
// lines emitted while compiling a protocol can be correlated.
package runctx

import "context"

type contextKey string

const (
	protocolKey  contextKey = "protocol"
	sessionIDKey contextKey = "session_id"
	manifestKey  contextKey = "manifest"
)

// WithProtocol annotates context with the protocol name being compiled.
func WithProtocol(ctx context.Context, name string) context.Context {
	if name == "" {
		return ctx
	}
	return context.WithValue(ctx, protocolKey, name)
}

// ProtocolFromContext returns the protocol name if present.
func ProtocolFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(protocolKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithSessionID annotates context with the authoring session identifier.
func WithSessionID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionIDKey, id)
}

// SessionIDFromContext extracts the session identifier if present.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(sessionIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithManifest annotates context with the manifest path being resolved.
func WithManifest(ctx context.Context, path string) context.Context {
	if path == "" {
		return ctx
	}
	return context.WithValue(ctx, manifestKey, path)
}

// ManifestFromContext returns the manifest path if present.
func ManifestFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(manifestKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}
