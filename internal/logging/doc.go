// Package logging assembles the structured slog loggers used by the protocol
// engine and the CLI.
//
// It owns the console and JSON handlers, resolves level and output plumbing
// from configuration, and exposes context-aware helpers so log lines emitted
// while compiling a protocol carry the protocol name and session id. A no-op
// logger is provided for tests and library callers that do not log.
package logging
