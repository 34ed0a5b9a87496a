// Package main hosts the platewright CLI entrypoint and command graph.
//
// The Cobra command tree loads configuration, picks the container-type
// catalog, resolves manifest parameters and runs registered protocols,
// writing the compiled document to stdout. Logs always go to stderr so the
// document can be piped.
//
// Keep this package thin: behaviour belongs in the internal packages and is
// only surfaced here through flags and output formatting.
package main
