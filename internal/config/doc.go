// Package config loads, normalizes, and validates platewright configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides such as
// PLATEWRIGHT_LOG_LEVEL. Dispenser defaults are kept as quantity strings and
// checked here so the compiler only ever sees well-formed volumes.
package config
