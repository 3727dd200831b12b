// Package config loads, normalizes, and validates winter configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides such as
// SPRING_TMP_PATH. The Config type is resolved once by the CLI and then
// threaded into every component, so nothing downstream consults process-wide
// state for socket or PID-file locations.
package config
