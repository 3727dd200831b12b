// Package logging assembles the structured slog loggers used by the winter
// client.
//
// It owns the console and JSON handlers, level parsing, and output plumbing,
// plus small attribute helpers so call sites read the same everywhere. Client
// logs default to stderr because stdout belongs to the forwarded command. A
// no-op logger is provided for tests and wiring code that cannot fail.
package logging
