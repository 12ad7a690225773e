// Package logging assembles structured slog loggers for arremsync.
//
// It owns the console and JSON handlers, routes output to stdout, stderr, or
// a size-rotated log file, and exposes context-aware helpers so sync code can
// tag log lines with the run identifier and the Arr instance being processed.
// A no-op logger is provided for tests and wiring code that cannot fail.
package logging
