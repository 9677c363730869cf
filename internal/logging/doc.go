// Package logging assembles structured slog loggers and formatting helpers used
// across cardvault.
//
// It owns the console and JSON handlers, routes a JSON copy of every record to
// a size-rotated log file, and exposes context-aware helpers so pipeline code
// tags log lines with the run identifier and phase automatically. A no-op
// logger is provided for tests and wiring code that cannot fail.
package logging
