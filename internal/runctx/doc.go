// Package runctx defines the shared plumbing every import stage relies on.
//
// Key responsibilities:
//   - Context helpers that stamp the run identifier and the active phase so
//     log lines and ledger rows can be correlated.
//   - Structured error markers plus the Wrap helper that classify failures
//     into fatal run errors (preconditions, timestamp resolution) and local
//     per-file transfer failures.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the import pipeline.
package runctx
