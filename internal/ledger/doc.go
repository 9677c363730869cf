// Package ledger persists import history in SQLite.
//
// Each import is a run identified by a UUID. Every file a phase handles is
// recorded as a transfer row with its outcome, destination, and digest, so
// "cardvault history" can show what happened after the terminal is gone.
// Ledger writes are best effort: callers log failures and keep importing.
package ledger
