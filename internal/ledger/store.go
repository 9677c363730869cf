package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"cardvault/internal/config"
)

// Store manages the import ledger backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the ledger database and applies migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.LedgerPath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// BeginRun inserts a new running import and returns it.
func (s *Store) BeginRun(ctx context.Context, info RunInfo) (*Run, error) {
	run := &Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Status:    RunRunning,
		Mock:      info.Mock,
		Cards:     info.Cards,
		Files:     info.Files,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, status, mock, cards, files) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID,
		formatTime(run.StartedAt),
		run.Status,
		boolToInt(run.Mock),
		run.Cards,
		run.Files,
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// RecordTransfer appends a transfer row to runID.
func (s *Store) RecordTransfer(ctx context.Context, runID string, t Transfer) error {
	if strings.TrimSpace(runID) == "" {
		return errors.New("run id is required")
	}
	if t.RecordedAt.IsZero() {
		t.RecordedAt = time.Now().UTC()
	}
	var captured any
	if !t.CapturedAt.IsZero() {
		captured = t.CapturedAt.Format(time.RFC3339)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transfers (
            run_id, phase, operation, source_path, destination_path, outcome,
            bytes, digest, captured_at, error_message, recorded_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID,
		t.Phase,
		t.Operation,
		t.Source,
		nullableString(t.Destination),
		t.Outcome,
		t.Bytes,
		nullableString(t.Digest),
		captured,
		nullableString(t.Error),
		formatTime(t.RecordedAt),
	)
	if err != nil {
		return fmt.Errorf("insert transfer: %w", err)
	}
	return nil
}

// FinishRun closes runID with status and folds its transfer rows into the
// run's counters. runErr, when set, is stored as the run's error message.
func (s *Store) FinishRun(ctx context.Context, runID string, status RunStatus, runErr error) error {
	var message any
	if runErr != nil {
		message = runErr.Error()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET
            finished_at = ?,
            status = ?,
            error_message = ?,
            transferred = (SELECT COUNT(1) FROM transfers WHERE run_id = runs.id AND outcome = ?),
            already_present = (SELECT COUNT(1) FROM transfers WHERE run_id = runs.id AND outcome = ?),
            failed = (SELECT COUNT(1) FROM transfers WHERE run_id = runs.id AND outcome = ?),
            bytes = (SELECT COALESCE(SUM(bytes), 0) FROM transfers WHERE run_id = runs.id)
        WHERE id = ?`,
		formatTime(time.Now().UTC()),
		status,
		message,
		OutcomeTransferred,
		OutcomePresent,
		OutcomeFailed,
		runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run: unknown run %s", runID)
	}
	return nil
}

const runColumns = "id, started_at, finished_at, status, mock, cards, files, transferred, already_present, failed, bytes, error_message"

// GetRun fetches a run by identifier. A missing run returns nil, nil.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// Transfers lists the transfers recorded for runID in insertion order.
func (s *Store) Transfers(ctx context.Context, runID string) ([]Transfer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, phase, operation, source_path, destination_path, outcome,
                bytes, digest, captured_at, error_message, recorded_at
         FROM transfers WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query transfers: %w", err)
	}
	defer rows.Close()

	var transfers []Transfer
	for rows.Next() {
		var (
			t           Transfer
			outcome     string
			destination sql.NullString
			digest      sql.NullString
			captured    sql.NullString
			message     sql.NullString
			recorded    string
		)
		if err := rows.Scan(&t.ID, &t.RunID, &t.Phase, &t.Operation, &t.Source, &destination, &outcome,
			&t.Bytes, &digest, &captured, &message, &recorded); err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		t.Outcome = Outcome(outcome)
		t.Destination = destination.String
		t.Digest = digest.String
		t.Error = message.String
		if ts, err := parseTime(captured.String); err == nil {
			t.CapturedAt = ts
		}
		if ts, err := parseTime(recorded); err == nil {
			t.RecordedAt = ts
		}
		transfers = append(transfers, t)
	}
	return transfers, rows.Err()
}
