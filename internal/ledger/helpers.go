package ledger

import (
	"errors"
	"time"
)

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run        Run
		startedRaw string
		finished   *string
		status     string
		mock       int
		message    *string
	)
	if err := scanner.Scan(
		&run.ID,
		&startedRaw,
		&finished,
		&status,
		&mock,
		&run.Cards,
		&run.Files,
		&run.Transferred,
		&run.AlreadyPresent,
		&run.Failed,
		&run.Bytes,
		&message,
	); err != nil {
		return nil, err
	}
	run.Status = RunStatus(status)
	run.Mock = mock != 0
	if message != nil {
		run.ErrorMessage = *message
	}
	if started, err := parseTime(startedRaw); err == nil {
		run.StartedAt = started
	}
	if finished != nil {
		if ts, err := parseTime(*finished); err == nil {
			run.FinishedAt = &ts
		}
	}
	return &run, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}
