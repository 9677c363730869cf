package session

import (
	"time"

	"cardvault/internal/capture"
)

// DefaultDayBreak is the gap that starts a new session.
const DefaultDayBreak = 4 * time.Hour

// DirectoryResolver maps a base path and capture time to a day directory.
type DirectoryResolver interface {
	DirectoryFor(basePath string, t time.Time) (string, error)
}

// Tracker holds one phase's session state. It must see files in ascending
// timestamp order.
type Tracker struct {
	resolver DirectoryResolver
	dayBreak time.Duration
	current  string
	last     time.Time
}

// NewTracker starts a session tracker with no current directory. A
// non-positive dayBreak selects DefaultDayBreak.
func NewTracker(resolver DirectoryResolver, dayBreak time.Duration) *Tracker {
	if dayBreak <= 0 {
		dayBreak = DefaultDayBreak
	}
	return &Tracker{resolver: resolver, dayBreak: dayBreak}
}

// Assign returns the directory for file. A new directory is looked up for the
// first file and whenever the gap since the previous file exceeds the day
// break; otherwise the current directory is kept even across midnight.
func (t *Tracker) Assign(basePath string, file capture.CameraFile) (string, error) {
	gap := file.Epoch() - t.last.Unix()
	if t.current == "" || gap > int64(t.dayBreak/time.Second) {
		dir, err := t.resolver.DirectoryFor(basePath, file.Timestamp)
		if err != nil {
			return "", err
		}
		t.current = dir
	}
	t.last = file.Timestamp
	return t.current, nil
}

// Current returns the directory of the running session, or "".
func (t *Tracker) Current() string {
	return t.current
}
