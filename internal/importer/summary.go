package importer

import (
	"cardvault/internal/media"
	"cardvault/internal/pipeline"
	"cardvault/internal/preflight"
)

// UnmountFailure records a card that could not be released.
type UnmountFailure struct {
	Path string
	Err  error
}

// Summary describes a finished or interrupted import.
type Summary struct {
	RunID           string
	Mock            bool
	Cards           []media.Card
	Files           int
	Bytes           int64
	Preflight       []preflight.Result
	Reports         []pipeline.PhaseReport
	Unmounted       []string
	UnmountFailures []UnmountFailure
}

// FailureCount returns the number of failed transfers across phases.
func (s *Summary) FailureCount() int {
	n := 0
	for _, r := range s.Reports {
		n += len(r.Failures)
	}
	return n
}

// Transferred returns the number of files written across phases.
func (s *Summary) Transferred() int {
	n := 0
	for _, r := range s.Reports {
		n += r.Transferred
	}
	return n
}

// Failed reports whether any transfer failed.
func (s *Summary) Failed() bool {
	return pipeline.AnyFailed(s.Reports)
}
