package pipeline

import (
	"time"

	"cardvault/internal/capture"
	"cardvault/internal/transfer"
)

// DirectoryCount is the number of files a phase placed in one directory,
// including files that were already present.
type DirectoryCount struct {
	Dir   string
	Files int
}

// Failure records a file whose transfer did not complete.
type Failure struct {
	Path        string
	Destination string
	Err         error
}

// PhaseReport summarizes one phase.
type PhaseReport struct {
	Title     string
	Operation string
	BasePath  string
	// Directories are listed in the order the phase first used them.
	Directories    []DirectoryCount
	Transferred    int
	AlreadyPresent int
	Failures       []Failure
	Bytes          int64
	Elapsed        time.Duration

	index map[string]int
}

func newPhaseReport(phase Phase) *PhaseReport {
	return &PhaseReport{
		Title:     phase.Title,
		Operation: phase.Operation.Name(),
		BasePath:  phase.BasePath,
		index:     make(map[string]int),
	}
}

func (r *PhaseReport) claim(dir string) {
	if i, ok := r.index[dir]; ok {
		r.Directories[i].Files++
		return
	}
	r.index[dir] = len(r.Directories)
	r.Directories = append(r.Directories, DirectoryCount{Dir: dir, Files: 1})
}

// Counts returns the directory counts keyed by directory path.
func (r PhaseReport) Counts() map[string]int {
	counts := make(map[string]int, len(r.Directories))
	for _, d := range r.Directories {
		counts[d.Dir] = d.Files
	}
	return counts
}

// Total returns the number of files the phase processed.
func (r PhaseReport) Total() int {
	total := 0
	for _, d := range r.Directories {
		total += d.Files
	}
	return total
}

// Failed reports whether any transfer in the phase failed.
func (r PhaseReport) Failed() bool {
	return len(r.Failures) > 0
}

// Outcome describes what happened to one file in one phase.
type Outcome struct {
	Phase       string
	Operation   string
	File        capture.CameraFile
	Directory   string
	Destination string
	Present     bool
	Result      transfer.Result
	Err         error
}

// Observer receives progress callbacks while a run executes.
type Observer interface {
	PhaseStarted(title string, total int)
	FileFinished(outcome Outcome)
	PhaseFinished(report PhaseReport)
}

// AnyFailed reports whether any phase recorded a transfer failure.
func AnyFailed(reports []PhaseReport) bool {
	for _, r := range reports {
		if r.Failed() {
			return true
		}
	}
	return false
}
