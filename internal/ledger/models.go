package ledger

import "time"

// RunStatus is the lifecycle state of an import run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	// RunFailed means at least one transfer failed; the run itself finished.
	RunFailed RunStatus = "failed"
	// RunAborted means a fatal error stopped the run early.
	RunAborted RunStatus = "aborted"
)

// Outcome classifies one recorded transfer.
type Outcome string

const (
	OutcomeTransferred Outcome = "transferred"
	OutcomePresent     Outcome = "present"
	OutcomeFailed      Outcome = "failed"
)

// RunInfo describes a run when it begins.
type RunInfo struct {
	Mock  bool
	Cards int
	Files int
}

// Run is one import invocation.
type Run struct {
	ID             string
	StartedAt      time.Time
	FinishedAt     *time.Time
	Status         RunStatus
	Mock           bool
	Cards          int
	Files          int
	Transferred    int
	AlreadyPresent int
	Failed         int
	Bytes          int64
	ErrorMessage   string
}

// Transfer is one file handled by one phase of a run.
type Transfer struct {
	ID          int64
	RunID       string
	Phase       string
	Operation   string
	Source      string
	Destination string
	Outcome     Outcome
	Bytes       int64
	Digest      string
	CapturedAt  time.Time
	Error       string
	RecordedAt  time.Time
}
