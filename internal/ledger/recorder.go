package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"cardvault/internal/logging"
	"cardvault/internal/pipeline"
)

// Recorder is a pipeline.Observer that writes every outcome to the ledger.
type Recorder struct {
	ctx    context.Context
	store  *Store
	runID  string
	logger *slog.Logger
	warned bool
}

// NewRecorder returns an observer that records outcomes under runID.
func NewRecorder(ctx context.Context, store *Store, runID string, logger *slog.Logger) *Recorder {
	return &Recorder{
		ctx:    ctx,
		store:  store,
		runID:  runID,
		logger: logging.NewComponentLogger(logger, "ledger"),
	}
}

func (r *Recorder) PhaseStarted(string, int) {}

func (r *Recorder) PhaseFinished(pipeline.PhaseReport) {}

// FileFinished records one outcome. Write failures are logged once per run.
func (r *Recorder) FileFinished(o pipeline.Outcome) {
	t := Transfer{
		Phase:       o.Phase,
		Operation:   o.Operation,
		Source:      o.File.Path,
		Destination: o.Destination,
		CapturedAt:  o.File.Timestamp,
	}
	switch {
	case o.Err != nil:
		t.Outcome = OutcomeFailed
		t.Error = o.Err.Error()
	case o.Present:
		t.Outcome = OutcomePresent
	default:
		t.Outcome = OutcomeTransferred
		t.Bytes = o.Result.Bytes
		if o.Result.Digest != 0 {
			t.Digest = fmt.Sprintf("%016x", o.Result.Digest)
		}
	}
	if err := r.store.RecordTransfer(r.ctx, r.runID, t); err != nil && !r.warned {
		r.warned = true
		logging.WarnWithContext(r.logger, "ledger write failed", "ledger_write_failed",
			logging.String("run_id", r.runID),
			logging.Error(err),
			logging.String(logging.FieldImpact, "import history for this run is incomplete"),
		)
	}
}
