package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"cardvault/internal/capture"
	"cardvault/internal/ledger"
	"cardvault/internal/pipeline"
	"cardvault/internal/testsupport"
	"cardvault/internal/transfer"
)

func TestOpenAppliesMigrationsIdempotently(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := ledger.Open(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if reopened.Path() != cfg.LedgerPath() {
		t.Fatalf("unexpected path %s", reopened.Path())
	}
	version, err := reopened.SchemaVersion(context.Background())
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if version != 1 {
		t.Fatalf("schema version = %d, want 1", version)
	}
}

func TestRunLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	ctx := context.Background()

	run, err := store.BeginRun(ctx, ledger.RunInfo{Cards: 1, Files: 3})
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if run.ID == "" || run.Status != ledger.RunRunning {
		t.Fatalf("unexpected run %+v", run)
	}

	captured := time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC)
	records := []ledger.Transfer{
		{Phase: "copy", Operation: "copy", Source: "/card/a.JPG", Destination: "/main/a.JPG", Outcome: ledger.OutcomeTransferred, Bytes: 10, Digest: "00000000000000ff", CapturedAt: captured},
		{Phase: "copy", Operation: "copy", Source: "/card/b.JPG", Destination: "/main/b.JPG", Outcome: ledger.OutcomePresent},
		{Phase: "copy", Operation: "copy", Source: "/card/c.JPG", Destination: "/main/c.JPG", Outcome: ledger.OutcomeFailed, Error: "disk full"},
	}
	for _, rec := range records {
		if err := store.RecordTransfer(ctx, run.ID, rec); err != nil {
			t.Fatalf("RecordTransfer: %v", err)
		}
	}
	if err := store.FinishRun(ctx, run.ID, ledger.RunFailed, nil); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	got, err := store.GetRun(ctx, run.ID)
	if err != nil || got == nil {
		t.Fatalf("GetRun: %v %v", got, err)
	}
	if got.Status != ledger.RunFailed || got.FinishedAt == nil {
		t.Fatalf("run not finished: %+v", got)
	}
	if got.Transferred != 1 || got.AlreadyPresent != 1 || got.Failed != 1 || got.Bytes != 10 {
		t.Fatalf("unexpected counters %+v", got)
	}

	transfers, err := store.Transfers(ctx, run.ID)
	if err != nil {
		t.Fatalf("Transfers: %v", err)
	}
	if len(transfers) != 3 {
		t.Fatalf("expected 3 transfers, got %d", len(transfers))
	}
	if !transfers[0].CapturedAt.Equal(captured) || transfers[0].Digest != "00000000000000ff" {
		t.Fatalf("unexpected first transfer %+v", transfers[0])
	}
	if transfers[2].Error != "disk full" || transfers[1].Destination != "/main/b.JPG" {
		t.Fatalf("unexpected transfers %+v", transfers)
	}
}

func TestFinishUnknownRun(t *testing.T) {
	store := testsupport.MustOpenLedger(t, testsupport.NewConfig(t))
	if err := store.FinishRun(context.Background(), "missing", ledger.RunCompleted, nil); err == nil {
		t.Fatal("expected error for unknown run")
	}
	if run, err := store.GetRun(context.Background(), "missing"); err != nil || run != nil {
		t.Fatalf("GetRun(missing) = %v, %v", run, err)
	}
}

func TestRecentRunsNewestFirst(t *testing.T) {
	store := testsupport.MustOpenLedger(t, testsupport.NewConfig(t))
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		run, err := store.BeginRun(ctx, ledger.RunInfo{Mock: i == 1})
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, run.ID)
	}
	if err := store.FinishRun(ctx, ids[2], ledger.RunAborted, errors.New("archive missing")); err != nil {
		t.Fatal(err)
	}

	runs, err := store.RecentRuns(ctx, 2)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != ids[2] || runs[1].ID != ids[1] {
		t.Fatalf("unexpected order %+v", runs)
	}
	if runs[0].ErrorMessage != "archive missing" || !runs[1].Mock {
		t.Fatalf("unexpected run details %+v", runs)
	}
}

func TestRecorderWritesOutcomes(t *testing.T) {
	store := testsupport.MustOpenLedger(t, testsupport.NewConfig(t))
	ctx := context.Background()
	run, err := store.BeginRun(ctx, ledger.RunInfo{})
	if err != nil {
		t.Fatal(err)
	}

	rec := ledger.NewRecorder(ctx, store, run.ID, nil)
	file := capture.NewCameraFile("/card/DCIM/100/IMG_0001.JPG", time.Date(2024, 3, 3, 12, 0, 0, 0, time.UTC))
	rec.PhaseStarted("copy", 2)
	rec.FileFinished(pipeline.Outcome{Phase: "copy", Operation: "copy", File: file, Destination: "/main/2024-03-03/IMG_0001.JPG", Result: transfer.Result{Bytes: 42, Digest: 0xabc}})
	rec.FileFinished(pipeline.Outcome{Phase: "move", Operation: "move", File: file, Destination: "/bak/2024-03-03/IMG_0001.JPG", Err: errors.New("boom")})
	rec.PhaseFinished(pipeline.PhaseReport{})

	transfers, err := store.Transfers(ctx, run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(transfers) != 2 {
		t.Fatalf("expected 2 transfers, got %d", len(transfers))
	}
	if transfers[0].Outcome != ledger.OutcomeTransferred || transfers[0].Bytes != 42 || transfers[0].Digest != "0000000000000abc" {
		t.Fatalf("unexpected transfer %+v", transfers[0])
	}
	if transfers[1].Outcome != ledger.OutcomeFailed || transfers[1].Error != "boom" {
		t.Fatalf("unexpected transfer %+v", transfers[1])
	}
}
