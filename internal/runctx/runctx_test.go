package runctx_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"cardvault/internal/runctx"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = runctx.WithRunID(ctx, "run-123")
	ctx = runctx.WithPhase(ctx, "Copy to primary")

	if id, ok := runctx.RunIDFromContext(ctx); !ok || id != "run-123" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if phase, ok := runctx.PhaseFromContext(ctx); !ok || phase != "Copy to primary" {
		t.Fatalf("unexpected phase: %v %v", phase, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = runctx.WithPhase(runctx.WithRunID(ctx, ""), "")
	if _, ok := runctx.RunIDFromContext(ctx); ok {
		t.Fatal("expected no run id")
	}
	if _, ok := runctx.PhaseFromContext(ctx); ok {
		t.Fatal("expected no phase")
	}
}

func TestWrapIncludesDetailAndMarker(t *testing.T) {
	cause := errors.New("exit status 1")
	err := runctx.Wrap(runctx.ErrTimestamp, "capture", "probe", "exiftool failed", cause)
	if !errors.Is(err, runctx.ErrTimestamp) {
		t.Fatalf("expected timestamp marker, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be wrapped, got %v", err)
	}
	if !strings.Contains(err.Error(), "capture: probe: exiftool failed") {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestIsFatal(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{runctx.Wrap(runctx.ErrTransfer, "copy", "", "", nil), false},
		{runctx.Wrap(runctx.ErrPrecondition, "preflight", "", "", nil), true},
		{runctx.Wrap(runctx.ErrTimestamp, "capture", "", "", nil), true},
		{errors.New("unclassified"), true},
	}
	for _, tc := range cases {
		if got := runctx.IsFatal(tc.err); got != tc.want {
			t.Fatalf("IsFatal(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := runctx.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, runctx.ErrTransfer) {
		t.Fatalf("expected transfer marker default, got %v", err)
	}
	if !strings.Contains(err.Error(), "import failure") {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestExitCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, runctx.ExitOK},
		{errors.New("boom"), runctx.ExitUnclassified},
		{runctx.Wrap(runctx.ErrConfiguration, "config", "", "bad", nil), runctx.ExitConfiguration},
		{runctx.Wrap(runctx.ErrPrecondition, "preflight", "", "marker missing", nil), runctx.ExitPrecondition},
		{runctx.Wrap(runctx.ErrTimestamp, "capture", "", "", nil), runctx.ExitTimestamp},
		{runctx.Wrap(runctx.ErrExternalTool, "probe", "", "", nil), runctx.ExitTimestamp},
		{runctx.Wrap(runctx.ErrTransfer, "import", "", "2 transfer(s) failed", nil), runctx.ExitTransfer},
		{fmt.Errorf("outer: %w", runctx.Wrap(runctx.ErrPrecondition, "", "", "", nil)), runctx.ExitPrecondition},
	}
	for _, tc := range cases {
		if got := runctx.ExitCode(tc.err); got != tc.want {
			t.Fatalf("ExitCode(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
