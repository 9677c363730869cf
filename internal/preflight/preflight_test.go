package preflight_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cardvault/internal/deps"
	"cardvault/internal/preflight"
	"cardvault/internal/runctx"
	"cardvault/internal/testsupport"
)

func TestCheckArchiveRootOK(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "raid-sanity-main"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	result := preflight.CheckArchiveRoot("primary", dir, "raid-sanity-main", true)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckArchiveRootMissingMarker(t *testing.T) {
	result := preflight.CheckArchiveRoot("primary", t.TempDir(), "raid-sanity-main", true)
	if result.Passed {
		t.Fatal("expected failure without sanity marker")
	}
	if !strings.Contains(result.Detail, "raid-sanity-main") {
		t.Fatalf("detail should name the marker: %s", result.Detail)
	}
}

func TestCheckArchiveRootEmptyMarkerDisablesCheck(t *testing.T) {
	if result := preflight.CheckArchiveRoot("primary", t.TempDir(), "", true); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckArchiveRootNotExist(t *testing.T) {
	result := preflight.CheckArchiveRoot("primary", filepath.Join(t.TempDir(), "nope"), "", true)
	if result.Passed || result.Detail == "" {
		t.Fatalf("expected failure for missing dir, got %+v", result)
	}
}

func TestCheckArchiveRootNotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := preflight.CheckArchiveRoot("primary", f, "", true); result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()
	if result := preflight.CheckFreeSpace("space", dir, 1); !result.Passed || !result.Advisory {
		t.Fatalf("expected advisory pass, got %+v", result)
	}
	result := preflight.CheckFreeSpace("space", dir, 1<<62)
	if result.Passed || !result.Advisory {
		t.Fatalf("expected advisory failure, got %+v", result)
	}
}

func TestCheckDependencies(t *testing.T) {
	results := preflight.CheckDependencies([]deps.Status{
		{Name: "umount", Available: true, Path: "/usr/bin/umount"},
		{Name: "ExifTool", Optional: true, Detail: "binary \"exiftool\" not found"},
	})
	if !results[0].Passed || results[0].Advisory {
		t.Fatalf("unexpected %+v", results[0])
	}
	if results[1].Passed || !results[1].Advisory {
		t.Fatalf("unexpected %+v", results[1])
	}
	if len(preflight.Blocking(results)) != 0 {
		t.Fatal("optional dependencies must not block")
	}
}

func TestRunAllPassesWithPreparedArchives(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())

	results := preflight.RunAll(cfg, preflight.Options{ImportBytes: 1024})
	if err := preflight.Err(results); err != nil {
		t.Fatalf("unexpected blocking results: %v", err)
	}
}

func TestRunAllFailsWithoutMarker(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	if err := os.Remove(filepath.Join(cfg.Archive.BackupDir, cfg.Archive.BackupMarker)); err != nil {
		t.Fatal(err)
	}

	err := preflight.Err(preflight.RunAll(cfg, preflight.Options{}))
	if !errors.Is(err, runctx.ErrPrecondition) {
		t.Fatalf("expected precondition error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Backup archive") {
		t.Fatalf("error should name the failing check: %v", err)
	}
}
