package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"cardvault/internal/config"
)

// ConfigOption adjusts the configuration produced by NewConfig. Options run
// after the temp layout exists, so they may create files beneath it.
type ConfigOption func(t testing.TB, base string, cfg *config.Config)

// NewConfig returns a config whose every path lives in a per-test temp
// directory:
//
//	<base>/main     primary archive, marker present
//	<base>/backup   backup archive, marker present
//	<base>/media    card mount root (no user component)
//	<base>/state    lock and ledger
//	<base>/logs     rotating log file
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Archive.PrimaryDir = filepath.Join(base, "main")
	cfg.Archive.BackupDir = filepath.Join(base, "backup")
	cfg.Media.MountRoot = filepath.Join(base, "media")
	cfg.Media.User = ""
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for root, marker := range map[string]string{
		cfg.Archive.PrimaryDir: cfg.Archive.PrimaryMarker,
		cfg.Archive.BackupDir:  cfg.Archive.BackupMarker,
		cfg.Media.MountRoot:    "",
	} {
		if err := os.MkdirAll(root, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", root, err)
		}
		if path := config.MarkerPath(root, marker); path != "" {
			if err := os.WriteFile(path, nil, 0o644); err != nil {
				t.Fatalf("write marker %s: %v", path, err)
			}
		}
	}

	for _, opt := range opts {
		opt(t, base, &cfg)
	}
	return &cfg
}

// WithMediaUser nests card mounts under the given user directory.
func WithMediaUser(user string) ConfigOption {
	return func(_ testing.TB, _ string, cfg *config.Config) {
		cfg.Media.User = user
	}
}

// WithStubbedBinaries puts no-op executables named names first on PATH.
// Without names, exiftool and umount are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(t testing.TB, base string, _ *config.Config) {
		if len(names) == 0 {
			names = []string{"exiftool", "umount"}
		}
		bin := filepath.Join(base, "bin")
		if err := os.MkdirAll(bin, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", bin, err)
		}
		for _, name := range names {
			if err := os.WriteFile(filepath.Join(bin, name), []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
				t.Fatalf("stub %s: %v", name, err)
			}
		}
		t.Setenv("PATH", bin+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// BaseDir returns the temp directory that holds every path in cfg.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Archive.PrimaryDir)
}
