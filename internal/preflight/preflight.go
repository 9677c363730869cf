package preflight

import (
	"fmt"
	"strings"

	"cardvault/internal/config"
	"cardvault/internal/deps"
	"cardvault/internal/runctx"
)

// Result reports the outcome of a single preflight check. Advisory results
// are informational and never block an import.
type Result struct {
	Name     string
	Passed   bool
	Advisory bool
	Detail   string
}

// Options tunes RunAll for one import.
type Options struct {
	// ImportBytes is the total size of the files about to be archived.
	ImportBytes int64
	// ReadOnly skips write-permission checks, for mock runs.
	ReadOnly bool
}

// RunAll executes the checks that apply to cfg.
func RunAll(cfg *config.Config, opts Options) []Result {
	if cfg == nil {
		return nil
	}
	roots := []struct {
		name, path, marker string
	}{
		{"Primary archive", cfg.Archive.PrimaryDir, cfg.Archive.PrimaryMarker},
		{"Backup archive", cfg.Archive.BackupDir, cfg.Archive.BackupMarker},
	}

	var results []Result
	for _, root := range roots {
		check := CheckArchiveRoot(root.name, root.path, root.marker, !opts.ReadOnly)
		results = append(results, check)
		if check.Passed && opts.ImportBytes > 0 {
			results = append(results, CheckFreeSpace(root.name+" space", root.path, uint64(opts.ImportBytes)))
		}
	}
	results = append(results, CheckDependencies(deps.CheckBinaries(deps.Requirements(cfg)))...)
	return results
}

// Blocking returns the failed results that must stop an import.
func Blocking(results []Result) []Result {
	var blocking []Result
	for _, r := range results {
		if !r.Passed && !r.Advisory {
			blocking = append(blocking, r)
		}
	}
	return blocking
}

// Err folds blocking results into a single precondition error, or nil.
func Err(results []Result) error {
	blocking := Blocking(results)
	if len(blocking) == 0 {
		return nil
	}
	parts := make([]string, 0, len(blocking))
	for _, r := range blocking {
		parts = append(parts, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}
	return runctx.Wrap(runctx.ErrPrecondition, "preflight", "check", strings.Join(parts, "; "), nil)
}
