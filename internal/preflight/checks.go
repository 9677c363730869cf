package preflight

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"cardvault/internal/config"
	"cardvault/internal/deps"
)

// CheckArchiveRoot verifies that path is an accessible directory holding the
// sanity marker. An empty marker disables the marker check.
func CheckArchiveRoot(name, path, marker string, writable bool) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	mode := uint32(unix.R_OK | unix.X_OK)
	if writable {
		mode |= unix.W_OK
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	if markerPath := config.MarkerPath(path, marker); markerPath != "" {
		if _, err := os.Stat(markerPath); err != nil {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: sanity marker %s missing; is the archive mounted?)", path, marker)}
		}
	}
	access := "read/write ok"
	if !writable {
		access = "read ok"
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, access)}
}

// CheckFreeSpace compares the space available under path with need.
func CheckFreeSpace(name, path string, need uint64) Result {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return Result{Name: name, Advisory: true, Detail: fmt.Sprintf("statfs %s: %v", path, err)}
	}
	free := st.Bavail * uint64(st.Bsize)
	detail := fmt.Sprintf("%s free, %s to import", humanize.IBytes(free), humanize.IBytes(need))
	if free < need {
		return Result{Name: name, Advisory: true, Detail: detail + " (insufficient)"}
	}
	return Result{Name: name, Passed: true, Advisory: true, Detail: detail}
}

// CheckDependencies converts dependency statuses into results. Optional
// programs are advisory.
func CheckDependencies(statuses []deps.Status) []Result {
	results := make([]Result, 0, len(statuses))
	for _, s := range statuses {
		r := Result{Name: s.Name, Passed: s.Available, Advisory: s.Optional}
		switch {
		case s.Available:
			r.Detail = s.Path
		case s.Optional:
			r.Detail = s.Detail + " (optional)"
		default:
			r.Detail = s.Detail
		}
		results = append(results, r)
	}
	return results
}
