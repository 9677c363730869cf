// Package deps reports whether the external programs cardvault shells out to
// are installed.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"cardvault/internal/config"
)

// Requirement defines an external program cardvault relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a requirement.
type Status struct {
	Name        string
	Command     string
	Path        string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements lists the programs the given configuration will execute.
func Requirements(cfg *config.Config) []Requirement {
	if cfg == nil {
		return nil
	}
	var reqs []Requirement
	reqs = append(reqs, Requirement{
		Name:        "ExifTool",
		Command:     cfg.Probe.ExifToolBinary,
		Description: "Reads embedded capture dates when file times are unusable",
		Optional:    cfg.Probe.Backend != config.ProbeBackendExifTool,
	})
	reqs = append(reqs, Requirement{
		Name:        "umount",
		Command:     cfg.Media.UnmountBinary,
		Description: "Releases cards after a successful import",
		Optional:    !cfg.Media.Unmount,
	})
	return reqs
}

// CheckBinaries resolves each requirement on PATH.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		results = append(results, check(req))
	}
	return results
}

func check(req Requirement) Status {
	status := Status{
		Name:        req.Name,
		Command:     strings.TrimSpace(req.Command),
		Description: strings.TrimSpace(req.Description),
		Optional:    req.Optional,
	}
	if status.Command == "" {
		status.Detail = "command not configured"
		return status
	}
	path, err := exec.LookPath(status.Command)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", status.Command)
		return status
	}
	status.Path = path
	status.Available = true
	return status
}

// MissingRequired returns the unavailable, non-optional statuses.
func MissingRequired(statuses []Status) []Status {
	var missing []Status
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			missing = append(missing, s)
		}
	}
	return missing
}
