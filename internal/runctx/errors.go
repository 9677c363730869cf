package runctx

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers classify failures. Wrap attaches one to every error that
// leaves a package boundary.
var (
	ErrPrecondition  = errors.New("precondition failed")
	ErrTimestamp     = errors.New("timestamp resolution failed")
	ErrTransfer      = errors.New("transfer failed")
	ErrExternalTool  = errors.New("external tool error")
	ErrConfiguration = errors.New("configuration error")
)

// Exit codes returned by the CLI, one per marker.
const (
	ExitOK            = 0
	ExitUnclassified  = 1
	ExitConfiguration = 2
	ExitPrecondition  = 3
	ExitTimestamp     = 4
	ExitTransfer      = 5
)

var exitCodes = []struct {
	marker error
	code   int
}{
	{ErrConfiguration, ExitConfiguration},
	{ErrPrecondition, ExitPrecondition},
	{ErrTimestamp, ExitTimestamp},
	{ErrExternalTool, ExitTimestamp},
	{ErrTransfer, ExitTransfer},
}

// Wrap returns "<marker>: <stage>: <operation>: <message>[: <err>]" with empty
// parts omitted. Both marker and err remain visible to errors.Is. A nil
// marker is treated as ErrTransfer.
func Wrap(marker error, stage, operation, message string, err error) error {
	if marker == nil {
		marker = ErrTransfer
	}
	var parts []string
	for _, p := range []string{stage, operation, message} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	detail := strings.Join(parts, ": ")
	if detail == "" {
		detail = "import failure"
	}
	if err == nil {
		return fmt.Errorf("%w: %s", marker, detail)
	}
	return fmt.Errorf("%w: %s: %w", marker, detail, err)
}

// IsFatal reports whether err must abort the whole run rather than a single file.
func IsFatal(err error) bool {
	return err != nil && !errors.Is(err, ErrTransfer)
}

// ExitCode maps err to the process exit status. The first matching marker in
// configuration, precondition, timestamp, transfer order wins.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	for _, e := range exitCodes {
		if errors.Is(err, e.marker) {
			return e.code
		}
	}
	return ExitUnclassified
}
