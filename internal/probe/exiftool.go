package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"cardvault/internal/runctx"
)

// ExifTool runs `exiftool -b -createdate` for each probed file.
type ExifTool struct {
	Binary  string
	Timeout time.Duration
}

// CaptureDate returns the raw CreateDate value of path.
func (e ExifTool) CaptureDate(ctx context.Context, path string) (string, error) {
	binary := strings.TrimSpace(e.Binary)
	if binary == "" {
		binary = "exiftool"
	}
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, binary, "-b", "-createdate", "--", path)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", runctx.Wrap(runctx.ErrExternalTool, "probe", "exiftool", fmt.Sprintf("binary %q not found", binary), err)
		}
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = "exiftool failed"
		}
		return "", runctx.Wrap(runctx.ErrExternalTool, "probe", "exiftool", detail, err)
	}

	value := strings.TrimSpace(stdout.String())
	if value == "" {
		return "", runctx.Wrap(runctx.ErrExternalTool, "probe", "exiftool", fmt.Sprintf("no CreateDate in %s", path), nil)
	}
	return value, nil
}
