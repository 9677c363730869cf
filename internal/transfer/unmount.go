package transfer

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"cardvault/internal/runctx"
)

// Unmounter releases card mounts by shelling out to umount.
type Unmounter struct {
	Binary  string
	Timeout time.Duration
}

// Unmount detaches the filesystem mounted at path.
func (u Unmounter) Unmount(ctx context.Context, path string) error {
	binary := strings.TrimSpace(u.Binary)
	if binary == "" {
		binary = "umount"
	}
	timeout := u.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, binary, path)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = path
		}
		return runctx.Wrap(runctx.ErrTransfer, "transfer", "unmount", detail, fmt.Errorf("%s %s: %w", binary, path, err))
	}
	return nil
}
