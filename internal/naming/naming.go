// Package naming picks destination paths that never overwrite distinct
// content. A taken name is retried as NAME.1.EXT, NAME.2.EXT, ... until a free
// slot or a byte-identical copy of the source is found.
package naming

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"cardvault/internal/fileutil"
)

// Origins maps a planned destination to the source file whose content it
// stands for. Mock transfers leave empty placeholders behind.
type Origins interface {
	Origin(dst string) (src string, ok bool)
}

// Namer resolves collision-safe destination paths on an archive filesystem.
type Namer struct {
	fs      afero.Fs
	origins Origins
}

// Option customizes a Namer.
type Option func(*Namer)

// WithOrigins compares candidates known to origins against their source
// instead of their own bytes.
func WithOrigins(o Origins) Option {
	return func(n *Namer) { n.origins = o }
}

// New returns a Namer for fsys.
func New(fsys afero.Fs, opts ...Option) *Namer {
	n := &Namer{fs: fsys}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Resolve returns the path src should be written to. When a byte-identical
// copy of src already occupies a candidate, present is true and dst is that
// existing path; nothing needs to be transferred.
func (n *Namer) Resolve(src, proposed string) (dst string, present bool, err error) {
	for iteration := 0; ; iteration++ {
		candidate := Candidate(proposed, iteration)
		_, err := n.fs.Stat(candidate)
		if errors.Is(err, fs.ErrNotExist) {
			return candidate, false, nil
		}
		if err != nil {
			return "", false, fmt.Errorf("stat %s: %w", candidate, err)
		}
		existing := candidate
		if n.origins != nil {
			if origin, ok := n.origins.Origin(candidate); ok {
				existing = origin
			}
		}
		same, err := fileutil.SameContent(n.fs, src, existing)
		if err != nil {
			return "", false, fmt.Errorf("compare %s with %s: %w", src, candidate, err)
		}
		if same {
			return candidate, true, nil
		}
	}
}

// Candidate returns the name tried on the given iteration: proposed itself for
// 0, otherwise the iteration number inserted before the final extension of the
// file name ("IMG_0001.2.jpg"), or appended when there is none ("README.2").
func Candidate(proposed string, iteration int) string {
	if iteration == 0 {
		return proposed
	}
	dir, name := filepath.Split(proposed)
	suffix := strconv.Itoa(iteration)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if ext == "" || stem == "" {
		return dir + name + "." + suffix
	}
	return dir + stem + "." + suffix + ext
}
