package transfer

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"cardvault/internal/fileutil"
	"cardvault/internal/runctx"
)

// Kind selects an Operation variant.
type Kind string

const (
	KindCopy Kind = "copy"
	KindMove Kind = "move"
	KindMock Kind = "mock"
)

func (k Kind) verb() string {
	if k == KindCopy {
		return "cp"
	}
	return "mv"
}

// Result describes the bytes an operation moved.
type Result struct {
	Bytes  int64
	Digest uint64
}

// Operation applies one transfer. An empty dst is a no-op.
type Operation interface {
	Name() string
	Apply(ctx context.Context, src, dst string) (Result, error)
}

// New returns the Operation for kind. With mock set the result only plans
// kind's action against fsys and writes one line per file to plan, which may
// be nil.
func New(kind Kind, fsys afero.Fs, mock bool, plan io.Writer) (Operation, error) {
	if kind != KindCopy && kind != KindMove {
		return nil, fmt.Errorf("unknown transfer operation %q", kind)
	}
	switch {
	case mock:
		return NewMock(kind.verb(), fsys, plan), nil
	case kind == KindCopy:
		return NewCopy(fsys), nil
	default:
		return NewMove(fsys), nil
	}
}

// Copy duplicates the source into the archive, leaving the card untouched.
type Copy struct {
	fs afero.Fs
}

func NewCopy(fsys afero.Fs) *Copy { return &Copy{fs: fsys} }

func (c *Copy) Name() string { return string(KindCopy) }

func (c *Copy) Apply(ctx context.Context, src, dst string) (Result, error) {
	if dst == "" {
		return Result{}, nil
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if err := c.fs.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return Result{}, runctx.Wrap(runctx.ErrTransfer, "transfer", "copy", dst, err)
	}
	res, err := fileutil.CopyFileVerified(c.fs, src, dst)
	if err != nil {
		return Result{}, runctx.Wrap(runctx.ErrTransfer, "transfer", "copy", src, err)
	}
	return Result{Bytes: res.Bytes, Digest: res.Digest}, nil
}

// Move relocates the source into the archive, removing it from the card.
type Move struct {
	fs afero.Fs
}

func NewMove(fsys afero.Fs) *Move { return &Move{fs: fsys} }

func (m *Move) Name() string { return string(KindMove) }

func (m *Move) Apply(ctx context.Context, src, dst string) (Result, error) {
	if dst == "" {
		return Result{}, nil
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if err := m.fs.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return Result{}, runctx.Wrap(runctx.ErrTransfer, "transfer", "move", dst, err)
	}
	res, err := fileutil.MoveFile(m.fs, src, dst)
	if err != nil {
		return Result{}, runctx.Wrap(runctx.ErrTransfer, "transfer", "move", src, err)
	}
	return Result{Bytes: res.Bytes, Digest: res.Digest}, nil
}

// Planned is one transfer a Mock would have performed.
type Planned struct {
	Verb string
	Src  string
	Dst  string
}

// Mock records transfers instead of performing them. Each planned transfer
// is written to the plan writer as "<verb> <src> <dst>". When fs is set, an
// empty placeholder is created at dst so later files in the same run see the
// name as taken; fs must then be a scratch layer, never the real archive.
// Origin reports which source each placeholder stands for.
type Mock struct {
	verb string
	fs   afero.Fs
	plan io.Writer

	mu      sync.Mutex
	planned []Planned
	origins map[string]string
}

func NewMock(verb string, fsys afero.Fs, plan io.Writer) *Mock {
	if strings.TrimSpace(verb) == "" {
		verb = "mv"
	}
	return &Mock{verb: verb, fs: fsys, plan: plan, origins: make(map[string]string)}
}

func (m *Mock) Name() string { return string(KindMock) }

func (m *Mock) Apply(ctx context.Context, src, dst string) (Result, error) {
	if dst == "" {
		return Result{}, nil
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.plan != nil {
		if _, err := fmt.Fprintf(m.plan, "%s %s %s\n", m.verb, src, dst); err != nil {
			return Result{}, runctx.Wrap(runctx.ErrTransfer, "transfer", "mock", "write plan", err)
		}
	}
	if m.fs != nil {
		if err := m.fs.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return Result{}, runctx.Wrap(runctx.ErrTransfer, "transfer", "mock", dst, err)
		}
		if err := afero.WriteFile(m.fs, dst, nil, 0o644); err != nil {
			return Result{}, runctx.Wrap(runctx.ErrTransfer, "transfer", "mock", dst, err)
		}
	}
	m.planned = append(m.planned, Planned{Verb: m.verb, Src: src, Dst: dst})
	m.origins[filepath.Clean(dst)] = src
	return Result{}, nil
}

// Origin returns the source planned for dst. It lets collision checks treat a
// placeholder as the file it stands for.
func (m *Mock) Origin(dst string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	src, ok := m.origins[filepath.Clean(dst)]
	return src, ok
}

// Planned returns the transfers recorded so far.
func (m *Mock) Planned() []Planned {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Planned(nil), m.planned...)
}
