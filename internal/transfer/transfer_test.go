package transfer_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"cardvault/internal/runctx"
	"cardvault/internal/transfer"
)

func seed(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestNewSelectsVariant(t *testing.T) {
	fs := afero.NewMemMapFs()
	cases := []struct {
		kind transfer.Kind
		mock bool
		want string
	}{
		{transfer.KindCopy, false, "copy"},
		{transfer.KindMove, false, "move"},
		{transfer.KindCopy, true, "mock"},
		{transfer.KindMove, true, "mock"},
	}
	for _, c := range cases {
		op, err := transfer.New(c.kind, fs, c.mock, nil)
		if err != nil {
			t.Fatalf("New(%s, %v): %v", c.kind, c.mock, err)
		}
		if op.Name() != c.want {
			t.Fatalf("New(%s, %v).Name() = %q, want %q", c.kind, c.mock, op.Name(), c.want)
		}
	}
	for _, kind := range []transfer.Kind{transfer.KindMock, "rsync"} {
		if _, err := transfer.New(kind, fs, false, nil); err == nil {
			t.Fatalf("expected error for kind %q", kind)
		}
	}
}

func TestMockPlansVerbOfKind(t *testing.T) {
	fs := afero.NewMemMapFs()
	var plan bytes.Buffer
	for _, kind := range []transfer.Kind{transfer.KindCopy, transfer.KindMove} {
		op, err := transfer.New(kind, fs, true, &plan)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := op.Apply(context.Background(), "/card/DCIM/100/IMG_0001.JPG", "/archive/2024-06-01/IMG_0001.JPG"); err != nil {
			t.Fatal(err)
		}
	}
	want := "cp /card/DCIM/100/IMG_0001.JPG /archive/2024-06-01/IMG_0001.JPG\n" +
		"mv /card/DCIM/100/IMG_0001.JPG /archive/2024-06-01/IMG_0001.JPG\n"
	if plan.String() != want {
		t.Fatalf("plan = %q, want %q", plan.String(), want)
	}
}

func TestEmptyDestinationIsNoop(t *testing.T) {
	fs := afero.NewMemMapFs()
	var plan bytes.Buffer
	ops := []transfer.Operation{
		transfer.NewCopy(fs),
		transfer.NewMove(fs),
		transfer.NewMock("mv", fs, &plan),
	}
	for _, op := range ops {
		res, err := op.Apply(context.Background(), "/card/missing.JPG", "")
		if err != nil {
			t.Fatalf("%s: skip must not fail: %v", op.Name(), err)
		}
		if res.Bytes != 0 {
			t.Fatalf("%s: unexpected bytes %d", op.Name(), res.Bytes)
		}
	}
	if plan.Len() != 0 {
		t.Fatalf("skips must not be planned, got %q", plan.String())
	}
}

func TestCopyCreatesParentAndKeepsSource(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "card", "DCIM", "100", "IMG_0001.JPG")
	dst := filepath.Join(root, "archive", "2024-01-01", "IMG_0001.JPG")
	seed(t, src, "jpeg-bytes")

	res, err := transfer.NewCopy(afero.NewOsFs()).Apply(context.Background(), src, dst)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if res.Bytes != int64(len("jpeg-bytes")) {
		t.Fatalf("bytes = %d", res.Bytes)
	}
	if got, _ := os.ReadFile(dst); string(got) != "jpeg-bytes" {
		t.Fatalf("unexpected dst %q", got)
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatalf("copy must keep the source: %v", err)
	}
}

func TestCopyFailureIsTransferError(t *testing.T) {
	root := t.TempDir()
	_, err := transfer.NewCopy(afero.NewOsFs()).Apply(context.Background(), filepath.Join(root, "gone.JPG"), filepath.Join(root, "out", "gone.JPG"))
	if !errors.Is(err, runctx.ErrTransfer) {
		t.Fatalf("expected ErrTransfer, got %v", err)
	}
	if runctx.IsFatal(err) {
		t.Fatal("per-file transfer failures must not be fatal")
	}
}

func TestMoveRemovesSource(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "card", "MVI_0001.MOV")
	dst := filepath.Join(root, "backup", "2024-01-01", "MVI_0001.MOV")
	seed(t, src, "movie")

	if _, err := transfer.NewMove(afero.NewOsFs()).Apply(context.Background(), src, dst); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("move must remove the source: %v", err)
	}
	if got, _ := os.ReadFile(dst); string(got) != "movie" {
		t.Fatalf("unexpected dst %q", got)
	}
}

func TestMockRecordsPlanWithoutTouchingDisk(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "card", "IMG_0001.JPG")
	seed(t, src, "jpeg")
	archive := filepath.Join(root, "archive")
	if err := os.Mkdir(archive, 0o755); err != nil {
		t.Fatal(err)
	}

	overlay := afero.NewCopyOnWriteFs(afero.NewReadOnlyFs(afero.NewOsFs()), afero.NewMemMapFs())
	var plan bytes.Buffer
	mock := transfer.NewMock("cp", overlay, &plan)
	dst := filepath.Join(archive, "2024-01-01", "IMG_0001.JPG")

	if _, err := mock.Apply(context.Background(), src, dst); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if want := "cp " + src + " " + dst + "\n"; plan.String() != want {
		t.Fatalf("plan = %q, want %q", plan.String(), want)
	}
	planned := mock.Planned()
	if len(planned) != 1 || planned[0].Dst != dst || planned[0].Verb != "cp" {
		t.Fatalf("unexpected planned %+v", planned)
	}
	if _, err := overlay.Stat(dst); err != nil {
		t.Fatalf("placeholder should exist in the overlay: %v", err)
	}
	entries, err := os.ReadDir(archive)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("mock must not mutate the real archive, found %d entries", len(entries))
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatalf("mock must not touch the source: %v", err)
	}
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "umount")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestUnmounterRunsBinary(t *testing.T) {
	record := filepath.Join(t.TempDir(), "called")
	bin := writeScript(t, `echo "$1" > `+record)

	if err := (transfer.Unmounter{Binary: bin}).Unmount(context.Background(), "/media/alice/EOS_DIGITAL"); err != nil {
		t.Fatalf("Unmount: %v", err)
	}
	got, err := os.ReadFile(record)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(got)) != "/media/alice/EOS_DIGITAL" {
		t.Fatalf("unexpected argument %q", got)
	}
}

func TestUnmounterFailure(t *testing.T) {
	bin := writeScript(t, "echo 'target is busy' >&2\nexit 32")

	err := (transfer.Unmounter{Binary: bin}).Unmount(context.Background(), "/media/alice/CARD")
	if !errors.Is(err, runctx.ErrTransfer) {
		t.Fatalf("expected ErrTransfer, got %v", err)
	}
	if !strings.Contains(err.Error(), "target is busy") {
		t.Fatalf("expected stderr in error, got %v", err)
	}
}
