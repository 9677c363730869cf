package probe_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cardvault/internal/config"
	"cardvault/internal/probe"
	"cardvault/internal/runctx"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "exiftool")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExifToolReturnsCreateDate(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "args")
	bin := writeScript(t, `echo "$@" > `+argsFile+`
printf '2024:05:30 18:45:10'`)

	got, err := probe.ExifTool{Binary: bin, Timeout: 5 * time.Second}.CaptureDate(context.Background(), "/card/IMG_0001.CR2")
	if err != nil {
		t.Fatalf("CaptureDate: %v", err)
	}
	if got != "2024:05:30 18:45:10" {
		t.Fatalf("unexpected value %q", got)
	}
	args, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(args)) != "-b -createdate -- /card/IMG_0001.CR2" {
		t.Fatalf("unexpected args %q", args)
	}
}

func TestExifToolEmptyOutputIsError(t *testing.T) {
	bin := writeScript(t, "exit 0")
	_, err := probe.ExifTool{Binary: bin}.CaptureDate(context.Background(), "/card/a.jpg")
	if !errors.Is(err, runctx.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
}

func TestExifToolFailureIncludesStderr(t *testing.T) {
	bin := writeScript(t, "echo 'File not found' >&2\nexit 1")
	_, err := probe.ExifTool{Binary: bin}.CaptureDate(context.Background(), "/card/a.jpg")
	if err == nil || !strings.Contains(err.Error(), "File not found") {
		t.Fatalf("expected stderr in error, got %v", err)
	}
}

func TestExifToolMissingBinary(t *testing.T) {
	_, err := probe.ExifTool{Binary: "cardvault-no-such-exiftool"}.CaptureDate(context.Background(), "/card/a.jpg")
	if !errors.Is(err, runctx.ErrExternalTool) || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

// tiffWithDateTime builds a little-endian TIFF whose IFD0 holds a single
// DateTime tag.
func tiffWithDateTime(value string) []byte {
	var buf bytes.Buffer
	le := binary.LittleEndian
	buf.WriteString("II*\x00")
	_ = binary.Write(&buf, le, uint32(8))
	_ = binary.Write(&buf, le, uint16(1))
	ascii := append([]byte(value), 0)
	_ = binary.Write(&buf, le, uint16(0x0132))
	_ = binary.Write(&buf, le, uint16(2))
	_ = binary.Write(&buf, le, uint32(len(ascii)))
	_ = binary.Write(&buf, le, uint32(8+2+12+4))
	_ = binary.Write(&buf, le, uint32(0))
	buf.Write(ascii)
	return buf.Bytes()
}

func TestNativeEXIFReadsDateTime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "IMG_0001.TIF")
	if err := os.WriteFile(path, tiffWithDateTime("2023:12:24 18:00:00"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := probe.NativeEXIF{}.CaptureDate(context.Background(), path)
	if err != nil {
		t.Fatalf("CaptureDate: %v", err)
	}
	if got != "2023:12:24 18:00:00" {
		t.Fatalf("unexpected value %q", got)
	}
}

func TestNativeEXIFRejectsNonImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.MOV")
	if err := os.WriteFile(path, []byte("not an image at all"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := (probe.NativeEXIF{}).CaptureDate(context.Background(), path); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestFromConfigSelectsBackend(t *testing.T) {
	cfg := config.Default()
	if _, ok := probe.FromConfig(&cfg).(probe.ExifTool); !ok {
		t.Fatal("expected exiftool backend by default")
	}
	cfg.Probe.Backend = config.ProbeBackendNative
	if _, ok := probe.FromConfig(&cfg).(probe.NativeEXIF); !ok {
		t.Fatal("expected native backend")
	}
}
