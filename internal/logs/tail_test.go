package logs_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"cardvault/internal/logs"
)

const sample = `{"ts":"2024-05-01T10:00:00Z","level":"info","msg":"import started","component":"importer","run_id":"r1"}
{"ts":"2024-05-01T10:00:01Z","level":"debug","msg":"transferred","component":"pipeline","run_id":"r1","source":"x.go:1","destination":"/main/2024-05-01/IMG_0001.JPG"}
{"ts":"2024-05-01T10:00:02Z","level":"warn","msg":"transfer failed","component":"pipeline","run_id":"r1","event_type":"transfer_failed"}
not json at all
{"ts":"2024-05-01T11:00:00Z","level":"info","msg":"import started","component":"importer","run_id":"r2"}
`

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cardvault.log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func appendLog(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("append log: %v", err)
	}
}

func messages(entries []logs.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Message
		if e.Message == "" {
			out[i] = e.Raw
		}
	}
	return out
}

func TestLastKeepsNewestInOrder(t *testing.T) {
	path := writeLog(t, sample)

	entries, offset, err := logs.Last(path, 2, logs.Filter{})
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	got := messages(entries)
	if len(got) != 2 || got[0] != "not json at all" || got[1] != "import started" {
		t.Fatalf("unexpected entries %q", got)
	}
	if offset != int64(len(sample)) {
		t.Fatalf("offset = %d, want %d", offset, len(sample))
	}
}

func TestLastFiltersByRunAndLevel(t *testing.T) {
	path := writeLog(t, sample)

	entries, _, err := logs.Last(path, 0, logs.Filter{RunID: "r1", MinLevel: slog.LevelInfo})
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	got := messages(entries)
	if len(got) != 2 || got[0] != "import started" || got[1] != "transfer failed" {
		t.Fatalf("unexpected entries %q", got)
	}
	if entries[1].Attrs["event_type"] != "transfer_failed" {
		t.Fatalf("expected event_type attr, got %v", entries[1].Attrs)
	}
	if _, ok := entries[0].Attrs["run_id"]; ok {
		t.Fatal("run_id should not be repeated in attrs")
	}
}

func TestLastMissingFile(t *testing.T) {
	entries, offset, err := logs.Last(filepath.Join(t.TempDir(), "absent.log"), 10, logs.Filter{})
	if err != nil || len(entries) != 0 || offset != 0 {
		t.Fatalf("expected empty result, got %v, %d, %v", entries, offset, err)
	}
}

func TestLastLeavesPartialLine(t *testing.T) {
	path := writeLog(t, "{\"level\":\"info\",\"msg\":\"one\"}\n{\"level\":\"info\",\"msg\":\"tw")

	entries, offset, err := logs.Last(path, 10, logs.Filter{})
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if len(entries) != 1 || entries[0].Message != "one" {
		t.Fatalf("unexpected entries %v", messages(entries))
	}
	if offset != int64(len("{\"level\":\"info\",\"msg\":\"one\"}\n")) {
		t.Fatalf("offset should stop before the partial line, got %d", offset)
	}
}

func TestFollowEmitsAppendedEntries(t *testing.T) {
	path := writeLog(t, sample)
	_, offset, err := logs.Last(path, 1, logs.Filter{})
	if err != nil {
		t.Fatalf("Last: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	var (
		mu  sync.Mutex
		got []string
	)
	done := make(chan error, 1)
	go func() {
		done <- logs.Follow(ctx, path, offset, logs.Filter{RunID: "r3"}, 20*time.Millisecond, func(e logs.Entry) {
			mu.Lock()
			got = append(got, e.Message)
			mu.Unlock()
		})
	}()

	appendLog(t, path, `{"level":"info","msg":"other run","run_id":"r2"}`+"\n"+`{"level":"info","msg":"later","run_id":"r3"}`+"\n")

	deadline := time.Now().Add(5 * time.Second)
	for {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n > 0 || time.Now().After(deadline) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Follow: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0] != "later" {
		t.Fatalf("unexpected followed entries %q", got)
	}
}

func TestFollowRestartsAfterRotation(t *testing.T) {
	path := writeLog(t, sample)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	found := make(chan string, 4)
	go func() {
		_ = logs.Follow(ctx, path, int64(len(sample)), logs.Filter{}, 20*time.Millisecond, func(e logs.Entry) {
			found <- e.Message
		})
	}()

	time.Sleep(60 * time.Millisecond)
	if err := os.WriteFile(path, []byte(`{"level":"info","msg":"fresh file"}`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case msg := <-found:
		if msg != "fresh file" {
			t.Fatalf("unexpected entry %q", msg)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("follow did not pick up the rotated file")
	}
}

func TestFollowDetectsReplacedFileThatOutgrewOffset(t *testing.T) {
	path := writeLog(t, sample)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	found := make(chan string, 16)
	go func() {
		_ = logs.Follow(ctx, path, int64(len(sample)), logs.Filter{}, 20*time.Millisecond, func(e logs.Entry) {
			found <- e.Message
		})
	}()

	time.Sleep(60 * time.Millisecond)
	if err := os.Rename(path, path+".1"); err != nil {
		t.Fatal(err)
	}
	var fresh strings.Builder
	fresh.WriteString(`{"level":"info","msg":"first after rotation"}` + "\n")
	for fresh.Len() <= 2*len(sample) {
		fresh.WriteString(`{"level":"info","msg":"filler"}` + "\n")
	}
	if err := os.WriteFile(path, []byte(fresh.String()), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case msg := <-found:
		if msg != "first after rotation" {
			t.Fatalf("records of the new file were skipped, first entry %q", msg)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("follow did not pick up the replaced file")
	}
}

func TestEntryLine(t *testing.T) {
	entry, err := logs.ParseEntry(`{"ts":"2024-05-01T10:00:00Z","level":"warn","msg":"transfer failed","component":"pipeline","source":"p.go:9","b":2,"a":"x"}`)
	if err != nil {
		t.Fatalf("ParseEntry: %v", err)
	}
	want := entry.Time.Local().Format("2006-01-02 15:04:05") + " WARN  [pipeline] transfer failed a=x b=2"
	if got := entry.Line(); got != want {
		t.Fatalf("Line() = %q, want %q", got, want)
	}

	raw, err := logs.ParseEntry("plain text")
	if err == nil {
		t.Fatal("expected decode error")
	}
	if raw.Line() != "plain text" {
		t.Fatalf("undecodable lines should render raw, got %q", raw.Line())
	}
}
