package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// DefaultPoll is how often Follow checks the file for new records.
const DefaultPoll = 250 * time.Millisecond

const maxLineBytes = 1024 * 1024

// Last returns up to limit matching entries from the end of the file, oldest
// first, together with the offset just past the last byte read. A limit of
// zero or less returns every matching entry. A missing file yields no entries
// and offset zero.
func Last(path string, limit int, filter Filter) ([]Entry, int64, error) {
	file, err := open(path)
	if err != nil || file == nil {
		return nil, 0, err
	}
	defer file.Close()

	var ring []Entry
	if limit > 0 {
		ring = make([]Entry, 0, limit)
	}
	start := 0
	offset, err := scan(file, filter, func(e Entry) {
		if limit <= 0 || len(ring) < limit {
			ring = append(ring, e)
			return
		}
		ring[start] = e
		start = (start + 1) % limit
	})
	if err != nil {
		return nil, 0, err
	}
	entries := make([]Entry, 0, len(ring))
	entries = append(entries, ring[start:]...)
	entries = append(entries, ring[:start]...)
	return entries, offset, nil
}

// Follow emits matching entries appended after offset until ctx is done.
// When the file is replaced or shrinks below offset, it was rotated and
// reading restarts from the beginning of the new file. Cancellation is not an
// error.
func Follow(ctx context.Context, path string, offset int64, filter Filter, poll time.Duration, emit func(Entry)) error {
	if poll <= 0 {
		poll = DefaultPoll
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	var seen os.FileInfo
	if info, err := os.Stat(path); err == nil {
		seen = info
	}
	for {
		next, info, err := readFrom(path, offset, seen, filter, emit)
		if err != nil {
			return err
		}
		offset = next
		if info != nil {
			seen = info
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// readFrom emits the complete lines after offset and returns the new offset
// and the identity of the file it read. seen is the file read last time; a
// different file starts over at zero.
func readFrom(path string, offset int64, seen os.FileInfo, filter Filter, emit func(Entry)) (int64, os.FileInfo, error) {
	file, err := open(path)
	if err != nil || file == nil {
		return 0, nil, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return offset, nil, fmt.Errorf("stat log file: %w", err)
	}
	if seen != nil && !os.SameFile(seen, info) {
		offset = 0
	}
	if offset < 0 || info.Size() < offset {
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return offset, info, fmt.Errorf("seek log file: %w", err)
	}
	read, err := scan(file, filter, emit)
	if err != nil {
		return offset, info, err
	}
	return offset + read, info, nil
}

func open(path string) (*os.File, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		file.Close()
		return nil, fmt.Errorf("log path %q is a directory", path)
	}
	return file, nil
}

// scan reads complete lines from r and returns the number of bytes consumed.
// A trailing line without a newline is left for the next read since the
// writer may still be in the middle of it.
func scan(r io.Reader, filter Filter, emit func(Entry)) (int64, error) {
	reader := bufio.NewReaderSize(r, 64*1024)
	var consumed int64
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return consumed, nil
			}
			return consumed, fmt.Errorf("read log file: %w", err)
		}
		consumed += int64(len(line))
		if len(line) == 1 || len(line) > maxLineBytes {
			continue
		}
		entry, _ := ParseEntry(string(line[:len(line)-1]))
		if filter.Match(entry) {
			emit(entry)
		}
	}
}
