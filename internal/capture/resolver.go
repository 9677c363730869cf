package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cardvault/internal/logging"
	"cardvault/internal/runctx"
)

// Prober extracts the embedded creation date string from a media file.
type Prober interface {
	CaptureDate(ctx context.Context, path string) (string, error)
}

// Resolver determines trustworthy capture times for a single run.
type Resolver struct {
	// RunStart is captured once when the run begins; change times after it
	// are considered untrustworthy.
	RunStart time.Time
	Prober   Prober
	// Location interprets probe output that carries no zone; time.Local when nil.
	Location *time.Location
	// Stat reads a path's filesystem change time; ChangeTime when nil.
	Stat   func(path string) (time.Time, error)
	Logger *slog.Logger
}

// NewResolver returns a resolver anchored at runStart.
func NewResolver(runStart time.Time, prober Prober, logger *slog.Logger) *Resolver {
	return &Resolver{
		RunStart: runStart,
		Prober:   prober,
		Logger:   logging.NewComponentLogger(logger, "capture"),
	}
}

// Resolve returns fsChangeTime unless it is later than RunStart, in which case
// the embedded capture date reported by the prober is returned instead.
func (r *Resolver) Resolve(ctx context.Context, path string, fsChangeTime time.Time) (time.Time, error) {
	if r.RunStart.Unix()-fsChangeTime.Unix() >= 0 {
		return fsChangeTime, nil
	}
	if r.Prober == nil {
		return time.Time{}, runctx.Wrap(runctx.ErrTimestamp, "capture", "probe capture date",
			fmt.Sprintf("%s has a future timestamp and no metadata probe is configured", path), nil)
	}

	raw, err := r.Prober.CaptureDate(ctx, path)
	if err != nil {
		return time.Time{}, runctx.Wrap(runctx.ErrTimestamp, "capture", "probe capture date", path, err)
	}
	ts, err := ParseCaptureDate(raw, r.location())
	if err != nil {
		return time.Time{}, runctx.Wrap(runctx.ErrTimestamp, "capture", "parse capture date", path, err)
	}

	logging.WithContext(ctx, r.logger()).Debug("future change time replaced by embedded date",
		logging.String("path", path),
		logging.Time("change_time", fsChangeTime),
		logging.Time("capture_time", ts),
	)
	return ts, nil
}

// Load stats each path and resolves its capture time, returning the records in
// discovery order. The first resolution failure aborts the load.
func (r *Resolver) Load(ctx context.Context, paths []string) ([]CameraFile, error) {
	stat := r.Stat
	if stat == nil {
		stat = ChangeTime
	}
	files := make([]CameraFile, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		changed, err := stat(path)
		if err != nil {
			return nil, runctx.Wrap(runctx.ErrTimestamp, "capture", "stat", path, err)
		}
		ts, err := r.Resolve(ctx, path, changed)
		if err != nil {
			return nil, err
		}
		files = append(files, NewCameraFile(path, ts))
	}
	return files, nil
}

func (r *Resolver) location() *time.Location {
	if r.Location != nil {
		return r.Location
	}
	return time.Local
}

func (r *Resolver) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return logging.NewNop()
}

const (
	zonedLayout = "2006:01:02 15:04:05Z07:00"
	localLayout = "2006:01:02 15:04:05"
)

// ErrUnparseableDate reports probe output that is not an EXIF-style timestamp.
var ErrUnparseableDate = errors.New("unparseable capture date")

// ParseCaptureDate parses an EXIF-style "YYYY:MM:DD HH:MM:SS" string. A trailing
// numeric zone offset is honoured; otherwise the value is read in loc.
func ParseCaptureDate(raw string, loc *time.Location) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrUnparseableDate)
	}
	if loc == nil {
		loc = time.Local
	}
	// Fractional seconds are accepted by both layouts.
	if ts, err := time.Parse(zonedLayout, value); err == nil {
		return ts, nil
	}
	if ts, err := time.ParseInLocation(localLayout, value, loc); err == nil {
		return ts, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseableDate, value)
}
