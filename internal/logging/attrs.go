package logging

import (
	"context"
	"log/slog"
	"time"
)

type Attr = slog.Attr

func Any(key string, value any) Attr                { return slog.Any(key, value) }
func Bool(key string, value bool) Attr              { return slog.Bool(key, value) }
func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }
func Int(key string, value int) Attr                { return slog.Int(key, value) }
func Int64(key string, value int64) Attr            { return slog.Int64(key, value) }
func String(key string, value string) Attr          { return slog.String(key, value) }
func Time(key string, value time.Time) Attr         { return slog.Time(key, value) }

// Error records err under the "error" key; a nil error is written as "<nil>".
func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// NewNop returns a logger that drops every record.
func NewNop() *slog.Logger {
	return slog.New(discardHandler{})
}

// NewComponentLogger tags every record from the returned logger with
// component. A nil logger yields a no-op base.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

var warningDefaults = []Attr{
	String(FieldErrorHint, "check cardvault logs for details"),
	String(FieldImpact, "import completed with warnings"),
}

// WarnWithContext logs a warning that always carries event_type, error_hint
// and impact. Callers override the defaults by passing their own attributes.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	present := make(map[string]bool, len(attrs))
	args := make([]any, 0, len(attrs)+len(warningDefaults)+1)
	for _, a := range attrs {
		present[a.Key] = true
		args = append(args, a)
	}
	if !present[FieldEventType] {
		args = append(args, String(FieldEventType, eventType))
	}
	for _, d := range warningDefaults {
		if !present[d.Key] {
			args = append(args, d)
		}
	}
	logger.Warn(msg, args...)
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h discardHandler) WithGroup(string) slog.Handler           { return h }
