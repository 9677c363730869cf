package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// prettyHandler renders one line per record for terminals:
//
//	15:04:05 INFO  pipeline: phase complete transferred=42 failed=0
//
// The component becomes the message prefix. The run id is shown only when
// source locations are, since the import summary already prints it.
type prettyHandler struct {
	out       *lockedWriter
	level     *slog.LevelVar
	preset    []field
	groups    []string
	addSource bool
	color     bool
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) write(p []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := l.w.Write(p)
	return err
}

type field struct {
	key   string
	value slog.Value
}

var levelStyles = []struct {
	min   slog.Level
	label string
	attr  color.Attribute
}{
	{slog.LevelError, "ERROR", color.FgRed},
	{slog.LevelWarn, "WARN ", color.FgYellow},
	{slog.LevelInfo, "INFO ", color.FgCyan},
}

func newPrettyHandler(w io.Writer, lvl *slog.LevelVar, addSource, colorize bool) slog.Handler {
	return &prettyHandler{out: &lockedWriter{w: w}, level: lvl, addSource: addSource, color: colorize}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *prettyHandler) Handle(_ context.Context, record slog.Record) error {
	if !h.Enabled(context.Background(), record.Level) {
		return nil
	}
	fields := append([]field(nil), h.preset...)
	record.Attrs(func(a slog.Attr) bool {
		fields = appendField(fields, h.groups, a)
		return true
	})

	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	var b strings.Builder
	b.WriteString(ts.Local().Format(time.TimeOnly))
	b.WriteByte(' ')
	b.WriteString(h.label(record.Level))
	b.WriteByte(' ')

	rest := fields[:0]
	component := ""
	for _, f := range fields {
		switch {
		case f.key == FieldComponent:
			component = render(f.value)
		case f.key == FieldRunID && !h.addSource:
			// dropped
		default:
			rest = append(rest, f)
		}
	}
	if component != "" {
		b.WriteString(component + ": ")
	}
	msg := strings.TrimSpace(record.Message)
	if msg == "" {
		msg = "(no message)"
	}
	b.WriteString(msg)

	if src := record.Source(); h.addSource && src != nil {
		fmt.Fprintf(&b, " [%s:%d]", filepath.Base(src.File), src.Line)
	}
	for _, f := range rest {
		b.WriteString(" " + f.key + "=" + render(f.value))
	}
	b.WriteByte('\n')
	return h.out.write([]byte(b.String()))
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.preset = append([]field(nil), h.preset...)
	for _, a := range attrs {
		next.preset = appendField(next.preset, h.groups, a)
	}
	return &next
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	next := *h
	next.groups = append(append([]string(nil), h.groups...), name)
	return &next
}

func (h *prettyHandler) label(level slog.Level) string {
	label, attr := "DEBUG", color.FgHiBlack
	for _, s := range levelStyles {
		if level >= s.min {
			label, attr = s.label, s.attr
			break
		}
	}
	if !h.color {
		return label
	}
	c := color.New(attr)
	c.EnableColor()
	return c.Sprint(label)
}

// appendField flattens groups into dotted keys.
func appendField(dst []field, groups []string, a slog.Attr) []field {
	if a.Equal(slog.Attr{}) {
		return dst
	}
	a.Value = a.Value.Resolve()
	if a.Value.Kind() == slog.KindGroup {
		inner := groups
		if a.Key != "" {
			inner = append(append([]string(nil), groups...), a.Key)
		}
		for _, ga := range a.Value.Group() {
			dst = appendField(dst, inner, ga)
		}
		return dst
	}
	key := a.Key
	if len(groups) > 0 {
		key = strings.Join(groups, ".") + "." + a.Key
	}
	return append(dst, field{key: key, value: a.Value})
}

func render(v slog.Value) string {
	var s string
	switch v.Kind() {
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	case slog.KindBool, slog.KindInt64, slog.KindUint64, slog.KindFloat64:
		return v.String()
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			s = err.Error()
		} else {
			s = fmt.Sprint(v.Any())
		}
	default:
		s = v.String()
	}
	if s == "" || strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
		return strconv.Quote(s)
	}
	return s
}
