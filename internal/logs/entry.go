package logs

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
)

// Entry is one decoded log record.
type Entry struct {
	Time      time.Time
	Level     string
	Message   string
	Component string
	RunID     string
	Attrs     map[string]any
	// Raw holds the line as written; set for every entry.
	Raw string
}

var reservedKeys = map[string]struct{}{
	"ts":        {},
	"level":     {},
	"msg":       {},
	"component": {},
	"run_id":    {},
	"source":    {},
}

// ParseEntry decodes a JSON log line. Lines that are not JSON objects return
// an error; the Raw field is still populated.
func ParseEntry(line string) (Entry, error) {
	entry := Entry{Raw: line}
	var fields map[string]any
	if err := json.Unmarshal([]byte(line), &fields); err != nil {
		return entry, fmt.Errorf("decode log line: %w", err)
	}
	entry.Level = stringField(fields, "level")
	entry.Message = stringField(fields, "msg")
	entry.Component = stringField(fields, "component")
	entry.RunID = stringField(fields, "run_id")
	if ts := stringField(fields, "ts"); ts != "" {
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			entry.Time = parsed
		}
	}
	for key, value := range fields {
		if _, ok := reservedKeys[key]; ok {
			continue
		}
		if entry.Attrs == nil {
			entry.Attrs = make(map[string]any)
		}
		entry.Attrs[key] = value
	}
	return entry, nil
}

func stringField(fields map[string]any, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}

// LevelValue maps the entry's textual level onto slog levels. Unknown levels
// sort with info.
func (e Entry) LevelValue() slog.Level {
	switch strings.ToLower(e.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Line renders the entry as a single human-readable line in local time.
func (e Entry) Line() string {
	if e.Message == "" && e.Level == "" {
		return e.Raw
	}
	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(e.Time.Local().Format("2006-01-02 15:04:05"))
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "%-5s", strings.ToUpper(e.Level))
	if e.Component != "" {
		fmt.Fprintf(&b, " [%s]", e.Component)
	}
	b.WriteByte(' ')
	b.WriteString(e.Message)

	keys := make([]string, 0, len(e.Attrs))
	for k := range e.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.Attrs[k])
	}
	return b.String()
}

// Filter selects entries. Empty strings match any value; the zero MinLevel
// is slog.LevelInfo, so debug records need an explicit level.
type Filter struct {
	RunID     string
	Component string
	MinLevel  slog.Level
}

// Match reports whether the entry passes the filter. Lines that could not be
// decoded only match an empty run and component filter.
func (f Filter) Match(e Entry) bool {
	if f.RunID != "" && e.RunID != f.RunID {
		return false
	}
	if f.Component != "" && !strings.EqualFold(e.Component, f.Component) {
		return false
	}
	if e.Level == "" {
		return f.MinLevel <= slog.LevelInfo
	}
	return e.LevelValue() >= f.MinLevel
}
