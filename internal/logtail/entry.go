package logtail

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Entry is one decoded JSON log line.
type Entry struct {
	Time      time.Time
	Level     zerolog.Level
	Message   string
	Component string
	Task      string
	Error     string
	Fields    map[string]string
}

// reserved keys are rendered in the header, not as details.
var reserved = map[string]bool{
	zerolog.TimestampFieldName: true,
	zerolog.LevelFieldName:     true,
	zerolog.MessageFieldName:   true,
	zerolog.ErrorFieldName:     true,
	"component":                true,
	"task":                     true,
	"app":                      true,
}

// Parse decodes a zerolog JSON line. Lines that are not JSON objects return
// false.
func Parse(line string) (Entry, bool) {
	line = strings.TrimSpace(line)
	if line == "" || line[0] != '{' {
		return Entry{}, false
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Entry{}, false
	}

	e := Entry{Level: zerolog.NoLevel, Fields: map[string]string{}}
	if ts, ok := raw[zerolog.TimestampFieldName].(string); ok {
		e.Time, _ = time.Parse(time.RFC3339Nano, ts)
	}
	if lvl, ok := raw[zerolog.LevelFieldName].(string); ok {
		if parsed, err := zerolog.ParseLevel(lvl); err == nil {
			e.Level = parsed
		}
	}
	e.Message, _ = raw[zerolog.MessageFieldName].(string)
	e.Error, _ = raw[zerolog.ErrorFieldName].(string)
	e.Component, _ = raw["component"].(string)
	e.Task, _ = raw["task"].(string)
	for k, v := range raw {
		if reserved[k] {
			continue
		}
		e.Fields[k] = fmt.Sprint(v)
	}
	return e, true
}

// Format renders e as a header line followed by indented detail lines:
//
//	2025-10-08 21:01:05 WARN [remote] progress – fetch failed
//	    - error: connection refused
func Format(e Entry) string {
	ts := "-"
	if !e.Time.IsZero() {
		ts = e.Time.In(time.Local).Format("2006-01-02 15:04:05")
	}
	level := strings.ToUpper(e.Level.String())
	if e.Level == zerolog.NoLevel {
		level = "INFO"
	}
	parts := []string{ts, level}
	if c := strings.TrimSpace(e.Component); c != "" {
		parts = append(parts, "["+c+"]")
	}
	if t := strings.TrimSpace(e.Task); t != "" {
		parts = append(parts, t)
	}
	header := strings.Join(parts, " ")
	if msg := strings.TrimSpace(e.Message); msg != "" {
		header += " – " + msg
	}

	var b strings.Builder
	b.WriteString(header)
	if e.Error != "" {
		b.WriteString("\n    - error: ")
		b.WriteString(e.Error)
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString("\n    - ")
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(e.Fields[k])
	}
	return b.String()
}

// Line is one tailed line. Raw is the text as written; Entry is set when it
// decoded as JSON.
type Line struct {
	Entry  Entry
	Raw    string
	Parsed bool
}

// Text renders the line for display.
func (l Line) Text() string {
	if l.Parsed {
		return Format(l.Entry)
	}
	return l.Raw
}
