package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/rs/zerolog"
)

// maxLineBytes bounds a single log line; zerolog lines with large error
// chains can exceed bufio's default.
const maxLineBytes = 1024 * 1024

// Tail returns the newest lines of the log at path at or above minLevel.
// Filtering happens while reading, so asking for 50 lines at warn yields the
// last 50 warnings rather than the warnings among the last 50 lines. A
// non-positive limit keeps every matching line. A missing file has no lines.
func Tail(path string, limit int, minLevel zerolog.Level) ([]Line, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	kept := newWindow[Line](limit)
	for scanner.Scan() {
		if line, ok := classify(scanner.Text(), minLevel); ok {
			kept.push(line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	return kept.items(), nil
}

// classify decodes raw and reports whether it passes minLevel. Blank lines
// never pass; lines that are not JSON, or carry no level, always do.
func classify(raw string, minLevel zerolog.Level) (Line, bool) {
	e, ok := Parse(raw)
	if !ok {
		return Line{Raw: raw}, strings.TrimSpace(raw) != ""
	}
	if e.Level != zerolog.NoLevel && e.Level < minLevel {
		return Line{}, false
	}
	return Line{Entry: e, Raw: raw, Parsed: true}, true
}

// window keeps the newest n values pushed into it. With n <= 0 it keeps all.
type window[T any] struct {
	buf  []T
	n    int
	next int
}

func newWindow[T any](n int) *window[T] {
	w := &window[T]{n: n}
	if n > 0 {
		w.buf = make([]T, 0, n)
	}
	return w
}

func (w *window[T]) push(v T) {
	if w.n <= 0 || len(w.buf) < w.n {
		w.buf = append(w.buf, v)
		return
	}
	w.buf[w.next] = v
	w.next = (w.next + 1) % w.n
}

// items returns the kept values oldest first.
func (w *window[T]) items() []T {
	if w.next == 0 {
		return w.buf
	}
	return append(slices.Clone(w.buf[w.next:]), w.buf[:w.next]...)
}
