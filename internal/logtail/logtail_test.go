package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func rawLines(lines []Line) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, l.Raw)
	}
	return out
}

func TestTail(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}

	if err := os.WriteFile(logPath, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		limit    int
		expected []string
	}{
		{name: "all (0)", limit: 0, expected: expectedAll},
		{name: "all (negative)", limit: -1, expected: expectedAll},
		{name: "partial (5)", limit: 5, expected: expectedAll[5:]},
		{name: "partial wrapping (3)", limit: 3, expected: expectedAll[7:]},
		{name: "exactly all (10)", limit: 10, expected: expectedAll},
		{name: "more than exists (20)", limit: 20, expected: expectedAll},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Tail(logPath, tt.limit, zerolog.TraceLevel)
			if err != nil {
				t.Fatalf("Tail() error = %v", err)
			}
			if !reflect.DeepEqual(rawLines(got), tt.expected) {
				t.Errorf("Tail() = %v, want %v", rawLines(got), tt.expected)
			}
		})
	}
}

func TestTail_FiltersBeforeWindowing(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "aula.log")
	lines := []string{
		`{"level":"warn","message":"first warning"}`,
		`{"level":"error","message":"an error"}`,
		`{"level":"debug","message":"noise 1"}`,
		``,
		`{"level":"warn","message":"last warning"}`,
		`{"level":"debug","message":"noise 2"}`,
		`{"level":"debug","message":"noise 3"}`,
	}
	if err := os.WriteFile(logPath, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		t.Fatalf("write log: %v", err)
	}

	got, err := Tail(logPath, 2, zerolog.WarnLevel)
	if err != nil {
		t.Fatalf("Tail() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Tail() returned %d lines, want 2: %v", len(got), rawLines(got))
	}
	if got[0].Entry.Message != "an error" || got[1].Entry.Message != "last warning" {
		t.Fatalf("Tail() = %q, %q; want the two newest warnings", got[0].Entry.Message, got[1].Entry.Message)
	}
}

func TestTail_MissingFile(t *testing.T) {
	got, err := Tail(filepath.Join(t.TempDir(), "nope.log"), 10, zerolog.TraceLevel)
	if err != nil {
		t.Fatalf("Tail() error = %v", err)
	}
	if got != nil {
		t.Fatalf("Tail() = %v, want nil", got)
	}
}

func TestParseAndFormat(t *testing.T) {
	oldLocal := time.Local
	time.Local = time.FixedZone("TestLocal", -5*60*60)
	defer func() {
		time.Local = oldLocal
	}()

	line := `{"level":"error","app":"aula","component":"remote","task":"progress","error":"connection refused","status":502,"time":"2025-12-13T10:11:12Z","message":"fetch failed"}`
	e, ok := Parse(line)
	if !ok {
		t.Fatalf("Parse returned false")
	}
	if e.Level != zerolog.ErrorLevel || e.Component != "remote" || e.Task != "progress" {
		t.Fatalf("entry = %#v", e)
	}

	got := Format(e)
	want := "2025-12-13 05:11:12 ERROR [remote] progress – fetch failed\n    - error: connection refused\n    - status: 502"
	if got != want {
		t.Fatalf("Format = %q, want %q", got, want)
	}
}

func TestParse_RejectsPlainText(t *testing.T) {
	for _, line := range []string{"", "plain text", "{broken"} {
		if _, ok := Parse(line); ok {
			t.Fatalf("Parse(%q) = true, want false", line)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		raw        string
		keep       bool
		parsed     bool
		wantLevel  zerolog.Level
		wantSuffix string
	}{
		{raw: `{"level":"error","component":"session","message":"dispatch alert"}`, keep: true, parsed: true, wantLevel: zerolog.ErrorLevel, wantSuffix: "[session] – dispatch alert"},
		{raw: `{"level":"info","message":"noise"}`, keep: false},
		{raw: `panic: something raw`, keep: true, wantSuffix: "panic: something raw"},
		{raw: `{"message":"no level"}`, keep: true, parsed: true, wantLevel: zerolog.NoLevel, wantSuffix: "INFO – no level"},
		{raw: "   ", keep: false},
	}
	for _, tt := range tests {
		line, ok := classify(tt.raw, zerolog.WarnLevel)
		if ok != tt.keep {
			t.Fatalf("classify(%q) kept = %v, want %v", tt.raw, ok, tt.keep)
		}
		if !ok {
			continue
		}
		if line.Parsed != tt.parsed || line.Raw != tt.raw {
			t.Fatalf("classify(%q) = %+v", tt.raw, line)
		}
		if tt.parsed && line.Entry.Level != tt.wantLevel {
			t.Fatalf("classify(%q) level = %v, want %v", tt.raw, line.Entry.Level, tt.wantLevel)
		}
		if !strings.HasSuffix(line.Text(), tt.wantSuffix) {
			t.Fatalf("Text() = %q, want suffix %q", line.Text(), tt.wantSuffix)
		}
	}
}
