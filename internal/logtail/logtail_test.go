package logtail

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

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
	if err := os.WriteFile(logPath, []byte(content.String()), 0o644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{"read all (0)", 0, expectedAll},
		{"read all (negative)", -1, expectedAll},
		{"read partial (5)", 5, expectedAll[5:]},
		{"read exactly all (10)", 10, expectedAll},
		{"read more than exists (20)", 20, expectedAll},
		{"read one", 1, expectedAll[9:]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Tail(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Tail() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Tail() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestTail_MissingFile(t *testing.T) {
	lines, err := Tail(filepath.Join(t.TempDir(), "nope.log"), 10)
	if err != nil || lines != nil {
		t.Fatalf("Tail(missing) = %v, %v; want nil, nil", lines, err)
	}
}

func TestParse_SlogJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil)).With(slog.String("component", "bindery"))
	logger.Warn("status fetch failed", slog.Uint64("seq", 3), slog.String("error", "fetch snapshot: boom"))

	rec, ok := Parse(strings.TrimSpace(buf.String()))
	if !ok {
		t.Fatalf("Parse failed for %q", buf.String())
	}
	if rec.Level != slog.LevelWarn || rec.Msg != "status fetch failed" {
		t.Fatalf("record = %+v", rec)
	}
	if rec.Time.IsZero() {
		t.Fatal("time not parsed")
	}
	want := []Attr{{Key: "error", Value: `"fetch snapshot: boom"`}, {Key: "seq", Value: "3"}}
	if !reflect.DeepEqual(rec.Attrs, want) {
		t.Fatalf("Attrs = %#v, want %#v", rec.Attrs, want)
	}
}

func TestParse_NotJSON(t *testing.T) {
	if _, ok := Parse("plain text line"); ok {
		t.Fatal("Parse accepted a non-JSON line")
	}
}

func TestFormat(t *testing.T) {
	rec := Record{
		Level: slog.LevelError,
		Msg:   "cancel failed",
		Attrs: []Attr{{Key: "job_id", Value: "42"}},
	}
	if got, want := Format(rec, false), "ERROR cancel failed job_id=42"; got != want {
		t.Fatalf("Format() = %q, want %q", got, want)
	}

	rec.Time = time.Date(2024, 10, 10, 14, 32, 15, 0, time.Local)
	rec.Level = slog.LevelInfo
	if got := Format(rec, false); !strings.HasPrefix(got, "14:32:15 INFO  cancel failed") {
		t.Fatalf("Format() = %q, want time prefix", got)
	}

	colored := Format(rec, true)
	if !strings.Contains(colored, "\x1b[") {
		t.Fatalf("colorized output has no escape codes: %q", colored)
	}
}

func TestFormatLines_FiltersByLevel(t *testing.T) {
	lines := []string{
		`{"level":"DEBUG","msg":"request completed"}`,
		`{"level":"INFO","msg":"starting ui"}`,
		"not json",
		"",
		`{"level":"ERROR","msg":"boom"}`,
	}
	got := FormatLines(lines, slog.LevelInfo, false)
	want := []string{"INFO  starting ui", "not json", "ERROR boom"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("FormatLines() = %#v, want %#v", got, want)
	}
}
