package logtail

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"
)

// Tail returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns every line. A missing file yields no lines.
func Tail(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := range count {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Record is one decoded slog JSON line.
type Record struct {
	Time  time.Time
	Level slog.Level
	Msg   string
	Attrs []Attr
}

// Attr is a key/value pair from a record, with the value in display form.
type Attr struct {
	Key   string
	Value string
}

// builtin keys are rendered in fixed positions rather than as attributes.
var builtin = map[string]bool{
	slog.TimeKey:    true,
	slog.LevelKey:   true,
	slog.MessageKey: true,
	"component":     true,
}

// Parse decodes a line written by the JSON handler. Lines that are not
// JSON objects report false.
func Parse(line string) (Record, bool) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Record{}, false
	}

	var rec Record
	if ts, ok := raw[slog.TimeKey].(string); ok {
		rec.Time, _ = time.Parse(time.RFC3339Nano, ts)
	}
	if lvl, ok := raw[slog.LevelKey].(string); ok {
		_ = rec.Level.UnmarshalText([]byte(lvl))
	}
	rec.Msg, _ = raw[slog.MessageKey].(string)

	for _, key := range slices.Sorted(maps.Keys(raw)) {
		if builtin[key] {
			continue
		}
		rec.Attrs = append(rec.Attrs, Attr{Key: key, Value: displayValue(raw[key])})
	}
	return rec, true
}

func displayValue(v any) string {
	switch v := v.(type) {
	case string:
		if strings.ContainsAny(v, " \t\"=") {
			return fmt.Sprintf("%q", v)
		}
		return v
	case nil:
		return "null"
	case float64, bool:
		return fmt.Sprint(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	}
}

// Format renders a record as "15:04:05 WARN  message key=value".
func Format(rec Record, colorize bool) string {
	var b strings.Builder
	if !rec.Time.IsZero() {
		b.WriteString(paint(rec.Time.Local().Format("15:04:05"), text.Colors{text.Faint}, colorize))
		b.WriteByte(' ')
	}
	b.WriteString(paint(fmt.Sprintf("%-5s", rec.Level.String()), levelColors(rec.Level), colorize))
	b.WriteByte(' ')
	b.WriteString(rec.Msg)
	for _, attr := range rec.Attrs {
		b.WriteByte(' ')
		b.WriteString(paint(attr.Key+"=", text.Colors{text.FgBlue}, colorize))
		b.WriteString(attr.Value)
	}
	return b.String()
}

// FormatLines parses and formats lines, dropping records below minLevel. Lines
// that are not JSON pass through unchanged.
func FormatLines(lines []string, minLevel slog.Level, colorize bool) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		rec, ok := Parse(line)
		if !ok {
			if strings.TrimSpace(line) != "" {
				out = append(out, line)
			}
			continue
		}
		if rec.Level < minLevel {
			continue
		}
		out = append(out, Format(rec, colorize))
	}
	return out
}

func levelColors(level slog.Level) text.Colors {
	switch {
	case level >= slog.LevelError:
		return text.Colors{text.FgRed, text.Bold}
	case level >= slog.LevelWarn:
		return text.Colors{text.FgYellow, text.Bold}
	case level >= slog.LevelInfo:
		return text.Colors{text.FgGreen}
	default:
		return text.Colors{text.FgCyan}
	}
}

func paint(s string, colors text.Colors, colorize bool) string {
	if !colorize {
		return s
	}
	return colors.Sprint(s)
}
