// Package logtail reads the tail of bindery's JSON log file and renders
// the records for a terminal.
//
// The TUI owns the terminal while it runs, so its log goes to a file. The
// `bindery logs` command uses this package to show the last records of that
// file in a compact form:
//
//	14:32:15 WARN  status fetch failed error="fetch snapshot: ..." seq=3
//
// Tail keeps a ring buffer of the last N lines so memory stays bounded by
// N, not by the file size. A missing file is not an error; it just has no
// lines yet.
//
// Parse understands the records written by log/slog's JSON handler. The
// time, level, msg and component keys are rendered in fixed positions; every
// other key follows as key=value in sorted order. Lines that are not JSON
// pass through FormatLines untouched.
package logtail
