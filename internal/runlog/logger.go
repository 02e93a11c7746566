// Package runlog persists one telemetry record per pipeline run as
// newline-delimited JSON. Raw input and output text never reach this
// package: callers hash the input before constructing an entry, and
// only the hash and lengths are stored.
package runlog

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/klartext/klartext/internal/model"
)

// HashInput returns the hex sha256 of the raw input text. This is the
// only form in which input content may cross into a RunLogEntry.
func HashInput(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Logger appends run records to a JSONL file. Writes are serialized by
// a mutex and issued as a single newline-terminated write on a file
// opened with O_APPEND, so concurrent loggers in one process never
// interleave lines.
type Logger struct {
	mu   sync.Mutex
	path string
	diag io.Writer
}

// NewLogger creates a logger writing to path. The parent directory is
// created on first write. Diagnostics for failed writes go to diag,
// which defaults to stderr when nil.
func NewLogger(path string, diag io.Writer) *Logger {
	if diag == nil {
		diag = os.Stderr
	}
	return &Logger{path: path, diag: diag}
}

// Record appends one entry. Telemetry must never fail a user request,
// so errors are reported to the diagnostic writer and swallowed.
func (l *Logger) Record(entry model.RunLogEntry) {
	if err := l.append(entry); err != nil {
		fmt.Fprintf(l.diag, "runlog: dropping entry %s: %v\n", entry.RunID, err)
	}
}

// RecordAsync appends the entry on its own goroutine. Callers fire and
// forget; request latency never includes log I/O.
func (l *Logger) RecordAsync(entry model.RunLogEntry) {
	go l.Record(entry)
}

// AttachFeedback records user feedback for an earlier run. Feedback
// arrives after the original line was written and JSONL lines are
// immutable, so it is stored as a fresh record carrying only the run
// ID and the feedback value; readers resolve the latest record per
// run ID.
func (l *Logger) AttachFeedback(runID, feedback string) error {
	switch feedback {
	case model.FeedbackThumbsUp, model.FeedbackThumbsDown, model.FeedbackFlag:
	default:
		return fmt.Errorf("unknown feedback value %q", feedback)
	}
	entry := model.RunLogEntry{
		RunID:        runID,
		Timestamp:    nowRFC3339(),
		UserFeedback: &feedback,
	}
	return l.append(entry)
}

func (l *Logger) append(entry model.RunLogEntry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("write entry: %w", err)
	}
	return nil
}

// LoadAll reads every well-formed entry from the log file. Malformed
// lines (a torn final write, manual edits) are skipped rather than
// failing the whole read. A missing file yields an empty slice.
func (l *Logger) LoadAll() ([]model.RunLogEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	var entries []model.RunLogEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry model.RunLogEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return entries, fmt.Errorf("scan log file: %w", err)
	}
	return entries, nil
}
