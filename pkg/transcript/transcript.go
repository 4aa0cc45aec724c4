// Package transcript records chat exchanges to an append-only, line-oriented
// log file. Every write opens, appends and closes the file so no descriptor
// is held between turns.
package transcript

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// QuestionPrefix marks a user question line.
	QuestionPrefix = "> "

	// FailedMarker is written in place of an answer when an exchange fails.
	FailedMarker = "[no response: exchange failed]"

	fileTimeLayout = "20060102_150405"
)

// Sink receives transcript lines.
type Sink interface {
	Record(line string) error
}

// Discard is a Sink that drops every line.
var Discard Sink = discard{}

type discard struct{}

func (discard) Record(string) error { return nil }

// FileSink appends lines to a single file.
type FileSink struct {
	path string
}

// NewFileSink returns a sink writing to path.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

// PathFor returns the transcript path for a process started at start:
// dir/chat_ai_YYYYmmdd_HHMMSS.log.
func PathFor(dir string, start time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("chat_ai_%s.log", start.Format(fileTimeLayout)))
}

// Path returns the file the sink writes to.
func (s *FileSink) Path() string {
	return s.path
}

// Record appends line plus a newline.
func (s *FileSink) Record(line string) error {
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("opening transcript: %w", err)
	}

	if _, err := f.WriteString(line + "\n"); err != nil {
		f.Close()
		return fmt.Errorf("writing transcript: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("closing transcript: %w", err)
	}
	return nil
}
