package sse

import (
	"bufio"
	"io"
	"strings"
)

const maxLineSize = 1024 * 1024

// Reader parses SSE events from a source io.Reader one event at a time.
// It is forward-only: events are yielded in arrival order and never replayed.
type Reader struct {
	scanner *bufio.Scanner

	// raw, when set, receives every line read from the source verbatim.
	raw io.Writer

	// current accumulates fields for the event being built.
	current Event
	hasData bool
}

// NewReader returns a Reader that parses SSE events from src.
func NewReader(src io.Reader) *Reader {
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	return &Reader{scanner: scanner}
}

// NewTeeReader returns a Reader that additionally copies every raw line
// (newline restored) to dest as it is consumed. Used to capture the wire
// stream for debugging.
func NewTeeReader(src io.Reader, dest io.Writer) *Reader {
	r := NewReader(src)
	r.raw = dest
	return r
}

// Next blocks until a complete event is available (terminated by a blank
// line) and returns it. Next returns nil, nil once the source is exhausted.
func (r *Reader) Next() (*Event, error) {
	for r.scanner.Scan() {
		line := strings.TrimSuffix(r.scanner.Text(), "\r")

		if r.raw != nil {
			if _, err := io.WriteString(r.raw, line+"\n"); err != nil {
				return nil, err
			}
		}

		if line == "" {
			if r.hasData {
				return r.flush(), nil
			}
			// Leading blank lines or keep-alive newlines.
			continue
		}

		// Comment line.
		if strings.HasPrefix(line, ":") {
			continue
		}

		r.parseLine(line)
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}

	// Stream ended without a trailing blank line.
	if r.hasData {
		return r.flush(), nil
	}

	return nil, nil
}

// parseLine accumulates a single "field:value" line into the current event.
// The first space after the colon is optional and stripped if present.
func (r *Reader) parseLine(line string) {
	field, value, _ := strings.Cut(line, ":")
	value = strings.TrimPrefix(value, " ")

	switch field {
	case "data":
		if r.hasData && r.current.Data != "" {
			r.current.Data += "\n"
		}
		r.current.Data += value
		r.hasData = true
	case "event":
		r.current.Type = value
		r.hasData = true
	case "id":
		r.current.ID = value
		r.hasData = true
	default:
		// "retry" and unknown fields are ignored.
	}
}

func (r *Reader) flush() *Event {
	ev := r.current
	r.current = Event{}
	r.hasData = false
	return &ev
}
