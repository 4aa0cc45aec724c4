package completion

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/papercomputeco/aichat/pkg/llm"
	"github.com/papercomputeco/aichat/pkg/llm/provider"
	"github.com/papercomputeco/aichat/pkg/sse"
)

// Stream is a finite, forward-only sequence of answer fragments. Next returns
// io.EOF after the last fragment. Fragments are never empty. Callers must
// Close the stream.
type Stream interface {
	Next() (string, error)
	Close() error
}

// Text returns a Stream that yields text once (when non-empty) and ends.
func Text(text string) Stream {
	return &textStream{text: text}
}

type textStream struct {
	text string
	done bool
}

func (s *textStream) Next() (string, error) {
	if s.done || s.text == "" {
		s.done = true
		return "", io.EOF
	}
	s.done = true
	return s.text, nil
}

func (s *textStream) Close() error { return nil }

// chunkStream decodes a streaming HTTP body into fragments, delegating
// framing to a payload reader and chunk parsing to the provider. When wire
// is set, every raw line read from the body is copied to it.
type chunkStream struct {
	body io.ReadCloser
	read func() ([]byte, error)
	prov provider.Provider
	done bool
}

func newChunkStream(body io.ReadCloser, prov provider.Provider, wire io.Writer) *chunkStream {
	s := &chunkStream{body: body, prov: prov}

	switch prov.Framing() {
	case llm.FramingNDJSON:
		scanner := bufio.NewScanner(body)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		s.read = func() ([]byte, error) {
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					return nil, err
				}
				return nil, io.EOF
			}
			line := bytes.Clone(scanner.Bytes())
			if wire != nil {
				if _, err := wire.Write(append(line, '\n')); err != nil {
					return nil, err
				}
			}
			return line, nil
		}
	default:
		var reader *sse.Reader
		if wire != nil {
			reader = sse.NewTeeReader(body, wire)
		} else {
			reader = sse.NewReader(body)
		}
		s.read = func() ([]byte, error) {
			ev, err := reader.Next()
			if err != nil {
				return nil, err
			}
			if ev == nil {
				return nil, io.EOF
			}
			return []byte(ev.Data), nil
		}
	}

	return s
}

// Next skips chunks that carry no text, such as role announcements,
// keep-alives and finish markers.
func (s *chunkStream) Next() (string, error) {
	for !s.done {
		payload, err := s.read()
		if err == io.EOF {
			s.done = true
			break
		}
		if err != nil {
			return "", fmt.Errorf("reading stream: %w", err)
		}

		chunk, err := s.prov.ParseStreamChunk(payload)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrMalformedResponse, err)
		}
		if chunk == nil {
			continue
		}
		if chunk.Done {
			s.done = true
		}
		if chunk.HasText() {
			return chunk.Text, nil
		}
	}

	return "", io.EOF
}

func (s *chunkStream) Close() error {
	s.done = true
	return s.body.Close()
}
