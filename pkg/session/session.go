// Package session runs question/answer exchanges against a completion
// endpoint, in either piped (single exchange) or interactive mode.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/papercomputeco/aichat/pkg/codeblock"
	"github.com/papercomputeco/aichat/pkg/completion"
	"github.com/papercomputeco/aichat/pkg/conversation"
	"github.com/papercomputeco/aichat/pkg/llm"
	"github.com/papercomputeco/aichat/pkg/logger"
	"github.com/papercomputeco/aichat/pkg/transcript"
	"github.com/papercomputeco/aichat/pkg/utils"
)

// ErrorMessage is printed when an exchange fails for any reason.
const ErrorMessage = "Error: Unable to get a response from the AI. Please try again."

// ErrInterrupted is returned when the user interrupts the session.
var ErrInterrupted = errors.New("interrupted")

// Completer sends assembled messages and returns the answer as a stream.
type Completer interface {
	Complete(ctx context.Context, messages []llm.Message, stream bool) (completion.Stream, error)
}

// LineReader reads one line of interactive input. It returns io.EOF when
// input is closed and ErrInterrupted when the user aborts the prompt.
type LineReader interface {
	ReadLine() (string, error)
}

// Session owns the conversation state for one process.
type Session struct {
	completer   Completer
	instruction string
	state       *conversation.State
	out         io.Writer
	transcript  transcript.Sink
	logger      *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithInstruction replaces conversation.DefaultInstruction.
func WithInstruction(instruction string) Option {
	return func(s *Session) { s.instruction = instruction }
}

// WithOutput sets where answers are written.
func WithOutput(w io.Writer) Option {
	return func(s *Session) { s.out = w }
}

// WithTranscript sets the sink that records every exchange.
func WithTranscript(sink transcript.Sink) Option {
	return func(s *Session) {
		if sink != nil {
			s.transcript = sink
		}
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// New creates a Session with empty state.
func New(completer Completer, opts ...Option) *Session {
	s := &Session{
		completer:   completer,
		instruction: conversation.DefaultInstruction,
		state:       conversation.NewState(),
		out:         io.Discard,
		transcript:  transcript.Discard,
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the conversation state owned by the session.
func (s *Session) State() *conversation.State {
	return s.state
}

// Exchange asks one question. Fragments are written to display as they
// arrive and accumulated into the answer. The answer is returned with
// trailing newlines removed and, on success only, paired with the question
// in the conversation state.
func (s *Session) Exchange(ctx context.Context, question string, display io.Writer, stream bool) (string, error) {
	s.record(transcript.QuestionPrefix + question)

	messages := conversation.Assemble(s.instruction, s.state, question)
	s.logger.Debug("starting exchange",
		"question", utils.Truncate(question, 60),
		"message_count", len(messages),
		"history_turns", s.state.Len(),
		"stream", stream,
	)

	answer, err := s.collect(ctx, messages, display, stream)
	if err != nil {
		s.record(transcript.FailedMarker)
		return "", err
	}

	answer = strings.TrimRight(answer, "\n")
	s.record(answer)
	s.state.Append(question, strings.TrimSpace(answer))
	return answer, nil
}

func (s *Session) collect(ctx context.Context, messages []llm.Message, display io.Writer, stream bool) (string, error) {
	fragments, err := s.completer.Complete(ctx, messages, stream)
	if err != nil {
		return "", err
	}
	defer fragments.Close()

	var answer strings.Builder
	sink := io.MultiWriter(display, &answer)
	for {
		frag, err := fragments.Next()
		if errors.Is(err, io.EOF) {
			return answer.String(), nil
		}
		if err != nil {
			return "", err
		}
		if _, err := io.WriteString(sink, frag); err != nil {
			return "", fmt.Errorf("writing answer: %w", err)
		}
	}
}

func (s *Session) record(line string) {
	if err := s.transcript.Record(line); err != nil {
		s.logger.Warn("could not write transcript", "error", err)
	}
}

// fail reports a failed exchange to the user. An interrupt that cancelled
// the exchange is passed through instead.
func (s *Session) fail(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ErrInterrupted
	}
	s.logger.Debug("exchange failed", "error", err)
	fmt.Fprintf(s.out, "\n%s\n", ErrorMessage)
	return nil
}

// RunPiped reads all of in as a single question and runs one exchange.
// With strip set the answer is fetched whole and only its fenced code
// blocks are printed; otherwise it is streamed followed by a newline.
// Empty input produces no exchange.
func (s *Session) RunPiped(ctx context.Context, in io.Reader, strip bool) error {
	raw, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("reading piped input: %w", err)
	}

	question := strings.TrimSpace(string(raw))
	if question == "" {
		return nil
	}

	if strip {
		answer, err := s.Exchange(ctx, question, io.Discard, false)
		if err != nil {
			return s.fail(ctx, err)
		}
		_, err = io.WriteString(s.out, codeblock.Extract(answer))
		return err
	}

	if _, err := s.Exchange(ctx, question, s.out, true); err != nil {
		return s.fail(ctx, err)
	}
	_, err = fmt.Fprintln(s.out)
	return err
}

// RunInteractive prompts for questions until input ends or the user
// interrupts. Blank lines are skipped. Each answer is streamed and followed
// by a blank line. It returns ErrInterrupted on interrupt and nil on end of
// input.
func (s *Session) RunInteractive(ctx context.Context, lines LineReader) error {
	for {
		if ctx.Err() != nil {
			return ErrInterrupted
		}

		line, err := lines.ReadLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if errors.Is(err, ErrInterrupted) {
			return ErrInterrupted
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		question := strings.TrimSpace(line)
		if question == "" {
			continue
		}

		if _, err := s.Exchange(ctx, question, s.out, true); err != nil {
			if err := s.fail(ctx, err); err != nil {
				return err
			}
		}
		fmt.Fprintln(s.out)
	}
}
