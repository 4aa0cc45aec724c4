// Package prompt reads interactive questions with line editing and history.
// Typed input is colored green, darker on light terminal themes.
package prompt

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/muesli/termenv"
	"github.com/peterh/liner"

	"github.com/papercomputeco/aichat/pkg/session"
)

const (
	// Prompt is shown before every question.
	Prompt = "> "

	// DarkThemeColor colors input on dark terminals.
	DarkThemeColor = "#00ff00"

	// LightThemeColor colors input on light terminals.
	LightThemeColor = "#006600"
)

// ThemeColor returns the input color for the theme.
func ThemeColor(light bool) string {
	if light {
		return LightThemeColor
	}
	return DarkThemeColor
}

// editor is the part of liner.State a Reader drives per line.
type editor interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// Reader is a liner-backed session.LineReader.
type Reader struct {
	line        *liner.State
	editor      editor
	ctx         context.Context
	out         io.Writer
	start       string
	reset       string
	historyFile string
}

// Option configures a Reader.
type Option func(*Reader)

// WithHistoryFile loads and saves input history at path.
func WithHistoryFile(path string) Option {
	return func(r *Reader) { r.historyFile = path }
}

// WithContext makes ReadLine return session.ErrInterrupted as soon as ctx
// is done, even while the prompt is still waiting for a keypress.
func WithContext(ctx context.Context) Option {
	return func(r *Reader) { r.ctx = ctx }
}

// New creates a Reader writing prompts to stdout.
func New(light bool, opts ...Option) *Reader {
	out := termenv.NewOutput(os.Stdout)
	start, reset := colorSequences(out, ThemeColor(light))

	line := liner.NewLiner()
	r := &Reader{
		line:   line,
		editor: line,
		ctx:    context.Background(),
		out:    out,
		start:  start,
		reset:  reset,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.line.SetCtrlCAborts(true)
	r.loadHistory()
	return r
}

// colorSequences returns the escape sequences that switch the foreground to
// hex and back. Both are empty when the output has no color support.
func colorSequences(out *termenv.Output, hex string) (string, string) {
	seq := out.Color(hex).Sequence(false)
	if seq == "" {
		return "", ""
	}
	return termenv.CSI + seq + "m", termenv.CSI + termenv.ResetSeq + "m"
}

type promptResult struct {
	line string
	err  error
}

// ReadLine shows the prompt and returns the typed line. Ctrl+C or a done
// context returns session.ErrInterrupted and Ctrl+D returns io.EOF.
func (r *Reader) ReadLine() (string, error) {
	if r.ctx.Err() != nil {
		return "", session.ErrInterrupted
	}

	io.WriteString(r.out, r.start)

	// The prompt blocks on the terminal until a keypress, so a signal
	// delivered from outside only reaches us through the context.
	done := make(chan promptResult, 1)
	go func() {
		line, err := r.editor.Prompt(Prompt)
		done <- promptResult{line: line, err: err}
	}()

	var res promptResult
	select {
	case res = <-done:
	case <-r.ctx.Done():
		io.WriteString(r.out, r.reset+"\n")
		return "", session.ErrInterrupted
	}
	io.WriteString(r.out, r.reset)

	if errors.Is(res.err, liner.ErrPromptAborted) {
		io.WriteString(r.out, "\n")
		return "", session.ErrInterrupted
	}
	if res.err != nil {
		return "", res.err
	}

	if strings.TrimSpace(res.line) != "" {
		r.editor.AppendHistory(res.line)
	}
	return res.line, nil
}

func (r *Reader) loadHistory() {
	if r.historyFile == "" {
		return
	}
	if f, err := os.Open(r.historyFile); err == nil {
		r.line.ReadHistory(f)
		f.Close()
	}
}

// Close saves history and restores the terminal.
func (r *Reader) Close() error {
	if r.historyFile != "" {
		if f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600); err == nil {
			r.line.WriteHistory(f)
			f.Close()
		}
	}
	return r.line.Close()
}
