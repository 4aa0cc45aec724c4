// Package logger provides opinionated slog-based logging for aichat.
//
// Diagnostics default to stderr: stdout carries only answer text so piped
// output stays exact.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	charmlog "github.com/charmbracelet/log"
)

type config struct {
	level  slog.Level
	pretty bool
	json   bool
	source bool
	writer io.Writer
}

// New builds a *slog.Logger from the given options. Without options it
// writes Info-level text records to stderr.
func New(opts ...Option) *slog.Logger {
	cfg := &config{level: slog.LevelInfo}
	for _, opt := range opts {
		opt(cfg)
	}

	w := cfg.writer
	if w == nil {
		w = os.Stderr
	}

	var handler slog.Handler
	switch {
	case cfg.json:
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: cfg.level, AddSource: cfg.source})
	case cfg.pretty:
		cl := charmlog.NewWithOptions(w, charmlog.Options{
			ReportTimestamp: true,
			ReportCaller:    cfg.source,
			Level:           charmlog.Level(cfg.level),
		})
		handler = cl
	default:
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: cfg.level, AddSource: cfg.source})
	}

	return slog.New(handler)
}

// Nop returns a logger that discards everything.
func Nop() *slog.Logger {
	return slog.New(nopHandler{})
}

type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (h nopHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h nopHandler) WithGroup(string) slog.Handler           { return h }

// DebugWriter returns a writer that logs each non-empty line written to it
// as a Debug record with the given message.
func DebugWriter(l *slog.Logger, msg string) io.Writer {
	return &debugWriter{logger: l, msg: msg}
}

type debugWriter struct {
	logger *slog.Logger
	msg    string
}

func (w *debugWriter) Write(p []byte) (int, error) {
	for _, line := range strings.Split(string(p), "\n") {
		if line = strings.TrimRight(line, "\r"); line != "" {
			w.logger.Debug(w.msg, "line", line)
		}
	}
	return len(p), nil
}
