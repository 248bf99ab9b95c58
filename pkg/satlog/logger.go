// Package satlog is the satellite's ambient logging stack: a thin
// Logger built on log/slog, grounded on the teacher's
// pkg/chatgear/logger.go (a small Printf-style interface wrapping slog,
// with a DefaultLogger and an adapter over a caller-supplied
// *slog.Logger). Every component package in this module defines its own
// narrow Logger interface (Debugf/Infof/Warnf, sometimes fewer); *Logger
// here satisfies all of them structurally, so callers wire one concrete
// logger everywhere instead of one per component.
package satlog

import (
	"fmt"
	"log/slog"
	"os"
)

// Format selects slog's built-in handler encoding, matching the
// satellite's `--log-format` CLI option (spec.md §6).
type Format string

const (
	Text Format = "text"
	JSON Format = "json"
)

// Logger wraps a *slog.Logger with the Printf-style methods the rest of
// this module's packages expect.
type Logger struct {
	*slog.Logger
}

// New builds a Logger writing to stderr in the given format at info
// level. debug, if true, lowers the level to slog.LevelDebug.
func New(format Format, debug bool) *Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch format {
	case JSON:
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return &Logger{slog.New(handler)}
}

// Default returns a text-format, info-level Logger over slog's default
// handler. Used where a caller doesn't wire its own (e.g. package tests).
func Default() *Logger {
	return &Logger{slog.Default()}
}

func (l *Logger) Debugf(format string, args ...any) { l.Logger.Debug(fmt.Sprintf(format, args...)) }
func (l *Logger) Infof(format string, args ...any)  { l.Logger.Info(fmt.Sprintf(format, args...)) }
func (l *Logger) Warnf(format string, args ...any)  { l.Logger.Warn(fmt.Sprintf(format, args...)) }
func (l *Logger) Errorf(format string, args ...any) { l.Logger.Error(fmt.Sprintf(format, args...)) }

// With returns a Logger scoped to a component name, mirroring slog's
// attribute grouping rather than chatgear's string-prefix approach.
func (l *Logger) With(component string) *Logger {
	return &Logger{l.Logger.With("component", component)}
}
