package core

import (
	"slices"
	"time"

	"github.com/hupe1980/readaloud/logging"
)

// scope is the logger of one turn or tool call. Every line is tagged with
// the scope attributes (session, turn, function call) so the lines written
// by different agents during one turn can be correlated.
type scope struct {
	base  logging.Logger
	attrs []any
}

// newScope derives a scope from l. Scopes nest: a scope built on another
// scope's Logger keeps the parent attributes.
func newScope(l logging.Logger, attrs ...any) *scope {
	switch parent := l.(type) {
	case nil:
		return &scope{base: logging.NoOpLogger{}, attrs: attrs}
	case scopedLogger:
		return &scope{base: parent.base, attrs: append(slices.Clone(parent.attrs), attrs...)}
	default:
		return &scope{base: l, attrs: attrs}
	}
}

// Logger returns a logging.Logger writing with the scope attributes.
func (s *scope) Logger() logging.Logger { return scopedLogger{s} }

func (s *scope) args(args []any) []any {
	if len(s.attrs) == 0 {
		return args
	}

	return append(slices.Clone(s.attrs), args...)
}

// LogDebug logs a debug message.
func (s *scope) LogDebug(msg string, args ...any) { s.base.Debug(msg, s.args(args)...) }

// LogInfo logs an info message.
func (s *scope) LogInfo(msg string, args ...any) { s.base.Info(msg, s.args(args)...) }

// LogWarn logs a warning message.
func (s *scope) LogWarn(msg string, args ...any) { s.base.Warn(msg, s.args(args)...) }

// LogError logs an error message.
func (s *scope) LogError(msg string, args ...any) { s.base.Error(msg, s.args(args)...) }

// LogToolCall records a tool invocation, through the classroom logger
// helper when the base logger has one.
func (s *scope) LogToolCall(tool string, dur time.Duration, err error) {
	if l, ok := s.base.(interface {
		LogToolCall(tool string, dur time.Duration, err error)
	}); ok {
		l.LogToolCall(tool, dur, err)
		return
	}

	s.LogDebug("tool.call", "tool", tool, "duration", dur, "success", err == nil)
}

// LogModelCall records a model round trip.
func (s *scope) LogModelCall(model string, tokens int, dur time.Duration, err error) {
	if l, ok := s.base.(interface {
		LogModelCall(model string, tokens int, dur time.Duration, err error)
	}); ok {
		l.LogModelCall(model, tokens, dur, err)
		return
	}

	s.LogDebug("model.call", "model", model, "tokens", tokens, "duration", dur, "success", err == nil)
}

type scopedLogger struct{ *scope }

func (l scopedLogger) Debug(msg string, args ...any) { l.LogDebug(msg, args...) }
func (l scopedLogger) Info(msg string, args ...any)  { l.LogInfo(msg, args...) }
func (l scopedLogger) Warn(msg string, args ...any)  { l.LogWarn(msg, args...) }
func (l scopedLogger) Error(msg string, args ...any) { l.LogError(msg, args...) }
