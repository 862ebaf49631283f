// Package logging provides a minimal logging interface and adapters for readaloud.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that agents, the runner and the session driver use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - ClassroomLogger with helpers for turns, handoffs, tools, models and voice
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "text", false)
//	app, err := readaloud.New(cfg, func(o *readaloud.Options) { o.Logger = logger })
package logging
