// Package logging provides utilities for structured logging across the system.
//
// Logging is dependency-injected, never global. Each component owns its own
// scoped logger, attached once at construction time with slog.With. If no
// logger is provided, a discard logger is used.
//
// Global configuration (output format, level, destination) belongs only in
// main(). Components must never call slog.SetDefault or read global loggers.
//
// Logging is intentionally sparse: lifecycle boundaries are the intended log
// points. No logging inside per-record hot paths (normalization, window
// insertion, snapshot computation).
package logging

import (
	"context"
	"log/slog"
)

// discardHandler is a handler that discards all log records.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// Discard returns a logger that discards all output.
func Discard() *slog.Logger {
	return slog.New(discardHandler{})
}

// Default returns the provided logger if non-nil, otherwise a discard logger.
// This is the standard pattern for optional logger parameters:
//
//	func NewWorker(cfg Config) *Worker {
//	    logger := logging.Default(cfg.Logger).With("component", "worker")
//	    ...
//	}
func Default(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return Discard()
}
