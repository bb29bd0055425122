package sink

import (
	"context"
	"log/slog"

	"buzzline/internal/logging"
	"buzzline/internal/record"
)

// Fanout delivers each record to every configured sink. One sink failing
// (connection refused, disk full, serialization error) never prevents the
// remaining sinks from being attempted and never surfaces as an error to
// the caller; the per-sink outcome map carries the verdicts.
type Fanout struct {
	sinks  []Sink
	logger *slog.Logger
}

// NewFanout creates a fan-out emitter over the given sinks.
func NewFanout(logger *slog.Logger, sinks ...Sink) *Fanout {
	return &Fanout{
		sinks:  sinks,
		logger: logging.Default(logger).With("component", "fanout"),
	}
}

// Emit writes the record to every sink in order. No retries; failures are
// logged and reported in the returned map keyed by sink name.
func (f *Fanout) Emit(ctx context.Context, rec record.Record) Results {
	results := make(Results, len(f.sinks))
	for _, s := range f.sinks {
		err := s.Write(ctx, rec)
		results[s.Name()] = err
		if err != nil {
			f.logger.Warn("sink write failed", "sink", s.Name(), "error", err)
		}
	}
	return results
}

// Close closes every sink, returning the first error encountered.
func (f *Fanout) Close() error {
	var firstErr error
	for _, s := range f.sinks {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
