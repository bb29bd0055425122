// Package sink defines the destination capability for normalized records
// and the fan-out emitter that delivers one record to every configured
// destination with per-sink failure isolation.
package sink

import (
	"context"

	"buzzline/internal/record"
)

// Sink is a destination capable of storing a Record, durably (file append,
// table row) or best-effort (broker publish).
//
// Write must be bounded: implementations either complete, fail, or honor
// ctx cancellation. A Write error affects only that sink; the emitter keeps
// going. Implementations must not retry internally; the producer loop
// decides whether to try again on its next tick.
type Sink interface {
	// Name identifies the sink in outcomes and logs, e.g. "file" or "kafka".
	Name() string

	// Write stores one record.
	Write(ctx context.Context, rec record.Record) error

	// Close releases the sink's resources.
	Close() error
}

// Results maps sink name to write outcome: nil for success, the sink's
// error otherwise.
type Results map[string]error

// Failed returns the names of sinks that reported an error.
func (r Results) Failed() []string {
	var out []string
	for name, err := range r {
		if err != nil {
			out = append(out, name)
		}
	}
	return out
}

// OK reports whether every sink succeeded.
func (r Results) OK() bool {
	return len(r.Failed()) == 0
}
