// Package source defines the origin capability: something that can be
// polled for newly available raw payloads since an internal cursor.
//
// Poll is idempotent with respect to the cursor: polling twice with no new
// underlying data yields nothing the second time, and data appended between
// polls is returned exactly once, with no gaps. Each implementation owns
// its cursor shape (byte offset for file tailing, committed offsets for the
// broker consumer, last-seen surrogate key for relational polling).
package source

import (
	"context"
	"errors"

	"buzzline/internal/record"
)

// ErrUnavailable reports that the origin cannot currently be reached
// (file missing, broker unreachable, table missing). It is transient and
// distinct from "no new records": the worker backs off the source instead
// of treating the empty result as progress.
var ErrUnavailable = errors.New("source unavailable")

// Source yields raw payloads for normalization.
//
// Implementations must be bounded: Poll either returns promptly or honors
// ctx cancellation; it never blocks indefinitely waiting for data.
type Source interface {
	// Name identifies the source in health reports and logs.
	Name() string

	// Open initializes the source. An Open error disables the source for
	// the run; the worker degrades gracefully rather than aborting.
	Open(ctx context.Context) error

	// Poll returns payloads that became available since the last call,
	// advancing the cursor past them. An empty result means no new data.
	Poll(ctx context.Context) ([]record.Raw, error)

	// Close releases the source's resources.
	Close() error
}
