// Package worker runs the ingestion loop: poll every configured source on
// a fixed tick, normalize whatever comes back, and apply it to the rolling
// store.
//
// Failure containment is the point of this package. A source that fails to
// open is disabled for the run; a source whose poll reports unavailable is
// backed off exponentially (bounded) while the other sources keep being
// polled; a payload that fails normalization is dropped and logged. None
// of these stop the worker. Only an external stop does, observed at the
// next tick boundary, with the in-flight batch finishing first.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"buzzline/internal/logging"
	"buzzline/internal/notify"
	"buzzline/internal/record"
	"buzzline/internal/rolling"
	"buzzline/internal/source"
)

// Defaults for the poll loop.
const (
	DefaultTickInterval = 2 * time.Second
	DefaultBackoffBase  = 1 * time.Second
	DefaultBackoffMax   = 30 * time.Second
)

// ErrAlreadyRunning is returned by Start on a running worker.
var ErrAlreadyRunning = errors.New("worker already running")

// ErrNotRunning is returned by Stop on a stopped worker.
var ErrNotRunning = errors.New("worker not running")

// Config holds worker configuration.
type Config struct {
	// Sources to poll. Sources that fail to open are disabled for the
	// run rather than aborting the worker.
	Sources []source.Source

	// Store receives every successfully normalized record. Required.
	Store *rolling.Store

	// TickInterval is the fixed polling period.
	TickInterval time.Duration

	// BackoffBase and BackoffMax bound the per-source retry delay after
	// consecutive unavailable polls: base, 2*base, 4*base, ... up to max.
	BackoffBase time.Duration
	BackoffMax  time.Duration

	// Now is the clock, injectable for tests. Defaults to time.Now.
	Now func() time.Time

	// Logger for structured logging. If nil, logging is disabled.
	Logger *slog.Logger
}

// SourceHealth is one source's condition as seen by the worker, for
// "source X degraded" style display.
type SourceHealth struct {
	Name     string
	Enabled  bool
	Degraded bool
	Failures int
	Dropped  int64 // malformed payloads discarded from this source
	Records  int64 // records successfully stored from this source
}

// sourceState tracks one source's poll loop state.
type sourceState struct {
	src      source.Source
	enabled  bool
	failures int
	retryAt  time.Time
	dropped  int64
	records  int64
}

// Worker is the ingestion worker. One background goroutine owns the poll
// loop; the rolling store is mutated only from there.
type Worker struct {
	cfg     Config
	logger  *slog.Logger
	updated *notify.Signal

	mu      sync.Mutex
	states  []*sourceState
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	nextID  int64
}

// New creates a worker. The store is required; an empty source list is
// legal (the worker idles).
func New(cfg Config) (*Worker, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("worker: store is required")
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = DefaultBackoffBase
	}
	if cfg.BackoffMax < cfg.BackoffBase {
		cfg.BackoffMax = DefaultBackoffMax
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Worker{
		cfg:     cfg,
		logger:  logging.Default(cfg.Logger).With("component", "worker"),
		updated: notify.NewSignal(),
	}, nil
}

// Updated returns the signal notified after each stored batch. Renderers
// wait on it instead of busy-polling Snapshot.
func (w *Worker) Updated() *notify.Signal { return w.updated }

// Snapshot exposes the single read operation renderers get.
func (w *Worker) Snapshot() rolling.Snapshot { return w.cfg.Store.Snapshot() }

// Start opens the sources and launches the poll loop. Sources that fail
// to open are disabled for this run; the worker starts regardless.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return ErrAlreadyRunning
	}

	w.openSources(ctx)

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.running = true

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run(ctx)
	}()

	return nil
}

// Stop requests shutdown and waits for the loop to exit. The stop is
// observed at the next tick boundary; the batch in flight is finished
// first so no partially-applied batches remain.
func (w *Worker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return ErrNotRunning
	}
	cancel := w.cancel
	w.mu.Unlock()

	cancel()
	w.wg.Wait()

	w.mu.Lock()
	w.running = false
	w.cancel = nil
	w.mu.Unlock()
	return nil
}

// Health reports per-source condition, copied out under the lock.
func (w *Worker) Health() []SourceHealth {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]SourceHealth, 0, len(w.states))
	for _, st := range w.states {
		out = append(out, SourceHealth{
			Name:     st.src.Name(),
			Enabled:  st.enabled,
			Degraded: st.enabled && st.failures > 0,
			Failures: st.failures,
			Dropped:  st.dropped,
			Records:  st.records,
		})
	}
	return out
}

// openSources initializes every configured source, disabling the ones
// that fail so the rest of the run degrades instead of aborting.
func (w *Worker) openSources(ctx context.Context) {
	w.states = make([]*sourceState, 0, len(w.cfg.Sources))
	for _, src := range w.cfg.Sources {
		st := &sourceState{src: src, enabled: true}
		if err := src.Open(ctx); err != nil {
			st.enabled = false
			w.logger.Warn("source failed to open, disabled for this run",
				"source", src.Name(), "error", err)
		} else {
			w.logger.Info("source opened", "source", src.Name())
		}
		w.states = append(w.states, st)
	}
}

// run is the poll loop: one tick, one pass over the enabled sources.
func (w *Worker) run(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.TickInterval)
	defer ticker.Stop()

	w.logger.Info("worker started",
		"sources", len(w.states), "tick", w.cfg.TickInterval)

	for {
		select {
		case <-ctx.Done():
			w.closeSources()
			w.logger.Info("worker stopped")
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

// tick polls every enabled source that is not in backoff, normalizes the
// results, and stores them. Containment happens here: unavailable sources
// go into backoff, malformed payloads are dropped, and the pass always
// reaches the remaining sources.
func (w *Worker) tick(ctx context.Context) {
	w.mu.Lock()
	states := make([]*sourceState, len(w.states))
	copy(states, w.states)
	now := w.cfg.Now()
	w.mu.Unlock()

	var stored int
	for _, st := range states {
		if !st.enabled || now.Before(st.retryAt) {
			continue
		}

		raws, err := st.src.Poll(ctx)
		if err != nil {
			w.noteFailure(st, err, now)
			continue
		}
		w.noteSuccess(st)

		stored += w.storeBatch(st, raws)
	}

	if stored > 0 {
		w.updated.Notify()
	}
}

// storeBatch normalizes and stores one batch. Malformed payloads are
// dropped individually; the rest of the batch still lands.
func (w *Worker) storeBatch(st *sourceState, raws []record.Raw) int {
	var stored int
	for _, raw := range raws {
		rec, err := record.Normalize(raw, w.cfg.Now)
		if err != nil {
			w.mu.Lock()
			st.dropped++
			w.mu.Unlock()
			w.logger.Warn("dropping malformed payload",
				"source", st.src.Name(), "error", err)
			continue
		}
		if rec.ID == 0 {
			rec.ID = w.assignID()
		}
		w.cfg.Store.Insert(rec)
		stored++
	}

	if stored > 0 {
		w.mu.Lock()
		st.records += int64(stored)
		w.mu.Unlock()
	}
	return stored
}

// noteFailure records an unavailable outcome and schedules the source's
// next attempt with bounded exponential backoff.
func (w *Worker) noteFailure(st *sourceState, err error, now time.Time) {
	w.mu.Lock()
	st.failures++
	delay := backoff(w.cfg.BackoffBase, w.cfg.BackoffMax, st.failures)
	st.retryAt = now.Add(delay)
	failures := st.failures
	w.mu.Unlock()

	if errors.Is(err, source.ErrUnavailable) {
		w.logger.Warn("source unavailable, backing off",
			"source", st.src.Name(), "failures", failures, "retry_in", delay)
	} else {
		w.logger.Warn("source poll failed, backing off",
			"source", st.src.Name(), "failures", failures, "retry_in", delay, "error", err)
	}
}

// noteSuccess resets the source's failure accounting.
func (w *Worker) noteSuccess(st *sourceState) {
	w.mu.Lock()
	if st.failures > 0 {
		w.logger.Info("source recovered", "source", st.src.Name())
	}
	st.failures = 0
	st.retryAt = time.Time{}
	w.mu.Unlock()
}

func (w *Worker) assignID() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nextID++
	return w.nextID
}

func (w *Worker) closeSources() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, st := range w.states {
		if err := st.src.Close(); err != nil {
			w.logger.Warn("source close failed", "source", st.src.Name(), "error", err)
		}
	}
}

// backoff returns base doubled per consecutive failure, capped at limit.
func backoff(base, limit time.Duration, failures int) time.Duration {
	d := base
	for i := 1; i < failures; i++ {
		d *= 2
		if d >= limit {
			return limit
		}
	}
	return min(d, limit)
}
