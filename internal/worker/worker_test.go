package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"buzzline/internal/record"
	"buzzline/internal/rolling"
	"buzzline/internal/source"
)

// fakeSource serves scripted poll results.
type fakeSource struct {
	mu       sync.Mutex
	name     string
	openErr  error
	failures int // initial polls that report unavailable
	batches  [][]record.Raw
	polls    int
	closed   bool
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Open(context.Context) error { return f.openErr }

func (f *fakeSource) Poll(context.Context) ([]record.Raw, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	if f.failures > 0 {
		f.failures--
		return nil, fmt.Errorf("%w: scripted outage", source.ErrUnavailable)
	}
	if len(f.batches) == 0 {
		return nil, nil
	}
	batch := f.batches[0]
	f.batches = f.batches[1:]
	return batch, nil
}

func (f *fakeSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSource) pollCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.polls
}

func rawMessage(author string) record.Raw {
	return record.Raw(fmt.Sprintf(`{"message":"hi","author":%q,"sentiment":0.5}`, author))
}

// fakeClock is an adjustable clock for driving backoff deadlines.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestWorker(t *testing.T, clock *fakeClock, srcs ...source.Source) (*Worker, *rolling.Store) {
	t.Helper()
	store, err := rolling.New(rolling.Config{})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	w, err := New(Config{
		Sources:     srcs,
		Store:       store,
		BackoffBase: time.Second,
		BackoffMax:  8 * time.Second,
		Now:         clock.Now,
	})
	if err != nil {
		t.Fatalf("new worker: %v", err)
	}
	return w, store
}

func TestOpenFailureDisablesOnlyThatSource(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	bad := &fakeSource{name: "bad", openErr: errors.New("no such table")}
	good := &fakeSource{name: "good", batches: [][]record.Raw{{rawMessage("alice")}}}

	w, store := newTestWorker(t, clock, bad, good)
	ctx := context.Background()
	w.openSources(ctx)
	w.tick(ctx)

	if got := store.Snapshot().TotalCount; got != 1 {
		t.Fatalf("expected the healthy source's record stored, total %d", got)
	}
	if bad.pollCount() != 0 {
		t.Fatal("disabled source must not be polled")
	}

	health := make(map[string]SourceHealth)
	for _, h := range w.Health() {
		health[h.Name] = h
	}
	if health["bad"].Enabled {
		t.Fatal("failed-open source should be reported disabled")
	}
	if !health["good"].Enabled || health["good"].Records != 1 {
		t.Fatalf("healthy source misreported: %+v", health["good"])
	}
}

func TestUnavailableSourceBacksOffWhileOthersProgress(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	flaky := &fakeSource{
		name:     "flaky",
		failures: 3,
		batches:  [][]record.Raw{{rawMessage("late")}},
	}
	steady := &fakeSource{name: "steady", batches: [][]record.Raw{
		{rawMessage("a")}, {rawMessage("a")}, {rawMessage("a")},
		{rawMessage("a")}, {rawMessage("a")}, {rawMessage("a")},
		{rawMessage("a")}, {rawMessage("a")},
	}}

	w, store := newTestWorker(t, clock, flaky, steady)
	ctx := context.Background()
	w.openSources(ctx)

	// Walk in 1s steps. Backoff schedule for flaky: fail at t0 (retry t+1s),
	// fail again (retry +2s), fail again (retry +4s), then succeed.
	for range 10 {
		w.tick(ctx)
		clock.Advance(time.Second)
	}

	// steady must have been polled every tick despite flaky's outage.
	if steady.pollCount() != 10 {
		t.Fatalf("steady polled %d times, want every tick", steady.pollCount())
	}
	// flaky: attempts at t0, t1, t3, t7 (exponential backoff), succeeding
	// on the fourth, then back to every tick (t8, t9).
	if flaky.pollCount() != 6 {
		t.Fatalf("flaky polled %d times, want 6 (backoff schedule)", flaky.pollCount())
	}

	for _, h := range w.Health() {
		if h.Name == "flaky" {
			if h.Failures != 0 {
				t.Fatalf("failure count must reset on first success, got %d", h.Failures)
			}
			if h.Records != 1 {
				t.Fatalf("flaky's late record should be stored, got %d", h.Records)
			}
		}
	}

	// 8 steady records + 1 late flaky record.
	if got := store.Snapshot().TotalCount; got != 9 {
		t.Fatalf("total %d, want 9", got)
	}
}

func TestMalformedPayloadDroppedNotFatal(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	src := &fakeSource{name: "mixed", batches: [][]record.Raw{{
		rawMessage("alice"),
		record.Raw(`{"message":"no author here","sentiment":1}`),
		rawMessage("bob"),
	}}}

	w, store := newTestWorker(t, clock, src)
	ctx := context.Background()
	w.openSources(ctx)
	w.tick(ctx)

	snap := store.Snapshot()
	if snap.TotalCount != 2 {
		t.Fatalf("snapshot must not count the dropped payload: total %d", snap.TotalCount)
	}

	h := w.Health()[0]
	if h.Dropped != 1 || h.Records != 2 {
		t.Fatalf("health dropped/records = %d/%d, want 1/2", h.Dropped, h.Records)
	}

	// The worker keeps going: a later batch still lands.
	src.mu.Lock()
	src.batches = [][]record.Raw{{rawMessage("carol")}}
	src.mu.Unlock()
	w.tick(ctx)
	if got := store.Snapshot().TotalCount; got != 3 {
		t.Fatalf("worker should continue after drops, total %d", got)
	}
}

func TestAssignsMonotonicIDs(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	src := &fakeSource{name: "s", batches: [][]record.Raw{{
		rawMessage("a"), rawMessage("b"),
		record.Raw(`{"id":77,"message":"hi","author":"c"}`),
	}}}

	w, store := newTestWorker(t, clock, src)
	ctx := context.Background()
	w.openSources(ctx)
	w.tick(ctx)

	if got := store.Snapshot().TotalCount; got != 3 {
		t.Fatalf("total %d, want 3", got)
	}
	// Source-assigned IDs are kept; only missing ones are generated.
	w.mu.Lock()
	next := w.nextID
	w.mu.Unlock()
	if next != 2 {
		t.Fatalf("expected 2 generated IDs, got %d", next)
	}
}

func TestStartStopLifecycle(t *testing.T) {
	store, err := rolling.New(rolling.Config{})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	src := &fakeSource{name: "s", batches: [][]record.Raw{{rawMessage("a")}}}
	w, err := New(Config{
		Sources:      []source.Source{src},
		Store:        store,
		TickInterval: 10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("new worker: %v", err)
	}

	ctx := context.Background()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := w.Start(ctx); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("second start: %v, want ErrAlreadyRunning", err)
	}

	deadline := time.After(2 * time.Second)
	for store.Snapshot().TotalCount == 0 {
		select {
		case <-deadline:
			t.Fatal("record never ingested")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if err := w.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if !src.closed {
		t.Fatal("sources must be closed on stop")
	}
	if err := w.Stop(); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("second stop: %v, want ErrNotRunning", err)
	}
}

func TestUpdatedSignalFiresOnStore(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	src := &fakeSource{name: "s", batches: [][]record.Raw{{rawMessage("a")}}}
	w, _ := newTestWorker(t, clock, src)

	ctx := context.Background()
	w.openSources(ctx)

	ch := w.Updated().C()
	w.tick(ctx)

	select {
	case <-ch:
	default:
		t.Fatal("expected update notification after a stored batch")
	}
}
