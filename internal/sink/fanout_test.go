package sink

import (
	"context"
	"errors"
	"testing"
	"time"

	"buzzline/internal/record"
)

// fakeSink records writes and optionally fails.
type fakeSink struct {
	name   string
	err    error
	writes int
}

func (f *fakeSink) Name() string { return f.name }
func (f *fakeSink) Write(_ context.Context, _ record.Record) error {
	f.writes++
	return f.err
}
func (f *fakeSink) Close() error { return nil }

func TestEmitIsolatesFailingSink(t *testing.T) {
	boom := errors.New("connection refused")
	first := &fakeSink{name: "file"}
	second := &fakeSink{name: "sqlite", err: boom}
	third := &fakeSink{name: "kafka"}

	fanout := NewFanout(nil, first, second, third)

	done := make(chan Results, 1)
	go func() {
		done <- fanout.Emit(context.Background(), record.Record{Author: "a"})
	}()

	var results Results
	select {
	case results = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("emit blocked; expected single-pass delivery with no retry loop")
	}

	if results["file"] != nil || results["kafka"] != nil {
		t.Fatalf("healthy sinks should succeed: %v", results)
	}
	if !errors.Is(results["sqlite"], boom) {
		t.Fatalf("expected sqlite failure recorded, got %v", results["sqlite"])
	}
	if first.writes != 1 || second.writes != 1 || third.writes != 1 {
		t.Fatalf("every sink must be attempted exactly once: %d %d %d",
			first.writes, second.writes, third.writes)
	}

	failed := results.Failed()
	if len(failed) != 1 || failed[0] != "sqlite" {
		t.Fatalf("failed list %v, want [sqlite]", failed)
	}
	if results.OK() {
		t.Fatal("results with a failure must not report OK")
	}
}

func TestEmitAllHealthy(t *testing.T) {
	fanout := NewFanout(nil, &fakeSink{name: "a"}, &fakeSink{name: "b"})
	results := fanout.Emit(context.Background(), record.Record{Author: "x"})
	if !results.OK() {
		t.Fatalf("expected all-OK results, got %v", results)
	}
	if len(results) != 2 {
		t.Fatalf("expected one outcome per sink, got %d", len(results))
	}
}
