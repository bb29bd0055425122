package rolling

import (
	"math"
	"testing"
	"time"
)

func TestSentimentMeanAndBand(t *testing.T) {
	cases := []struct {
		name   string
		values []float64
		band   Band
	}{
		{"positive", []float64{0.8, 0.6, 0.9}, BandPositive},
		{"neutral", []float64{0.1, -0.1, 0.0}, BandNeutral},
		{"negative", []float64{-0.9, -0.7}, BandNegative},
		{"empty", nil, BandNeutral},
		// Out-of-range values are legal and must not break banding.
		{"unbounded", []float64{12.0, 15.0}, BandPositive},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store, err := New(Config{})
			if err != nil {
				t.Fatalf("new store: %v", err)
			}
			for i, v := range tc.values {
				store.Insert(testRecord(i, "a", v, "x"))
			}
			snap := store.Snapshot()
			if snap.SentimentBand != tc.band {
				t.Fatalf("band %q, want %q (mean %v)", snap.SentimentBand, tc.band, snap.SentimentMean)
			}
		})
	}
}

func TestMovingAverage(t *testing.T) {
	points := make([]SentimentPoint, 0, 7)
	for _, v := range []float64{1, 2, 3, 4, 5, 6, 7} {
		points = append(points, SentimentPoint{Value: v})
	}

	got := movingAverage(points, 5)
	if len(got) != 7 {
		t.Fatalf("series length %d, want 7", len(got))
	}
	// Leading entries average what is available.
	if got[0] != 1 || got[1] != 1.5 {
		t.Fatalf("leading averages wrong: %v", got[:2])
	}
	// Full-span entries: mean of the trailing 5 values.
	if got[4] != 3 || got[5] != 4 || got[6] != 5 {
		t.Fatalf("full-span averages wrong: %v", got[4:])
	}
}

func TestLengthStats(t *testing.T) {
	store, err := New(Config{})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}
	for i, text := range texts {
		store.Insert(testRecord(i, "a", 0, text))
	}

	stats := store.Snapshot().Lengths
	if stats.Min != 1 || stats.Max != 5 {
		t.Fatalf("min/max = %d/%d, want 1/5", stats.Min, stats.Max)
	}
	if math.Abs(stats.Mean-3.0) > 1e-9 {
		t.Fatalf("mean %v, want 3", stats.Mean)
	}
	var binned int
	for _, b := range stats.Histogram {
		binned += b.Count
	}
	if binned != len(texts) {
		t.Fatalf("histogram bins %d values, want %d", binned, len(texts))
	}
}

func TestHistogramDegenerateWindow(t *testing.T) {
	buckets := histogram([]int{4, 4, 4}, 4, 4)
	if len(buckets) != 1 || buckets[0].Count != 3 {
		t.Fatalf("expected single bucket of 3, got %+v", buckets)
	}
}

func TestThroughput(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	points := []TimePoint{
		{Timestamp: base, Cumulative: 1},
		{Timestamp: base.Add(10 * time.Second), Cumulative: 21},
	}
	if got := throughput(points); got != 2.0 {
		t.Fatalf("throughput %v, want 2.0/s", got)
	}
	if got := throughput(points[:1]); got != 0 {
		t.Fatalf("single-point throughput %v, want 0", got)
	}
}

func TestEmptySnapshot(t *testing.T) {
	store, err := New(Config{})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	snap := store.Snapshot()
	if snap.TotalCount != 0 || len(snap.TimeSeries) != 0 || len(snap.Authors) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
	if snap.SentimentBand != BandNeutral {
		t.Fatalf("empty store band %q, want neutral", snap.SentimentBand)
	}
}
