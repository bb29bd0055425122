// Package rolling maintains bounded sliding windows over normalized records
// and computes point-in-time analytics snapshots from them.
//
// The Store holds four windows: a time-series window of (timestamp,
// cumulative count), a sentiment window, a length window, and a bounded
// author table. The three sequence windows evict FIFO; the author table
// evicts by update recency. Window sizes never exceed their configured
// capacities, so memory is bounded regardless of how many records flow
// through or how many distinct authors appear.
//
// Ownership: exactly one writer (the ingestion worker) calls Insert.
// Readers call Snapshot, which copies state out under the same mutex, so a
// snapshot never observes a record applied to some windows but not others.
package rolling

import (
	"fmt"
	"sync"
	"time"

	"buzzline/internal/record"
)

// Default window capacities, matching the original dashboard's retention.
const (
	DefaultTimeCapacity   = 50
	DefaultAuthorCapacity = 30
)

// Default sentiment band thresholds over the conventional [-1, 1] range.
const (
	DefaultPositiveThreshold = 0.25
	DefaultNegativeThreshold = -0.25
)

// Config sizes the windows and sets the sentiment banding thresholds.
type Config struct {
	// TimeCapacity bounds the time-series, sentiment, and length windows.
	// Defaults to DefaultTimeCapacity if zero.
	TimeCapacity int

	// AuthorCapacity bounds the author table.
	// Defaults to DefaultAuthorCapacity if zero.
	AuthorCapacity int

	// PositiveThreshold and NegativeThreshold band the mean sentiment.
	// Both default if the pair is zero. Banding never assumes sentiment
	// stays inside [-1, 1].
	PositiveThreshold float64
	NegativeThreshold float64
}

// TimePoint is one sample of the message flow: the cumulative record count
// as of a record's timestamp.
type TimePoint struct {
	Timestamp  time.Time
	Cumulative int64
}

// SentimentPoint is one sentiment observation.
type SentimentPoint struct {
	Timestamp time.Time
	Value     float64
}

// AuthorCount is an author's running count while its entry survives
// in the bounded author table.
type AuthorCount struct {
	Author string
	Count  int64
}

// Store is the rolling window state. Created empty at worker start,
// discarded at shutdown; window contents do not survive restarts.
type Store struct {
	cfg Config

	mu         sync.Mutex
	total      int64
	timeSeries *window[TimePoint]
	sentiments *window[SentimentPoint]
	lengths    *window[int]
	authors    *authorTable
}

// New creates an empty Store. Negative capacities or inverted thresholds
// are configuration errors, fatal at startup.
func New(cfg Config) (*Store, error) {
	if cfg.TimeCapacity == 0 {
		cfg.TimeCapacity = DefaultTimeCapacity
	}
	if cfg.AuthorCapacity == 0 {
		cfg.AuthorCapacity = DefaultAuthorCapacity
	}
	if cfg.PositiveThreshold == 0 && cfg.NegativeThreshold == 0 {
		cfg.PositiveThreshold = DefaultPositiveThreshold
		cfg.NegativeThreshold = DefaultNegativeThreshold
	}

	if cfg.TimeCapacity < 0 {
		return nil, fmt.Errorf("rolling: time capacity must be positive, got %d", cfg.TimeCapacity)
	}
	if cfg.AuthorCapacity < 0 {
		return nil, fmt.Errorf("rolling: author capacity must be positive, got %d", cfg.AuthorCapacity)
	}
	if cfg.PositiveThreshold < cfg.NegativeThreshold {
		return nil, fmt.Errorf("rolling: positive threshold %v below negative threshold %v",
			cfg.PositiveThreshold, cfg.NegativeThreshold)
	}

	return &Store{
		cfg:        cfg,
		timeSeries: newWindow[TimePoint](cfg.TimeCapacity),
		sentiments: newWindow[SentimentPoint](cfg.TimeCapacity),
		lengths:    newWindow[int](cfg.TimeCapacity),
		authors:    newAuthorTable(cfg.AuthorCapacity),
	}, nil
}

// Insert applies one normalized record to every window atomically: all four
// windows are updated under the lock before it is released, so concurrent
// snapshots see cross-window state that is mutually consistent per record.
func (s *Store) Insert(rec record.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++
	s.timeSeries.push(TimePoint{Timestamp: rec.Timestamp, Cumulative: s.total})
	s.sentiments.push(SentimentPoint{Timestamp: rec.Timestamp, Value: rec.Sentiment})
	s.lengths.push(rec.Length)
	s.authors.touch(rec.Author)
}

// Snapshot copies the window contents out under the lock, then derives the
// analytics outside it. The result is self-contained; callers can render it
// at leisure without observing later insertions.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	total := s.total
	timeSeries := s.timeSeries.snapshot()
	sentiments := s.sentiments.snapshot()
	lengths := s.lengths.snapshot()
	authors := s.authors.counts()
	s.mu.Unlock()

	return buildSnapshot(s.cfg, total, timeSeries, sentiments, lengths, authors)
}
