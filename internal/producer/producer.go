// Package producer generates demo buzz messages and emits them through
// the sink fan-out. It exists to exercise the full pipeline without a
// real upstream feed.
package producer

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"buzzline/internal/logging"
	"buzzline/internal/record"
	"buzzline/internal/sink"
)

var (
	authors    = []string{"Alice", "Bob", "Charlie", "Eve", "Mallory", "Trent", "Peggy"}
	categories = []string{"humor", "tech", "food", "travel", "entertainment", "gaming", "other"}
	keywords   = []string{"Python", "JavaScript", "recipe", "travel", "movie", "game", "meme"}
	templates  = []string{
		"I just shared a %s! It was %s.",
		"I just tried a new %s! It was %s.",
		"I just watched a %s! It was %s.",
		"I just discovered a %s! It was %s.",
		"Anyone else obsessed with this %s? Absolutely %s.",
	}
	verdicts = []string{"amazing", "funny", "boring", "exciting", "terrible", "meh"}
)

// sentimentFor maps a verdict to a base sentiment, jittered per message.
var sentimentFor = map[string]float64{
	"amazing":  0.9,
	"funny":    0.7,
	"exciting": 0.6,
	"meh":      0.0,
	"boring":   -0.4,
	"terrible": -0.8,
}

// Config holds the producer settings.
type Config struct {
	// Interval is the steady emission period. Must be positive.
	Interval time.Duration

	// Count stops the producer after that many messages. Zero means
	// run until the context is cancelled.
	Count int

	// Now is injectable for tests. Defaults to time.Now.
	Now func() time.Time

	// Rand is injectable for tests. Defaults to a fresh PCG source.
	Rand *rand.Rand

	Logger *slog.Logger
}

// Producer emits generated messages to a fan-out at a fixed rate.
type Producer struct {
	runID   string
	limiter *rate.Limiter
	count   int
	now     func() time.Time
	rng     *rand.Rand
	nextID  int64
	logger  *slog.Logger
}

// New creates a producer. The run ID is fresh per process so messages
// from overlapping runs can be told apart in the sinks.
func New(cfg Config) (*Producer, error) {
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("producer: interval must be positive, got %v", cfg.Interval)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(now().UnixNano()), 0))
	}
	return &Producer{
		runID:   uuid.NewString(),
		limiter: rate.NewLimiter(rate.Every(cfg.Interval), 1),
		count:   cfg.Count,
		now:     now,
		rng:     rng,
		nextID:  1,
		logger:  logging.Default(cfg.Logger).With("component", "producer"),
	}, nil
}

// RunID returns the identifier stamped on this run's log lines.
func (p *Producer) RunID() string { return p.runID }

// Run emits messages through out until ctx is cancelled or the
// configured count is reached. Returns nil on normal cancellation.
func (p *Producer) Run(ctx context.Context, out *sink.Fanout) error {
	p.logger.Info("producer started", "run_id", p.runID, "count", p.count)

	sent := 0
	for p.count == 0 || sent < p.count {
		if err := p.limiter.Wait(ctx); err != nil {
			p.logger.Info("producer stopped", "run_id", p.runID, "sent", sent)
			return nil
		}

		rec := p.Generate()
		if res := out.Emit(ctx, rec); !res.OK() {
			// Fan-out already logged the per-sink failures.
			p.logger.Debug("partial emit", "id", rec.ID, "failed", res.Failed())
		}
		sent++
	}

	p.logger.Info("producer finished", "run_id", p.runID, "sent", sent)
	return nil
}

// Generate builds one random message.
func (p *Producer) Generate() record.Record {
	keyword := keywords[p.rng.IntN(len(keywords))]
	verdict := verdicts[p.rng.IntN(len(verdicts))]
	text := fmt.Sprintf(templates[p.rng.IntN(len(templates))], keyword, verdict)

	// Jitter the verdict's base sentiment by up to ±0.1.
	sentiment := sentimentFor[verdict] + (p.rng.Float64()-0.5)/5

	rec := record.Record{
		ID:        p.nextID,
		Timestamp: p.now(),
		Author:    authors[p.rng.IntN(len(authors))],
		Text:      text,
		Category:  categories[p.rng.IntN(len(categories))],
		Sentiment: sentiment,
		Keyword:   keyword,
	}
	rec.Length = len([]rune(rec.Text))
	p.nextID++
	return rec
}
