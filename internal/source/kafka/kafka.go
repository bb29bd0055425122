// Package kafka provides a broker-consumer source using franz-go.
//
// The cursor is the consumer group's committed offset, so restarts resume
// where the group left off and repeated polls never re-yield records.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"buzzline/internal/logging"
	"buzzline/internal/record"
	"buzzline/internal/source"
)

// DefaultPollTimeout bounds a single fetch so the worker tick never stalls
// on a quiet topic.
const DefaultPollTimeout = 500 * time.Millisecond

// Config holds Kafka source configuration.
type Config struct {
	Brokers []string
	Topic   string
	Group   string

	// PollTimeout bounds one Poll call. Defaults to DefaultPollTimeout.
	PollTimeout time.Duration

	// Logger for structured logging. If nil, logging is disabled.
	Logger *slog.Logger
}

// Source consumes one topic as part of a consumer group.
type Source struct {
	cfg    Config
	client *kgo.Client
	logger *slog.Logger
}

// New validates the configuration.
func New(cfg Config) (*Source, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka source: brokers are required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka source: topic is required")
	}
	if cfg.Group == "" {
		cfg.Group = "buzzline"
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = DefaultPollTimeout
	}
	return &Source{
		cfg:    cfg,
		logger: logging.Default(cfg.Logger).With("component", "source", "type", "kafka"),
	}, nil
}

func (s *Source) Name() string { return "kafka:" + s.cfg.Topic }

// Open creates the consumer client. Broker reachability is not checked
// here; an unreachable broker surfaces per poll as unavailable, so a
// broker that comes up later still gets consumed.
func (s *Source) Open(_ context.Context) error {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(s.cfg.Brokers...),
		kgo.ConsumeTopics(s.cfg.Topic),
		kgo.ConsumerGroup(s.cfg.Group),
	)
	if err != nil {
		return fmt.Errorf("kafka source: client: %w", err)
	}
	s.client = client
	s.logger.Info("kafka consumer started",
		"brokers", s.cfg.Brokers, "topic", s.cfg.Topic, "group", s.cfg.Group)
	return nil
}

// Poll fetches whatever the broker has ready within the poll timeout.
// A quiet topic yields an empty result; an unreachable broker yields
// ErrUnavailable.
func (s *Source) Poll(ctx context.Context) ([]record.Raw, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.PollTimeout)
	defer cancel()

	fetches := s.client.PollFetches(fetchCtx)
	if fetches.IsClientClosed() {
		return nil, fmt.Errorf("%w: kafka client closed", source.ErrUnavailable)
	}

	var fetchErr error
	for _, fe := range fetches.Errors() {
		// The deadline firing just means the topic was quiet.
		if errors.Is(fe.Err, context.DeadlineExceeded) || errors.Is(fe.Err, context.Canceled) {
			continue
		}
		fetchErr = fe.Err
		s.logger.Warn("kafka fetch error",
			"topic", fe.Topic, "partition", fe.Partition, "error", fe.Err)
	}

	var out []record.Raw
	fetches.EachRecord(func(rec *kgo.Record) {
		raw := make(record.Raw, len(rec.Value))
		copy(raw, rec.Value)
		out = append(out, raw)
	})

	// Errors with no data at all mean the broker side is unhealthy.
	if fetchErr != nil && len(out) == 0 {
		return nil, fmt.Errorf("%w: %v", source.ErrUnavailable, fetchErr)
	}
	return out, nil
}

// Close commits outstanding offsets and releases the client.
func (s *Source) Close() error {
	if s.client == nil {
		return nil
	}
	_ = s.client.CommitUncommittedOffsets(context.Background())
	s.client.Close()
	return nil
}
