// Package kafka provides a broker-topic sink using franz-go.
package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"buzzline/internal/logging"
	"buzzline/internal/record"
)

// Config holds Kafka sink configuration.
type Config struct {
	Brokers []string
	Topic   string

	// FireAndForget publishes without waiting for broker acknowledgement.
	// The default (false) waits for the ack, so a successful Write means
	// the broker accepted the message.
	FireAndForget bool

	// Logger for structured logging. If nil, logging is disabled.
	Logger *slog.Logger
}

// Sink publishes records to a single named topic.
type Sink struct {
	cfg    Config
	client *kgo.Client
	logger *slog.Logger
}

// New connects a producer client to the brokers.
func New(cfg Config) (*Sink, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka sink: brokers are required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka sink: topic is required")
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka sink: client: %w", err)
	}

	logger := logging.Default(cfg.Logger).With("component", "sink", "type", "kafka")
	logger.Info("kafka producer started", "brokers", cfg.Brokers, "topic", cfg.Topic)

	return &Sink{cfg: cfg, client: client, logger: logger}, nil
}

func (s *Sink) Name() string { return "kafka" }

// Write publishes the serialized record, keyed by author so one author's
// messages stay ordered within a partition.
func (s *Sink) Write(ctx context.Context, rec record.Record) error {
	value, err := rec.MarshalLine()
	if err != nil {
		return fmt.Errorf("kafka sink: %w", err)
	}

	msg := &kgo.Record{
		Topic: s.cfg.Topic,
		Key:   []byte(rec.Author),
		Value: value,
	}

	if s.cfg.FireAndForget {
		s.client.Produce(ctx, msg, nil)
		return nil
	}

	if err := s.client.ProduceSync(ctx, msg).FirstErr(); err != nil {
		return fmt.Errorf("kafka sink: produce: %w", err)
	}
	return nil
}

// Close flushes outstanding produces and releases the client.
func (s *Sink) Close() error {
	_ = s.client.Flush(context.Background())
	s.client.Close()
	return nil
}
