package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"buzzline/internal/config"
	"buzzline/internal/producer"
	"buzzline/internal/sink"
	sinkduckdb "buzzline/internal/sink/duckdb"
	sinkfile "buzzline/internal/sink/file"
	sinkkafka "buzzline/internal/sink/kafka"
	sinksqlite "buzzline/internal/sink/sqlite"
)

func newProduceCmd(logger *slog.Logger, cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "produce",
		Short: "Generate demo buzz messages into the configured sinks",
		RunE: func(cmd *cobra.Command, args []string) error {
			count, _ := cmd.Flags().GetInt("count")
			interval, _ := cmd.Flags().GetDuration("interval")
			if interval > 0 {
				cfg.EmitInterval = interval
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			return runProduce(ctx, logger, *cfg, count)
		},
	}

	cmd.Flags().Int("count", 0, "stop after this many messages (0 = run until interrupted)")
	cmd.Flags().Duration("interval", 0, "emission interval (overrides BUZZLINE_EMIT_INTERVAL)")
	return cmd
}

func runProduce(ctx context.Context, logger *slog.Logger, cfg config.Config, count int) error {
	sinks, err := buildSinks(logger, cfg)
	if err != nil {
		return err
	}
	out := sink.NewFanout(logger, sinks...)
	defer func() {
		if err := out.Close(); err != nil {
			logger.Warn("sink close failed", "error", err)
		}
	}()

	p, err := producer.New(producer.Config{
		Interval: cfg.EmitInterval,
		Count:    count,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	names := make([]string, 0, len(sinks))
	for _, s := range sinks {
		names = append(names, s.Name())
	}
	logger.Info("producing", "sinks", names, "interval", cfg.EmitInterval)

	return p.Run(ctx, out)
}

// buildSinks opens every enabled sink. Opening is strict: a sink that
// cannot even be constructed is a configuration problem, unlike runtime
// write failures which the fan-out tolerates.
func buildSinks(logger *slog.Logger, cfg config.Config) ([]sink.Sink, error) {
	var sinks []sink.Sink

	if cfg.Sinks.FileEnabled {
		s, err := sinkfile.New(sinkfile.Config{Path: cfg.Sinks.FilePath, Logger: logger})
		if err != nil {
			return nil, fmt.Errorf("open file sink: %w", err)
		}
		sinks = append(sinks, s)
	}
	if cfg.Sinks.SQLiteEnabled {
		s, err := sinksqlite.New(sinksqlite.Config{Path: cfg.Sinks.SQLitePath, Logger: logger})
		if err != nil {
			return nil, fmt.Errorf("open sqlite sink: %w", err)
		}
		sinks = append(sinks, s)
	}
	if cfg.Sinks.DuckDBEnabled {
		s, err := sinkduckdb.New(sinkduckdb.Config{Path: cfg.Sinks.DuckDBPath, Logger: logger})
		if err != nil {
			return nil, fmt.Errorf("open duckdb sink: %w", err)
		}
		sinks = append(sinks, s)
	}
	if cfg.Sinks.KafkaEnabled {
		s, err := sinkkafka.New(sinkkafka.Config{
			Brokers:       cfg.Kafka.Brokers,
			Topic:         cfg.Kafka.Topic,
			FireAndForget: cfg.Sinks.KafkaFireAndForget,
			Logger:        logger,
		})
		if err != nil {
			return nil, fmt.Errorf("open kafka sink: %w", err)
		}
		sinks = append(sinks, s)
	}

	if len(sinks) == 0 {
		return nil, fmt.Errorf("no sinks enabled")
	}

	return sinks, nil
}
