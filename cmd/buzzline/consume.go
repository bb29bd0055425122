package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"buzzline/internal/config"
	"buzzline/internal/dashboard"
	"buzzline/internal/rolling"
	"buzzline/internal/source"
	sourcekafka "buzzline/internal/source/kafka"
	"buzzline/internal/source/sqlpoll"
	"buzzline/internal/source/tail"
	"buzzline/internal/worker"
)

func newConsumeCmd(logger *slog.Logger, cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "consume",
		Short: "Poll sources into the rolling analytics windows",
		RunE: func(cmd *cobra.Command, args []string) error {
			noUI, _ := cmd.Flags().GetBool("no-ui")
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			return runConsume(ctx, logger, *cfg, noUI)
		},
	}

	cmd.Flags().Bool("no-ui", false, "log periodic summaries instead of the terminal dashboard")
	return cmd
}

func runConsume(ctx context.Context, logger *slog.Logger, cfg config.Config, noUI bool) error {
	sources, err := buildSources(logger, cfg)
	if err != nil {
		return err
	}

	store, err := rolling.New(cfg.Rolling())
	if err != nil {
		return err
	}

	w, err := worker.New(worker.Config{
		Sources:      sources,
		Store:        store,
		TickInterval: cfg.TickInterval,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	if err := w.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := w.Stop(); err != nil {
			logger.Warn("worker stop failed", "error", err)
		}
	}()

	sched, err := newSummaryScheduler(logger, w)
	if err != nil {
		return err
	}
	sched.Start()
	defer func() {
		if err := sched.Shutdown(); err != nil {
			logger.Warn("scheduler shutdown failed", "error", err)
		}
	}()

	g, ctx := errgroup.WithContext(ctx)
	if noUI {
		g.Go(func() error {
			<-ctx.Done()
			return nil
		})
	} else {
		g.Go(func() error {
			return dashboard.Run(ctx, dashboard.Config{
				Stats:           w,
				RefreshInterval: cfg.TickInterval,
				Logger:          logger,
			})
		})
	}
	return g.Wait()
}

// newSummaryScheduler registers a minutely job that logs a pipeline
// summary. This is the operational record of a run; the dashboard is
// ephemeral.
func newSummaryScheduler(logger *slog.Logger, w *worker.Worker) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(time.Minute),
		gocron.NewTask(func() {
			snap := w.Snapshot()
			degraded := 0
			for _, h := range w.Health() {
				if h.Degraded || !h.Enabled {
					degraded++
				}
			}
			logger.Info("pipeline summary",
				"total", snap.TotalCount,
				"throughput", snap.Throughput,
				"sentiment_mean", snap.SentimentMean,
				"sentiment_band", snap.SentimentBand,
				"degraded_sources", degraded,
			)
		}),
		gocron.WithName("pipeline-summary"),
	)
	if err != nil {
		return nil, fmt.Errorf("register summary job: %w", err)
	}
	return sched, nil
}

// buildSources opens every enabled source. Unlike sinks, construction
// here never dials anything; sources report unavailable from Poll until
// their upstream exists, so a consumer can start before its producer.
func buildSources(logger *slog.Logger, cfg config.Config) ([]source.Source, error) {
	var sources []source.Source

	for _, path := range cfg.Sources.TailPaths {
		s, err := tail.New(tail.Config{Path: path, Logger: logger})
		if err != nil {
			return nil, fmt.Errorf("tail source %s: %w", path, err)
		}
		sources = append(sources, s)
	}
	if cfg.Sources.SQLiteEnabled {
		s, err := sqlpoll.New(sqlpoll.Config{
			Driver: "sqlite",
			DSN:    cfg.Sinks.SQLitePath,
			Logger: logger,
		})
		if err != nil {
			return nil, fmt.Errorf("sqlite source: %w", err)
		}
		sources = append(sources, s)
	}
	if cfg.Sources.KafkaEnabled {
		s, err := sourcekafka.New(sourcekafka.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
			Group:   cfg.Kafka.Group,
			Logger:  logger,
		})
		if err != nil {
			return nil, fmt.Errorf("kafka source: %w", err)
		}
		sources = append(sources, s)
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("no sources enabled")
	}
	return sources, nil
}
