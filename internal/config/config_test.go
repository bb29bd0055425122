package config

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero time capacity", func(c *Config) { c.TimeCapacity = 0 }, "time window"},
		{"negative time capacity", func(c *Config) { c.TimeCapacity = -5 }, "time window"},
		{"zero author capacity", func(c *Config) { c.AuthorCapacity = 0 }, "author window"},
		{"zero tick", func(c *Config) { c.TickInterval = 0 }, "tick interval"},
		{"inverted thresholds", func(c *Config) {
			c.PositiveThreshold = -0.5
			c.NegativeThreshold = 0.5
		}, "threshold"},
		{"kafka without brokers", func(c *Config) {
			c.Sources.KafkaEnabled = true
			c.Kafka.Brokers = nil
		}, "brokers"},
		{"kafka without topic", func(c *Config) {
			c.Sinks.KafkaEnabled = true
			c.Kafka.Topic = ""
		}, "topic"},
		{"file sink without path", func(c *Config) { c.Sinks.FilePath = "" }, "file sink"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestFromEnvOverlays(t *testing.T) {
	t.Setenv("BUZZLINE_KAFKA_BROKER", "b1:9092, b2:9092")
	t.Setenv("BUZZLINE_KAFKA_TOPIC", "custom")
	t.Setenv("BUZZLINE_TICK_INTERVAL", "500ms")
	t.Setenv("BUZZLINE_TIME_CAPACITY", "100")
	t.Setenv("BUZZLINE_DATA_DIR", "/tmp/buzz")

	cfg := FromEnv()
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "b2:9092" {
		t.Fatalf("brokers: %v", cfg.Kafka.Brokers)
	}
	if cfg.Kafka.Topic != "custom" {
		t.Fatalf("topic: %s", cfg.Kafka.Topic)
	}
	if cfg.TickInterval != 500*time.Millisecond {
		t.Fatalf("tick: %v", cfg.TickInterval)
	}
	if cfg.TimeCapacity != 100 {
		t.Fatalf("time capacity: %d", cfg.TimeCapacity)
	}
	if cfg.Sinks.SQLitePath != "/tmp/buzz/buzz.sqlite" {
		t.Fatalf("sqlite path not rebased: %s", cfg.Sinks.SQLitePath)
	}
}

func TestFromEnvEnablesEveryVariant(t *testing.T) {
	t.Setenv("BUZZLINE_SINK_DUCKDB", "true")
	t.Setenv("BUZZLINE_SOURCE_SQLITE", "true")
	t.Setenv("BUZZLINE_SINK_KAFKA", "true")
	t.Setenv("BUZZLINE_SOURCE_KAFKA", "true")

	cfg := FromEnv()
	if !cfg.Sinks.DuckDBEnabled {
		t.Fatal("duckdb sink not enabled")
	}
	if !cfg.Sources.SQLiteEnabled {
		t.Fatal("sqlite source not enabled")
	}
	if !cfg.Sinks.KafkaEnabled || !cfg.Sources.KafkaEnabled {
		t.Fatal("kafka sink/source not enabled")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("all-variants config must validate: %v", err)
	}
}

func TestFromEnvDisablesDefaultSinks(t *testing.T) {
	t.Setenv("BUZZLINE_SINK_FILE", "false")
	t.Setenv("BUZZLINE_SINK_SQLITE", "false")

	cfg := FromEnv()
	if cfg.Sinks.FileEnabled || cfg.Sinks.SQLiteEnabled {
		t.Fatalf("default sinks still enabled: %+v", cfg.Sinks)
	}
}

func TestFromEnvThresholds(t *testing.T) {
	t.Setenv("BUZZLINE_POSITIVE_THRESHOLD", "0.5")
	t.Setenv("BUZZLINE_NEGATIVE_THRESHOLD", "-0.1")

	cfg := FromEnv()
	if cfg.PositiveThreshold != 0.5 || cfg.NegativeThreshold != -0.1 {
		t.Fatalf("thresholds not overlaid: %v %v", cfg.PositiveThreshold, cfg.NegativeThreshold)
	}

	rc := cfg.Rolling()
	if rc.PositiveThreshold != 0.5 || rc.NegativeThreshold != -0.1 {
		t.Fatalf("thresholds not passed through: %+v", rc)
	}
}

func TestRollingTranslation(t *testing.T) {
	cfg := Default()
	cfg.TimeCapacity = 7
	cfg.AuthorCapacity = 3

	rc := cfg.Rolling()
	if rc.TimeCapacity != 7 || rc.AuthorCapacity != 3 {
		t.Fatalf("rolling config mismatch: %+v", rc)
	}
}
