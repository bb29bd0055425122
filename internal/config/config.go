// Package config defines the typed configuration surface injected into
// the core components.
//
// Parsing happens out here (environment variables, optionally overridden
// by flags in cmd); the worker, sinks, and sources only ever see the
// resulting struct. Semantic validation lives in Validate and is fatal at
// startup — nothing downstream re-checks capacities or intervals.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"buzzline/internal/rolling"
)

// Defaults, mirroring the shipped demo setup.
const (
	DefaultDataDir      = "data"
	DefaultTopic        = "buzzline"
	DefaultBroker       = "localhost:9092"
	DefaultGroup        = "buzzline"
	DefaultTickInterval = 2 * time.Second
	DefaultEmitInterval = 3 * time.Second
)

// Sinks enables and locates the producer-side destinations.
type Sinks struct {
	FileEnabled   bool
	FilePath      string
	SQLiteEnabled bool
	SQLitePath    string
	DuckDBEnabled bool
	DuckDBPath    string
	KafkaEnabled  bool

	// KafkaFireAndForget publishes without waiting for broker acks.
	KafkaFireAndForget bool
}

// Sources enables the consumer-side origins.
type Sources struct {
	// TailPaths are JSONL files to tail; each path is its own source so
	// availability degrades per file.
	TailPaths []string

	KafkaEnabled  bool
	SQLiteEnabled bool
}

// Kafka holds the shared broker coordinates.
type Kafka struct {
	Brokers []string
	Topic   string
	Group   string
}

// Config is the full injected configuration.
type Config struct {
	DataDir string

	Sinks   Sinks
	Sources Sources
	Kafka   Kafka

	// TickInterval is the worker's fixed polling period.
	TickInterval time.Duration

	// EmitInterval is the demo producer's message period.
	EmitInterval time.Duration

	// Window capacities (C_t, C_a).
	TimeCapacity   int
	AuthorCapacity int

	// Sentiment band thresholds.
	PositiveThreshold float64
	NegativeThreshold float64
}

// Default returns the demo configuration: file + sqlite sinks, tail +
// sqlite sources, kafka off (enabled explicitly when a broker exists).
func Default() Config {
	dataDir := DefaultDataDir
	return Config{
		DataDir: dataDir,
		Sinks: Sinks{
			FileEnabled:   true,
			FilePath:      filepath.Join(dataDir, "buzz_live.jsonl"),
			SQLiteEnabled: true,
			SQLitePath:    filepath.Join(dataDir, "buzz.sqlite"),
			DuckDBPath:    filepath.Join(dataDir, "buzz.duckdb"),
		},
		Sources: Sources{
			TailPaths:     []string{filepath.Join(dataDir, "buzz_live.jsonl")},
			SQLiteEnabled: false,
		},
		Kafka: Kafka{
			Brokers: []string{DefaultBroker},
			Topic:   DefaultTopic,
			Group:   DefaultGroup,
		},
		TickInterval:      DefaultTickInterval,
		EmitInterval:      DefaultEmitInterval,
		TimeCapacity:      rolling.DefaultTimeCapacity,
		AuthorCapacity:    rolling.DefaultAuthorCapacity,
		PositiveThreshold: rolling.DefaultPositiveThreshold,
		NegativeThreshold: rolling.DefaultNegativeThreshold,
	}
}

// FromEnv overlays BUZZLINE_* environment variables on the defaults.
func FromEnv() Config {
	cfg := Default()

	if v := os.Getenv("BUZZLINE_DATA_DIR"); v != "" {
		cfg.DataDir = v
		cfg.Sinks.FilePath = filepath.Join(v, "buzz_live.jsonl")
		cfg.Sinks.SQLitePath = filepath.Join(v, "buzz.sqlite")
		cfg.Sinks.DuckDBPath = filepath.Join(v, "buzz.duckdb")
		cfg.Sources.TailPaths = []string{cfg.Sinks.FilePath}
	}
	if v := os.Getenv("BUZZLINE_KAFKA_BROKER"); v != "" {
		cfg.Kafka.Brokers = splitList(v)
	}
	if v := os.Getenv("BUZZLINE_KAFKA_TOPIC"); v != "" {
		cfg.Kafka.Topic = v
	}
	if v := os.Getenv("BUZZLINE_KAFKA_GROUP"); v != "" {
		cfg.Kafka.Group = v
	}
	if v := os.Getenv("BUZZLINE_TICK_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.TickInterval = d
		}
	}
	if v := os.Getenv("BUZZLINE_EMIT_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.EmitInterval = d
		}
	}
	if v := os.Getenv("BUZZLINE_TIME_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.TimeCapacity = n
		}
	}
	if v := os.Getenv("BUZZLINE_AUTHOR_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.AuthorCapacity = n
		}
	}
	if v := os.Getenv("BUZZLINE_POSITIVE_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.PositiveThreshold = f
		}
	}
	if v := os.Getenv("BUZZLINE_NEGATIVE_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.NegativeThreshold = f
		}
	}
	envBool("BUZZLINE_SINK_FILE", &cfg.Sinks.FileEnabled)
	envBool("BUZZLINE_SINK_SQLITE", &cfg.Sinks.SQLiteEnabled)
	envBool("BUZZLINE_SINK_DUCKDB", &cfg.Sinks.DuckDBEnabled)
	envBool("BUZZLINE_SINK_KAFKA", &cfg.Sinks.KafkaEnabled)
	envBool("BUZZLINE_SOURCE_SQLITE", &cfg.Sources.SQLiteEnabled)
	envBool("BUZZLINE_SOURCE_KAFKA", &cfg.Sources.KafkaEnabled)

	return cfg
}

// envBool overlays dst when the variable is set; anything but "true"
// disables, so BUZZLINE_SINK_FILE=false turns a default sink off.
func envBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		*dst = v == "true"
	}
}

// Validate rejects configurations the core cannot run with. Called once
// at startup; a non-nil error is fatal.
func (c Config) Validate() error {
	if c.TimeCapacity <= 0 {
		return fmt.Errorf("config: time window capacity must be positive, got %d", c.TimeCapacity)
	}
	if c.AuthorCapacity <= 0 {
		return fmt.Errorf("config: author window capacity must be positive, got %d", c.AuthorCapacity)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("config: tick interval must be positive, got %v", c.TickInterval)
	}
	if c.EmitInterval <= 0 {
		return fmt.Errorf("config: emit interval must be positive, got %v", c.EmitInterval)
	}
	if c.PositiveThreshold < c.NegativeThreshold {
		return fmt.Errorf("config: positive threshold %v below negative threshold %v",
			c.PositiveThreshold, c.NegativeThreshold)
	}
	if c.Sinks.KafkaEnabled || c.Sources.KafkaEnabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("config: kafka enabled but no brokers configured")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("config: kafka enabled but no topic configured")
		}
	}
	if c.Sinks.FileEnabled && c.Sinks.FilePath == "" {
		return fmt.Errorf("config: file sink enabled but no path configured")
	}
	if c.Sinks.SQLiteEnabled && c.Sinks.SQLitePath == "" {
		return fmt.Errorf("config: sqlite sink enabled but no path configured")
	}
	if c.Sinks.DuckDBEnabled && c.Sinks.DuckDBPath == "" {
		return fmt.Errorf("config: duckdb sink enabled but no path configured")
	}
	return nil
}

// Rolling translates the window settings for the rolling store.
func (c Config) Rolling() rolling.Config {
	return rolling.Config{
		TimeCapacity:      c.TimeCapacity,
		AuthorCapacity:    c.AuthorCapacity,
		PositiveThreshold: c.PositiveThreshold,
		NegativeThreshold: c.NegativeThreshold,
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
