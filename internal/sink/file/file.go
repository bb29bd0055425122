// Package file provides an append-only JSONL file sink.
package file

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"buzzline/internal/logging"
	"buzzline/internal/record"
)

// Config holds file sink configuration.
type Config struct {
	// Path is the JSONL file to append to. Parent directories are created.
	Path string

	// Logger for structured logging. If nil, logging is disabled.
	Logger *slog.Logger
}

// Sink appends one serialized record per line, synced to disk before
// Write returns.
type Sink struct {
	path   string
	logger *slog.Logger

	mu sync.Mutex
	f  *os.File
}

// New opens (or creates) the target file in append mode.
func New(cfg Config) (*Sink, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("file sink: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o750); err != nil {
		return nil, fmt.Errorf("file sink: %w", err)
	}
	f, err := os.OpenFile(filepath.Clean(cfg.Path), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return nil, fmt.Errorf("file sink: %w", err)
	}

	logger := logging.Default(cfg.Logger).With("component", "sink", "type", "file")
	logger.Info("file sink opened", "path", cfg.Path)

	return &Sink{path: cfg.Path, logger: logger, f: f}, nil
}

func (s *Sink) Name() string { return "file" }

// Write appends the record as a JSON line and syncs, so a successful
// return means the line is durable.
func (s *Sink) Write(_ context.Context, rec record.Record) error {
	line, err := rec.MarshalLine()
	if err != nil {
		return fmt.Errorf("file sink: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.f.Write(line); err != nil {
		return fmt.Errorf("file sink: %w", err)
	}
	if err := s.f.Sync(); err != nil {
		return fmt.Errorf("file sink: %w", err)
	}
	return nil
}

func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Close()
}
