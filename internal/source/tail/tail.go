// Package tail provides a file-tail source: newline-delimited payloads
// read from a byte-offset cursor to end of file.
package tail

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"buzzline/internal/logging"
	"buzzline/internal/record"
	"buzzline/internal/source"
)

// forceStatEvery bounds how many polls may skip the stat on the
// no-events fast path, in case the watcher drops events.
const forceStatEvery = 10

// Config holds tail source configuration.
type Config struct {
	// Path is the JSONL file to tail. The file may not exist yet; polls
	// report unavailable until it appears.
	Path string

	// Logger for structured logging. If nil, logging is disabled.
	Logger *slog.Logger
}

// Source tails one file. The cursor is the byte offset of the last fully
// consumed line; a trailing partial line is buffered until its newline
// arrives. Truncation resets the cursor to the start of the file.
type Source struct {
	path   string
	logger *slog.Logger

	watcher *fsnotify.Watcher
	dirty   bool // a relevant fs event arrived since the last read
	skipped int  // consecutive polls that skipped the stat

	offset  int64
	partial []byte
	sawEOF  bool
}

// New creates a tail source for the given path.
func New(cfg Config) (*Source, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("tail source: path is required")
	}
	return &Source{
		path:   cfg.Path,
		logger: logging.Default(cfg.Logger).With("component", "source", "type", "tail", "path", cfg.Path),
	}, nil
}

func (s *Source) Name() string { return "tail:" + filepath.Base(s.path) }

// Open sets up a directory watcher so quiet ticks can skip the stat call.
// Watcher failure is not fatal; the source falls back to stat-per-poll.
func (s *Source) Open(_ context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		s.logger.Warn("fsnotify unavailable, polling by stat", "error", err)
		return nil
	}
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		s.logger.Warn("failed to watch directory, polling by stat", "error", err)
		_ = watcher.Close()
		return nil
	}
	s.watcher = watcher
	s.logger.Info("tailing file")
	return nil
}

// Poll reads complete lines appended since the cursor. A missing file is
// reported as unavailable, distinct from an empty result.
func (s *Source) Poll(_ context.Context) ([]record.Raw, error) {
	s.drainEvents()

	// Fast path: nothing happened in the directory since we last hit EOF.
	if s.watcher != nil && s.sawEOF && !s.dirty && s.skipped < forceStatEvery {
		s.skipped++
		return nil, nil
	}
	s.skipped = 0
	s.dirty = false

	info, err := os.Stat(s.path)
	if err != nil {
		s.sawEOF = false
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s missing", source.ErrUnavailable, s.path)
		}
		return nil, fmt.Errorf("%w: stat %s: %v", source.ErrUnavailable, s.path, err)
	}

	// Truncation: the file shrank below our cursor, start over.
	if info.Size() < s.offset {
		s.logger.Info("truncation detected, resetting cursor")
		s.offset = 0
		s.partial = nil
	}

	if info.Size() == s.offset {
		s.sawEOF = true
		return nil, nil
	}

	f, err := os.Open(filepath.Clean(s.path))
	if err != nil {
		s.sawEOF = false
		return nil, fmt.Errorf("%w: open %s: %v", source.ErrUnavailable, s.path, err)
	}
	defer func() { _ = f.Close() }()

	chunk := make([]byte, info.Size()-s.offset)
	n, err := f.ReadAt(chunk, s.offset)
	if err != nil && n == 0 {
		s.sawEOF = false
		return nil, fmt.Errorf("%w: read %s: %v", source.ErrUnavailable, s.path, err)
	}
	chunk = chunk[:n]
	s.offset += int64(n)
	s.sawEOF = true

	return s.splitLines(chunk), nil
}

// splitLines emits complete lines, buffering a trailing partial line for
// the next poll.
func (s *Source) splitLines(chunk []byte) []record.Raw {
	data := append(s.partial, chunk...)
	s.partial = nil

	var out []record.Raw
	for {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			break
		}
		line := bytes.TrimSuffix(data[:i], []byte("\r"))
		data = data[i+1:]
		if len(line) == 0 {
			continue
		}
		raw := make(record.Raw, len(line))
		copy(raw, line)
		out = append(out, raw)
	}
	if len(data) > 0 {
		s.partial = append(s.partial, data...)
	}
	return out
}

// drainEvents consumes pending watcher notifications without blocking.
func (s *Source) drainEvents() {
	if s.watcher == nil {
		return
	}
	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				s.watcher = nil
				return
			}
			if event.Name == s.path {
				s.dirty = true
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				s.watcher = nil
				return
			}
			s.logger.Warn("fsnotify error", "error", err)
			s.dirty = true
		default:
			return
		}
	}
}

func (s *Source) Close() error {
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}
