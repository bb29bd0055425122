// Package sqlite provides a relational table sink backed by SQLite.
//
// One schema'd table holds the Record fields plus an autoincrement
// surrogate key. Each Write commits a single row.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"buzzline/internal/logging"
	"buzzline/internal/record"
)

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	seq              INTEGER PRIMARY KEY AUTOINCREMENT,
	id               INTEGER,
	timestamp        TEXT NOT NULL,
	author           TEXT NOT NULL,
	message          TEXT NOT NULL,
	category         TEXT,
	sentiment        REAL,
	keyword_mentioned TEXT,
	message_length   INTEGER
);
`

const insertStmt = `
INSERT INTO messages (id, timestamp, author, message, category, sentiment, keyword_mentioned, message_length)
VALUES (?, ?, ?, ?, ?, ?, ?, ?);
`

// Config holds SQLite sink configuration.
type Config struct {
	// Path is the database file. Required.
	Path string

	// Logger for structured logging. If nil, logging is disabled.
	Logger *slog.Logger
}

// Sink writes records into a SQLite table.
type Sink struct {
	db     *sql.DB
	logger *slog.Logger
}

// New opens the database and bootstraps the schema.
func New(cfg Config) (*Sink, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite sink: path is required")
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("sqlite sink: open: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite sink: schema: %w", err)
	}

	logger := logging.Default(cfg.Logger).With("component", "sink", "type", "sqlite")
	logger.Info("sqlite sink ready", "path", cfg.Path)

	return &Sink{db: db, logger: logger}, nil
}

func (s *Sink) Name() string { return "sqlite" }

// Write inserts one row; the row is committed before Write returns.
func (s *Sink) Write(ctx context.Context, rec record.Record) error {
	_, err := s.db.ExecContext(ctx, insertStmt,
		rec.ID,
		rec.Timestamp.Format(record.TimeLayout),
		rec.Author,
		rec.Text,
		rec.Category,
		rec.Sentiment,
		rec.Keyword,
		rec.Length,
	)
	if err != nil {
		return fmt.Errorf("sqlite sink: insert: %w", err)
	}
	return nil
}

func (s *Sink) Close() error {
	return s.db.Close()
}
