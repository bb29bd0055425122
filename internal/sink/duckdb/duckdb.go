// Package duckdb provides a column-store table sink backed by DuckDB.
//
// Same table shape as the SQLite sink, with a sequence-backed surrogate
// key since DuckDB has no AUTOINCREMENT.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/marcboeker/go-duckdb/v2"

	"buzzline/internal/logging"
	"buzzline/internal/record"
)

const schema = `
CREATE SEQUENCE IF NOT EXISTS messages_seq;
CREATE TABLE IF NOT EXISTS messages (
	seq              BIGINT PRIMARY KEY DEFAULT nextval('messages_seq'),
	id               BIGINT,
	timestamp        TIMESTAMP NOT NULL,
	author           VARCHAR NOT NULL,
	message          VARCHAR NOT NULL,
	category         VARCHAR,
	sentiment        DOUBLE,
	keyword_mentioned VARCHAR,
	message_length   INTEGER
);
`

const insertStmt = `
INSERT INTO messages (id, timestamp, author, message, category, sentiment, keyword_mentioned, message_length)
VALUES (?, ?, ?, ?, ?, ?, ?, ?);
`

// Config holds DuckDB sink configuration.
type Config struct {
	// Path is the database file. Required.
	Path string

	// Logger for structured logging. If nil, logging is disabled.
	Logger *slog.Logger
}

// Sink writes records into a DuckDB table.
type Sink struct {
	db     *sql.DB
	logger *slog.Logger
}

// New opens the database and bootstraps the schema.
func New(cfg Config) (*Sink, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("duckdb sink: path is required")
	}

	db, err := sql.Open("duckdb", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("duckdb sink: open: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("duckdb sink: schema: %w", err)
	}

	logger := logging.Default(cfg.Logger).With("component", "sink", "type", "duckdb")
	logger.Info("duckdb sink ready", "path", cfg.Path)

	return &Sink{db: db, logger: logger}, nil
}

func (s *Sink) Name() string { return "duckdb" }

// Write inserts one row; the row is committed before Write returns.
func (s *Sink) Write(ctx context.Context, rec record.Record) error {
	_, err := s.db.ExecContext(ctx, insertStmt,
		rec.ID,
		rec.Timestamp,
		rec.Author,
		rec.Text,
		rec.Category,
		rec.Sentiment,
		rec.Keyword,
		rec.Length,
	)
	if err != nil {
		return fmt.Errorf("duckdb sink: insert: %w", err)
	}
	return nil
}

func (s *Sink) Close() error {
	return s.db.Close()
}
