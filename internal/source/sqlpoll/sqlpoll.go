// Package sqlpoll provides a relational-poll source: a bounded incremental
// query against the message table written by the relational sinks.
//
// The cursor is the last-seen surrogate key; each poll asks for rows with
// a greater key, ordered ascending, so repeated polls are idempotent and
// rows inserted between polls are picked up exactly once.
package sqlpoll

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"buzzline/internal/logging"
	"buzzline/internal/record"
	"buzzline/internal/source"
)

// DefaultBatchLimit bounds rows returned per poll.
const DefaultBatchLimit = 200

const selectStmt = `
SELECT seq, id, timestamp, author, message, category, sentiment, keyword_mentioned
FROM messages
WHERE seq > ?
ORDER BY seq ASC
LIMIT ?;
`

// Config holds relational poll configuration.
type Config struct {
	// Driver is the database/sql driver name, e.g. "sqlite".
	Driver string

	// DSN locates the database (a file path for sqlite).
	DSN string

	// BatchLimit caps rows per poll. Defaults to DefaultBatchLimit.
	BatchLimit int

	// Logger for structured logging. If nil, logging is disabled.
	Logger *slog.Logger
}

// Source polls a message table for new rows.
type Source struct {
	cfg    Config
	db     *sql.DB
	cursor int64
	logger *slog.Logger
}

// New validates the configuration.
func New(cfg Config) (*Source, error) {
	if cfg.Driver == "" {
		cfg.Driver = "sqlite"
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("sqlpoll source: dsn is required")
	}
	if cfg.BatchLimit <= 0 {
		cfg.BatchLimit = DefaultBatchLimit
	}
	return &Source{
		cfg:    cfg,
		logger: logging.Default(cfg.Logger).With("component", "source", "type", "sqlpoll", "driver", cfg.Driver),
	}, nil
}

func (s *Source) Name() string { return "sqlpoll:" + s.cfg.Driver }

// Open creates the database handle. A missing table is not an Open error;
// it surfaces per poll as unavailable so a table created later (by a sink
// bootstrapping its schema) gets polled.
func (s *Source) Open(_ context.Context) error {
	db, err := sql.Open(s.cfg.Driver, s.cfg.DSN)
	if err != nil {
		return fmt.Errorf("sqlpoll source: open: %w", err)
	}
	s.db = db
	s.logger.Info("relational poll ready", "dsn", s.cfg.DSN)
	return nil
}

// Poll returns rows beyond the cursor, re-serialized to the wire format so
// normalization stays on a single path.
func (s *Source) Poll(ctx context.Context) ([]record.Raw, error) {
	rows, err := s.db.QueryContext(ctx, selectStmt, s.cursor, s.cfg.BatchLimit)
	if err != nil {
		// Covers a missing database file and a missing table alike.
		return nil, fmt.Errorf("%w: query: %v", source.ErrUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	var out []record.Raw
	next := s.cursor
	for rows.Next() {
		var (
			seq       int64
			id        sql.NullInt64
			timestamp string
			author    string
			message   string
			category  sql.NullString
			sentiment sql.NullFloat64
			keyword   sql.NullString
		)
		if err := rows.Scan(&seq, &id, &timestamp, &author, &message, &category, &sentiment, &keyword); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", source.ErrUnavailable, err)
		}

		rec := record.Record{
			ID:        id.Int64,
			Timestamp: parseRowTime(timestamp),
			Author:    author,
			Text:      message,
			Category:  category.String,
			Sentiment: sentiment.Float64,
			Keyword:   keyword.String,
		}
		line, err := rec.MarshalLine()
		if err != nil {
			return nil, fmt.Errorf("sqlpoll source: marshal row %d: %w", seq, err)
		}
		out = append(out, record.Raw(line))
		next = seq
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows: %v", source.ErrUnavailable, err)
	}

	// Advance the cursor only past rows actually returned.
	s.cursor = next
	return out, nil
}

func parseRowTime(s string) time.Time {
	if ts, err := time.ParseInLocation(record.TimeLayout, s, time.Local); err == nil {
		return ts
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts
	}
	return time.Time{}
}

func (s *Source) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
