package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"buzzline/internal/record"
)

func TestWriteInsertsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "simple.sqlite")
	sink, err := New(Config{Path: path})
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	defer sink.Close()

	rec := record.Record{
		ID:        42,
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.Local),
		Author:    "ragini",
		Text:      "hello world",
		Category:  "test",
		Sentiment: 0.8,
		Keyword:   "hello",
		Length:    11,
	}
	if err := sink.Write(context.Background(), rec); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := sink.Write(context.Background(), rec); err != nil {
		t.Fatalf("second write: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open for verify: %v", err)
	}
	defer db.Close()

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM messages").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 rows, got %d", count)
	}

	var seq int64
	var author string
	var sentiment float64
	err = db.QueryRow("SELECT seq, author, sentiment FROM messages ORDER BY seq LIMIT 1").
		Scan(&seq, &author, &sentiment)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if seq != 1 {
		t.Fatalf("surrogate key should start at 1, got %d", seq)
	}
	if author != "ragini" || sentiment != 0.8 {
		t.Fatalf("row mismatch: %s %v", author, sentiment)
	}
}

func TestNewRequiresPath(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error for empty path")
	}
}
