// Package record defines the canonical normalized message unit and the
// parsing boundary that turns raw source payloads into Records.
//
// A Record is fully formed before it enters the rest of the pipeline.
// Partially-parsed or malformed payloads never become Records; Normalize
// rejects them with an error wrapping ErrMalformed.
package record

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// ErrMalformed indicates a raw payload that cannot become a Record
// (missing required field or unparseable structure). Callers drop the
// payload and continue; it is never fatal.
var ErrMalformed = errors.New("malformed record")

// TimeLayout is the wire timestamp format ("2006-01-02 15:04:05").
const TimeLayout = "2006-01-02 15:04:05"

// Record is the normalized unit of streamed data. Immutable once created.
type Record struct {
	ID        int64     // unique within a run; 0 until assigned
	Timestamp time.Time // when the message was produced, not ingested
	Author    string    // non-empty
	Text      string    // message payload, may be empty
	Category  string    // free-form tag, small cardinality expected
	Sentiment float64   // conventionally in [-1, 1], never clamped
	Keyword   string    // optional keyword mentioned in the message
	Length    int       // character count of Text, derived at normalization
}

// Raw is an unparsed payload as yielded by a source.
type Raw []byte

// wire is the JSONL serialization of a Record. Message and Author are
// pointers so a missing key can be told apart from an empty string.
type wire struct {
	ID        int64   `json:"id,omitempty"`
	Message   *string `json:"message"`
	Author    *string `json:"author"`
	Timestamp string  `json:"timestamp"`
	Category  string  `json:"category,omitempty"`
	Sentiment float64 `json:"sentiment"`
	Keyword   string  `json:"keyword_mentioned,omitempty"`
	Length    int     `json:"message_length"`
}

// Normalize parses a raw payload into a Record.
//
// Required fields are message and author; their absence (or a blank author)
// makes the payload malformed. The timestamp is parsed from TimeLayout or
// RFC 3339; if absent or unparseable, now() is used so producers with sloppy
// clocks still flow through. Length is always recomputed from the message
// text; a length claimed by the source is ignored.
func Normalize(raw Raw, now func() time.Time) (Record, error) {
	if now == nil {
		now = time.Now
	}

	var w wire
	if err := json.Unmarshal(raw, &w); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if w.Message == nil {
		return Record{}, fmt.Errorf("%w: missing message field", ErrMalformed)
	}
	if w.Author == nil || strings.TrimSpace(*w.Author) == "" {
		return Record{}, fmt.Errorf("%w: missing author field", ErrMalformed)
	}

	ts := parseTimestamp(w.Timestamp)
	if ts.IsZero() {
		ts = now()
	}

	return Record{
		ID:        w.ID,
		Timestamp: ts,
		Author:    *w.Author,
		Text:      *w.Message,
		Category:  w.Category,
		Sentiment: w.Sentiment,
		Keyword:   w.Keyword,
		Length:    utf8.RuneCountInString(*w.Message),
	}, nil
}

// parseTimestamp tries the wire layout first, then RFC 3339.
// Returns the zero time if neither matches.
func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if ts, err := time.ParseInLocation(TimeLayout, s, time.Local); err == nil {
		return ts
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts
	}
	return time.Time{}
}

// MarshalLine serializes the Record as a single self-describing JSON line,
// newline-terminated, suitable for append-only file sinks and broker values.
func (r Record) MarshalLine() ([]byte, error) {
	msg := r.Text
	author := r.Author
	w := wire{
		ID:        r.ID,
		Message:   &msg,
		Author:    &author,
		Timestamp: r.Timestamp.Format(TimeLayout),
		Category:  r.Category,
		Sentiment: r.Sentiment,
		Keyword:   r.Keyword,
		Length:    r.Length,
	}
	data, err := json.Marshal(w)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
