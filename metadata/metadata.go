// Package metadata persists one JSON line per saved article to an
// append-only metadata.jsonl file.
package metadata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// FileName is the metadata file's name inside the output directory.
const FileName = "metadata.jsonl"

// Record is one persisted metadata line. Published and Type serialize as
// JSON null when the article page did not declare them; ListedType may be
// an empty string. File is forward-slash separated and relative to the
// output directory.
type Record struct {
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	File       string  `json:"file"`
	Page       int     `json:"page"`
	Published  *string `json:"published"`
	Type       *string `json:"type"`
	ListedType string  `json:"listed_type"`
}

// Sink appends records to a writer, one compact JSON object per line.
type Sink struct {
	w      io.Writer
	closer io.Closer
}

// NewSink wraps an arbitrary writer, for tests and custom destinations.
func NewSink(w io.Writer) *Sink {
	return &Sink{w: w}
}

// Open opens (or creates) the metadata file in append mode. Existing
// content is never truncated; re-running into the same directory appends.
func Open(path string) (*Sink, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata file: %w", err)
	}
	return &Sink{w: f, closer: f}, nil
}

// Append writes one record as a single JSON line. Titles and URLs keep
// characters like & and < literal rather than as \u escapes.
func (s *Sink) Append(rec Record) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	// Encode terminates the object with a newline, which is exactly the
	// JSONL framing.
	if err := enc.Encode(rec); err != nil {
		return fmt.Errorf("failed to marshal metadata record: %w", err)
	}

	if _, err := s.w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write metadata record: %w", err)
	}

	return nil
}

// Close closes the underlying file, if the sink owns one.
func (s *Sink) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
