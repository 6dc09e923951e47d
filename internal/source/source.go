// Package source reads the raw dataset rows from a CSV file, standard input,
// an S3 object or a SQLite query.
package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/x/term"

	"github.com/keilerkonzept/barchart-race-tui/internal/frames"
)

// ErrNoInput is returned when no input was named and stdin is a terminal.
var ErrNoInput = errors.New("source: no input (use -in FILE, -in s3://bucket/key, -sqlite DB, or pipe CSV on stdin)")

// S3Options configures access to s3:// inputs.
type S3Options struct {
	Region    string
	Endpoint  string
	PathStyle bool
}

// Open resolves path to a reader: "" or "-" is stdin, "s3://bucket/key" an
// S3 object, anything else a local file.
func Open(ctx context.Context, path string, s3opts S3Options) (io.ReadCloser, error) {
	switch {
	case path == "" || path == "-":
		if path == "" && term.IsTerminal(os.Stdin.Fd()) {
			return nil, ErrNoInput
		}
		return io.NopCloser(os.Stdin), nil
	case strings.HasPrefix(path, "s3://"):
		return openS3(ctx, path, s3opts)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return f, nil
}

// ReadCSV reads a header row followed by records. Short records leave the
// missing columns absent from the row; a blank header cell is skipped.
func ReadCSV(r io.Reader) ([]frames.Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	var rows []frames.Row
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		row := make(frames.Row, len(header))
		for i, col := range header {
			if col == "" || i >= len(rec) {
				continue
			}
			row[col] = rec[i]
		}
		rows = append(rows, row)
	}
}

// Load opens path and reads it as CSV.
func Load(ctx context.Context, path string, s3opts S3Options) ([]frames.Row, error) {
	r, err := Open(ctx, path, s3opts)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()
	return ReadCSV(r)
}
