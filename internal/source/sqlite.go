package source

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/keilerkonzept/barchart-race-tui/internal/frames"
)

// DefaultQuery reads every column of the conventional table name.
const DefaultQuery = `SELECT * FROM dataset`

// LoadSQLite runs query against the database at path and returns every
// result row with its columns rendered as text. NULLs become absent columns.
func LoadSQLite(ctx context.Context, path, query string) ([]frames.Row, error) {
	if query == "" {
		query = DefaultQuery
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	defer func() { _ = db.Close() }()

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query sqlite: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("sqlite columns: %w", err)
	}
	var out []frames.Row
	vals := make([]sql.NullString, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan sqlite row: %w", err)
		}
		row := make(frames.Row, len(cols))
		for i, c := range cols {
			if vals[i].Valid {
				row[c] = vals[i].String
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sqlite rows: %w", err)
	}
	return out, nil
}
