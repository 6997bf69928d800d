package parser

import (
	"context"
)

// RowSource provides an iterator over dataset rows.
// Implementations must be safe for sequential access (not concurrent).
type RowSource interface {
	// Next returns the next row.
	// Returns io.EOF when no more rows are available.
	// A row that cannot be split is reported as a *RowError; the source stays
	// positioned after that row so the caller may continue.
	Next(ctx context.Context) (*Row, error)

	// Close releases any resources held by the source.
	Close() error
}
