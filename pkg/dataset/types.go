// Package dataset aggregates tracks loaded from dataset files and answers
// queries over them.
package dataset

import (
	"fmt"
	"iter"
	"log/slog"

	"github.com/ccollicutt/trackstat/pkg/parser"
	"github.com/ccollicutt/trackstat/pkg/record"
)

// ErrorPolicy decides what happens to a row that cannot be split or built.
type ErrorPolicy string

const (
	// PolicySkip logs the row, records it as a problem and continues.
	PolicySkip ErrorPolicy = "skip"
	// PolicyAbort stops loading at the first bad row.
	PolicyAbort ErrorPolicy = "abort"
)

// ParseErrorPolicy validates a policy name.
func ParseErrorPolicy(s string) (ErrorPolicy, error) {
	switch p := ErrorPolicy(s); p {
	case PolicySkip, PolicyAbort:
		return p, nil
	default:
		return "", fmt.Errorf("invalid error policy %q (must be skip or abort)", s)
	}
}

// DefaultMaxProblems caps the number of skipped-row errors kept in memory.
const DefaultMaxProblems = 100

// Stats describes what happened while loading.
type Stats struct {
	// RowsRead counts data rows seen, good or bad.
	RowsRead int `json:"rows_read"`
	// RowsLoaded counts rows that became tracks.
	RowsLoaded int `json:"rows_loaded"`
	// RowsSkipped counts rows rejected under PolicySkip.
	RowsSkipped int `json:"rows_skipped"`
	// Sources lists the files rows were read from, in first-seen order.
	Sources []string `json:"sources"`
}

// Dataset holds every loaded track in source order.
type Dataset struct {
	tracks   []record.Track
	stats    Stats
	problems []*parser.RowError
}

// New creates a Dataset over tracks that are already built.
func New(tracks []record.Track) *Dataset {
	return &Dataset{
		tracks: tracks,
		stats:  Stats{RowsRead: len(tracks), RowsLoaded: len(tracks)},
	}
}

// Len returns the number of tracks.
func (d *Dataset) Len() int {
	return len(d.tracks)
}

// Tracks returns the tracks in source order. The slice must not be modified.
func (d *Dataset) Tracks() []record.Track {
	return d.tracks
}

// Stats returns load statistics.
func (d *Dataset) Stats() Stats {
	return d.stats
}

// Problems returns the rows rejected under PolicySkip, up to the configured cap.
func (d *Dataset) Problems() []*parser.RowError {
	return d.problems
}

// All yields every track in source order.
func (d *Dataset) All() iter.Seq[*record.Track] {
	return func(yield func(*record.Track) bool) {
		for i := range d.tracks {
			if !yield(&d.tracks[i]) {
				return
			}
		}
	}
}

// LoadOption configures loading.
type LoadOption func(*loadConfig)

type loadConfig struct {
	policy      ErrorPolicy
	logger      *slog.Logger
	maxProblems int
	concurrency int
	sourceOpts  []parser.Option
}

func newLoadConfig(opts []LoadOption) *loadConfig {
	cfg := &loadConfig{
		policy:      PolicySkip,
		logger:      slog.New(slog.DiscardHandler),
		maxProblems: DefaultMaxProblems,
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithPolicy sets the bad-row policy. Defaults to PolicySkip.
func WithPolicy(p ErrorPolicy) LoadOption {
	return func(c *loadConfig) {
		c.policy = p
	}
}

// WithLogger sets the logger used to report skipped rows.
func WithLogger(logger *slog.Logger) LoadOption {
	return func(c *loadConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMaxProblems caps the number of skipped-row errors kept. Zero keeps none.
func WithMaxProblems(n int) LoadOption {
	return func(c *loadConfig) {
		if n >= 0 {
			c.maxProblems = n
		}
	}
}

// WithConcurrency limits how many files LoadFiles reads at once.
func WithConcurrency(n int) LoadOption {
	return func(c *loadConfig) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithSourceOptions passes options to the file sources created by LoadFiles.
func WithSourceOptions(opts ...parser.Option) LoadOption {
	return func(c *loadConfig) {
		c.sourceOpts = append(c.sourceOpts, opts...)
	}
}
