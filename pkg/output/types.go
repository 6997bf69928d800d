// Package output provides formatting and output generation for query results.
package output

import (
	"time"

	"github.com/ccollicutt/trackstat/pkg/dataset"
	"github.com/ccollicutt/trackstat/pkg/record"
)

// Report is the complete output of one query.
type Report struct {
	// Query describes what was asked, e.g. "artist Diplo".
	Query string `json:"query"`

	// Tracks are the listed tracks. Nil for count-only reports.
	Tracks []*record.Track `json:"tracks,omitempty"`

	// Count is the number of listed tracks.
	Count int `json:"count"`

	// Problems are rows that could not be loaded.
	Problems []Problem `json:"problems,omitempty"`

	Summary  Summary  `json:"summary"`
	Metadata Metadata `json:"metadata"`
}

// Summary provides aggregate statistics.
type Summary struct {
	RowsRead    int `json:"rows_read"`
	RowsLoaded  int `json:"rows_loaded"`
	RowsSkipped int `json:"rows_skipped"`

	// Matched is the number of tracks matching the query before any limit.
	Matched int `json:"matched"`
}

// Metadata provides context about the query run.
type Metadata struct {
	// Sources lists the dataset files that were read.
	Sources []string `json:"sources"`

	// GeneratedAt is when the report was produced.
	GeneratedAt time.Time `json:"generated_at"`

	// Duration is how long loading and querying took.
	Duration time.Duration `json:"duration"`
}

// Problem is a dataset row that failed to load.
type Problem struct {
	Source string `json:"source"`
	Line   int    `json:"line"`
	Error  string `json:"error"`
}

// NewReport creates a Report listing tracks out of matched results.
// Pass a nil tracks slice for a count-only report.
func NewReport(query string, ds *dataset.Dataset, tracks []*record.Track, matched int) *Report {
	stats := ds.Stats()
	report := &Report{
		Query:  query,
		Tracks: tracks,
		Count:  len(tracks),
		Summary: Summary{
			RowsRead:    stats.RowsRead,
			RowsLoaded:  stats.RowsLoaded,
			RowsSkipped: stats.RowsSkipped,
			Matched:     matched,
		},
		Metadata: Metadata{
			Sources:     stats.Sources,
			GeneratedAt: time.Now(),
		},
	}

	for _, p := range ds.Problems() {
		report.Problems = append(report.Problems, Problem{
			Source: p.Source,
			Line:   p.LineNum,
			Error:  p.Err.Error(),
		})
	}

	return report
}

// HasResults returns true if the query matched at least one track.
func (r *Report) HasResults() bool {
	return r.Summary.Matched > 0
}

// IsCountOnly reports whether the report carries a count without a listing.
func (r *Report) IsCountOnly() bool {
	return r.Tracks == nil
}
