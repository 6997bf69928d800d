package output

import (
	"context"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/ccollicutt/trackstat/pkg/record"
)

// TextFormatter formats reports as human-readable tables.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format renders the report as text.
func (f *TextFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	if f.opts.Quiet {
		return f.formatQuiet(report, w)
	}
	return f.formatFull(report, w)
}

func (f *TextFormatter) formatQuiet(report *Report, w io.Writer) error {
	_, err := fmt.Fprintf(w, "trackstat: %s: %d matched, %d rows read, %d skipped\n",
		report.Query,
		report.Summary.Matched,
		report.Summary.RowsRead,
		report.Summary.RowsSkipped)
	return err
}

func (f *TextFormatter) formatFull(report *Report, w io.Writer) error {
	fmt.Fprintf(w, "=== trackstat: %s ===\n", report.Query)
	fmt.Fprintln(w)

	if !report.IsCountOnly() {
		if len(report.Tracks) == 0 {
			fmt.Fprintln(w, "No tracks found")
		} else {
			f.renderTracks(report.Tracks, w)
		}
		fmt.Fprintln(w)
	}

	if len(report.Problems) > 0 {
		fmt.Fprintf(w, "Problems: %d row(s) skipped\n", report.Summary.RowsSkipped)
		for _, p := range report.Problems {
			fmt.Fprintf(w, "  - %s:%d: %s\n", p.Source, p.Line, p.Error)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "---")
	if report.IsCountOnly() || report.Count == report.Summary.Matched {
		fmt.Fprintf(w, "Matched: %d\n", report.Summary.Matched)
	} else {
		fmt.Fprintf(w, "Matched: %d (showing %d)\n", report.Summary.Matched, report.Count)
	}

	if f.opts.Verbose {
		fmt.Fprintf(w, "Rows read: %d, loaded: %d, skipped: %d\n",
			report.Summary.RowsRead,
			report.Summary.RowsLoaded,
			report.Summary.RowsSkipped)
		for _, s := range report.Metadata.Sources {
			fmt.Fprintf(w, "Source: %s\n", s)
		}
		fmt.Fprintf(w, "Duration: %s\n", report.Metadata.Duration.Round(1e6))
	}

	return nil
}

func (f *TextFormatter) renderTracks(tracks []*record.Track, w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	if f.opts.Verbose {
		header := make(table.Row, len(record.Columns))
		for i, col := range record.Columns {
			header[i] = col
		}
		t.AppendHeader(header)
		for _, track := range tracks {
			fields := track.Fields()
			row := make(table.Row, len(fields))
			for i, v := range fields {
				row[i] = v
			}
			t.AppendRow(row)
		}
		t.Render()
		return
	}

	t.AppendHeader(table.Row{"#", "Track", "Artist", "Album", "Released", "Popularity", "Explicit"})
	for i, track := range tracks {
		t.AppendRow(table.Row{
			i + 1,
			track.TrackName,
			track.ArtistName,
			track.AlbumName,
			track.AlbumReleaseDate,
			track.TrackPopularity,
			explicitMark(track.Explicit),
		})
	}
	t.Render()
}

func explicitMark(explicit bool) string {
	if explicit {
		return "yes"
	}
	return ""
}
