package output

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ccollicutt/trackstat/pkg/record"
	"github.com/ccollicutt/trackstat/pkg/splitter"
)

// CSVFormatter writes the listed tracks in the dataset's own row format. The
// output loads back into the same tracks unless a text field contains the
// `",` sequence.
type CSVFormatter struct {
	opts FormatOptions
}

// NewCSVFormatter creates a new CSV formatter with the given options.
func NewCSVFormatter(opts FormatOptions) *CSVFormatter {
	return &CSVFormatter{opts: opts}
}

// Name returns the format name.
func (f *CSVFormatter) Name() string {
	return "csv"
}

// Format renders the report as CSV. Count-only and quiet reports become a
// single matched column.
func (f *CSVFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	if f.opts.Quiet || report.IsCountOnly() {
		_, err := fmt.Fprintf(w, "matched\n%d\n", report.Summary.Matched)
		return err
	}

	if _, err := fmt.Fprintln(w, strings.Join(record.Columns[:], ",")); err != nil {
		return err
	}
	for _, t := range report.Tracks {
		if _, err := fmt.Fprintln(w, splitter.Join(t.Fields())); err != nil {
			return err
		}
	}
	return nil
}
