package output

import (
	"context"
	"encoding/json"
	"io"
)

// JSONFormatter formats reports as JSON.
type JSONFormatter struct {
	opts FormatOptions
}

// NewJSONFormatter creates a JSON formatter.
func NewJSONFormatter(opts FormatOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// Name returns the format name.
func (f *JSONFormatter) Name() string {
	return "json"
}

// quietReport is the JSON shape of a quiet report.
type quietReport struct {
	Query   string  `json:"query"`
	Summary Summary `json:"summary"`
}

// Format renders the report as indented JSON. Track and genre text is
// written unescaped ("r&b", not "r\u0026b").
func (f *JSONFormatter) Format(_ context.Context, report *Report, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)

	if f.opts.Quiet {
		return encoder.Encode(quietReport{Query: report.Query, Summary: report.Summary})
	}
	return encoder.Encode(report)
}
