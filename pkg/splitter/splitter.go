// Package splitter splits one line of comma-separated text into its fields.
//
// A field may be wrapped in double quotes so that it can carry literal commas.
// The quote is only recognised as the first byte of a field. The closing quote
// is the first `",` marker after the opening quote; when the line has no such
// marker, the first bare `"` closes the field. Doubled quotes are not treated
// as escapes and quoted fields never span lines.
package splitter

import (
	"errors"
	"fmt"
	"strings"
)

const (
	comma = ','
	quote = '"'
)

// closeMarker terminates a quoted field that is followed by another field.
const closeMarker = `",`

// ErrUnterminatedQuote is returned when a field opens with a quote that is never closed.
var ErrUnterminatedQuote = errors.New("unterminated quoted field")

// QuoteError reports malformed quoting within a line.
type QuoteError struct {
	// Column is the 1-based byte offset of the opening quote.
	Column int
	Err    error
}

func (e *QuoteError) Error() string {
	return fmt.Sprintf("column %d: %v", e.Column, e.Err)
}

func (e *QuoteError) Unwrap() error {
	return e.Err
}

// Split returns the fields of line in column order.
//
// An empty line has no fields and yields an empty, non-nil slice. Consecutive
// commas yield empty fields, and a trailing comma yields a trailing empty field.
// The returned strings share memory with line.
func Split(line string) ([]string, error) {
	fields := make([]string, 0, strings.Count(line, ",")+1)
	if line == "" {
		return fields, nil
	}

	// marker caches the position of the next `",`; -1 once none remain.
	marker := -2
	pos := 0
	for {
		if pos < len(line) && line[pos] == quote {
			start := pos + 1
			if marker != -1 && marker < start {
				marker = indexFrom(line, closeMarker, start)
			}

			end := marker
			if end < 0 {
				end = strings.IndexByte(line[start:], quote)
				if end < 0 {
					return nil, &QuoteError{Column: pos + 1, Err: ErrUnterminatedQuote}
				}
				end += start
			}

			fields = append(fields, line[start:end])
			pos = end + 1
			if pos >= len(line) {
				return fields, nil
			}
			if line[pos] == comma {
				pos++
			}
			continue
		}

		next := strings.IndexByte(line[pos:], comma)
		if next < 0 {
			return append(fields, line[pos:]), nil
		}
		fields = append(fields, line[pos:pos+next])
		pos += next + 1
	}
}

// indexFrom returns the index of substr in s at or after from, or -1.
func indexFrom(s, substr string, from int) int {
	i := strings.Index(s[from:], substr)
	if i < 0 {
		return -1
	}
	return from + i
}

// Join encodes fields as a single line, wrapping fields that contain a comma
// or start with a quote in quotes.
//
// Split decodes the result back into the same fields unless a field contains
// the `",` sequence, or the last field holds a quote and also starts with a
// quote or contains a comma. Such fields cannot be written so that the closing
// quote rule finds their end.
func Join(fields []string) string {
	var sb strings.Builder
	for i, f := range fields {
		if i > 0 {
			sb.WriteByte(comma)
		}
		if strings.IndexByte(f, comma) >= 0 || strings.HasPrefix(f, `"`) {
			sb.WriteByte(quote)
			sb.WriteString(f)
			sb.WriteByte(quote)
			continue
		}
		sb.WriteString(f)
	}
	return sb.String()
}
