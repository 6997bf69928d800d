// Package parser reads dataset files and splits each line into fields.
package parser

import "fmt"

// Row is one data line of a dataset file, split into fields.
type Row struct {
	// Fields are the split field values in column order.
	Fields []string
	// Raw is the line as read, before splitting.
	Raw string
	// Source is the file path this row came from.
	Source string
	// LineNum is the 1-based line number in the source file, header included.
	LineNum int
}

// RowError ties a row-level failure to its position in the input.
type RowError struct {
	Source  string
	LineNum int
	Err     error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.Source, e.LineNum, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}
