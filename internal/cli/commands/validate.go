package commands

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/trackstat/pkg/dataset"
	"github.com/ccollicutt/trackstat/pkg/output"
	"github.com/ccollicutt/trackstat/pkg/parser"
	"github.com/ccollicutt/trackstat/pkg/record"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	var maxProblems int

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate dataset files",
		Long: `Validate dataset files without running a query.

Checks:
  - Header columns (unless --no-header)
  - Quoted fields are terminated
  - Every row has 15 fields
  - Numeric fields parse

Every bad row is reported with its file and line number.

Exit codes:
  0 - All rows valid
  1 - Bad rows or an unexpected header
  2 - Configuration or runtime error`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, maxProblems)
		},
	}

	cmd.Flags().IntVar(&maxProblems, "max-problems", dataset.DefaultMaxProblems, "Maximum number of bad rows to report")

	return cmd
}

func runValidate(cmd *cobra.Command, maxProblems int) error {
	env, err := newRunEnv(cmd)
	if err != nil {
		return err
	}

	files, err := env.cfg.DatasetFiles()
	if err != nil {
		return err
	}

	var headerProblems []output.Problem
	if env.cfg.Header {
		for _, file := range files {
			if p := checkHeader(file); p != nil {
				headerProblems = append(headerProblems, *p)
			}
		}
	}

	ds, err := env.loadDataset(
		dataset.WithPolicy(dataset.PolicySkip),
		dataset.WithMaxProblems(maxProblems),
	)
	if err != nil {
		return err
	}

	report := output.NewReport("validate", ds, nil, ds.Len())
	report.Problems = append(headerProblems, report.Problems...)

	if err := env.writeReport(report); err != nil {
		return err
	}

	if len(headerProblems) > 0 || ds.Stats().RowsSkipped > 0 {
		ExitCode = 1
	}
	return nil
}

// checkHeader compares the first line of file with the expected columns.
func checkHeader(file string) *output.Problem {
	got, err := parser.ReadHeader(file)
	if err != nil {
		return &output.Problem{Source: file, Line: 1, Error: fmt.Sprintf("reading header: %v", err)}
	}

	normalized := make([]string, len(got))
	for i, col := range got {
		normalized[i] = strings.ToLower(strings.TrimSpace(col))
	}
	if slices.Equal(normalized, record.Columns[:]) {
		return nil
	}

	return &output.Problem{
		Source: file,
		Line:   1,
		Error:  fmt.Sprintf("unexpected header %q, want %q", strings.Join(got, ","), strings.Join(record.Columns[:], ",")),
	}
}
