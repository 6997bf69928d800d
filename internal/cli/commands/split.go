package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/trackstat/pkg/parser"
	"github.com/ccollicutt/trackstat/pkg/splitter"
)

// NewSplitCommand creates the split command.
func NewSplitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "split [line]",
		Short: "Split one dataset line into fields",
		Long: `Split a dataset line into its fields and print them.

Without an argument, every line of standard input is split. A field that
starts with a double quote runs to the next quote followed by a comma, or to
the final quote of the line.

Example:
  trackstat split 'a,"b,c",d'
  head -3 tracks.csv | trackstat split -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runSplit,
	}
}

func runSplit(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("output")
	w := cmd.OutOrStdout()

	if len(args) == 1 {
		fields, err := splitter.Split(args[0])
		if err != nil {
			return fmt.Errorf("splitting line: %w", err)
		}
		return writeFields(w, format, fields)
	}

	scanner := parser.NewLineScanner(cmd.InOrStdin())
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSuffix(scanner.Text(), "\r")
		fields, err := splitter.Split(line)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNum, err)
		}
		if err := writeFields(w, format, fields); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func writeFields(w io.Writer, format string, fields []string) error {
	switch format {
	case "json":
		return json.NewEncoder(w).Encode(fields)
	case "csv":
		_, err := fmt.Fprintln(w, splitter.Join(fields))
		return err
	case "text", "":
		for i, f := range fields {
			if _, err := fmt.Fprintf(w, "%d: %s\n", i+1, f); err != nil {
				return err
			}
		}
		_, err := fmt.Fprintf(w, "(%d fields)\n", len(fields))
		return err
	default:
		return fmt.Errorf("unknown output format %q (use text, json, or csv)", format)
	}
}
