package commands

import (
	"github.com/spf13/cobra"

	"github.com/ccollicutt/trackstat/pkg/output"
)

// NewCountCommand creates the count command.
func NewCountCommand() *cobra.Command {
	filters := &FilterOptions{}
	hooks := &WebhookOptions{}

	cmd := &cobra.Command{
		Use:   "count",
		Short: "Count tracks matching filters",
		Long: `Count the tracks matching every filter flag. Without filters, every
loaded track is counted.

Example:
  trackstat count --explicit --genre pop
  trackstat count --artist Diplo --year 2022`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCount(cmd, filters, hooks)
		},
	}

	addFilterFlags(cmd, filters)
	addWebhookFlags(cmd, hooks)
	return cmd
}

func runCount(cmd *cobra.Command, filters *FilterOptions, hooks *WebhookOptions) error {
	env, err := newRunEnv(cmd)
	if err != nil {
		return err
	}

	pred, terms, err := filters.predicate(cmd)
	if err != nil {
		return err
	}

	ds, err := env.loadDataset()
	if err != nil {
		return err
	}

	report := output.NewReport(describe("count", terms), ds, nil, ds.Count(pred))
	return env.finishQuery(report, hooks)
}
