package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/trackstat/pkg/dataset"
	"github.com/ccollicutt/trackstat/pkg/output"
)

// NewTopCommand creates the top command.
func NewTopCommand() *cobra.Command {
	filters := &FilterOptions{}
	hooks := &WebhookOptions{}

	fields := make([]string, len(dataset.SortFields))
	for i, f := range dataset.SortFields {
		fields[i] = string(f)
	}

	cmd := &cobra.Command{
		Use:   "top <field>",
		Short: "List the highest ranked tracks by a numeric field",
		Long: `List the --limit tracks with the highest value of a numeric field,
highest first. Tracks with equal values keep dataset order.

Fields:
  ` + strings.Join(fields, "\n  "),
		Args:      cobra.ExactArgs(1),
		ValidArgs: fields,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTop(cmd, args[0], filters, hooks)
		},
	}

	addFilterFlags(cmd, filters)
	addWebhookFlags(cmd, hooks)
	return cmd
}

func runTop(cmd *cobra.Command, name string, filters *FilterOptions, hooks *WebhookOptions) error {
	field, err := dataset.ParseSortField(name)
	if err != nil {
		return err
	}

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

	tracks := dataset.Collect(ds.TopBy(field, env.cfg.Limit, pred))
	report := output.NewReport(describe(fmt.Sprintf("top %d %s", env.cfg.Limit, field), terms), ds, tracks, ds.Count(pred))

	return env.finishQuery(report, hooks)
}
