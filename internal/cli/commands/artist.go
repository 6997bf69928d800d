package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/trackstat/pkg/dataset"
	"github.com/ccollicutt/trackstat/pkg/output"
)

// NewArtistCommand creates the artist command.
func NewArtistCommand() *cobra.Command {
	filters := &FilterOptions{}
	hooks := &WebhookOptions{}

	cmd := &cobra.Command{
		Use:   "artist <name>",
		Short: "List the tracks of an artist",
		Long: `List the tracks of an artist in dataset order, up to --limit.

The name is matched exactly, ignoring case. Filter flags narrow the list.

Exit codes:
  0 - Tracks found
  1 - No tracks found
  2 - Configuration or runtime error`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArtist(cmd, args[0], filters, hooks)
		},
	}

	addFilterFlags(cmd, filters)
	addWebhookFlags(cmd, hooks)
	return cmd
}

func runArtist(cmd *cobra.Command, name string, filters *FilterOptions, hooks *WebhookOptions) error {
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

	match := dataset.And(dataset.ArtistIs(name), pred)
	tracks := dataset.Collect(dataset.Take(ds.Filter(match), env.cfg.Limit))
	report := output.NewReport(describe(fmt.Sprintf("artist %q", name), terms), ds, tracks, ds.Count(match))

	return env.finishQuery(report, hooks)
}
