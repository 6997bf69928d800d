package commands

import (
	"errors"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ccollicutt/trackstat/pkg/store"
)

// NewExportCommand creates the export command.
func NewExportCommand() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the dataset into a SQLite database",
		Long: `Load the datasets and upsert every track into a SQLite database.

The tracks table is created if needed and rows are keyed by track id, so
exporting again updates existing rows. The artists with the most tracks are
printed afterwards.

Example:
  trackstat export --data 'data/*.csv' --db tracks.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, dbPath)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runExport(cmd *cobra.Command, dbPath string) (err error) {
	env, err := newRunEnv(cmd)
	if err != nil {
		return err
	}

	ds, err := env.loadDataset()
	if err != nil {
		return err
	}

	s, err := store.Open(env.ctx, dbPath)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, s.Close())
	}()

	saved, err := s.SaveTracks(env.ctx, ds.All())
	if err != nil {
		return fmt.Errorf("exporting tracks: %w", err)
	}

	total, err := s.CountTracks(env.ctx)
	if err != nil {
		return err
	}

	artists, err := s.TopArtists(env.ctx, env.cfg.Limit)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Exported %d tracks to %s (%d stored)\n", saved, dbPath, total)
	if skipped := ds.Stats().RowsSkipped; skipped > 0 {
		fmt.Fprintf(w, "Skipped %d bad row(s)\n", skipped)
	}

	if len(artists) > 0 {
		fmt.Fprintln(w)
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Artist", "Tracks", "Followers"})
		for _, a := range artists {
			t.AppendRow(table.Row{a.Name, a.Tracks, a.Followers})
		}
		t.Render()
	}

	env.logger.Info("export complete", "db", dbPath, "saved", saved, "total", total)
	return nil
}
