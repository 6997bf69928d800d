package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/ccollicutt/trackstat/pkg/parser"
	"github.com/ccollicutt/trackstat/pkg/record"
)

// Load reads every row from source and builds a Dataset.
//
// A row that cannot be split or converted is wrapped in a *parser.RowError.
// Under PolicyAbort that error is returned; under PolicySkip it is logged,
// counted and kept in Problems.
func Load(ctx context.Context, source parser.RowSource, opts ...LoadOption) (*Dataset, error) {
	return load(ctx, source, newLoadConfig(opts))
}

func load(ctx context.Context, source parser.RowSource, cfg *loadConfig) (*Dataset, error) {
	d := &Dataset{}

	for {
		row, err := source.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			var rowErr *parser.RowError
			if !errors.As(err, &rowErr) {
				return nil, fmt.Errorf("reading dataset: %w", err)
			}
			d.stats.RowsRead++
			d.addSource(rowErr.Source)
			if err := d.reject(cfg, rowErr); err != nil {
				return nil, err
			}
			continue
		}

		d.stats.RowsRead++
		d.addSource(row.Source)

		track, err := record.Build(row.Fields)
		if err != nil {
			rowErr := &parser.RowError{Source: row.Source, LineNum: row.LineNum, Err: err}
			if err := d.reject(cfg, rowErr); err != nil {
				return nil, err
			}
			continue
		}

		d.tracks = append(d.tracks, *track)
		d.stats.RowsLoaded++
	}

	cfg.logger.Debug("dataset loaded",
		"rows_read", d.stats.RowsRead,
		"rows_loaded", d.stats.RowsLoaded,
		"rows_skipped", d.stats.RowsSkipped)

	return d, nil
}

func (d *Dataset) reject(cfg *loadConfig, rowErr *parser.RowError) error {
	if cfg.policy == PolicyAbort {
		return rowErr
	}

	d.stats.RowsSkipped++
	cfg.logger.Warn("skipping row",
		"source", rowErr.Source,
		"line", rowErr.LineNum,
		"error", rowErr.Err)

	if len(d.problems) < cfg.maxProblems {
		d.problems = append(d.problems, rowErr)
	}
	return nil
}

func (d *Dataset) addSource(source string) {
	if source != "" && !slices.Contains(d.stats.Sources, source) {
		d.stats.Sources = append(d.stats.Sources, source)
	}
}

// LoadFiles loads each file with its own source, several at a time, and merges
// the results in the order the files were given.
func LoadFiles(ctx context.Context, files []string, opts ...LoadOption) (*Dataset, error) {
	cfg := newLoadConfig(opts)

	parts := make([]*Dataset, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.concurrency)

	for i, file := range files {
		g.Go(func() error {
			source := parser.NewFileSource([]string{file}, cfg.sourceOpts...)
			defer source.Close()

			part, err := load(gctx, source, cfg)
			if err != nil {
				return err
			}
			parts[i] = part
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return merge(parts, cfg.maxProblems), nil
}

func merge(parts []*Dataset, maxProblems int) *Dataset {
	total := 0
	for _, p := range parts {
		total += p.Len()
	}

	d := &Dataset{tracks: make([]record.Track, 0, total)}
	for _, p := range parts {
		d.tracks = append(d.tracks, p.tracks...)
		d.stats.RowsRead += p.stats.RowsRead
		d.stats.RowsLoaded += p.stats.RowsLoaded
		d.stats.RowsSkipped += p.stats.RowsSkipped
		for _, s := range p.stats.Sources {
			d.addSource(s)
		}
		for _, prob := range p.problems {
			if len(d.problems) < maxProblems {
				d.problems = append(d.problems, prob)
			}
		}
	}
	return d
}
