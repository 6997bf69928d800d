package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/trackstat/pkg/dataset"
)

// FilterOptions holds the track filters shared by query commands.
type FilterOptions struct {
	Artist        string
	Explicit      bool
	Genre         string
	AlbumType     string
	MinPopularity uint32
	Year          string
	After         string
	Before        string
}

func addFilterFlags(cmd *cobra.Command, opts *FilterOptions) {
	cmd.Flags().StringVar(&opts.Artist, "artist", "", "Only tracks by this artist")
	cmd.Flags().BoolVar(&opts.Explicit, "explicit", false, "Only explicit tracks (--explicit=false for clean tracks)")
	cmd.Flags().StringVar(&opts.Genre, "genre", "", "Only artists with this genre")
	cmd.Flags().StringVar(&opts.AlbumType, "album-type", "", "Only this album type (album|single|compilation)")
	cmd.Flags().Uint32Var(&opts.MinPopularity, "min-popularity", 0, "Minimum track popularity")
	cmd.Flags().StringVar(&opts.Year, "year", "", "Only albums released in this year")
	cmd.Flags().StringVar(&opts.After, "released-after", "", "Only albums released on or after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.Before, "released-before", "", "Only albums released on or before this date (YYYY-MM-DD)")
}

// predicate builds the combined filter and a short description of it. Both
// are empty when no filter flag was given.
func (o *FilterOptions) predicate(cmd *cobra.Command) (dataset.Predicate, string, error) {
	var preds []dataset.Predicate
	var terms []string
	add := func(p dataset.Predicate, term string) {
		preds = append(preds, p)
		terms = append(terms, term)
	}

	if o.Artist != "" {
		add(dataset.ArtistIs(o.Artist), fmt.Sprintf("artist=%q", o.Artist))
	}
	if cmd.Flags().Changed("explicit") {
		add(dataset.Explicit(o.Explicit), fmt.Sprintf("explicit=%t", o.Explicit))
	}
	if o.Genre != "" {
		add(dataset.Genre(o.Genre), fmt.Sprintf("genre=%q", o.Genre))
	}
	if o.AlbumType != "" {
		add(dataset.AlbumType(o.AlbumType), "album_type="+o.AlbumType)
	}
	if o.MinPopularity > 0 {
		add(dataset.MinPopularity(o.MinPopularity), fmt.Sprintf("popularity>=%d", o.MinPopularity))
	}
	if o.Year != "" {
		add(dataset.ReleasedIn(o.Year), "year="+o.Year)
	}

	if o.After != "" || o.Before != "" {
		from, err := parseDate("released-after", o.After)
		if err != nil {
			return nil, "", err
		}
		to, err := parseDate("released-before", o.Before)
		if err != nil {
			return nil, "", err
		}
		if !from.IsZero() && !to.IsZero() && to.Before(from) {
			return nil, "", fmt.Errorf("released-before %s is earlier than released-after %s", o.Before, o.After)
		}
		add(dataset.ReleasedBetween(from, to), describe(prefixed("from=", o.After), prefixed("to=", o.Before)))
	}

	return dataset.And(preds...), describe(terms...), nil
}

func parseDate(flag, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q (use YYYY-MM-DD)", flag, value)
	}
	return t, nil
}

func prefixed(prefix, value string) string {
	if value == "" {
		return ""
	}
	return prefix + value
}
