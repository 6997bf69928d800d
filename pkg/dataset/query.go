package dataset

import (
	"iter"
	"strings"
	"time"

	"github.com/ccollicutt/trackstat/pkg/record"
)

// Predicate reports whether a track matches.
type Predicate func(*record.Track) bool

// Filter yields the tracks matching pred in source order. A nil pred matches all.
func (d *Dataset) Filter(pred Predicate) iter.Seq[*record.Track] {
	if pred == nil {
		return d.All()
	}
	return func(yield func(*record.Track) bool) {
		for t := range d.All() {
			if pred(t) && !yield(t) {
				return
			}
		}
	}
}

// ByArtist yields the tracks of the named artist in source order.
func (d *Dataset) ByArtist(name string) iter.Seq[*record.Track] {
	return d.Filter(ArtistIs(name))
}

// Count returns the number of tracks matching pred. A nil pred counts all.
func (d *Dataset) Count(pred Predicate) int {
	n := 0
	for range d.Filter(pred) {
		n++
	}
	return n
}

// Take yields at most n values of seq and stops pulling from seq once n
// values have been yielded. A non-positive n yields nothing.
func Take[T any](seq iter.Seq[T], n int) iter.Seq[T] {
	return func(yield func(T) bool) {
		if n <= 0 {
			return
		}
		taken := 0
		for v := range seq {
			if !yield(v) {
				return
			}
			taken++
			if taken == n {
				return
			}
		}
	}
}

// ArtistIs matches the artist name, ignoring case.
func ArtistIs(name string) Predicate {
	return func(t *record.Track) bool {
		return strings.EqualFold(t.ArtistName, name)
	}
}

// Explicit matches the explicit flag.
func Explicit(explicit bool) Predicate {
	return func(t *record.Track) bool {
		return t.Explicit == explicit
	}
}

// Genre matches tracks whose artist lists the genre, ignoring case.
func Genre(genre string) Predicate {
	return func(t *record.Track) bool {
		for _, g := range t.Genres() {
			if strings.EqualFold(g, genre) {
				return true
			}
		}
		return false
	}
}

// AlbumType matches the album type (album, single, compilation), ignoring case.
func AlbumType(albumType string) Predicate {
	return func(t *record.Track) bool {
		return strings.EqualFold(t.AlbumType, albumType)
	}
}

// MinPopularity matches tracks with at least the given track popularity.
func MinPopularity(n uint32) Predicate {
	return func(t *record.Track) bool {
		return t.TrackPopularity >= n
	}
}

// ReleasedIn matches the four-digit release year.
func ReleasedIn(year string) Predicate {
	return func(t *record.Track) bool {
		return t.Year() == year
	}
}

// ReleasedBetween matches release dates within [from, to]. A zero bound is open.
// Tracks with an unparseable release date never match.
func ReleasedBetween(from, to time.Time) Predicate {
	return func(t *record.Track) bool {
		ts, err := t.ReleaseDate()
		if err != nil {
			return false
		}
		if !from.IsZero() && ts.Before(from) {
			return false
		}
		if !to.IsZero() && ts.After(to) {
			return false
		}
		return true
	}
}

// And matches when every non-nil predicate matches.
func And(preds ...Predicate) Predicate {
	var active []Predicate
	for _, p := range preds {
		if p != nil {
			active = append(active, p)
		}
	}
	if len(active) == 0 {
		return nil
	}
	return func(t *record.Track) bool {
		for _, p := range active {
			if !p(t) {
				return false
			}
		}
		return true
	}
}

// Collect drains seq into a slice. The result is never nil.
func Collect[T any](seq iter.Seq[T]) []T {
	out := []T{}
	for v := range seq {
		out = append(out, v)
	}
	return out
}
