package dataset

import (
	"container/heap"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/ccollicutt/trackstat/pkg/record"
)

// SortField names a numeric column tracks can be ranked by.
type SortField string

const (
	FieldTrackPopularity  SortField = "track_popularity"
	FieldArtistPopularity SortField = "artist_popularity"
	FieldArtistFollowers  SortField = "artist_followers"
	FieldTrackNumber      SortField = "track_number"
	FieldAlbumTotalTracks SortField = "album_total_tracks"
	FieldTrackDuration    SortField = "track_duration_min"
)

// SortFields lists the rankable fields.
var SortFields = []SortField{
	FieldTrackPopularity,
	FieldArtistPopularity,
	FieldArtistFollowers,
	FieldTrackNumber,
	FieldAlbumTotalTracks,
	FieldTrackDuration,
}

// ErrUnknownField is returned by ParseSortField for non-numeric or unknown columns.
var ErrUnknownField = errors.New("unknown sort field")

// ParseSortField accepts a column name in snake or kebab case, ignoring case.
func ParseSortField(name string) (SortField, error) {
	key := SortField(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_"))
	for _, f := range SortFields {
		if f == key {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrUnknownField, name)
}

// Value returns the numeric value of the field for t.
func (f SortField) Value(t *record.Track) float64 {
	switch f {
	case FieldTrackPopularity:
		return float64(t.TrackPopularity)
	case FieldArtistPopularity:
		return float64(t.ArtistPopularity)
	case FieldArtistFollowers:
		return float64(t.ArtistFollowers)
	case FieldTrackNumber:
		return float64(t.TrackNumber)
	case FieldAlbumTotalTracks:
		return float64(t.AlbumTotalTracks)
	case FieldTrackDuration:
		return float64(t.TrackDurationMin)
	default:
		return 0
	}
}

// TopBy yields the n tracks with the highest value of field among those
// matching pred, highest first. Ties keep source order. The ranking is
// computed when the sequence is first iterated.
func (d *Dataset) TopBy(field SortField, n int, pred Predicate) iter.Seq[*record.Track] {
	return func(yield func(*record.Track) bool) {
		if n <= 0 {
			return
		}

		h := &rankHeap{}
		for i := range d.tracks {
			t := &d.tracks[i]
			if pred != nil && !pred(t) {
				continue
			}
			item := ranked{value: field.Value(t), index: i}
			if h.Len() < n {
				heap.Push(h, item)
				continue
			}
			if lowerRank((*h)[0], item) {
				(*h)[0] = item
				heap.Fix(h, 0)
			}
		}

		ordered := make([]ranked, h.Len())
		for i := len(ordered) - 1; i >= 0; i-- {
			ordered[i] = heap.Pop(h).(ranked)
		}

		for _, r := range ordered {
			if !yield(&d.tracks[r.index]) {
				return
			}
		}
	}
}

// ranked is a track position with its sort value.
type ranked struct {
	value float64
	index int
}

// lowerRank reports whether a ranks below b: smaller value, or equal value
// and later in the dataset.
func lowerRank(a, b ranked) bool {
	if a.value != b.value {
		return a.value < b.value
	}
	return a.index > b.index
}

// rankHeap implements heap.Interface with the lowest ranked item on top.
type rankHeap []ranked

func (h rankHeap) Len() int { return len(h) }

func (h rankHeap) Less(i, j int) bool { return lowerRank(h[i], h[j]) }

func (h rankHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *rankHeap) Push(x any) {
	*h = append(*h, x.(ranked))
}

func (h *rankHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[0 : n-1]
	return item
}
