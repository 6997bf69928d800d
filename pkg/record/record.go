// Package record maps the positional fields of a dataset row onto a Track.
package record

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ExplicitMarker is the only token that marks a track as explicit.
const ExplicitMarker = "TRUE"

// Column indexes in source order.
const (
	ColTrackID = iota
	ColTrackName
	ColTrackNumber
	ColTrackPopularity
	ColExplicit
	ColArtistName
	ColArtistPopularity
	ColArtistFollowers
	ColArtistGenres
	ColAlbumID
	ColAlbumName
	ColAlbumReleaseDate
	ColAlbumTotalTracks
	ColAlbumType
	ColTrackDurationMin

	NumColumns
)

// Columns lists the column names in source order.
var Columns = [NumColumns]string{
	"track_id",
	"track_name",
	"track_number",
	"track_popularity",
	"explicit",
	"artist_name",
	"artist_popularity",
	"artist_followers",
	"artist_genres",
	"album_id",
	"album_name",
	"album_release_date",
	"album_total_tracks",
	"album_type",
	"track_duration_min",
}

// ErrArityMismatch is matched by ArityError.
var ErrArityMismatch = errors.New("wrong number of fields")

// ErrNotFinite is the FieldError cause for NaN and infinite values.
var ErrNotFinite = errors.New("value is not a finite number")

// ArityError is returned when a row does not have exactly NumColumns fields.
type ArityError struct {
	Want int
	Got  int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("%v: got %d, want %d", ErrArityMismatch, e.Got, e.Want)
}

func (e *ArityError) Is(target error) bool {
	return target == ErrArityMismatch
}

// FieldError is returned when a field cannot be converted to its column type.
type FieldError struct {
	Index int
	Name  string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %d (%s) value %q: %v", e.Index+1, e.Name, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Track is one row of the dataset.
type Track struct {
	TrackID          string  `json:"track_id"`
	TrackName        string  `json:"track_name"`
	TrackNumber      uint32  `json:"track_number"`
	TrackPopularity  uint32  `json:"track_popularity"`
	Explicit         bool    `json:"explicit"`
	ArtistName       string  `json:"artist_name"`
	ArtistPopularity uint32  `json:"artist_popularity"`
	ArtistFollowers  uint32  `json:"artist_followers"`
	ArtistGenres     string  `json:"artist_genres"`
	AlbumID          string  `json:"album_id"`
	AlbumName        string  `json:"album_name"`
	AlbumReleaseDate string  `json:"album_release_date"`
	AlbumTotalTracks uint32  `json:"album_total_tracks"`
	AlbumType        string  `json:"album_type"`
	TrackDurationMin float32 `json:"track_duration_min"`
}

// Build converts a field sequence into a Track by position.
func Build(fields []string) (*Track, error) {
	if len(fields) != NumColumns {
		return nil, &ArityError{Want: NumColumns, Got: len(fields)}
	}

	b := builder{fields: fields}
	t := &Track{
		TrackID:          fields[ColTrackID],
		TrackName:        fields[ColTrackName],
		TrackNumber:      b.parseUint(ColTrackNumber),
		TrackPopularity:  b.parseUint(ColTrackPopularity),
		Explicit:         fields[ColExplicit] == ExplicitMarker,
		ArtistName:       fields[ColArtistName],
		ArtistPopularity: b.parseUint(ColArtistPopularity),
		ArtistFollowers:  b.parseUint(ColArtistFollowers),
		ArtistGenres:     fields[ColArtistGenres],
		AlbumID:          fields[ColAlbumID],
		AlbumName:        fields[ColAlbumName],
		AlbumReleaseDate: fields[ColAlbumReleaseDate],
		AlbumTotalTracks: b.parseUint(ColAlbumTotalTracks),
		AlbumType:        fields[ColAlbumType],
		TrackDurationMin: b.parseFloat(ColTrackDurationMin),
	}
	if b.err != nil {
		return nil, b.err
	}
	return t, nil
}

// builder records the first conversion failure.
type builder struct {
	fields []string
	err    error
}

func (b *builder) parseUint(i int) uint32 {
	if b.err != nil {
		return 0
	}
	v, err := strconv.ParseUint(b.fields[i], 10, 32)
	if err != nil {
		b.fail(i, err)
		return 0
	}
	return uint32(v)
}

func (b *builder) parseFloat(i int) float32 {
	if b.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(b.fields[i], 32)
	if err != nil {
		b.fail(i, err)
		return 0
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		b.fail(i, ErrNotFinite)
		return 0
	}
	return float32(v)
}

func (b *builder) fail(i int, err error) {
	var numErr *strconv.NumError
	if errors.As(err, &numErr) {
		err = numErr.Err
	}
	b.err = &FieldError{Index: i, Name: Columns[i], Value: b.fields[i], Err: err}
}

// Fields returns the positional string form of t, the inverse of Build.
func (t *Track) Fields() []string {
	explicit := "FALSE"
	if t.Explicit {
		explicit = ExplicitMarker
	}
	return []string{
		t.TrackID,
		t.TrackName,
		strconv.FormatUint(uint64(t.TrackNumber), 10),
		strconv.FormatUint(uint64(t.TrackPopularity), 10),
		explicit,
		t.ArtistName,
		strconv.FormatUint(uint64(t.ArtistPopularity), 10),
		strconv.FormatUint(uint64(t.ArtistFollowers), 10),
		t.ArtistGenres,
		t.AlbumID,
		t.AlbumName,
		t.AlbumReleaseDate,
		strconv.FormatUint(uint64(t.AlbumTotalTracks), 10),
		t.AlbumType,
		strconv.FormatFloat(float64(t.TrackDurationMin), 'f', -1, 32),
	}
}

// Genres returns the artist genres as a list. An empty genre column yields nil.
func (t *Track) Genres() []string {
	if strings.TrimSpace(t.ArtistGenres) == "" {
		return nil
	}
	parts := strings.Split(t.ArtistGenres, ",")
	genres := make([]string, 0, len(parts))
	for _, p := range parts {
		if g := strings.TrimSpace(p); g != "" {
			genres = append(genres, g)
		}
	}
	return genres
}

// Year returns the release year prefix of the album release date, or "" if
// the date is shorter than four characters.
func (t *Track) Year() string {
	if len(t.AlbumReleaseDate) < 4 {
		return ""
	}
	return t.AlbumReleaseDate[:4]
}
