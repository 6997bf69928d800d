package record

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func diploFields() []string {
	return []string{
		"3EJS5LyekDim1Tf5rBFmZl",
		"Trippy Mane (ft. Project Pat)",
		"4",
		"0",
		"TRUE",
		"Diplo",
		"77",
		"2812821",
		"moombahton",
		"5QRFnGnBeMGePBKF2xTz5z",
		"d00mscrvll, Vol. 1",
		"2025-10-31",
		"9",
		"album",
		"1.55",
	}
}

func TestBuild(t *testing.T) {
	track, err := Build(diploFields())
	require.NoError(t, err)

	assert.Equal(t, "3EJS5LyekDim1Tf5rBFmZl", track.TrackID)
	assert.Equal(t, "Trippy Mane (ft. Project Pat)", track.TrackName)
	assert.Equal(t, uint32(4), track.TrackNumber)
	assert.Equal(t, uint32(0), track.TrackPopularity)
	assert.True(t, track.Explicit)
	assert.Equal(t, "Diplo", track.ArtistName)
	assert.Equal(t, uint32(77), track.ArtistPopularity)
	assert.Equal(t, uint32(2812821), track.ArtistFollowers)
	assert.Equal(t, "moombahton", track.ArtistGenres)
	assert.Equal(t, "d00mscrvll, Vol. 1", track.AlbumName)
	assert.Equal(t, "2025-10-31", track.AlbumReleaseDate)
	assert.Equal(t, uint32(9), track.AlbumTotalTracks)
	assert.Equal(t, "album", track.AlbumType)
	assert.InDelta(t, 1.55, track.TrackDurationMin, 0.0001)
}

func TestBuild_ExplicitMarker(t *testing.T) {
	tests := []struct {
		token string
		want  bool
	}{
		{"TRUE", true},
		{"true", false},
		{"True", false},
		{"FALSE", false},
		{"", false},
		{"1", false},
	}

	for _, tt := range tests {
		fields := diploFields()
		fields[ColExplicit] = tt.token
		track, err := Build(fields)
		require.NoError(t, err, tt.token)
		assert.Equal(t, tt.want, track.Explicit, "token %q", tt.token)
	}
}

func TestBuild_ArityMismatch(t *testing.T) {
	for _, n := range []int{0, 1, 14, 16} {
		fields := make([]string, n)
		_, err := Build(fields)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrArityMismatch))

		var ae *ArityError
		require.True(t, errors.As(err, &ae))
		assert.Equal(t, NumColumns, ae.Want)
		assert.Equal(t, n, ae.Got)
	}
}

func TestBuild_FieldError(t *testing.T) {
	tests := []struct {
		name  string
		index int
		value string
		want  error
	}{
		{"not a number", ColTrackNumber, "four", strconv.ErrSyntax},
		{"negative", ColArtistPopularity, "-1", strconv.ErrSyntax},
		{"overflow", ColArtistFollowers, "4294967296", strconv.ErrRange},
		{"bad duration", ColTrackDurationMin, "1:55", strconv.ErrSyntax},
		{"empty total", ColAlbumTotalTracks, "", strconv.ErrSyntax},
		{"nan duration", ColTrackDurationMin, "NaN", ErrNotFinite},
		{"infinite duration", ColTrackDurationMin, "Inf", ErrNotFinite},
		{"negative infinity", ColTrackDurationMin, "-infinity", ErrNotFinite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := diploFields()
			fields[tt.index] = tt.value

			_, err := Build(fields)
			require.Error(t, err)

			var fe *FieldError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.index, fe.Index)
			assert.Equal(t, Columns[tt.index], fe.Name)
			assert.Equal(t, tt.value, fe.Value)
			assert.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), Columns[tt.index])
		})
	}
}

func TestBuild_FirstFailureWins(t *testing.T) {
	fields := diploFields()
	fields[ColTrackNumber] = "x"
	fields[ColTrackDurationMin] = "y"

	_, err := Build(fields)
	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, ColTrackNumber, fe.Index)
}

func TestTrack_Fields(t *testing.T) {
	fields := diploFields()
	track, err := Build(fields)
	require.NoError(t, err)
	assert.Equal(t, fields, track.Fields())

	track.Explicit = false
	assert.Equal(t, "FALSE", track.Fields()[ColExplicit])
}

func TestTrack_Genres(t *testing.T) {
	track := &Track{ArtistGenres: "nigerian drill, alté, afro adura,  afrobeats"}
	assert.Equal(t, []string{"nigerian drill", "alté", "afro adura", "afrobeats"}, track.Genres())

	track.ArtistGenres = "  "
	assert.Nil(t, track.Genres())
}

func TestTrack_Year(t *testing.T) {
	assert.Equal(t, "2025", (&Track{AlbumReleaseDate: "2025-10-31"}).Year())
	assert.Equal(t, "1999", (&Track{AlbumReleaseDate: "1999"}).Year())
	assert.Equal(t, "", (&Track{AlbumReleaseDate: "99"}).Year())
}

func TestColumns(t *testing.T) {
	assert.Len(t, Columns, 15)
	assert.Equal(t, "track_id", Columns[ColTrackID])
	assert.Equal(t, "track_duration_min", Columns[ColTrackDurationMin])
}
