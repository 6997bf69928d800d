package output

import (
	"context"
	"io"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/ccollicutt/trackstat/pkg/dataset"
	"github.com/ccollicutt/trackstat/pkg/parser"
	"github.com/ccollicutt/trackstat/pkg/record"
)

func testTracks() []record.Track {
	return []record.Track{
		{
			TrackID:          "0kRqd9BvwE6wH2lg7fG6TO",
			TrackName:        "Hold Me, Thrill Me",
			TrackNumber:      1,
			TrackPopularity:  47,
			Explicit:         true,
			ArtistName:       "Diplo",
			ArtistPopularity: 73,
			ArtistFollowers:  4101357,
			ArtistGenres:     "moombahton",
			AlbumID:          "2b1b0KxJZ4nO4Qx6s5J5JQ",
			AlbumName:        "Hold Me",
			AlbumReleaseDate: "2022-06-10",
			AlbumTotalTracks: 1,
			AlbumType:        "single",
			TrackDurationMin: 2.5,
		},
		{
			TrackID:          "6Hj9jySrnFppAI0sEMCZpJ",
			TrackName:        "Blinding Lights",
			TrackNumber:      9,
			TrackPopularity:  91,
			ArtistName:       "The Weeknd",
			ArtistPopularity: 96,
			ArtistFollowers:  93000000,
			ArtistGenres:     "canadian contemporary r&b, pop",
			AlbumID:          "4yP0hdKOZPNshxUOjY0cZj",
			AlbumName:        "After Hours",
			AlbumReleaseDate: "2020-03-20",
			AlbumTotalTracks: 14,
			AlbumType:        "album",
			TrackDurationMin: 3.33,
		},
	}
}

func createTestReport() *Report {
	ds := dataset.New(testTracks())
	tracks := slices.Collect(ds.All())
	report := NewReport("top track_popularity", ds, tracks, len(tracks))
	report.Metadata.Duration = 1500 * time.Millisecond
	return report
}

func TestNewReport(t *testing.T) {
	report := createTestReport()

	if report.Count != 2 {
		t.Errorf("Count = %d, want 2", report.Count)
	}
	if report.Summary.Matched != 2 {
		t.Errorf("Matched = %d, want 2", report.Summary.Matched)
	}
	if report.Summary.RowsLoaded != 2 {
		t.Errorf("RowsLoaded = %d, want 2", report.Summary.RowsLoaded)
	}
	if report.Metadata.GeneratedAt.IsZero() {
		t.Error("GeneratedAt not set")
	}
	if !report.HasResults() {
		t.Error("HasResults() = false, want true")
	}
	if report.IsCountOnly() {
		t.Error("IsCountOnly() = true, want false")
	}
}

func TestNewReport_CountOnly(t *testing.T) {
	ds := dataset.New(testTracks())
	report := NewReport("count", ds, nil, 0)

	if !report.IsCountOnly() {
		t.Error("IsCountOnly() = false, want true")
	}
	if report.HasResults() {
		t.Error("HasResults() = true, want false")
	}
}

func TestNewReport_Problems(t *testing.T) {
	source := &stubSource{errs: []error{
		&parser.RowError{Source: "tracks.csv", LineNum: 7, Err: record.ErrArityMismatch},
	}}
	ds, err := dataset.Load(context.Background(), source)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	report := NewReport("validate", ds, nil, 0)
	if len(report.Problems) != 1 {
		t.Fatalf("Got %d problems, want 1", len(report.Problems))
	}
	p := report.Problems[0]
	if p.Source != "tracks.csv" || p.Line != 7 {
		t.Errorf("Problem = %+v", p)
	}
	if !strings.Contains(p.Error, "wrong number of fields") {
		t.Errorf("Problem.Error = %q", p.Error)
	}
}

func TestNewFormatter(t *testing.T) {
	for _, name := range Formats {
		f, err := NewFormatter(name, FormatOptions{})
		if err != nil {
			t.Fatalf("NewFormatter(%q) error = %v", name, err)
		}
		if f.Name() != name {
			t.Errorf("Name() = %q, want %q", f.Name(), name)
		}
	}

	if _, err := NewFormatter("xml", FormatOptions{}); err == nil {
		t.Error("NewFormatter(xml) expected error")
	}
}

type stubSource struct {
	errs []error
}

func (s *stubSource) Next(context.Context) (*parser.Row, error) {
	if len(s.errs) == 0 {
		return nil, io.EOF
	}
	err := s.errs[0]
	s.errs = s.errs[1:]
	return nil, err
}

func (s *stubSource) Close() error { return nil }
