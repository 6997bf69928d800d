package record

import (
	"fmt"
	"time"
)

// releaseLayouts are tried in order; album dates carry day, month or year precision.
var releaseLayouts = []string{
	"2006-01-02",
	"2006-01",
	"2006",
}

// ReleaseDate parses the album release date.
func (t *Track) ReleaseDate() (time.Time, error) {
	for _, layout := range releaseLayouts {
		if ts, err := time.Parse(layout, t.AlbumReleaseDate); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("parsing release date %q: unsupported format", t.AlbumReleaseDate)
}
