// Package store persists tracks to a SQLite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"

	_ "modernc.org/sqlite"

	"github.com/ccollicutt/trackstat/pkg/record"
)

const schema = `
CREATE TABLE IF NOT EXISTS tracks (
	track_id           TEXT PRIMARY KEY,
	track_name         TEXT NOT NULL,
	track_number       INTEGER NOT NULL,
	track_popularity   INTEGER NOT NULL,
	explicit           INTEGER NOT NULL,
	artist_name        TEXT NOT NULL,
	artist_popularity  INTEGER NOT NULL,
	artist_followers   INTEGER NOT NULL,
	artist_genres      TEXT NOT NULL,
	album_id           TEXT NOT NULL,
	album_name         TEXT NOT NULL,
	album_release_date TEXT NOT NULL,
	album_total_tracks INTEGER NOT NULL,
	album_type         TEXT NOT NULL,
	track_duration_min REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tracks_artist ON tracks (artist_name);
`

const upsertTrack = `
INSERT INTO tracks (
	track_id, track_name, track_number, track_popularity, explicit,
	artist_name, artist_popularity, artist_followers, artist_genres,
	album_id, album_name, album_release_date, album_total_tracks, album_type,
	track_duration_min
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (track_id) DO UPDATE SET
	track_name = excluded.track_name,
	track_number = excluded.track_number,
	track_popularity = excluded.track_popularity,
	explicit = excluded.explicit,
	artist_name = excluded.artist_name,
	artist_popularity = excluded.artist_popularity,
	artist_followers = excluded.artist_followers,
	artist_genres = excluded.artist_genres,
	album_id = excluded.album_id,
	album_name = excluded.album_name,
	album_release_date = excluded.album_release_date,
	album_total_tracks = excluded.album_total_tracks,
	album_type = excluded.album_type,
	track_duration_min = excluded.track_duration_min`

const topArtists = `
SELECT artist_name, COUNT(*) AS tracks, MAX(artist_followers) AS followers
FROM tracks
GROUP BY artist_name
ORDER BY tracks DESC, artist_name
LIMIT ?`

// Store is a SQLite-backed track table.
type Store struct {
	db *sql.DB
}

// ArtistCount is an artist with the number of stored tracks.
type ArtistCount struct {
	Name      string
	Tracks    int
	Followers uint32
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to database %s: %w", path, err)
	}

	s := New(db)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing connection. The caller applies the schema with Migrate.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the tracks table and its indexes if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}

// SaveTracks upserts every track in one transaction and returns how many
// rows were written. Nothing is written if any insert fails.
func (s *Store) SaveTracks(ctx context.Context, tracks iter.Seq[*record.Track]) (n int, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback())
		}
	}()

	stmt, err := tx.PrepareContext(ctx, upsertTrack)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for t := range tracks {
		if _, err := stmt.ExecContext(ctx,
			t.TrackID, t.TrackName, t.TrackNumber, t.TrackPopularity, t.Explicit,
			t.ArtistName, t.ArtistPopularity, t.ArtistFollowers, t.ArtistGenres,
			t.AlbumID, t.AlbumName, t.AlbumReleaseDate, t.AlbumTotalTracks, t.AlbumType,
			float64(t.TrackDurationMin),
		); err != nil {
			return 0, fmt.Errorf("saving track %s: %w", t.TrackID, err)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing tracks: %w", err)
	}
	return n, nil
}

// CountTracks returns the number of stored tracks.
func (s *Store) CountTracks(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tracks").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting tracks: %w", err)
	}
	return n, nil
}

// TopArtists returns the n artists with the most stored tracks. Ties are
// ordered by name.
func (s *Store) TopArtists(ctx context.Context, n int) ([]ArtistCount, error) {
	rows, err := s.db.QueryContext(ctx, topArtists, n)
	if err != nil {
		return nil, fmt.Errorf("querying top artists: %w", err)
	}
	defer rows.Close()

	var artists []ArtistCount
	for rows.Next() {
		var a ArtistCount
		if err := rows.Scan(&a.Name, &a.Tracks, &a.Followers); err != nil {
			return nil, fmt.Errorf("scanning artist: %w", err)
		}
		artists = append(artists, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading artists: %w", err)
	}
	return artists, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
