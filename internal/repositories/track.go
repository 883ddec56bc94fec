package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/desertthunder/rhytm/internal/models"
	"github.com/desertthunder/rhytm/internal/shared"
)

const trackColumns = `id, beatport_id, title, artists, genre, bpm, musical_key, label, release_date, liked, preview_url, features`

// TrackRepository implements models.Repository[*models.Track] for the library catalog.
type TrackRepository struct {
	db querier
}

var _ models.Repository[*models.Track] = (*TrackRepository)(nil)

// NewTrackRepository creates a new TrackRepository with the given database connection
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

// Put inserts or replaces a track by id. The original created_at survives a replace.
func (r *TrackRepository) Put(track *models.Track) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	artists, err := encodeList(track.Artists)
	if err != nil {
		return fmt.Errorf("failed to encode artists: %w", err)
	}

	var features sql.NullString
	if track.Features != nil {
		b, err := json.Marshal(track.Features)
		if err != nil {
			return fmt.Errorf("failed to encode features: %w", err)
		}
		features = sql.NullString{String: string(b), Valid: true}
	}

	var beatportID sql.NullInt64
	if track.BeatportID != nil {
		beatportID = sql.NullInt64{Int64: int64(*track.BeatportID), Valid: true}
	}

	query := `
		INSERT INTO tracks (id, beatport_id, title, artists, genre, bpm, musical_key, label, release_date, liked, preview_url, features, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			beatport_id = excluded.beatport_id,
			title = excluded.title,
			artists = excluded.artists,
			genre = excluded.genre,
			bpm = excluded.bpm,
			musical_key = excluded.musical_key,
			label = excluded.label,
			release_date = excluded.release_date,
			liked = excluded.liked,
			preview_url = excluded.preview_url,
			features = excluded.features,
			updated_at = excluded.updated_at
	`

	now := shared.Now()
	_, err = r.db.Exec(query,
		track.ID,
		beatportID,
		track.Title,
		artists,
		track.Genre,
		track.BPM,
		track.Key,
		nullString(track.Label),
		nullString(track.ReleaseDate),
		track.Liked,
		nullString(track.PreviewURL),
		features,
		now,
		now,
	)
	if err != nil {
		return storageErr("upsert track", err)
	}
	return nil
}

// Get retrieves a track by ID
func (r *TrackRepository) Get(id string) (*models.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE id = ?`

	track, err := scanTrack(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: track %s", shared.ErrNotFound, id)
	}
	return track, err
}

// GetAll returns every track in insertion order
func (r *TrackRepository) GetAll() ([]*models.Track, error) {
	return r.list(`SELECT ` + trackColumns + ` FROM tracks ORDER BY rowid ASC`)
}

// Delete removes a track. Memberships go with it through the foreign key cascade.
func (r *TrackRepository) Delete(id string) error {
	if _, err := r.db.Exec(`DELETE FROM tracks WHERE id = ?`, id); err != nil {
		return storageErr("delete track", err)
	}
	return nil
}

// ListByGenre uses idx_tracks_genre
func (r *TrackRepository) ListByGenre(genre string) ([]*models.Track, error) {
	return r.list(`SELECT `+trackColumns+` FROM tracks WHERE genre = ? ORDER BY rowid ASC`, genre)
}

// ListByKey uses idx_tracks_key
func (r *TrackRepository) ListByKey(key string) ([]*models.Track, error) {
	return r.list(`SELECT `+trackColumns+` FROM tracks WHERE musical_key = ? ORDER BY rowid ASC`, key)
}

// ListByBPMRange returns tracks with min <= bpm <= max, slowest first
func (r *TrackRepository) ListByBPMRange(min, max float64) ([]*models.Track, error) {
	return r.list(`SELECT `+trackColumns+` FROM tracks WHERE bpm BETWEEN ? AND ? ORDER BY bpm ASC, rowid ASC`, min, max)
}

// ListLiked uses idx_tracks_liked
func (r *TrackRepository) ListLiked() ([]*models.Track, error) {
	return r.list(`SELECT ` + trackColumns + ` FROM tracks WHERE liked = 1 ORDER BY rowid ASC`)
}

func (r *TrackRepository) list(query string, args ...any) ([]*models.Track, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, storageErr("query tracks", err)
	}
	defer rows.Close()

	tracks := []*models.Track{}
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}

	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate tracks", err)
	}
	return tracks, nil
}

// scanner is the Scan method shared by [sql.Row] and [sql.Rows]
type scanner interface {
	Scan(dest ...any) error
}

func scanTrack(s scanner) (*models.Track, error) {
	var (
		track       models.Track
		beatportID  sql.NullInt64
		artists     string
		label       sql.NullString
		releaseDate sql.NullString
		previewURL  sql.NullString
		features    sql.NullString
	)

	err := s.Scan(&track.ID, &beatportID, &track.Title, &artists, &track.Genre, &track.BPM, &track.Key,
		&label, &releaseDate, &track.Liked, &previewURL, &features)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, storageErr("scan track", err)
	}

	if track.Artists, err = decodeList(artists); err != nil {
		return nil, storageErr("decode artists", err)
	}
	if beatportID.Valid {
		id := int(beatportID.Int64)
		track.BeatportID = &id
	}
	if features.Valid {
		var f models.Features
		if err := json.Unmarshal([]byte(features.String), &f); err != nil {
			return nil, storageErr("decode features", err)
		}
		track.Features = &f
	}
	track.Label = label.String
	track.ReleaseDate = releaseDate.String
	track.PreviewURL = previewURL.String

	return &track, nil
}
