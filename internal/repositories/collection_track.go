package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/rhytm/internal/models"
	"github.com/desertthunder/rhytm/internal/shared"
)

// CollectionTrackRepository persists membership rows keyed by (collection_id, track_id).
type CollectionTrackRepository struct {
	db querier
}

// NewCollectionTrackRepository creates a new CollectionTrackRepository with the given database connection
func NewCollectionTrackRepository(db *sql.DB) *CollectionTrackRepository {
	return &CollectionTrackRepository{db: db}
}

// Put inserts or replaces a membership row
func (r *CollectionTrackRepository) Put(ct *models.CollectionTrack) error {
	if err := ct.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO collection_tracks (collection_id, track_id, position, notes)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(collection_id, track_id) DO UPDATE SET
			position = excluded.position,
			notes = excluded.notes
	`

	if _, err := r.db.Exec(query, ct.CollectionID, ct.TrackID, ct.Position, nullString(ct.Notes)); err != nil {
		return storageErr("upsert collection track", err)
	}
	return nil
}

// Get retrieves one membership row
func (r *CollectionTrackRepository) Get(collectionID, trackID string) (*models.CollectionTrack, error) {
	query := `
		SELECT collection_id, track_id, position, notes
		FROM collection_tracks
		WHERE collection_id = ? AND track_id = ?
	`

	ct, err := scanCollectionTrack(r.db.QueryRow(query, collectionID, trackID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: track %s in collection %s", shared.ErrNotFound, trackID, collectionID)
	}
	return ct, err
}

// GetAll returns every membership row grouped by collection and ordered by position
func (r *CollectionTrackRepository) GetAll() ([]*models.CollectionTrack, error) {
	return r.list(`
		SELECT collection_id, track_id, position, notes
		FROM collection_tracks
		ORDER BY collection_id ASC, position ASC, rowid ASC
	`)
}

// Delete removes one membership row. Removing a missing row is not an error.
func (r *CollectionTrackRepository) Delete(collectionID, trackID string) error {
	query := `DELETE FROM collection_tracks WHERE collection_id = ? AND track_id = ?`
	if _, err := r.db.Exec(query, collectionID, trackID); err != nil {
		return storageErr("delete collection track", err)
	}
	return nil
}

// ListByCollection returns a collection's rows in display order
func (r *CollectionTrackRepository) ListByCollection(collectionID string) ([]*models.CollectionTrack, error) {
	return r.list(`
		SELECT collection_id, track_id, position, notes
		FROM collection_tracks
		WHERE collection_id = ?
		ORDER BY position ASC, rowid ASC
	`, collectionID)
}

// ListByTrack returns every membership of a track
func (r *CollectionTrackRepository) ListByTrack(trackID string) ([]*models.CollectionTrack, error) {
	return r.list(`
		SELECT collection_id, track_id, position, notes
		FROM collection_tracks
		WHERE track_id = ?
		ORDER BY rowid ASC
	`, trackID)
}

// MaxPosition returns the highest position in a collection, or 0 when it is empty
func (r *CollectionTrackRepository) MaxPosition(collectionID string) (int, error) {
	var max int
	err := r.db.QueryRow(`SELECT COALESCE(MAX(position), 0) FROM collection_tracks WHERE collection_id = ?`, collectionID).Scan(&max)
	if err != nil {
		return 0, storageErr("get max position", err)
	}
	return max, nil
}

func (r *CollectionTrackRepository) list(query string, args ...any) ([]*models.CollectionTrack, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, storageErr("query collection tracks", err)
	}
	defer rows.Close()

	out := []*models.CollectionTrack{}
	for rows.Next() {
		ct, err := scanCollectionTrack(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ct)
	}

	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate collection tracks", err)
	}
	return out, nil
}

func scanCollectionTrack(s scanner) (*models.CollectionTrack, error) {
	var (
		ct    models.CollectionTrack
		notes sql.NullString
	)

	err := s.Scan(&ct.CollectionID, &ct.TrackID, &ct.Position, &notes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, storageErr("scan collection track", err)
	}
	ct.Notes = notes.String
	return &ct, nil
}
