package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/rhytm/internal/models"
	"github.com/desertthunder/rhytm/internal/shared"
)

const collectionColumns = `id, user_id, name, tags, updated_at, synced_at, beatport_playlist_id`

// CollectionRepository implements models.Repository[*models.Collection].
type CollectionRepository struct {
	db querier
}

var _ models.Repository[*models.Collection] = (*CollectionRepository)(nil)

// NewCollectionRepository creates a new CollectionRepository with the given database connection
func NewCollectionRepository(db *sql.DB) *CollectionRepository {
	return &CollectionRepository{db: db}
}

// Put inserts or replaces a collection by id
func (r *CollectionRepository) Put(collection *models.Collection) error {
	if err := collection.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	tags, err := encodeList(collection.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	var syncedAt sql.NullTime
	if collection.SyncedAt != nil {
		syncedAt = sql.NullTime{Time: *collection.SyncedAt, Valid: true}
	}

	query := `
		INSERT INTO collections (id, user_id, name, tags, updated_at, synced_at, beatport_playlist_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			name = excluded.name,
			tags = excluded.tags,
			updated_at = excluded.updated_at,
			synced_at = excluded.synced_at,
			beatport_playlist_id = excluded.beatport_playlist_id
	`

	_, err = r.db.Exec(query,
		collection.ID,
		collection.UserID,
		collection.Name,
		tags,
		collection.UpdatedAt,
		syncedAt,
		nullString(collection.BeatportPlaylistID),
	)
	if err != nil {
		return storageErr("upsert collection", err)
	}
	return nil
}

// Get retrieves a collection by ID
func (r *CollectionRepository) Get(id string) (*models.Collection, error) {
	query := `SELECT ` + collectionColumns + ` FROM collections WHERE id = ?`

	collection, err := scanCollection(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: collection %s", shared.ErrNotFound, id)
	}
	return collection, err
}

// GetAll returns every collection in insertion order
func (r *CollectionRepository) GetAll() ([]*models.Collection, error) {
	return r.list(`SELECT ` + collectionColumns + ` FROM collections ORDER BY rowid ASC`)
}

// ListByUser returns a user's collections in creation order
func (r *CollectionRepository) ListByUser(userID string) ([]*models.Collection, error) {
	return r.list(`SELECT `+collectionColumns+` FROM collections WHERE user_id = ? ORDER BY rowid ASC`, userID)
}

// Delete removes only the collection row; the foreign key cascade handles memberships
// when enforcement is on. Use [CollectionRepository.DeleteCascade] to not depend on it.
func (r *CollectionRepository) Delete(id string) error {
	if _, err := r.db.Exec(`DELETE FROM collections WHERE id = ?`, id); err != nil {
		return storageErr("delete collection", err)
	}
	return nil
}

// DeleteCascade removes membership rows and then the collection.
//
// Callers are responsible for running it inside a transaction; [Store.DeleteCollectionCascade] does.
func (r *CollectionRepository) DeleteCascade(id string) error {
	if _, err := r.db.Exec(`DELETE FROM collection_tracks WHERE collection_id = ?`, id); err != nil {
		return storageErr("delete collection memberships", err)
	}
	return r.Delete(id)
}

func (r *CollectionRepository) list(query string, args ...any) ([]*models.Collection, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, storageErr("query collections", err)
	}
	defer rows.Close()

	collections := []*models.Collection{}
	for rows.Next() {
		collection, err := scanCollection(rows)
		if err != nil {
			return nil, err
		}
		collections = append(collections, collection)
	}

	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate collections", err)
	}
	return collections, nil
}

func scanCollection(s scanner) (*models.Collection, error) {
	var (
		collection models.Collection
		tags       string
		syncedAt   sql.NullTime
		playlistID sql.NullString
	)

	err := s.Scan(&collection.ID, &collection.UserID, &collection.Name, &tags, &collection.UpdatedAt, &syncedAt, &playlistID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, storageErr("scan collection", err)
	}

	if collection.Tags, err = decodeList(tags); err != nil {
		return nil, storageErr("decode tags", err)
	}
	if syncedAt.Valid {
		t := syncedAt.Time
		collection.SyncedAt = &t
	}
	collection.BeatportPlaylistID = playlistID.String

	return &collection, nil
}
