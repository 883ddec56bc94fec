package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/rhytm/internal/models"
	"github.com/desertthunder/rhytm/internal/shared"
)

// Store is the application's persistent store: one connection, all repositories.
//
// It is constructed explicitly by the application root with [Open] and released with [Store.Close].
type Store struct {
	db *sql.DB

	Tracks           *TrackRepository
	Collections      *CollectionRepository
	CollectionTracks *CollectionTrackRepository
	Feedback         *FeedbackRepository
	SyncQueue        *SyncQueueRepository
}

// Open connects to the database at path and applies missing migrations.
//
// Opening the same file twice is safe; existing data is never touched.
func Open(path string) (*Store, error) {
	db, err := shared.NewDatabase(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrStorage, err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %w", shared.ErrStorage, err)
	}

	return NewStore(db), nil
}

// NewStore wraps an already migrated connection
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:               db,
		Tracks:           NewTrackRepository(db),
		Collections:      NewCollectionRepository(db),
		CollectionTracks: NewCollectionTrackRepository(db),
		Feedback:         NewFeedbackRepository(db),
		SyncQueue:        NewSyncQueueRepository(db),
	}
}

// DB exposes the underlying connection
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close releases the connection
func (s *Store) Close() error {
	return s.db.Close()
}

// withTx runs fn with repositories bound to a single transaction.
func (s *Store) withTx(fn func(tx *Store) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return storageErr("begin transaction", err)
	}
	defer tx.Rollback()

	bound := &Store{
		db:               s.db,
		Tracks:           &TrackRepository{db: tx},
		Collections:      &CollectionRepository{db: tx},
		CollectionTracks: &CollectionTrackRepository{db: tx},
		Feedback:         &FeedbackRepository{db: tx},
		SyncQueue:        &SyncQueueRepository{db: tx},
	}

	if err := fn(bound); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return storageErr("commit transaction", err)
	}
	return nil
}

// Load reads everything the library manager keeps in memory for one user
func (s *Store) Load(userID string) (*models.Snapshot, error) {
	tracks, err := s.Tracks.GetAll()
	if err != nil {
		return nil, err
	}

	collections, err := s.Collections.ListByUser(userID)
	if err != nil {
		return nil, err
	}

	memberships := []*models.CollectionTrack{}
	for _, c := range collections {
		rows, err := s.CollectionTracks.ListByCollection(c.ID)
		if err != nil {
			return nil, err
		}
		memberships = append(memberships, rows...)
	}

	return &models.Snapshot{Tracks: tracks, Collections: collections, Memberships: memberships}, nil
}

func (s *Store) PutTrack(track *models.Track) error {
	return s.Tracks.Put(track)
}

// DeleteTrackCascade removes a track and every membership row referencing it in one transaction.
// The touched collections, which lost a row, are saved in the same transaction.
func (s *Store) DeleteTrackCascade(trackID string, touched ...*models.Collection) error {
	return s.withTx(func(tx *Store) error {
		if _, err := tx.CollectionTracks.db.Exec(`DELETE FROM collection_tracks WHERE track_id = ?`, trackID); err != nil {
			return storageErr("delete track memberships", err)
		}
		for _, c := range touched {
			if err := tx.Collections.Put(c); err != nil {
				return err
			}
		}
		return tx.Tracks.Delete(trackID)
	})
}

func (s *Store) PutCollection(collection *models.Collection) error {
	return s.Collections.Put(collection)
}

// DeleteCollectionCascade removes a collection and its membership rows in one transaction
func (s *Store) DeleteCollectionCascade(collectionID string) error {
	return s.withTx(func(tx *Store) error {
		return tx.Collections.DeleteCascade(collectionID)
	})
}

// SaveMembership upserts membership rows together with the collection whose
// updated_at they refresh.
func (s *Store) SaveMembership(collection *models.Collection, rows ...models.CollectionTrack) error {
	return s.withTx(func(tx *Store) error {
		for i := range rows {
			if err := tx.CollectionTracks.Put(&rows[i]); err != nil {
				return err
			}
		}
		return tx.Collections.Put(collection)
	})
}

// RemoveMembership deletes one membership row and saves the collection in one transaction
func (s *Store) RemoveMembership(collection *models.Collection, trackID string) error {
	return s.withTx(func(tx *Store) error {
		if err := tx.CollectionTracks.Delete(collection.ID, trackID); err != nil {
			return err
		}
		return tx.Collections.Put(collection)
	})
}

func (s *Store) AppendFeedback(event *models.FeedbackEvent) error {
	return s.Feedback.Put(event)
}

func (s *Store) EnqueueSync(item *models.SyncQueueItem) error {
	return s.SyncQueue.Enqueue(item)
}

func (s *Store) ListSyncQueue() ([]*models.SyncQueueItem, error) {
	return s.SyncQueue.List()
}

func (s *Store) DequeueSync(id string) error {
	return s.SyncQueue.Dequeue(id)
}

func (s *Store) ClearSyncQueue() error {
	return s.SyncQueue.Clear()
}

// ClearAll empties every table but keeps the schema
func (s *Store) ClearAll() error {
	return s.withTx(func(tx *Store) error {
		for _, table := range []string{"collection_tracks", "collections", "tracks", "feedback", "sync_queue"} {
			if _, err := tx.Tracks.db.Exec("DELETE FROM " + table); err != nil {
				return storageErr("clear "+table, err)
			}
		}
		return nil
	})
}
