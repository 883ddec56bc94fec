package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/rhytm/internal/models"
)

// SyncQueueRepository is the durable FIFO of mutations awaiting replay.
type SyncQueueRepository struct {
	db querier
}

// NewSyncQueueRepository creates a new SyncQueueRepository with the given database connection
func NewSyncQueueRepository(db *sql.DB) *SyncQueueRepository {
	return &SyncQueueRepository{db: db}
}

// Enqueue appends an item behind everything already queued
func (r *SyncQueueRepository) Enqueue(item *models.SyncQueueItem) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "sync_queue")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	query := `
		INSERT INTO sync_queue (id, sequence, entity_type, action, data, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		item.ID,
		sequence,
		string(item.Type),
		string(item.Action),
		string(item.Data),
		item.Timestamp,
	)
	if err != nil {
		return storageErr("enqueue sync item", err)
	}
	return nil
}

// List returns queued items in the order they were enqueued
func (r *SyncQueueRepository) List() ([]*models.SyncQueueItem, error) {
	rows, err := r.db.Query(`SELECT id, entity_type, action, data, timestamp FROM sync_queue ORDER BY sequence ASC`)
	if err != nil {
		return nil, storageErr("query sync queue", err)
	}
	defer rows.Close()

	items := []*models.SyncQueueItem{}
	for rows.Next() {
		var (
			item   models.SyncQueueItem
			entity string
			action string
			data   string
		)
		if err := rows.Scan(&item.ID, &entity, &action, &data, &item.Timestamp); err != nil {
			return nil, storageErr("scan sync item", err)
		}
		item.Type = models.EntityType(entity)
		item.Action = models.SyncAction(action)
		item.Data = []byte(data)
		items = append(items, &item)
	}

	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate sync queue", err)
	}
	return items, nil
}

// Count returns the number of queued items
func (r *SyncQueueRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM sync_queue`).Scan(&n); err != nil {
		return 0, storageErr("count sync queue", err)
	}
	return n, nil
}

// Dequeue removes one item; removing a missing item is not an error
func (r *SyncQueueRepository) Dequeue(id string) error {
	if _, err := r.db.Exec(`DELETE FROM sync_queue WHERE id = ?`, id); err != nil {
		return storageErr("dequeue sync item", err)
	}
	return nil
}

// Clear empties the queue
func (r *SyncQueueRepository) Clear() error {
	if _, err := r.db.Exec(`DELETE FROM sync_queue`); err != nil {
		return storageErr("clear sync queue", err)
	}
	return nil
}
