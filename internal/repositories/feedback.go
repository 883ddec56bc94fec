package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/rhytm/internal/models"
)

// FeedbackRepository appends and queries listening feedback. Rows are never updated.
type FeedbackRepository struct {
	db querier
}

// NewFeedbackRepository creates a new FeedbackRepository with the given database connection
func NewFeedbackRepository(db *sql.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// Put appends an event and sets its auto-incremented ID
func (r *FeedbackRepository) Put(event *models.FeedbackEvent) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `INSERT INTO feedback (user_id, track_id, type, context, ts) VALUES (?, ?, ?, ?, ?)`

	result, err := r.db.Exec(query,
		event.UserID,
		event.TrackID,
		string(event.Type),
		nullString(string(event.Context)),
		event.Timestamp,
	)
	if err != nil {
		return storageErr("insert feedback", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return storageErr("get feedback id", err)
	}
	event.ID = id
	return nil
}

// GetAll returns every event, oldest first
func (r *FeedbackRepository) GetAll() ([]*models.FeedbackEvent, error) {
	return r.list(`SELECT id, user_id, track_id, type, context, ts FROM feedback ORDER BY id ASC`)
}

func (r *FeedbackRepository) ListByUser(userID string) ([]*models.FeedbackEvent, error) {
	return r.list(`SELECT id, user_id, track_id, type, context, ts FROM feedback WHERE user_id = ? ORDER BY id ASC`, userID)
}

func (r *FeedbackRepository) ListByTrack(trackID string) ([]*models.FeedbackEvent, error) {
	return r.list(`SELECT id, user_id, track_id, type, context, ts FROM feedback WHERE track_id = ? ORDER BY id ASC`, trackID)
}

func (r *FeedbackRepository) ListByType(feedbackType models.FeedbackType) ([]*models.FeedbackEvent, error) {
	return r.list(`SELECT id, user_id, track_id, type, context, ts FROM feedback WHERE type = ? ORDER BY id ASC`, string(feedbackType))
}

// ListSince returns events with ts >= since. Timestamps are compared as stored, so callers pass UTC.
func (r *FeedbackRepository) ListSince(since time.Time) ([]*models.FeedbackEvent, error) {
	return r.list(`SELECT id, user_id, track_id, type, context, ts FROM feedback WHERE ts >= ? ORDER BY ts ASC, id ASC`, since)
}

func (r *FeedbackRepository) list(query string, args ...any) ([]*models.FeedbackEvent, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, storageErr("query feedback", err)
	}
	defer rows.Close()

	events := []*models.FeedbackEvent{}
	for rows.Next() {
		var (
			event   models.FeedbackEvent
			kind    string
			context sql.NullString
		)
		if err := rows.Scan(&event.ID, &event.UserID, &event.TrackID, &kind, &context, &event.Timestamp); err != nil {
			return nil, storageErr("scan feedback", err)
		}
		event.Type = models.FeedbackType(kind)
		event.Context = models.FeedbackContext(context.String)
		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate feedback", err)
	}
	return events, nil
}
