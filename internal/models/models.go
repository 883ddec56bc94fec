// package models defines the data model for the rhytm library
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/rhytm/internal/shared"
)

// Entity is a persisted value addressed by a single string key.
type Entity interface {
	PrimaryKey() string // PrimaryKey returns the storage key
	Validate() error    // Validate checks if the entity's data is valid and returns an error if not
}

// Repository defines the insert-or-replace CRUD contract for a keyed entity.
type Repository[T Entity] interface {
	Put(entity T) error        // Put inserts or replaces by primary key
	Get(key string) (T, error) // Get returns the entity or an error wrapping [shared.ErrNotFound]
	GetAll() ([]T, error)      // GetAll returns every stored entity
	Delete(key string) error   // Delete removes by primary key; deleting a missing key is not an error
}

// Features is the optional audio-analysis bag attached to a track.
type Features struct {
	Energy  float64   `json:"energy"`
	Valence float64   `json:"valence"`
	Embed   []float64 `json:"embed,omitempty"`
}

// Track is a catalog item. Empty strings mean an absent optional field.
type Track struct {
	ID          string    `json:"id"`
	BeatportID  *int      `json:"beatportId,omitempty"`
	Title       string    `json:"title"`
	Artists     []string  `json:"artists"`
	Genre       string    `json:"genre"`
	BPM         float64   `json:"bpm"`
	Key         string    `json:"key"`
	Label       string    `json:"label,omitempty"`
	ReleaseDate string    `json:"releaseDate,omitempty"`
	Liked       bool      `json:"liked"`
	PreviewURL  string    `json:"previewUrl,omitempty"`
	Features    *Features `json:"features,omitempty"`
}

func (t *Track) PrimaryKey() string { return t.ID }

// Validate requires an id, a title, at least one artist and a positive tempo.
func (t *Track) Validate() error {
	switch {
	case strings.TrimSpace(t.ID) == "":
		return fmt.Errorf("%w: track id is required", shared.ErrValidation)
	case strings.TrimSpace(t.Title) == "":
		return fmt.Errorf("%w: track title is required", shared.ErrValidation)
	case len(t.Artists) == 0:
		return fmt.Errorf("%w: track %s has no artists", shared.ErrValidation, t.ID)
	case t.BPM <= 0:
		return fmt.Errorf("%w: track %s bpm must be positive", shared.ErrValidation, t.ID)
	}
	if t.Features != nil {
		if t.Features.Energy < 0 || t.Features.Energy > 1 || t.Features.Valence < 0 || t.Features.Valence > 1 {
			return fmt.Errorf("%w: track %s features out of range", shared.ErrValidation, t.ID)
		}
	}
	return nil
}

// ArtistLine joins artists for display, e.g. "Tale of Us, Vaal".
func (t *Track) ArtistLine() string {
	return strings.Join(t.Artists, ", ")
}

// Clone returns a deep copy so callers cannot mutate library state through shared slices.
func (t Track) Clone() Track {
	c := t
	c.Artists = append([]string(nil), t.Artists...)
	if t.BeatportID != nil {
		id := *t.BeatportID
		c.BeatportID = &id
	}
	if t.Features != nil {
		f := *t.Features
		f.Embed = append([]float64(nil), t.Features.Embed...)
		c.Features = &f
	}
	return c
}

// Collection is a named, user-curated ordered set of tracks.
type Collection struct {
	ID                 string     `json:"id"`
	UserID             string     `json:"userId"`
	Name               string     `json:"name"`
	Tags               []string   `json:"tags,omitempty"`
	UpdatedAt          time.Time  `json:"updatedAt"`
	SyncedAt           *time.Time `json:"syncedAt,omitempty"`
	BeatportPlaylistID string     `json:"beatportPlaylistId,omitempty"`
}

func (c *Collection) PrimaryKey() string { return c.ID }

// Validate rejects a missing id and a blank name.
func (c *Collection) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("%w: collection id is required", shared.ErrValidation)
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: collection name must not be empty", shared.ErrValidation)
	}
	return nil
}

// Clone returns a deep copy.
func (c Collection) Clone() Collection {
	out := c
	out.Tags = append([]string(nil), c.Tags...)
	if c.SyncedAt != nil {
		t := *c.SyncedAt
		out.SyncedAt = &t
	}
	return out
}

// CollectionTrack associates a collection with a track at a display position.
//
// Identity is the (CollectionID, TrackID) pair.
type CollectionTrack struct {
	CollectionID string `json:"collectionId"`
	TrackID      string `json:"trackId"`
	Position     int    `json:"position"`
	Notes        string `json:"notes,omitempty"`
}

func (ct *CollectionTrack) Validate() error {
	if ct.CollectionID == "" || ct.TrackID == "" {
		return fmt.Errorf("%w: membership requires collection and track ids", shared.ErrValidation)
	}
	return nil
}

// FeedbackType enumerates listening feedback events.
type FeedbackType string

const (
	FeedbackLike            FeedbackType = "like"
	FeedbackSkip            FeedbackType = "skip"
	FeedbackAddToLibrary    FeedbackType = "add_to_library"
	FeedbackAddToCollection FeedbackType = "add_to_collection"
	FeedbackPlay            FeedbackType = "play"
	FeedbackComplete        FeedbackType = "complete"
)

// ParseFeedbackType validates a feedback type name.
func ParseFeedbackType(s string) (FeedbackType, error) {
	switch ft := FeedbackType(s); ft {
	case FeedbackLike, FeedbackSkip, FeedbackAddToLibrary, FeedbackAddToCollection, FeedbackPlay, FeedbackComplete:
		return ft, nil
	}
	return "", fmt.Errorf("%w: unknown feedback type %q", shared.ErrValidation, s)
}

// FeedbackContext tags where feedback happened. Empty means unspecified.
type FeedbackContext string

const (
	ContextDiscover   FeedbackContext = "discover"
	ContextCollection FeedbackContext = "collection"
	ContextSearch     FeedbackContext = "search"
)

// ParseFeedbackContext validates a context name; the empty string is allowed.
func ParseFeedbackContext(s string) (FeedbackContext, error) {
	switch fc := FeedbackContext(s); fc {
	case "", ContextDiscover, ContextCollection, ContextSearch:
		return fc, nil
	}
	return "", fmt.Errorf("%w: unknown feedback context %q", shared.ErrValidation, s)
}

// FeedbackEvent is an immutable telemetry record. ID is assigned by the store.
type FeedbackEvent struct {
	ID        int64           `json:"id,omitempty"`
	UserID    string          `json:"userId"`
	TrackID   string          `json:"trackId"`
	Type      FeedbackType    `json:"type"`
	Context   FeedbackContext `json:"context,omitempty"`
	Timestamp time.Time       `json:"ts"`
}

func (f *FeedbackEvent) Validate() error {
	if f.UserID == "" || f.TrackID == "" {
		return fmt.Errorf("%w: feedback requires user and track ids", shared.ErrValidation)
	}
	if _, err := ParseFeedbackType(string(f.Type)); err != nil {
		return err
	}
	_, err := ParseFeedbackContext(string(f.Context))
	return err
}

// EntityType names the kind of entity a queued mutation touches.
type EntityType string

const (
	EntityTrack           EntityType = "track"
	EntityCollection      EntityType = "collection"
	EntityCollectionTrack EntityType = "collection_track"
	EntityFeedback        EntityType = "feedback"
)

// SyncAction is the kind of queued mutation.
type SyncAction string

const (
	ActionCreate SyncAction = "create"
	ActionUpdate SyncAction = "update"
	ActionDelete SyncAction = "delete"
)

// SyncQueueItem is a pending-write marker awaiting replay against a remote system.
type SyncQueueItem struct {
	ID        string          `json:"id"`
	Type      EntityType      `json:"type"`
	Action    SyncAction      `json:"action"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

func (s *SyncQueueItem) PrimaryKey() string { return s.ID }

func (s *SyncQueueItem) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("%w: sync item id is required", shared.ErrValidation)
	}
	switch s.Type {
	case EntityTrack, EntityCollection, EntityCollectionTrack, EntityFeedback:
	default:
		return fmt.Errorf("%w: unknown sync entity type %q", shared.ErrValidation, s.Type)
	}
	switch s.Action {
	case ActionCreate, ActionUpdate, ActionDelete:
	default:
		return fmt.Errorf("%w: unknown sync action %q", shared.ErrValidation, s.Action)
	}
	if !json.Valid(s.Data) {
		return fmt.Errorf("%w: sync item %s payload is not JSON", shared.ErrValidation, s.ID)
	}
	return nil
}

// NewSyncQueueItem snapshots payload as JSON into a new queue item.
func NewSyncQueueItem(entity EntityType, action SyncAction, payload any, at time.Time) (*SyncQueueItem, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot %s payload: %w", entity, err)
	}
	return &SyncQueueItem{
		ID:        shared.GenerateID(),
		Type:      entity,
		Action:    action,
		Data:      data,
		Timestamp: at,
	}, nil
}

// SyncState is the coarse state of the replay loop.
type SyncState string

const (
	SyncIdle    SyncState = "idle"
	SyncSyncing SyncState = "syncing"
	SyncSuccess SyncState = "success"
	SyncError   SyncState = "error"
)

// SyncStatus reports the most recent replay attempt.
type SyncStatus struct {
	LastSyncAt *time.Time `json:"lastSyncAt,omitempty"`
	State      SyncState  `json:"status"`
	Error      string     `json:"error,omitempty"`
}

// Genres lists the catalog genres offered by the curator.
var Genres = []string{
	"Techno", "House", "Progressive House", "Tech House", "Deep House",
	"Melodic Techno", "Minimal", "Trance", "Progressive Trance", "Psytrance",
	"Drum & Bass", "Dubstep", "Breakbeat", "Electro", "Ambient",
}

// CamelotKeys lists the 24 Camelot wheel positions, minor (A) then major (B).
var CamelotKeys = []string{
	"1A", "2A", "3A", "4A", "5A", "6A", "7A", "8A", "9A", "10A", "11A", "12A",
	"1B", "2B", "3B", "4B", "5B", "6B", "7B", "8B", "9B", "10B", "11B", "12B",
}

// Snapshot is the persisted library of one user as loaded at startup.
type Snapshot struct {
	Tracks      []*Track
	Collections []*Collection
	Memberships []*CollectionTrack
}
