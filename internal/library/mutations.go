package library

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/desertthunder/rhytm/internal/models"
	"github.com/desertthunder/rhytm/internal/shared"
)

// mutation is one optimistic state transition. revert must exactly undo apply.
type mutation struct {
	name    string
	apply   func()
	revert  func()
	persist func(Store) error

	entity  models.EntityType
	action  models.SyncAction
	payload any
}

// CollectionPatch lists the collection fields an update may change. Nil fields are left alone.
type CollectionPatch struct {
	Name               *string
	Tags               []string
	SyncedAt           *time.Time
	BeatportPlaylistID *string
}

// commit applies mu to memory, persists it and reverts on failure. Callers hold writeMu.
func (m *Manager) commit(mu mutation) error {
	m.mu.Lock()
	mu.apply()
	m.mu.Unlock()

	if err := m.persist(mu); err != nil {
		m.mu.Lock()
		mu.revert()
		m.mu.Unlock()

		m.logger.Error("mutation rolled back", "op", mu.name, "error", err)
		return err
	}

	m.logger.Debug("mutation committed", "op", mu.name)
	return nil
}

// persist writes the mutation and, while offline, records it for replay.
//
// The queue item is written first so a failed write can be withdrawn.
func (m *Manager) persist(mu mutation) error {
	var item *models.SyncQueueItem
	if !m.online.Load() && mu.entity != "" {
		var err error
		item, err = models.NewSyncQueueItem(mu.entity, mu.action, mu.payload, m.now())
		if err != nil {
			return err
		}
		item.ID = m.newID()

		if m.store == nil {
			m.mu.Lock()
			m.pending = append(m.pending, *item)
			m.mu.Unlock()
			return nil
		}

		if err := m.store.EnqueueSync(item); err != nil {
			return fmt.Errorf("failed to queue %s %s: %w", mu.entity, mu.action, err)
		}
	}

	if m.store == nil || mu.persist == nil {
		return nil
	}

	if err := mu.persist(m.store); err != nil {
		if item != nil {
			if derr := m.store.DequeueSync(item.ID); derr != nil {
				m.logger.Warn("failed to withdraw queued item", "id", item.ID, "error", derr)
			}
		}
		return err
	}
	return nil
}

// AddTrackToLibrary appends a track unless one with the same id exists.
func (m *Manager) AddTrackToLibrary(track models.Track) error {
	if err := track.Validate(); err != nil {
		return err
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	if m.trackIndex(track.ID) >= 0 {
		return nil
	}

	track = track.Clone()
	return m.commit(mutation{
		name:    "add_track",
		apply:   func() { m.tracks = append(m.tracks, track) },
		revert:  func() { m.tracks = m.tracks[:len(m.tracks)-1] },
		persist: func(s Store) error { return s.PutTrack(&track) },
		entity:  models.EntityTrack,
		action:  models.ActionCreate,
		payload: track,
	})
}

// RemoveTrackFromLibrary removes a track and every membership row referencing it in one transition.
func (m *Manager) RemoveTrackFromLibrary(trackID string) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	i := m.trackIndex(trackID)
	if i < 0 {
		return nil
	}

	prevTracks := slices.Clone(m.tracks)
	prevMemberships := slices.Clone(m.memberships)
	prevCollections := slices.Clone(m.collections)

	// Collections that lose a row get a fresh updatedAt.
	now := m.now()
	var touched []*models.Collection
	refreshed := slices.Clone(m.collections)
	for ci := range refreshed {
		if slices.ContainsFunc(m.memberships, func(ct models.CollectionTrack) bool {
			return ct.CollectionID == refreshed[ci].ID && ct.TrackID == trackID
		}) {
			refreshed[ci].UpdatedAt = now
			c := refreshed[ci].Clone()
			touched = append(touched, &c)
		}
	}

	return m.commit(mutation{
		name: "remove_track",
		apply: func() {
			m.tracks = slices.Delete(slices.Clone(m.tracks), i, i+1)
			m.memberships = slices.DeleteFunc(slices.Clone(m.memberships), func(ct models.CollectionTrack) bool {
				return ct.TrackID == trackID
			})
			m.collections = refreshed
		},
		revert: func() {
			m.tracks = prevTracks
			m.memberships = prevMemberships
			m.collections = prevCollections
		},
		persist: func(s Store) error { return s.DeleteTrackCascade(trackID, touched...) },
		entity:  models.EntityTrack,
		action:  models.ActionDelete,
		payload: map[string]string{"id": trackID},
	})
}

// ToggleTrackLike flips the liked flag. Unknown ids are ignored.
func (m *Manager) ToggleTrackLike(trackID string) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	i := m.trackIndex(trackID)
	if i < 0 {
		return nil
	}

	before := m.tracks[i].Liked
	updated := m.tracks[i].Clone()
	updated.Liked = !before

	return m.commit(mutation{
		name:    "toggle_like",
		apply:   func() { m.tracks[i].Liked = !before },
		revert:  func() { m.tracks[i].Liked = before },
		persist: func(s Store) error { return s.PutTrack(&updated) },
		entity:  models.EntityTrack,
		action:  models.ActionUpdate,
		payload: updated,
	})
}

// CreateCollection adds an empty collection owned by the manager's user.
func (m *Manager) CreateCollection(name string, tags []string) (models.Collection, error) {
	if strings.TrimSpace(name) == "" {
		return models.Collection{}, fmt.Errorf("%w: collection name must not be empty", shared.ErrValidation)
	}
	if tags == nil {
		tags = []string{}
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	collection := models.Collection{
		ID:        m.newID(),
		UserID:    m.userID,
		Name:      name,
		Tags:      slices.Clone(tags),
		UpdatedAt: m.now(),
	}

	err := m.commit(mutation{
		name:    "create_collection",
		apply:   func() { m.collections = append(m.collections, collection) },
		revert:  func() { m.collections = m.collections[:len(m.collections)-1] },
		persist: func(s Store) error { return s.PutCollection(&collection) },
		entity:  models.EntityCollection,
		action:  models.ActionCreate,
		payload: collection,
	})
	if err != nil {
		return models.Collection{}, err
	}
	return collection.Clone(), nil
}

// UpdateCollection merges patch into the collection and refreshes UpdatedAt. Unknown ids are ignored.
func (m *Manager) UpdateCollection(id string, patch CollectionPatch) error {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return fmt.Errorf("%w: collection name must not be empty", shared.ErrValidation)
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	i := m.collectionIndex(id)
	if i < 0 {
		return nil
	}

	before := m.collections[i]
	updated := before.Clone()
	if patch.Name != nil {
		updated.Name = *patch.Name
	}
	if patch.Tags != nil {
		updated.Tags = slices.Clone(patch.Tags)
	}
	if patch.SyncedAt != nil {
		t := *patch.SyncedAt
		updated.SyncedAt = &t
	}
	if patch.BeatportPlaylistID != nil {
		updated.BeatportPlaylistID = *patch.BeatportPlaylistID
	}
	updated.UpdatedAt = m.now()

	return m.commit(mutation{
		name:    "update_collection",
		apply:   func() { m.collections[i] = updated },
		revert:  func() { m.collections[i] = before },
		persist: func(s Store) error { return s.PutCollection(&updated) },
		entity:  models.EntityCollection,
		action:  models.ActionUpdate,
		payload: updated,
	})
}

// DeleteCollection removes the collection together with its membership rows.
func (m *Manager) DeleteCollection(id string) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	i := m.collectionIndex(id)
	if i < 0 {
		return nil
	}

	prevCollections := slices.Clone(m.collections)
	prevMemberships := slices.Clone(m.memberships)

	return m.commit(mutation{
		name: "delete_collection",
		apply: func() {
			m.collections = slices.Delete(slices.Clone(m.collections), i, i+1)
			m.memberships = slices.DeleteFunc(slices.Clone(m.memberships), func(ct models.CollectionTrack) bool {
				return ct.CollectionID == id
			})
		},
		revert: func() {
			m.collections = prevCollections
			m.memberships = prevMemberships
		},
		persist: func(s Store) error { return s.DeleteCollectionCascade(id) },
		entity:  models.EntityCollection,
		action:  models.ActionDelete,
		payload: map[string]string{"id": id},
	})
}

// AddTrackToCollection appends a track at max(position)+1. Adding an existing pair is a no-op.
//
// Both the collection and the track must exist.
func (m *Manager) AddTrackToCollection(collectionID, trackID string) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	if m.membershipIndex(collectionID, trackID) >= 0 {
		return nil
	}

	ci := m.collectionIndex(collectionID)
	if ci < 0 {
		return fmt.Errorf("%w: collection %s", shared.ErrNotFound, collectionID)
	}
	if m.trackIndex(trackID) < 0 {
		return fmt.Errorf("%w: track %s", shared.ErrNotFound, trackID)
	}

	position := 0
	for _, ct := range m.memberships {
		if ct.CollectionID == collectionID {
			position = max(position, ct.Position)
		}
	}

	row := models.CollectionTrack{CollectionID: collectionID, TrackID: trackID, Position: position + 1}
	before := m.collections[ci].UpdatedAt
	updated := m.collections[ci].Clone()
	updated.UpdatedAt = m.now()

	return m.commit(mutation{
		name: "add_to_collection",
		apply: func() {
			m.memberships = append(m.memberships, row)
			m.collections[ci].UpdatedAt = updated.UpdatedAt
		},
		revert: func() {
			m.memberships = m.memberships[:len(m.memberships)-1]
			m.collections[ci].UpdatedAt = before
		},
		persist: func(s Store) error { return s.SaveMembership(&updated, row) },
		entity:  models.EntityCollectionTrack,
		action:  models.ActionCreate,
		payload: row,
	})
}

// RemoveTrackFromCollection deletes one membership row.
//
// When the row does not exist nothing changes, UpdatedAt included.
func (m *Manager) RemoveTrackFromCollection(collectionID, trackID string) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	ci := m.collectionIndex(collectionID)
	ri := m.membershipIndex(collectionID, trackID)
	if ci < 0 || ri < 0 {
		return nil
	}

	prevMemberships := slices.Clone(m.memberships)
	row := m.memberships[ri]
	before := m.collections[ci].UpdatedAt
	updated := m.collections[ci].Clone()
	updated.UpdatedAt = m.now()

	return m.commit(mutation{
		name: "remove_from_collection",
		apply: func() {
			m.memberships = slices.Delete(slices.Clone(m.memberships), ri, ri+1)
			m.collections[ci].UpdatedAt = updated.UpdatedAt
		},
		revert: func() {
			m.memberships = prevMemberships
			m.collections[ci].UpdatedAt = before
		},
		persist: func(s Store) error { return s.RemoveMembership(&updated, trackID) },
		entity:  models.EntityCollectionTrack,
		action:  models.ActionDelete,
		payload: row,
	})
}

// ReorderCollectionTracks sets each listed track's position to its index in trackIDs.
//
// Tracks not listed keep their position. Ids not in the collection are ignored.
func (m *Manager) ReorderCollectionTracks(collectionID string, trackIDs []string) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	ci := m.collectionIndex(collectionID)
	if ci < 0 {
		return nil
	}

	type change struct {
		index    int
		from, to int
	}

	changes := []change{}
	rows := []models.CollectionTrack{}
	for i, ct := range m.memberships {
		if ct.CollectionID != collectionID {
			continue
		}
		to := slices.Index(trackIDs, ct.TrackID)
		if to < 0 {
			continue
		}
		changes = append(changes, change{index: i, from: ct.Position, to: to})
		ct.Position = to
		rows = append(rows, ct)
	}

	before := m.collections[ci].UpdatedAt
	updated := m.collections[ci].Clone()
	updated.UpdatedAt = m.now()

	return m.commit(mutation{
		name: "reorder_collection",
		apply: func() {
			for _, c := range changes {
				m.memberships[c.index].Position = c.to
			}
			m.collections[ci].UpdatedAt = updated.UpdatedAt
		},
		revert: func() {
			for _, c := range changes {
				m.memberships[c.index].Position = c.from
			}
			m.collections[ci].UpdatedAt = before
		},
		persist: func(s Store) error { return s.SaveMembership(&updated, rows...) },
		entity:  models.EntityCollectionTrack,
		action:  models.ActionUpdate,
		payload: map[string]any{"collectionId": collectionID, "trackIds": trackIDs},
	})
}

// RecordFeedback appends a listening event for the manager's user. It has no in-memory state.
func (m *Manager) RecordFeedback(trackID string, kind models.FeedbackType, context models.FeedbackContext) (models.FeedbackEvent, error) {
	event := models.FeedbackEvent{
		UserID:    m.userID,
		TrackID:   trackID,
		Type:      kind,
		Context:   context,
		Timestamp: m.now(),
	}
	if err := event.Validate(); err != nil {
		return models.FeedbackEvent{}, err
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	// Feedback ids are local autoincrement keys. The queued copy never carries one.
	queued := event
	queued.ID = 0

	err := m.commit(mutation{
		name:    "record_feedback",
		apply:   func() {},
		revert:  func() {},
		persist: func(s Store) error { return s.AppendFeedback(&event) },
		entity:  models.EntityFeedback,
		action:  models.ActionCreate,
		payload: queued,
	})
	return event, err
}
