package library

import (
	"cmp"
	"context"
	"io"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/rhytm/internal/models"
	"github.com/desertthunder/rhytm/internal/shared"
)

// Store is the durable backend the manager persists to.
type Store interface {
	Load(userID string) (*models.Snapshot, error)
	PutTrack(track *models.Track) error
	DeleteTrackCascade(trackID string, touched ...*models.Collection) error
	PutCollection(collection *models.Collection) error
	DeleteCollectionCascade(collectionID string) error
	SaveMembership(collection *models.Collection, rows ...models.CollectionTrack) error
	RemoveMembership(collection *models.Collection, trackID string) error
	AppendFeedback(event *models.FeedbackEvent) error
	EnqueueSync(item *models.SyncQueueItem) error
	ListSyncQueue() ([]*models.SyncQueueItem, error)
	DequeueSync(id string) error
}

// Replayer applies one queued mutation to a remote system.
type Replayer interface {
	Replay(ctx context.Context, item models.SyncQueueItem) error
}

// Options configures a [Manager]. Only UserID is required in practice; every other field has a default.
type Options struct {
	Store     Store       // nil keeps the library in memory only
	Replayer  Replayer    // nil leaves queued items in place on sync
	Logger    *log.Logger // defaults to a discarding logger
	UserID    string      // defaults to "current-user"
	Clock     func() time.Time
	IDFunc    func() string
	RateLimit float64 // replayed items per second, 0 means unlimited
	Offline   bool    // start in the Offline state
}

// Manager holds the library state.
type Manager struct {
	writeMu sync.Mutex   // serializes mutations, held across apply, persist and revert
	mu      sync.RWMutex // guards the fields below for readers
	syncMu  sync.Mutex   // one drain at a time

	tracks      []models.Track
	collections []models.Collection
	memberships []models.CollectionTrack
	pending     []models.SyncQueueItem // queue used when there is no store
	status      models.SyncStatus

	online atomic.Bool

	store    Store
	replayer Replayer
	logger   *log.Logger
	userID   string
	now      func() time.Time
	newID    func() string
	limiter  *rate.Limiter
}

// New creates a Manager with empty state. Call [Manager.LoadFromStorage] to populate it.
func New(opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}

	m := &Manager{
		store:    opts.Store,
		replayer: opts.Replayer,
		logger:   shared.WithLogger(logger, "component", "library"),
		userID:   cmp.Or(opts.UserID, "current-user"),
		now:      opts.Clock,
		newID:    opts.IDFunc,
		status:   models.SyncStatus{State: models.SyncIdle},
	}

	if m.now == nil {
		m.now = shared.Now
	}
	if m.newID == nil {
		m.newID = shared.GenerateID
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	m.limiter = rate.NewLimiter(limit, 1)
	m.online.Store(!opts.Offline)

	return m
}

// UserID returns the owner of the library
func (m *Manager) UserID() string {
	return m.userID
}

// LoadFromStorage replaces in-memory state with the store's contents.
//
// Without a store the state is left empty and no error is returned.
func (m *Manager) LoadFromStorage() error {
	if m.store == nil {
		m.logger.Debug("no persistent store configured, starting empty")
		return nil
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	snapshot, err := m.store.Load(m.userID)
	if err != nil {
		m.logger.Error("failed to load library", "error", err)
		return err
	}

	tracks := make([]models.Track, 0, len(snapshot.Tracks))
	for _, t := range snapshot.Tracks {
		tracks = append(tracks, *t)
	}
	collections := make([]models.Collection, 0, len(snapshot.Collections))
	for _, c := range snapshot.Collections {
		collections = append(collections, *c)
	}
	memberships := make([]models.CollectionTrack, 0, len(snapshot.Memberships))
	for _, ct := range snapshot.Memberships {
		memberships = append(memberships, *ct)
	}

	m.mu.Lock()
	m.tracks, m.collections, m.memberships = tracks, collections, memberships
	m.mu.Unlock()

	m.logger.Info("library loaded", "tracks", len(tracks), "collections", len(collections), "memberships", len(memberships))
	return nil
}

// Tracks returns a copy of the library in insertion order
func (m *Manager) Tracks() []models.Track {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Track, 0, len(m.tracks))
	for _, t := range m.tracks {
		out = append(out, t.Clone())
	}
	return out
}

// Track looks up a single track
func (m *Manager) Track(id string) (models.Track, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if i := m.trackIndex(id); i >= 0 {
		return m.tracks[i].Clone(), true
	}
	return models.Track{}, false
}

// Collections returns a copy of the user's collections
func (m *Manager) Collections() []models.Collection {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Collection, 0, len(m.collections))
	for _, c := range m.collections {
		out = append(out, c.Clone())
	}
	return out
}

// Collection looks up a single collection
func (m *Manager) Collection(id string) (models.Collection, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if i := m.collectionIndex(id); i >= 0 {
		return m.collections[i].Clone(), true
	}
	return models.Collection{}, false
}

// Memberships returns a collection's membership rows in display order
func (m *Manager) Memberships(collectionID string) []models.CollectionTrack {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.orderedMemberships(collectionID)
}

// GetCollectionTracks resolves a collection's tracks in ascending position.
//
// Rows pointing at tracks that are no longer in the library are skipped.
func (m *Manager) GetCollectionTracks(collectionID string) []models.Track {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows := m.orderedMemberships(collectionID)
	out := make([]models.Track, 0, len(rows))
	for _, ct := range rows {
		if i := m.trackIndex(ct.TrackID); i >= 0 {
			out = append(out, m.tracks[i].Clone())
		}
	}
	return out
}

func (m *Manager) IsTrackInLibrary(trackID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.trackIndex(trackID) >= 0
}

func (m *Manager) IsTrackInCollection(collectionID, trackID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.membershipIndex(collectionID, trackID) >= 0
}

// SyncStatus returns the outcome of the latest drain
func (m *Manager) SyncStatus() models.SyncStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Online reports the connectivity state
func (m *Manager) Online() bool {
	return m.online.Load()
}

// QueueLength returns the number of mutations waiting to be replayed
func (m *Manager) QueueLength() (int, error) {
	if m.store == nil {
		m.mu.RLock()
		defer m.mu.RUnlock()
		return len(m.pending), nil
	}

	items, err := m.store.ListSyncQueue()
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

// orderedMemberships is stable so rows with equal positions keep insertion order. Callers hold mu.
func (m *Manager) orderedMemberships(collectionID string) []models.CollectionTrack {
	rows := []models.CollectionTrack{}
	for _, ct := range m.memberships {
		if ct.CollectionID == collectionID {
			rows = append(rows, ct)
		}
	}
	slices.SortStableFunc(rows, func(a, b models.CollectionTrack) int {
		return cmp.Compare(a.Position, b.Position)
	})
	return rows
}

func (m *Manager) trackIndex(id string) int {
	return slices.IndexFunc(m.tracks, func(t models.Track) bool { return t.ID == id })
}

func (m *Manager) collectionIndex(id string) int {
	return slices.IndexFunc(m.collections, func(c models.Collection) bool { return c.ID == id })
}

func (m *Manager) membershipIndex(collectionID, trackID string) int {
	return slices.IndexFunc(m.memberships, func(ct models.CollectionTrack) bool {
		return ct.CollectionID == collectionID && ct.TrackID == trackID
	})
}
