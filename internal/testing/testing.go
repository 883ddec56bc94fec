// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/rhytm/internal/models"
	"github.com/desertthunder/rhytm/internal/shared"
)

// MemoryStore is an in-memory test double for [library.Store].
//
// Set a FailX field to make the matching method return that error without side effects.
type MemoryStore struct {
	mu sync.Mutex

	Tracks      map[string]models.Track
	Collections map[string]models.Collection
	Memberships map[string]models.CollectionTrack
	Feedback    []models.FeedbackEvent
	Queue       []models.SyncQueueItem

	FailLoad    error
	FailPut     error // track, collection and membership writes
	FailDelete  error
	FailEnqueue error
	FailList    error
	Calls       int // write calls, failed ones included
}

// NewMemoryStore creates an empty [MemoryStore]
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		Tracks:      map[string]models.Track{},
		Collections: map[string]models.Collection{},
		Memberships: map[string]models.CollectionTrack{},
	}
}

// FailingStore returns a [MemoryStore] whose every write fails with [shared.ErrStorage]
func FailingStore() *MemoryStore {
	s := NewMemoryStore()
	err := fmt.Errorf("%w: disk full", shared.ErrStorage)
	s.FailPut, s.FailDelete, s.FailEnqueue = err, err, err
	return s
}

func membershipKey(collectionID, trackID string) string {
	return collectionID + "/" + trackID
}

func (s *MemoryStore) Load(userID string) (*models.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailLoad != nil {
		return nil, s.FailLoad
	}

	snapshot := &models.Snapshot{}
	for _, t := range s.Tracks {
		t := t.Clone()
		snapshot.Tracks = append(snapshot.Tracks, &t)
	}
	owned := map[string]bool{}
	for _, c := range s.Collections {
		if c.UserID != userID {
			continue
		}
		owned[c.ID] = true
		c := c.Clone()
		snapshot.Collections = append(snapshot.Collections, &c)
	}
	for _, ct := range s.Memberships {
		if !owned[ct.CollectionID] {
			continue
		}
		ct := ct
		snapshot.Memberships = append(snapshot.Memberships, &ct)
	}

	slices.SortFunc(snapshot.Tracks, func(a, b *models.Track) int { return strings.Compare(a.ID, b.ID) })
	slices.SortFunc(snapshot.Collections, func(a, b *models.Collection) int { return strings.Compare(a.ID, b.ID) })
	slices.SortFunc(snapshot.Memberships, func(a, b *models.CollectionTrack) int {
		return strings.Compare(membershipKey(a.CollectionID, a.TrackID), membershipKey(b.CollectionID, b.TrackID))
	})
	return snapshot, nil
}

func (s *MemoryStore) PutTrack(track *models.Track) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++

	if s.FailPut != nil {
		return s.FailPut
	}
	s.Tracks[track.ID] = track.Clone()
	return nil
}

func (s *MemoryStore) DeleteTrackCascade(trackID string, touched ...*models.Collection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++

	if s.FailDelete != nil {
		return s.FailDelete
	}
	for _, c := range touched {
		s.Collections[c.ID] = c.Clone()
	}
	delete(s.Tracks, trackID)
	for k, ct := range s.Memberships {
		if ct.TrackID == trackID {
			delete(s.Memberships, k)
		}
	}
	return nil
}

func (s *MemoryStore) PutCollection(collection *models.Collection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++

	if s.FailPut != nil {
		return s.FailPut
	}
	s.Collections[collection.ID] = collection.Clone()
	return nil
}

func (s *MemoryStore) DeleteCollectionCascade(collectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++

	if s.FailDelete != nil {
		return s.FailDelete
	}
	delete(s.Collections, collectionID)
	for k, ct := range s.Memberships {
		if ct.CollectionID == collectionID {
			delete(s.Memberships, k)
		}
	}
	return nil
}

func (s *MemoryStore) SaveMembership(collection *models.Collection, rows ...models.CollectionTrack) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++

	if s.FailPut != nil {
		return s.FailPut
	}
	for _, ct := range rows {
		s.Memberships[membershipKey(ct.CollectionID, ct.TrackID)] = ct
	}
	s.Collections[collection.ID] = collection.Clone()
	return nil
}

func (s *MemoryStore) RemoveMembership(collection *models.Collection, trackID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++

	if s.FailDelete != nil {
		return s.FailDelete
	}
	delete(s.Memberships, membershipKey(collection.ID, trackID))
	s.Collections[collection.ID] = collection.Clone()
	return nil
}

func (s *MemoryStore) AppendFeedback(event *models.FeedbackEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++

	if s.FailPut != nil {
		return s.FailPut
	}
	event.ID = int64(len(s.Feedback) + 1)
	s.Feedback = append(s.Feedback, *event)
	return nil
}

func (s *MemoryStore) EnqueueSync(item *models.SyncQueueItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++

	if s.FailEnqueue != nil {
		return s.FailEnqueue
	}
	s.Queue = append(s.Queue, *item)
	return nil
}

func (s *MemoryStore) ListSyncQueue() ([]*models.SyncQueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailList != nil {
		return nil, s.FailList
	}
	out := make([]*models.SyncQueueItem, 0, len(s.Queue))
	for i := range s.Queue {
		item := s.Queue[i]
		out = append(out, &item)
	}
	return out, nil
}

func (s *MemoryStore) DequeueSync(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Queue = slices.DeleteFunc(s.Queue, func(item models.SyncQueueItem) bool { return item.ID == id })
	return nil
}

// QueueIDs returns the ids of queued items in order
func (s *MemoryStore) QueueIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.Queue))
	for _, item := range s.Queue {
		ids = append(ids, item.ID)
	}
	return ids
}

// FakeReplayer records replayed items and fails those whose id is in Fail.
type FakeReplayer struct {
	mu       sync.Mutex
	Fail     map[string]bool
	Replayed []models.SyncQueueItem
	Attempts int
}

func (f *FakeReplayer) Replay(ctx context.Context, item models.SyncQueueItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Attempts++
	if f.Fail[item.ID] {
		return fmt.Errorf("%w: remote rejected %s", shared.ErrSyncFailed, item.ID)
	}
	f.Replayed = append(f.Replayed, item)
	return nil
}

// ReplayedIDs returns the ids of successfully replayed items in order
func (f *FakeReplayer) ReplayedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	ids := make([]string, 0, len(f.Replayed))
	for _, item := range f.Replayed {
		ids = append(ids, item.ID)
	}
	return ids
}

// Sequence returns an id generator yielding prefix-1, prefix-2, ...
func Sequence(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

// Clock returns a clock starting at start that advances by step on every call
func Clock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	current := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := current
		current = current.Add(step)
		return now
	}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
