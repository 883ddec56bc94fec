package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/rhytm/internal/shared"
)

func TestTrackValidate(t *testing.T) {
	valid := func() Track {
		return Track{ID: "t1", Title: "Gravity", Artists: []string{"Ben Klock"}, Genre: "Techno", BPM: 130, Key: "8A"}
	}

	tests := []struct {
		name    string
		mutate  func(*Track)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Track) {}},
		{name: "missing id", mutate: func(tr *Track) { tr.ID = "" }, wantErr: true},
		{name: "blank title", mutate: func(tr *Track) { tr.Title = "  " }, wantErr: true},
		{name: "no artists", mutate: func(tr *Track) { tr.Artists = nil }, wantErr: true},
		{name: "zero bpm", mutate: func(tr *Track) { tr.BPM = 0 }, wantErr: true},
		{name: "energy out of range", mutate: func(tr *Track) { tr.Features = &Features{Energy: 1.5} }, wantErr: true},
		{name: "features in range", mutate: func(tr *Track) { tr.Features = &Features{Energy: 0.8, Valence: 0.2} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := valid()
			tt.mutate(&tr)
			err := tr.Validate()
			if tt.wantErr {
				if !errors.Is(err, shared.ErrValidation) {
					t.Errorf("expected ErrValidation, got %v", err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestTrackClone(t *testing.T) {
	id := 42
	orig := Track{
		ID:         "t1",
		BeatportID: &id,
		Artists:    []string{"A", "B"},
		Features:   &Features{Energy: 0.5, Embed: []float64{0.1, 0.2}},
	}

	c := orig.Clone()
	c.Artists[0] = "Z"
	*c.BeatportID = 7
	c.Features.Embed[0] = 9

	if orig.Artists[0] != "A" {
		t.Error("clone shares artists slice")
	}
	if *orig.BeatportID != 42 {
		t.Error("clone shares beatport id")
	}
	if orig.Features.Embed[0] != 0.1 {
		t.Error("clone shares features")
	}
	if orig.ArtistLine() != "A, B" {
		t.Errorf("expected 'A, B', got %q", orig.ArtistLine())
	}
}

func TestCollectionValidate(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		c := Collection{ID: "c1", Name: "Warmup"}
		if err := c.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("BlankName", func(t *testing.T) {
		c := Collection{ID: "c1", Name: "   "}
		if err := c.Validate(); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("CloneCopiesTags", func(t *testing.T) {
		synced := time.Now()
		c := Collection{ID: "c1", Name: "x", Tags: []string{"dark"}, SyncedAt: &synced}
		cp := c.Clone()
		cp.Tags[0] = "light"
		if c.Tags[0] != "dark" {
			t.Error("clone shares tags slice")
		}
		if cp.SyncedAt == c.SyncedAt {
			t.Error("clone shares syncedAt pointer")
		}
	})
}

func TestParseFeedback(t *testing.T) {
	for _, s := range []string{"like", "skip", "add_to_library", "add_to_collection", "play", "complete"} {
		if _, err := ParseFeedbackType(s); err != nil {
			t.Errorf("ParseFeedbackType(%q) unexpected error: %v", s, err)
		}
	}
	if _, err := ParseFeedbackType("dislike"); err == nil {
		t.Error("expected error for unknown feedback type")
	}

	if _, err := ParseFeedbackContext(""); err != nil {
		t.Errorf("empty context should be accepted: %v", err)
	}
	if _, err := ParseFeedbackContext("radio"); err == nil {
		t.Error("expected error for unknown context")
	}

	ev := FeedbackEvent{UserID: "u", TrackID: "t", Type: FeedbackPlay, Context: ContextSearch}
	if err := ev.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewSyncQueueItem(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	item, err := NewSyncQueueItem(EntityCollection, ActionCreate, Collection{ID: "c1", Name: "Peak"}, at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if item.ID == "" {
		t.Error("expected generated id")
	}
	if item.Type != EntityCollection || item.Action != ActionCreate {
		t.Errorf("unexpected type/action: %s/%s", item.Type, item.Action)
	}
	if !item.Timestamp.Equal(at) {
		t.Errorf("expected timestamp %v, got %v", at, item.Timestamp)
	}

	var got Collection
	if err := json.Unmarshal(item.Data, &got); err != nil {
		t.Fatalf("payload is not a collection: %v", err)
	}
	if got.Name != "Peak" {
		t.Errorf("expected name Peak, got %q", got.Name)
	}
	if err := item.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}

	t.Run("BadAction", func(t *testing.T) {
		bad := *item
		bad.Action = "upsert"
		if err := bad.Validate(); err == nil {
			t.Error("expected error for unknown action")
		}
	})

	t.Run("BadEntityType", func(t *testing.T) {
		bad := *item
		bad.Type = "playlist"
		if err := bad.Validate(); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation for unknown entity type, got %v", err)
		}

		bad.Type = ""
		if err := bad.Validate(); err == nil {
			t.Error("expected error for missing entity type")
		}
	})
}

func TestCatalogConstants(t *testing.T) {
	if len(Genres) != 15 {
		t.Errorf("expected 15 genres, got %d", len(Genres))
	}
	if len(CamelotKeys) != 24 {
		t.Errorf("expected 24 keys, got %d", len(CamelotKeys))
	}
}
