package ui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/rhytm/internal/formatter"
	"github.com/desertthunder/rhytm/internal/library"
	"github.com/desertthunder/rhytm/internal/models"
	"github.com/desertthunder/rhytm/internal/tasks"
	tu "github.com/desertthunder/rhytm/internal/testing"
)

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
)

func newTestLibrary(t *testing.T) (*library.Manager, models.Collection) {
	t.Helper()

	m := library.New(library.Options{Store: tu.NewMemoryStore()})
	for _, tr := range []models.Track{
		{ID: "t1", Title: "Opener", Artists: []string{"Vaal"}, Genre: "Techno", BPM: 128, Key: "8A"},
		{ID: "t2", Title: "Roller", Artists: []string{"Tale of Us", "Vaal"}, Genre: "Techno", BPM: 122, Key: "9A"},
		{ID: "t3", Title: "Drift", Artists: []string{"Artbat"}, Genre: "House", BPM: 124, Key: "8B"},
	} {
		if err := m.AddTrackToLibrary(tr); err != nil {
			t.Fatalf("AddTrackToLibrary failed: %v", err)
		}
	}

	c, err := m.CreateCollection("Peak Time", []string{"techno"})
	if err != nil {
		t.Fatalf("CreateCollection failed: %v", err)
	}
	for _, id := range []string{"t1", "t2"} {
		if err := m.AddTrackToCollection(c.ID, id); err != nil {
			t.Fatalf("AddTrackToCollection failed: %v", err)
		}
	}
	return m, c
}

// send feeds msg to the model and runs returned commands until one yields nothing the model handles.
func send(t *testing.T, m *Model, msg tea.Msg) {
	t.Helper()
	_, cmd := m.Update(msg)
	for i := 0; cmd != nil && i < 100; i++ {
		next := cmd()
		if _, ok := next.(Msg); !ok {
			return
		}
		_, cmd = m.Update(next)
	}
}

func trackIDs(m *Model) []string {
	var ids []string
	for _, item := range m.trackList.Items() {
		ids = append(ids, item.(trackItem).track.ID)
	}
	return ids
}

func newTestModel(t *testing.T, exporter Exporter, opts tasks.BulkExportOpts) (*Model, *library.Manager) {
	t.Helper()
	lib, _ := newTestLibrary(t)
	m := NewModel(context.Background(), lib, exporter, opts)
	send(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	send(t, m, m.Init()())
	return m, lib
}

func TestCollectionList(t *testing.T) {
	m, _ := newTestModel(t, nil, tasks.BulkExportOpts{})

	items := m.collectionList.Items()
	if len(items) != 2 {
		t.Fatalf("expected library entry plus 1 collection, got %d", len(items))
	}
	all := items[0].(collectionItem)
	if all.Title() != "All tracks" || all.Description() != "3 tracks" {
		t.Errorf("unexpected library entry %q / %q", all.Title(), all.Description())
	}
	peak := items[1].(collectionItem)
	if peak.Title() != "Peak Time" || peak.Description() != "2 tracks • techno" {
		t.Errorf("unexpected collection entry %q / %q", peak.Title(), peak.Description())
	}

	send(t, m, runes("j"))
	send(t, m, enter)
	if m.view != TrackListView {
		t.Fatalf("expected track list view, got %v", m.view)
	}
	if got := strings.Join(trackIDs(m), ","); got != "t1,t2" {
		t.Errorf("expected collection tracks in position order, got %s", got)
	}

	send(t, m, esc)
	if m.view != CollectionListView {
		t.Errorf("expected collection list after esc, got %v", m.view)
	}
}

func TestTrackListSorting(t *testing.T) {
	m, _ := newTestModel(t, nil, tasks.BulkExportOpts{})
	send(t, m, enter)

	tests := []struct {
		key  string
		want string
		view string
	}{
		{"", "t1,t2,t3", "library order"},
		{"s", "t3,t1,t2", "sorted by title (asc)"},
		{"s", "t3,t2,t1", "sorted by artists (asc)"},
		{"d", "t1,t2,t3", "sorted by artists (desc)"},
		{"s", "t1,t2,t3", "sorted by genre (desc)"},
		{"s", "t1,t3,t2", "sorted by bpm (desc)"},
	}

	for _, tt := range tests {
		if tt.key != "" {
			send(t, m, runes(tt.key))
		}
		if got := strings.Join(trackIDs(m), ","); got != tt.want {
			t.Errorf("after %q: expected %s, got %s", tt.key, tt.want, got)
		}
		if !strings.Contains(m.View(), tt.view) {
			t.Errorf("after %q: view missing %q", tt.key, tt.view)
		}
	}
}

func TestToggleLike(t *testing.T) {
	m, lib := newTestModel(t, nil, tasks.BulkExportOpts{})
	send(t, m, enter)

	send(t, m, runes("l"))
	if tr, _ := lib.Track("t1"); !tr.Liked {
		t.Error("expected t1 liked")
	}
	if item := m.trackList.Items()[0].(trackItem); !item.track.Liked || !strings.Contains(item.Title(), "♥") {
		t.Errorf("list not refreshed after like: %+v", item.track)
	}

	send(t, m, runes("l"))
	if tr, _ := lib.Track("t1"); tr.Liked {
		t.Error("expected t1 unliked after second toggle")
	}
}

func TestAnalysisView(t *testing.T) {
	m, _ := newTestModel(t, nil, tasks.BulkExportOpts{})
	send(t, m, enter)

	send(t, m, runes("a"))
	if m.view != AnalysisView {
		t.Fatalf("expected analysis view, got %v", m.view)
	}
	out := m.View()
	for _, want := range []string{"Mix Analysis", "Good BPM range (122-128 BPM)", "Opener (8A) → Roller (9A)"} {
		if !strings.Contains(out, want) {
			t.Errorf("analysis missing %q:\n%s", want, out)
		}
	}

	send(t, m, esc)
	if m.view != TrackListView {
		t.Errorf("expected track list after esc, got %v", m.view)
	}
}

func TestExport(t *testing.T) {
	t.Run("CollectionExport", func(t *testing.T) {
		lib, c := newTestLibrary(t)
		dir := t.TempDir()
		opts := tasks.BulkExportOpts{Format: formatter.FormatCSV, OutputDir: dir}
		m := NewModel(context.Background(), lib, tasks.NewEngine(lib, nil, nil), opts)
		send(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
		send(t, m, m.Init()())

		send(t, m, runes("j"))
		send(t, m, enter)
		send(t, m, runes("e"))
		if m.view != ConfirmView {
			t.Fatalf("expected confirm view, got %v", m.view)
		}
		if !strings.Contains(m.View(), "Export 'Peak Time' as csv?") {
			t.Errorf("unexpected confirm view:\n%s", m.View())
		}

		send(t, m, runes("y"))
		if m.view != ResultView {
			t.Fatalf("expected result view, got %v", m.view)
		}
		if m.err != nil || m.result == nil || m.result.SuccessfulExports != 1 {
			t.Fatalf("unexpected export outcome %+v, %v", m.result, m.err)
		}
		if !strings.Contains(m.View(), "Export Complete") {
			t.Errorf("unexpected result view:\n%s", m.View())
		}
		tu.AssertFileExists(t, dir+"/"+c.ID+"/Peak_Time.csv")
	})

	t.Run("DisabledForLibrary", func(t *testing.T) {
		lib, _ := newTestLibrary(t)
		m := NewModel(context.Background(), lib, tasks.NewEngine(lib, nil, nil), tasks.BulkExportOpts{})
		send(t, m, m.Init()())
		send(t, m, enter)

		send(t, m, runes("e"))
		if m.view != TrackListView {
			t.Errorf("whole-library view should not export, got %v", m.view)
		}
	})

	t.Run("Cancel", func(t *testing.T) {
		lib, _ := newTestLibrary(t)
		m := NewModel(context.Background(), lib, tasks.NewEngine(lib, nil, nil), tasks.BulkExportOpts{})
		send(t, m, m.Init()())
		send(t, m, runes("j"))
		send(t, m, enter)
		send(t, m, runes("e"))
		send(t, m, runes("n"))
		if m.view != TrackListView {
			t.Errorf("expected track list after cancel, got %v", m.view)
		}
	})
}
