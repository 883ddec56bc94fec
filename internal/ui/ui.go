package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/rhytm/internal/compat"
	"github.com/desertthunder/rhytm/internal/models"
	"github.com/desertthunder/rhytm/internal/query"
	"github.com/desertthunder/rhytm/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	CollectionListView ViewState = iota
	TrackListView
	AnalysisView
	ConfirmView
	ExportView
	ResultView
)

// Library is the part of the library manager the browser reads and mutates.
type Library interface {
	Tracks() []models.Track
	Collections() []models.Collection
	GetCollectionTracks(collectionID string) []models.Track
	ToggleTrackLike(trackID string) error
}

// Exporter writes collections to disk with progress reporting.
type Exporter interface {
	BulkExport(ctx context.Context, prog chan<- tasks.ProgressUpdate, ids []string, opts tasks.BulkExportOpts) (*tasks.BulkExportResult, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx            context.Context
	view           ViewState
	lib            Library
	exporter       Exporter
	exportOpts     tasks.BulkExportOpts
	width          int
	height         int
	collectionList list.Model
	trackList      list.Model
	listsReady     [2]bool // collectionList, trackList built
	collection     *models.Collection // nil while browsing the whole library
	tracks         []models.Track     // current tracks in library order
	sort           query.SortSpec
	sorted         bool
	progressChan   chan tasks.ProgressUpdate
	progress       tasks.ProgressUpdate
	result         *tasks.BulkExportResult
	status         string
	err            error
	help           help.Model
	keys           keyMap
}

// NewModel creates a new TUI model. A nil exporter disables the export key.
func NewModel(ctx context.Context, lib Library, exporter Exporter, opts tasks.BulkExportOpts) *Model {
	return &Model{
		ctx:        ctx,
		view:       CollectionListView,
		lib:        lib,
		exporter:   exporter,
		exportOpts: opts,
		help:       help.New(),
		keys:       newKeyMap(),
	}
}

// Init loads the collection list.
func (m *Model) Init() tea.Cmd {
	return m.loadCollections()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.listsReady[0] {
			m.collectionList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.listsReady[1] {
			m.trackList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case CollectionListView:
			return m.handleCollectionListKeys(msg)
		case TrackListView:
			return m.handleTrackListKeys(msg)
		case AnalysisView:
			return m.handleAnalysisKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}
		return m, nil

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgCollectionsLoaded:
		payload := msg.data.(collectionsPayload)
		items := make([]list.Item, len(payload.items))
		for i, item := range payload.items {
			items[i] = item
		}
		m.collectionList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.collectionList.Title = "Collections"
		if m.width > 0 {
			m.collectionList.SetSize(m.width-4, m.height-8)
		}
		m.listsReady[0] = true
		return m, nil

	case MsgTracksLoaded:
		payload := msg.data.(tracksPayload)
		m.collection = payload.collection
		m.tracks = payload.tracks
		m.rebuildTrackList(0)
		m.view = TrackListView
		return m, nil

	case MsgLikeToggled:
		payload := msg.data.(likePayload)
		if payload.err != nil {
			m.status = styles.err.Render(fmt.Sprintf("Could not update like: %v", payload.err))
			return m, nil
		}
		m.status = ""
		m.tracks = m.currentTracks()
		m.rebuildTrackList(m.trackList.Index())
		return m, nil

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForProgress()

	case MsgExportComplete:
		payload := msg.data.(exportPayload)
		m.result = payload.result
		m.err = payload.err
		m.progressChan = nil
		m.view = ResultView
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case CollectionListView:
		return m.renderCollectionList()
	case TrackListView:
		return m.renderTrackList()
	case AnalysisView:
		return m.renderAnalysis()
	case ConfirmView:
		return m.renderConfirm()
	case ExportView:
		return m.renderExport()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleCollectionListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !m.listsReady[0] {
		if key.Matches(msg, m.keys.quit) {
			return m, tea.Quit
		}
		return m, nil
	}
	if m.collectionList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.collectionList, cmd = m.collectionList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.collectionList.SelectedItem().(collectionItem); ok {
			return m, m.loadTracks(item.collection)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.collectionList, cmd = m.collectionList.Update(msg)
	return m, cmd
}

func (m *Model) handleTrackListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.trackList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.trackList, cmd = m.trackList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = CollectionListView
		m.status = ""
		return m, m.loadCollections()
	case key.Matches(msg, m.keys.sort):
		if m.sorted {
			m.sort.Field = (m.sort.Field + 1) % (query.SortReleaseDate + 1)
		}
		m.sorted = true
		m.rebuildTrackList(0)
		return m, nil
	case key.Matches(msg, m.keys.dir):
		if m.sort.Direction == query.Ascending {
			m.sort.Direction = query.Descending
		} else {
			m.sort.Direction = query.Ascending
		}
		m.sorted = true
		m.rebuildTrackList(0)
		return m, nil
	case key.Matches(msg, m.keys.like):
		if item, ok := m.trackList.SelectedItem().(trackItem); ok {
			return m, m.toggleLike(item.track.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.analyze):
		m.view = AnalysisView
		return m, nil
	case key.Matches(msg, m.keys.export):
		if m.collection != nil && m.exporter != nil {
			m.view = ConfirmView
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) handleAnalysisKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = TrackListView
	}
	return m, nil
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.quit):
		m.view = TrackListView
		return m, nil
	case key.Matches(msg, m.keys.yes):
		m.view = ExportView
		return m, m.startExport()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.enter):
		m.view = TrackListView
		m.result = nil
		m.err = nil
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case m.view == CollectionListView && m.listsReady[0]:
		m.collectionList, cmd = m.collectionList.Update(msg)
	case m.view == TrackListView && m.listsReady[1]:
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

// visibleTracks applies the active sort to the current tracks.
func (m *Model) visibleTracks() []models.Track {
	if !m.sorted {
		return m.tracks
	}
	return query.Sort(m.tracks, m.sort)
}

func (m *Model) currentTracks() []models.Track {
	if m.collection == nil {
		return m.lib.Tracks()
	}
	return m.lib.GetCollectionTracks(m.collection.ID)
}

func (m *Model) rebuildTrackList(selected int) {
	tracks := m.visibleTracks()
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{track: t}
	}

	m.trackList = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.trackList.Title = "Library"
	if m.collection != nil {
		m.trackList.Title = fmt.Sprintf("Tracks in '%s'", m.collection.Name)
	}
	if m.width > 0 {
		m.trackList.SetSize(m.width-4, m.height-8)
	}
	m.listsReady[1] = true
	if selected > 0 && selected < len(items) {
		m.trackList.Select(selected)
	}
}

func (m *Model) loadCollections() tea.Cmd {
	return func() tea.Msg {
		collections := m.lib.Collections()
		items := make([]collectionItem, 0, len(collections)+1)
		items = append(items, collectionItem{trackCount: len(m.lib.Tracks())})
		for _, c := range collections {
			items = append(items, collectionItem{collection: &c, trackCount: len(m.lib.GetCollectionTracks(c.ID))})
		}
		return collectionsLoadedMsg(items)
	}
}

func (m *Model) loadTracks(collection *models.Collection) tea.Cmd {
	return func() tea.Msg {
		if collection == nil {
			return tracksLoadedMsg(nil, m.lib.Tracks())
		}
		return tracksLoadedMsg(collection, m.lib.GetCollectionTracks(collection.ID))
	}
}

func (m *Model) toggleLike(trackID string) tea.Cmd {
	return func() tea.Msg {
		return likeToggledMsg(trackID, m.lib.ToggleTrackLike(trackID))
	}
}

func (m *Model) startExport() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	progress := m.progressChan
	id := m.collection.ID

	go func() {
		result, err := m.exporter.BulkExport(m.ctx, progress, []string{id}, m.exportOpts)
		m.result = result
		m.err = err
		close(progress)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progress := m.progressChan
	return func() tea.Msg {
		if progress == nil {
			return exportCompleteMsg(m.result, m.err)
		}

		update, ok := <-progress
		if !ok {
			return exportCompleteMsg(m.result, m.err)
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderCollectionList() string {
	if !m.listsReady[0] {
		return "Loading collections..."
	}
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s", m.collectionList.View(), helpView)
}

func (m *Model) renderTrackList() string {
	order := "library order"
	if m.sorted {
		order = fmt.Sprintf("sorted by %s (%s)", m.sort.Field, m.sort.Direction)
	}

	bindings := []key.Binding{m.keys.sort, m.keys.dir, m.keys.like, m.keys.analyze}
	if m.collection != nil && m.exporter != nil {
		bindings = append(bindings, m.keys.export)
	}
	bindings = append(bindings, m.keys.back, m.keys.quit)

	out := fmt.Sprintf("%s\n%s\n\n%s", m.trackList.View(), styles.help.Render(order), m.help.ShortHelpView(bindings))
	if m.status != "" {
		out += "\n" + m.status
	}
	return out
}

func (m *Model) renderAnalysis() string {
	tracks := m.visibleTracks()
	keys := compat.AnalyzeKeys(tracks)
	tempo := compat.AnalyzeBPM(tracks)

	var b strings.Builder
	b.WriteString(styles.title.Render("Mix Analysis"))
	b.WriteString("\n\n")
	b.WriteString(keys.Analysis)
	b.WriteString("\n")
	for _, p := range keys.Pairs {
		label := compatibilityStyle(string(p.Compatibility)).Render(string(p.Compatibility))
		fmt.Fprintf(&b, "\n  %s (%s) → %s (%s)  %s", p.A.Title, p.A.Key, p.B.Title, p.B.Key, label)
	}
	b.WriteString("\n\n")
	b.WriteString(tempo.Analysis)
	for _, s := range tempo.Suggestions {
		fmt.Fprintf(&b, "\n  • %s", s)
	}
	b.WriteString("\n\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit}))
	return b.String()
}

func (m *Model) renderConfirm() string {
	format := m.exportOpts.Format
	if format == "" {
		format = "json"
	}
	title := styles.title.Render(fmt.Sprintf("Export '%s' as %s?", m.collection.Name, format))
	info := fmt.Sprintf("\nTracks: %d\n", len(m.tracks))
	if m.exportOpts.OutputDir != "" {
		info += fmt.Sprintf("Directory: %s\n", m.exportOpts.OutputDir)
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no})
	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderExport() string {
	title := styles.title.Render("Exporting Collection")

	var phase string
	switch m.progress.Phase {
	case tasks.ResolveCollections:
		phase = "Resolving collection..."
	case tasks.ExportCollection:
		phase = fmt.Sprintf("Exporting (%d/%d)", m.progress.Step, m.progress.Total)
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit})
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Export failed: %v", m.err)) + "\n\n" + helpView
	}
	if m.result == nil {
		return styles.err.Render("No result available") + "\n\n" + helpView
	}

	var b strings.Builder
	if m.result.FailedExports == 0 {
		b.WriteString(styles.ok.Render("✓ Export Complete!"))
	} else {
		b.WriteString(styles.warn.Render(fmt.Sprintf("Export finished with %d failure(s)", m.result.FailedExports)))
	}
	b.WriteString("\n")
	for _, r := range m.result.Results {
		if r.Err != nil {
			fmt.Fprintf(&b, "\n  ✗ %s: %v", r.CollectionName, r.Err)
			continue
		}
		for _, f := range r.Files {
			fmt.Fprintf(&b, "\n  %s (%d tracks)", f, r.TrackCount)
		}
	}
	if m.result.ManifestPath != "" {
		fmt.Fprintf(&b, "\n\nManifest: %s", m.result.ManifestPath)
	}
	b.WriteString("\n\n")
	b.WriteString(helpView)
	return b.String()
}
