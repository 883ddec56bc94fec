package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/rhytm/internal/models"
	"github.com/desertthunder/rhytm/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgCollectionsLoaded MsgKind = iota
	MsgTracksLoaded
	MsgLikeToggled
	MsgProgressUpdate
	MsgExportComplete
)

type collectionsPayload struct {
	items []collectionItem
}

type tracksPayload struct {
	collection *models.Collection
	tracks     []models.Track
}

type likePayload struct {
	trackID string
	err     error
}

type exportPayload struct {
	result *tasks.BulkExportResult
	err    error
}

// collectionsLoadedMsg is the constructor for [MsgCollectionsLoaded]
func collectionsLoadedMsg(items []collectionItem) Msg {
	return Msg{kind: MsgCollectionsLoaded, data: collectionsPayload{items}}
}

// tracksLoadedMsg is the constructor for [MsgTracksLoaded]
func tracksLoadedMsg(collection *models.Collection, tracks []models.Track) Msg {
	return Msg{kind: MsgTracksLoaded, data: tracksPayload{collection, tracks}}
}

// likeToggledMsg is the constructor for [MsgLikeToggled]
func likeToggledMsg(trackID string, err error) Msg {
	return Msg{kind: MsgLikeToggled, data: likePayload{trackID, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// exportCompleteMsg is the constructor for [MsgExportComplete]
func exportCompleteMsg(result *tasks.BulkExportResult, err error) Msg {
	return Msg{kind: MsgExportComplete, data: exportPayload{result, err}}
}
