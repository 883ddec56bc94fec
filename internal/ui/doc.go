// Package ui implements an interactive terminal library browser using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow:
//  1. [CollectionListView] : Browse collections, plus an "All tracks" entry for the whole library
//  2. [TrackListView] : Browse tracks, cycle the sort field and direction, toggle likes
//  3. [AnalysisView] : Harmonic key pairs and BPM spread of the visible tracks
//  4. [ConfirmView] : Confirm a collection export
//  5. [ExportView] : Monitor export progress
//  6. [ResultView] : Written files and manifest
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Export progress flows through a channel from the task engine.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, s/d, l, a, e, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
