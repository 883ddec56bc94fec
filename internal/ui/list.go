package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/rhytm/internal/models"
)

var (
	_ list.Item = collectionItem{}
	_ list.Item = trackItem{}
)

// collectionItem wraps [models.Collection] to implement [list.Item]. A nil collection is the whole library.
type collectionItem struct {
	collection *models.Collection
	trackCount int
}

func (i collectionItem) FilterValue() string { return i.Title() }
func (i collectionItem) Title() string {
	if i.collection == nil {
		return "All tracks"
	}
	return i.collection.Name
}
func (i collectionItem) Description() string {
	desc := fmt.Sprintf("%d tracks", i.trackCount)
	if i.collection != nil && len(i.collection.Tags) > 0 {
		desc = fmt.Sprintf("%s • %s", desc, strings.Join(i.collection.Tags, ", "))
	}
	return desc
}

// trackItem wraps [models.Track] to implement [list.Item].
type trackItem struct {
	track models.Track
}

func (i trackItem) FilterValue() string { return i.track.Title + " " + i.track.ArtistLine() }
func (i trackItem) Title() string {
	if i.track.Liked {
		return styles.liked.Render("♥") + " " + i.track.Title
	}
	return i.track.Title
}
func (i trackItem) Description() string {
	parts := []string{i.track.ArtistLine()}
	if i.track.Genre != "" {
		parts = append(parts, i.track.Genre)
	}
	parts = append(parts, strconv.FormatFloat(i.track.BPM, 'f', -1, 64)+" BPM")
	if i.track.Key != "" {
		parts = append(parts, i.track.Key)
	}
	return strings.Join(parts, " • ")
}
