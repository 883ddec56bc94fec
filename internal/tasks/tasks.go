package tasks

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/rhytm/internal/beatport"
	"github.com/desertthunder/rhytm/internal/models"
	"github.com/desertthunder/rhytm/internal/shared"
)

// Library is the slice of [library.Manager] the jobs need.
type Library interface {
	Collections() []models.Collection
	Collection(id string) (models.Collection, bool)
	GetCollectionTracks(collectionID string) []models.Track
	IsTrackInLibrary(trackID string) bool
	AddTrackToLibrary(track models.Track) error
}

// Engine runs jobs against one library.
type Engine struct {
	lib     Library
	catalog beatport.Catalog
	logger  *log.Logger
	now     func() time.Time
}

// NewEngine creates an Engine. A nil catalog resolves Beatport ids with [beatport.Generator].
func NewEngine(lib Library, catalog beatport.Catalog, logger *log.Logger) *Engine {
	if catalog == nil {
		catalog = beatport.Generator{}
	}
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &Engine{
		lib:     lib,
		catalog: catalog,
		logger:  shared.WithLogger(logger, "component", "tasks"),
		now:     shared.Now,
	}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
