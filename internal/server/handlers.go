package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/rhytm/internal/formatter"
	"github.com/desertthunder/rhytm/internal/models"
	"github.com/desertthunder/rhytm/internal/query"
	"github.com/desertthunder/rhytm/internal/shared"
)

// Library is the read side of the library manager served over HTTP.
type Library interface {
	Tracks() []models.Track
	Collections() []models.Collection
	Collection(id string) (models.Collection, bool)
	GetCollectionTracks(collectionID string) []models.Track
	SyncStatus() models.SyncStatus
	Online() bool
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := shared.MarshalJSON(v, false)
	if err != nil {
		http.Error(w, `{"error":"Internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// ExportHandler serves collection downloads as CSV, M3U or JSON attachments.
type ExportHandler struct {
	lib    Library
	logger *log.Logger
	now    func() time.Time
}

// NewExportHandler creates an [ExportHandler]. A nil clock uses [shared.Now].
func NewExportHandler(lib Library, logger *log.Logger, now func() time.Time) *ExportHandler {
	if now == nil {
		now = shared.Now
	}
	return &ExportHandler{lib: lib, logger: logger, now: now}
}

func (h *ExportHandler) Routes() []string {
	return []string{"/api/export/{id}/{format}"}
}

// ServeHTTP looks the collection up before the format, so an unknown collection is a 404
// whatever format was asked for.
func (h *ExportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	collection, ok := h.lib.Collection(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Collection not found")
		return
	}

	format, err := formatter.ParseFormat(r.PathValue("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid format")
		return
	}

	body, err := formatter.Export(format, &collection, h.lib.GetCollectionTracks(id), h.now())
	if err != nil {
		h.logger.Error("export failed", "collection", id, "format", format, "error", err)
		writeError(w, http.StatusInternalServerError, "Export failed")
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, formatter.Filename(collection.Name, format)))
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

type collectionSummary struct {
	models.Collection
	TrackCount int `json:"trackCount"`
}

type collectionTracks struct {
	Collection models.Collection `json:"collection"`
	Tracks     []models.Track    `json:"tracks"`
}

type trackList struct {
	Tracks []models.Track `json:"tracks"`
	Total  int            `json:"total"`
}

type health struct {
	Status string            `json:"status"`
	Online bool              `json:"online"`
	Sync   models.SyncStatus `json:"sync"`
}

// LibraryHandler serves read-only library views and the health check.
type LibraryHandler struct {
	lib Library
}

// NewLibraryHandler creates a [LibraryHandler].
func NewLibraryHandler(lib Library) *LibraryHandler {
	return &LibraryHandler{lib: lib}
}

func (h *LibraryHandler) Routes() []string {
	return []string{"/api/collections", "/api/collections/{id}/tracks", "/api/tracks", "/health"}
}

func (h *LibraryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Pattern {
	case "/api/collections":
		h.collections(w)
	case "/api/collections/{id}/tracks":
		h.collectionTracks(w, r.PathValue("id"))
	case "/api/tracks":
		h.tracks(w, r)
	case "/health":
		writeJSON(w, http.StatusOK, health{Status: "ok", Online: h.lib.Online(), Sync: h.lib.SyncStatus()})
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

func (h *LibraryHandler) collections(w http.ResponseWriter) {
	collections := h.lib.Collections()
	out := make([]collectionSummary, 0, len(collections))
	for _, c := range collections {
		out = append(out, collectionSummary{Collection: c, TrackCount: len(h.lib.GetCollectionTracks(c.ID))})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *LibraryHandler) collectionTracks(w http.ResponseWriter, id string) {
	collection, ok := h.lib.Collection(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Collection not found")
		return
	}
	writeJSON(w, http.StatusOK, collectionTracks{Collection: collection, Tracks: h.lib.GetCollectionTracks(id)})
}

func (h *LibraryHandler) tracks(w http.ResponseWriter, r *http.Request) {
	criteria, spec, err := parseTrackQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tracks := query.Filter(h.lib.Tracks(), criteria)
	if spec != nil {
		tracks = query.Sort(tracks, *spec)
	}
	writeJSON(w, http.StatusOK, trackList{Tracks: tracks, Total: len(tracks)})
}

// parseTrackQuery reads genre, key, bpmMin, bpmMax, q, liked, sort and dir.
// The sort spec is nil when neither sort nor dir is given, which keeps library order.
func parseTrackQuery(r *http.Request) (query.Criteria, *query.SortSpec, error) {
	v := r.URL.Query()
	criteria := query.Criteria{
		Genre: v.Get("genre"),
		Key:   v.Get("key"),
		Query: v.Get("q"),
	}

	bound := func(name string) (*float64, error) {
		s := v.Get(name)
		if s == "" {
			return nil, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be a number", shared.ErrInvalidArgument, name)
		}
		return &f, nil
	}

	var err error
	if criteria.BPMMin, err = bound("bpmMin"); err != nil {
		return criteria, nil, err
	}
	if criteria.BPMMax, err = bound("bpmMax"); err != nil {
		return criteria, nil, err
	}
	if liked := v.Get("liked"); liked != "" {
		if criteria.LikedOnly, err = strconv.ParseBool(liked); err != nil {
			return criteria, nil, fmt.Errorf("%w: liked must be a boolean", shared.ErrInvalidArgument)
		}
	}

	if criteria.BPMMin != nil && criteria.BPMMax != nil && *criteria.BPMMin > *criteria.BPMMax {
		return criteria, nil, fmt.Errorf("%w: bpmMin must not exceed bpmMax", shared.ErrInvalidArgument)
	}

	if v.Get("sort") == "" && v.Get("dir") == "" {
		return criteria, nil, nil
	}
	spec := &query.SortSpec{}
	if s := v.Get("sort"); s != "" {
		if spec.Field, err = query.ParseSortField(s); err != nil {
			return criteria, nil, err
		}
	}
	if spec.Direction, err = query.ParseDirection(v.Get("dir")); err != nil {
		return criteria, nil, err
	}
	return criteria, spec, nil
}
