// package formatter turns a collection and its resolved tracks into CSV, M3U or JSON export payloads
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/rhytm/internal/models"
	"github.com/desertthunder/rhytm/internal/shared"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatM3U  Format = "m3u"
	FormatJSON Format = "json"
)

// Formats lists every supported export format.
var Formats = []Format{FormatCSV, FormatM3U, FormatJSON}

const (
	exportedBy    = "Beatport Curator"
	exportVersion = "1.0"
	isoMillis     = "2006-01-02T15:04:05.000Z"
)

var unsafeFilename = regexp.MustCompile(`[^a-zA-Z0-9]`)

// ParseFormat validates a format token. Matching is exact: "CSV" is rejected.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatCSV, FormatM3U, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", shared.ErrInvalidFormat, s)
}

func (f Format) String() string { return string(f) }

// ContentType returns the MIME type served for downloads of this format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatM3U:
		return "audio/x-mpegurl"
	case FormatJSON:
		return "application/json"
	default:
		return "application/octet-stream"
	}
}

// Extension returns the file extension without the leading dot.
func (f Format) Extension() string {
	return string(f)
}

// Filename derives a download filename from a collection name, e.g. "Peak Time Techno" -> "Peak_Time_Techno.json".
func Filename(name string, f Format) string {
	return unsafeFilename.ReplaceAllString(name, "_") + "." + f.Extension()
}

// ExportToCSV renders tracks with columns: Title, Artists, Genre, BPM, Key, Label, Release Date, Beatport ID, Preview URL
//
// Artists are joined with "; " so the column stays unambiguous when re-imported.
// Quoting follows [csv.Writer]: fields with a leading space or a carriage return are
// quoted too, and every row including the last ends with "\n".
func ExportToCSV(tracks []models.Track) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Title", "Artists", "Genre", "BPM", "Key", "Label", "Release Date", "Beatport ID", "Preview URL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range tracks {
		beatportID := ""
		if track.BeatportID != nil {
			beatportID = strconv.Itoa(*track.BeatportID)
		}
		record := []string{
			track.Title,
			strings.Join(track.Artists, "; "),
			track.Genre,
			strconv.FormatFloat(track.BPM, 'f', -1, 64),
			track.Key,
			track.Label,
			track.ReleaseDate,
			beatportID,
			track.PreviewURL,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToM3U renders an extended M3U playlist. Tracks without a preview URL are skipped.
func ExportToM3U(collection *models.Collection, tracks []models.Track) []byte {
	lines := []string{"#EXTM3U", "#PLAYLIST:" + collection.Name, ""}

	for _, track := range tracks {
		if track.PreviewURL == "" {
			continue
		}
		lines = append(lines,
			fmt.Sprintf("#EXTINF:-1,%s - %s", track.ArtistLine(), track.Title),
			track.PreviewURL,
			"",
		)
	}

	return []byte(strings.Join(lines, "\n"))
}

type jsonCollection struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Tags               []string `json:"tags"`
	UpdatedAt          string   `json:"updatedAt"`
	SyncedAt           string   `json:"syncedAt,omitempty"`
	BeatportPlaylistID string   `json:"beatportPlaylistId,omitempty"`
}

type jsonTrack struct {
	ID          string   `json:"id"`
	BeatportID  *int     `json:"beatportId,omitempty"`
	Title       string   `json:"title"`
	Artists     []string `json:"artists"`
	Genre       string   `json:"genre"`
	BPM         float64  `json:"bpm"`
	Key         string   `json:"key"`
	Label       string   `json:"label,omitempty"`
	ReleaseDate string   `json:"releaseDate,omitempty"`
	PreviewURL  string   `json:"previewUrl,omitempty"`
}

// JSONExport is the document written by [ExportToJSON]. Field order is the key order on the wire.
type JSONExport struct {
	Collection jsonCollection `json:"collection"`
	Tracks     []jsonTrack    `json:"tracks"`
	ExportedAt string         `json:"exportedAt"`
	ExportedBy string         `json:"exportedBy"`
	Version    string         `json:"version"`
}

func isoTime(t time.Time) string {
	return t.UTC().Format(isoMillis)
}

// ExportToJSON renders the collection and its tracks as an indented JSON document stamped with exportedAt.
func ExportToJSON(collection *models.Collection, tracks []models.Track, exportedAt time.Time) ([]byte, error) {
	doc := JSONExport{
		Collection: jsonCollection{
			ID:                 collection.ID,
			Name:               collection.Name,
			Tags:               append([]string{}, collection.Tags...),
			UpdatedAt:          isoTime(collection.UpdatedAt),
			BeatportPlaylistID: collection.BeatportPlaylistID,
		},
		Tracks:     make([]jsonTrack, 0, len(tracks)),
		ExportedAt: isoTime(exportedAt),
		ExportedBy: exportedBy,
		Version:    exportVersion,
	}
	if collection.SyncedAt != nil {
		doc.Collection.SyncedAt = isoTime(*collection.SyncedAt)
	}

	for _, t := range tracks {
		doc.Tracks = append(doc.Tracks, jsonTrack{
			ID:          t.ID,
			BeatportID:  t.BeatportID,
			Title:       t.Title,
			Artists:     append([]string{}, t.Artists...),
			Genre:       t.Genre,
			BPM:         t.BPM,
			Key:         t.Key,
			Label:       t.Label,
			ReleaseDate: t.ReleaseDate,
			PreviewURL:  t.PreviewURL,
		})
	}

	data, err := shared.MarshalJSON(doc, true)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON export: %w", err)
	}
	return data, nil
}

// Export dispatches to the renderer for format.
func Export(format Format, collection *models.Collection, tracks []models.Track, exportedAt time.Time) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportToCSV(tracks)
	case FormatM3U:
		return ExportToM3U(collection, tracks), nil
	case FormatJSON:
		return ExportToJSON(collection, tracks, exportedAt)
	default:
		return nil, fmt.Errorf("%w: %q", shared.ErrInvalidFormat, format)
	}
}

// WriteExport renders the collection into dir using [Filename] and returns the written path.
//
// The directory is created when missing. An existing file with the same name is replaced.
func WriteExport(dir string, format Format, collection *models.Collection, tracks []models.Track, exportedAt time.Time) (string, error) {
	data, err := Export(format, collection, tracks, exportedAt)
	if err != nil {
		return "", err
	}

	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	path := filepath.Join(dir, Filename(collection.Name, format))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s export: %w", format, err)
	}
	return path, nil
}

// ExportRecord is the outcome of exporting one collection during a bulk export.
type ExportRecord struct {
	CollectionID   string
	CollectionName string
	TrackCount     int
	Files          []string
	Err            error
}

type manifestEntry struct {
	CollectionID   string   `json:"collection_id"`
	CollectionName string   `json:"collection_name"`
	TrackCount     int      `json:"track_count"`
	Status         string   `json:"status"`
	Files          []string `json:"files,omitempty"`
	Error          string   `json:"error,omitempty"`
}

type manifest struct {
	Format            Format          `json:"format"`
	ExportedAt        string          `json:"exported_at"`
	TotalCollections  int             `json:"total_collections"`
	SuccessfulExports int             `json:"successful_exports"`
	FailedExports     int             `json:"failed_exports"`
	Collections       []manifestEntry `json:"collections"`
}

// WriteBulkExportManifest summarizes a bulk export as JSON at path.
func WriteBulkExportManifest(records []ExportRecord, format Format, exportedAt time.Time, path string) error {
	m := manifest{
		Format:           format,
		ExportedAt:       isoTime(exportedAt),
		TotalCollections: len(records),
		Collections:      make([]manifestEntry, 0, len(records)),
	}

	for _, r := range records {
		entry := manifestEntry{
			CollectionID:   r.CollectionID,
			CollectionName: r.CollectionName,
			TrackCount:     r.TrackCount,
			Files:          r.Files,
			Status:         "success",
		}
		if r.Err != nil {
			entry.Status = "failed"
			entry.Error = r.Err.Error()
			m.FailedExports++
		} else {
			m.SuccessfulExports++
		}
		m.Collections = append(m.Collections, entry)
	}

	data, err := shared.MarshalJSON(m, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
