package formatter

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/rhytm/internal/library"
	"github.com/desertthunder/rhytm/internal/models"
	"github.com/desertthunder/rhytm/internal/shared"
	tu "github.com/desertthunder/rhytm/internal/testing"
)

var exportedAt = time.Date(2024, 5, 10, 18, 30, 0, 0, time.UTC)

func sampleCollection() *models.Collection {
	return &models.Collection{
		ID:        "c1",
		UserID:    "current-user",
		Name:      "Warm Up / Vol. 1",
		Tags:      []string{"warmup"},
		UpdatedAt: time.Date(2024, 5, 9, 12, 0, 0, 0, time.UTC),
	}
}

func sampleTracks() []models.Track {
	id := 1234567
	return []models.Track{
		{
			ID:          "t1",
			BeatportID:  &id,
			Title:       "Acid Rain",
			Artists:     []string{"Amelie Lens", "Farrago"},
			Genre:       "Techno",
			BPM:         128,
			Key:         "8A",
			Label:       "Lenske",
			ReleaseDate: "2023-01-20",
			PreviewURL:  "https://example.com/preview/t1.mp3",
		},
		{
			ID:         "t2",
			Title:      "Hollow",
			Artists:    []string{"Kölsch"},
			Genre:      "Melodic Techno",
			BPM:        122.5,
			Key:        "7A",
			PreviewURL: "https://example.com/preview/t2.mp3",
		},
		{
			ID:      "t3",
			Title:   "Untitled",
			Artists: []string{"Unknown"},
			Genre:   "Minimal",
			BPM:     124,
			Key:     "5B",
		},
	}
}

func TestFormat(t *testing.T) {
	t.Run("ParseFormat", func(t *testing.T) {
		for _, f := range Formats {
			got, err := ParseFormat(f.String())
			if err != nil {
				t.Errorf("ParseFormat(%q) failed: %v", f, err)
			}
			if got != f {
				t.Errorf("expected %s, got %s", f, got)
			}
		}

		for _, bad := range []string{"", "xml", "CSV", "m3u8"} {
			if _, err := ParseFormat(bad); !errors.Is(err, shared.ErrInvalidFormat) {
				t.Errorf("ParseFormat(%q): expected ErrInvalidFormat, got %v", bad, err)
			}
		}
	})

	t.Run("ContentType", func(t *testing.T) {
		tests := []struct {
			format Format
			want   string
		}{
			{FormatCSV, "text/csv"},
			{FormatM3U, "audio/x-mpegurl"},
			{FormatJSON, "application/json"},
		}
		for _, tt := range tests {
			if got := tt.format.ContentType(); got != tt.want {
				t.Errorf("%s: expected %s, got %s", tt.format, tt.want, got)
			}
		}
	})

	t.Run("Filename", func(t *testing.T) {
		tests := []struct {
			name   string
			format Format
			want   string
		}{
			{"Peak Time Techno", FormatJSON, "Peak_Time_Techno.json"},
			{"Warm Up / Vol. 1", FormatCSV, "Warm_Up___Vol__1.csv"},
			{"Sunrise", FormatM3U, "Sunrise.m3u"},
			{"", FormatCSV, ".csv"},
		}
		for _, tt := range tests {
			if got := Filename(tt.name, tt.format); got != tt.want {
				t.Errorf("Filename(%q): expected %s, got %s", tt.name, tt.want, got)
			}
		}
	})
}

func TestExportToCSV(t *testing.T) {
	t.Run("HeaderAndRows", func(t *testing.T) {
		data, err := ExportToCSV(sampleTracks())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		if err != nil {
			t.Fatalf("failed to parse CSV: %v", err)
		}
		if len(records) != 4 {
			t.Fatalf("expected header and 3 rows, got %d records", len(records))
		}

		header := strings.Join(records[0], ",")
		if header != "Title,Artists,Genre,BPM,Key,Label,Release Date,Beatport ID,Preview URL" {
			t.Errorf("unexpected header: %s", header)
		}

		first := records[1]
		if first[1] != "Amelie Lens; Farrago" {
			t.Errorf("expected artists joined with '; ', got %q", first[1])
		}
		if first[3] != "128" {
			t.Errorf("expected bpm 128, got %q", first[3])
		}
		if first[7] != "1234567" {
			t.Errorf("expected beatport id, got %q", first[7])
		}
		if records[2][3] != "122.5" {
			t.Errorf("expected bpm 122.5, got %q", records[2][3])
		}

		third := records[3]
		for _, col := range []int{5, 6, 7, 8} {
			if third[col] != "" {
				t.Errorf("column %d: expected empty optional field, got %q", col, third[col])
			}
		}
	})

	t.Run("Escaping", func(t *testing.T) {
		tracks := []models.Track{{ID: "t1", Title: `Song, "One"`, Artists: []string{"A"}, BPM: 120, Key: "1A"}}

		data, err := ExportToCSV(tracks)
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		if !strings.Contains(string(data), `"Song, ""One"""`) {
			t.Errorf("expected quoted title field, got:\n%s", data)
		}

		records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		if err != nil {
			t.Fatalf("failed to parse CSV: %v", err)
		}
		if records[1][0] != `Song, "One"` {
			t.Errorf("round trip mismatch: got %q", records[1][0])
		}
	})

	t.Run("WriterQuoting", func(t *testing.T) {
		tracks := []models.Track{{ID: "t1", Title: " Intro", Artists: []string{"A"}, BPM: 124.5, Key: "8A", Label: "L\r"}}

		data, err := ExportToCSV(tracks)
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		out := string(data)
		if !strings.HasSuffix(out, "\n") {
			t.Errorf("expected newline-terminated last row, got %q", out)
		}
		lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
		if len(lines) != 2 {
			t.Fatalf("expected header and one row, got %d lines", len(lines))
		}
		if !strings.HasPrefix(lines[1], `" Intro",A,`) {
			t.Errorf("expected leading-space title quoted, got %q", lines[1])
		}
		if !strings.Contains(lines[1], "\"L\r\"") {
			t.Errorf("expected carriage return field quoted, got %q", lines[1])
		}
	})

	t.Run("Empty", func(t *testing.T) {
		data, err := ExportToCSV(nil)
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}
		if strings.Count(string(data), "\n") != 1 {
			t.Errorf("expected header only, got:\n%s", data)
		}
	})
}

func TestExportToM3U(t *testing.T) {
	t.Run("SkipsTracksWithoutPreview", func(t *testing.T) {
		out := string(ExportToM3U(sampleCollection(), sampleTracks()))

		if got := strings.Count(out, "#EXTINF"); got != 2 {
			t.Errorf("expected 2 EXTINF blocks, got %d:\n%s", got, out)
		}
		if strings.Contains(out, "Untitled") {
			t.Error("track without preview url should be skipped")
		}
	})

	t.Run("Layout", func(t *testing.T) {
		out := string(ExportToM3U(sampleCollection(), sampleTracks()[:1]))
		want := strings.Join([]string{
			"#EXTM3U",
			"#PLAYLIST:Warm Up / Vol. 1",
			"",
			"#EXTINF:-1,Amelie Lens, Farrago - Acid Rain",
			"https://example.com/preview/t1.mp3",
			"",
		}, "\n")
		if out != want {
			t.Errorf("unexpected playlist:\n%q\nwant:\n%q", out, want)
		}
	})
}

func TestExportToJSON(t *testing.T) {
	t.Run("Document", func(t *testing.T) {
		c := sampleCollection()
		synced := time.Date(2024, 5, 9, 13, 0, 0, 0, time.UTC)
		c.SyncedAt = &synced

		data, err := ExportToJSON(c, sampleTracks(), exportedAt)
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		var doc map[string]any
		if err := json.Unmarshal(data, &doc); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if doc["exportedBy"] != "Beatport Curator" {
			t.Errorf("unexpected exportedBy: %v", doc["exportedBy"])
		}
		if doc["version"] != "1.0" {
			t.Errorf("unexpected version: %v", doc["version"])
		}
		if doc["exportedAt"] != "2024-05-10T18:30:00.000Z" {
			t.Errorf("unexpected exportedAt: %v", doc["exportedAt"])
		}

		collection := doc["collection"].(map[string]any)
		if collection["syncedAt"] != "2024-05-09T13:00:00.000Z" {
			t.Errorf("unexpected syncedAt: %v", collection["syncedAt"])
		}
		if _, ok := collection["beatportPlaylistId"]; ok {
			t.Error("empty beatportPlaylistId should be omitted")
		}

		tracks := doc["tracks"].([]any)
		if len(tracks) != 3 {
			t.Fatalf("expected 3 tracks, got %d", len(tracks))
		}
		if _, ok := tracks[2].(map[string]any)["previewUrl"]; ok {
			t.Error("empty previewUrl should be omitted")
		}
	})

	t.Run("KeyOrder", func(t *testing.T) {
		data, err := ExportToJSON(sampleCollection(), nil, exportedAt)
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		out := string(data)
		keys := []string{`"collection"`, `"tracks"`, `"exportedAt"`, `"exportedBy"`, `"version"`}
		last := -1
		for _, k := range keys {
			i := strings.Index(out, k)
			if i <= last {
				t.Errorf("key %s out of order", k)
			}
			last = i
		}
		if !strings.Contains(out, "\n  \"collection\"") {
			t.Error("expected two-space indentation")
		}
		if !strings.Contains(out, `"tracks": []`) {
			t.Errorf("expected empty track array, got:\n%s", out)
		}
	})

	t.Run("PeakTimeTechno", func(t *testing.T) {
		m := library.New(library.Options{
			Store: tu.NewMemoryStore(),
			Clock: tu.Clock(exportedAt.Add(-time.Hour), time.Second),
		})

		c, err := m.CreateCollection("Peak Time Techno", []string{"techno", "peak-time"})
		if err != nil {
			t.Fatalf("CreateCollection failed: %v", err)
		}
		for _, tr := range []models.Track{
			{ID: "t1", Title: "Drive", Artists: []string{"A"}, Genre: "Techno", BPM: 128, Key: "8A"},
			{ID: "t2", Title: "Pulse", Artists: []string{"B"}, Genre: "Techno", BPM: 124, Key: "7A"},
		} {
			if err := m.AddTrackToLibrary(tr); err != nil {
				t.Fatalf("AddTrackToLibrary failed: %v", err)
			}
			if err := m.AddTrackToCollection(c.ID, tr.ID); err != nil {
				t.Fatalf("AddTrackToCollection failed: %v", err)
			}
		}

		current, _ := m.Collection(c.ID)
		data, err := Export(FormatJSON, &current, m.GetCollectionTracks(c.ID), exportedAt)
		if err != nil {
			t.Fatalf("Export failed: %v", err)
		}

		var doc JSONExport
		if err := json.Unmarshal(data, &doc); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if doc.Collection.Name != "Peak Time Techno" {
			t.Errorf("expected collection name Peak Time Techno, got %s", doc.Collection.Name)
		}
		if strings.Join(doc.Collection.Tags, ",") != "techno,peak-time" {
			t.Errorf("unexpected tags: %v", doc.Collection.Tags)
		}
		if len(doc.Tracks) != 2 {
			t.Fatalf("expected 2 tracks, got %d", len(doc.Tracks))
		}
		if doc.Tracks[0].ID != "t1" || doc.Tracks[1].ID != "t2" {
			t.Errorf("expected insertion order t1,t2, got %s,%s", doc.Tracks[0].ID, doc.Tracks[1].ID)
		}
	})
}

func TestExport(t *testing.T) {
	t.Run("InvalidFormat", func(t *testing.T) {
		if _, err := Export(Format("xml"), sampleCollection(), nil, exportedAt); !errors.Is(err, shared.ErrInvalidFormat) {
			t.Errorf("expected ErrInvalidFormat, got %v", err)
		}
	})

	t.Run("WriteExport", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "exports")

		for _, f := range Formats {
			path, err := WriteExport(dir, f, sampleCollection(), sampleTracks(), exportedAt)
			if err != nil {
				t.Fatalf("WriteExport(%s) failed: %v", f, err)
			}
			if filepath.Base(path) != Filename("Warm Up / Vol. 1", f) {
				t.Errorf("unexpected path %s", path)
			}
			tu.AssertFileExists(t, path)
		}

		content := tu.MustReadFile(t, filepath.Join(dir, "Warm_Up___Vol__1.m3u"))
		if !strings.HasPrefix(content, "#EXTM3U") {
			t.Errorf("unexpected m3u content: %s", content)
		}
	})

	t.Run("WriteBulkExportManifest", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "export_manifest.json")
		records := []ExportRecord{
			{CollectionID: "c1", CollectionName: "Warm Up", TrackCount: 3, Files: []string{"Warm_Up.csv"}},
			{CollectionID: "c2", CollectionName: "Closing", Err: errors.New("disk full")},
		}

		if err := WriteBulkExportManifest(records, FormatCSV, exportedAt, path); err != nil {
			t.Fatalf("WriteBulkExportManifest failed: %v", err)
		}

		content := tu.MustReadFile(t, path)
		for _, want := range []string{
			`"format": "csv"`,
			`"total_collections": 2`,
			`"successful_exports": 1`,
			`"failed_exports": 1`,
			`"status": "success"`,
			`"status": "failed"`,
			`"error": "disk full"`,
		} {
			if !strings.Contains(content, want) {
				t.Errorf("manifest missing %s:\n%s", want, content)
			}
		}
	})
}
