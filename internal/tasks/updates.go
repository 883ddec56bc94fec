package tasks

import (
	"fmt"
	"strconv"

	"github.com/desertthunder/rhytm/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ResolveCollections Phase = iota
	ExportCollection
	ExtractLinks
	FetchTracks
	SaveTracks
	WatchFolder
)

func (p Phase) String() string {
	switch p {
	case ResolveCollections:
		return "resolve_collections"
	case ExportCollection:
		return "export_collection"
	case ExtractLinks:
		return "extract_links"
	case FetchTracks:
		return "fetch_tracks"
	case SaveTracks:
		return "save_tracks"
	case WatchFolder:
		return "watch_folder"
	default:
		return ""
	}
}

func formatBPM(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func resolvingCollectionsUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveCollections,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Resolving %d collection(s)...", total),
	}
}

func exportingCollectionUpdate(step, total int, c *models.Collection) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportCollection,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Exporting: %s...", step, total, c.Name),
		Data:    c,
	}
}

func exportCompletedUpdate(step, total int, name string, trackCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportCollection,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d tracks)", step, total, name, trackCount),
	}
}

func exportFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportCollection,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}

func linksFoundUpdate(urls []string, ids []int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExtractLinks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d Beatport link(s), %d track id(s)", len(urls), len(ids)),
		Data:    ids,
	}
}

func fetchBatchUpdate(batch, batches, size int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTracks,
		Step:    batch,
		Total:   batches,
		Message: fmt.Sprintf("[%d/%d] Fetching %d track(s)...", batch, batches, size),
	}
}

func savedTrackUpdate(step, total int, tr *models.Track) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SaveTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s - %s (%s BPM, %s)", step, total, tr.ArtistLine(), tr.Title, formatBPM(tr.BPM), tr.Key),
		Data:    tr,
	}
}

func skippedTrackUpdate(step, total int, id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SaveTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s already in library", step, total, id),
	}
}

func watchingUpdate(dir string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WatchFolder,
		Message: fmt.Sprintf("Watching %s for Beatport links...", dir),
	}
}

func fileImportedUpdate(name string, result *ImportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WatchFolder,
		Message: fmt.Sprintf("%s: %d imported, %d skipped, %d failed", name, len(result.Imported), len(result.Skipped), len(result.Failed)),
		Data:    result,
	}
}
