package query

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/desertthunder/rhytm/internal/models"
	"github.com/desertthunder/rhytm/internal/shared"
)

// SortField names a sortable track attribute
type SortField int

const (
	SortTitle SortField = iota
	SortArtists
	SortGenre
	SortBPM
	SortKey
	SortReleaseDate
)

var sortFieldNames = map[SortField]string{
	SortTitle:       "title",
	SortArtists:     "artists",
	SortGenre:       "genre",
	SortBPM:         "bpm",
	SortKey:         "key",
	SortReleaseDate: "releaseDate",
}

func (f SortField) String() string {
	if name, ok := sortFieldNames[f]; ok {
		return name
	}
	return fmt.Sprintf("SortField(%d)", int(f))
}

// ParseSortField accepts the field names used by the API and CLI, case-insensitively
func ParseSortField(s string) (SortField, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "")
	for field, name := range sortFieldNames {
		if strings.ToLower(name) == normalized {
			return field, nil
		}
	}
	return SortTitle, fmt.Errorf("%w: unknown sort field %q", shared.ErrInvalidArgument, s)
}

// Direction is ascending or descending
type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// ParseDirection accepts asc or desc; empty means ascending
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	}
	return Ascending, fmt.Errorf("%w: unknown sort direction %q", shared.ErrInvalidArgument, s)
}

// SortSpec selects a field and a direction
type SortSpec struct {
	Field     SortField
	Direction Direction
}

// Sort returns a stably sorted copy. String fields compare case-insensitively and artists
// compare by their ", " joined form.
func Sort(tracks []models.Track, spec SortSpec) []models.Track {
	out := slices.Clone(tracks)
	slices.SortStableFunc(out, func(a, b models.Track) int {
		c := compare(a, b, spec.Field)
		if spec.Direction == Descending {
			return -c
		}
		return c
	})
	return out
}

func compare(a, b models.Track, field SortField) int {
	switch field {
	case SortBPM:
		return cmp.Compare(a.BPM, b.BPM)
	case SortArtists:
		return strings.Compare(strings.ToLower(a.ArtistLine()), strings.ToLower(b.ArtistLine()))
	case SortGenre:
		return strings.Compare(strings.ToLower(a.Genre), strings.ToLower(b.Genre))
	case SortKey:
		return strings.Compare(strings.ToLower(a.Key), strings.ToLower(b.Key))
	case SortReleaseDate:
		return strings.Compare(strings.ToLower(a.ReleaseDate), strings.ToLower(b.ReleaseDate))
	default:
		return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	}
}
