package query

import (
	"strings"

	"github.com/desertthunder/rhytm/internal/models"
)

// Criteria narrows a track list. Zero values impose no constraint.
type Criteria struct {
	Genre     string
	Key       string
	BPMMin    *float64
	BPMMax    *float64
	Query     string // case-insensitive substring of title, artists and label
	LikedOnly bool
	EnergyMin *float64 // tracks without features never satisfy an energy bound
	EnergyMax *float64
}

// Empty reports whether c imposes no constraint at all
func (c Criteria) Empty() bool {
	return c.Genre == "" && c.Key == "" && c.BPMMin == nil && c.BPMMax == nil &&
		c.Query == "" && !c.LikedOnly && c.EnergyMin == nil && c.EnergyMax == nil
}

// Match reports whether a track satisfies every criterion present
func (c Criteria) Match(t models.Track) bool {
	if c.Genre != "" && t.Genre != c.Genre {
		return false
	}
	if c.Key != "" && t.Key != c.Key {
		return false
	}
	if c.BPMMin != nil && t.BPM < *c.BPMMin {
		return false
	}
	if c.BPMMax != nil && t.BPM > *c.BPMMax {
		return false
	}
	if c.LikedOnly && !t.Liked {
		return false
	}
	if c.EnergyMin != nil || c.EnergyMax != nil {
		if t.Features == nil {
			return false
		}
		if c.EnergyMin != nil && t.Features.Energy < *c.EnergyMin {
			return false
		}
		if c.EnergyMax != nil && t.Features.Energy > *c.EnergyMax {
			return false
		}
	}
	if c.Query != "" {
		text := t.Title + " " + strings.Join(t.Artists, " ") + " " + t.Label
		if !strings.Contains(strings.ToLower(text), strings.ToLower(c.Query)) {
			return false
		}
	}
	return true
}

// Filter returns the tracks matching c in their original order
func Filter(tracks []models.Track, c Criteria) []models.Track {
	out := make([]models.Track, 0, len(tracks))
	for _, t := range tracks {
		if c.Match(t) {
			out = append(out, t)
		}
	}
	return out
}
