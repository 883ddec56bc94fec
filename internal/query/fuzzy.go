package query

import (
	"cmp"
	"slices"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"github.com/desertthunder/rhytm/internal/models"
	"github.com/desertthunder/rhytm/internal/shared"
)

// DefaultThreshold is the minimum Jaro-Winkler similarity for a fuzzy hit
const DefaultThreshold = 0.85

// Match is a ranked fuzzy search hit
type Match struct {
	Track models.Track `json:"track"`
	Score float64      `json:"score"`
}

// Duplicate pairs two tracks that likely describe the same recording
type Duplicate struct {
	A     models.Track `json:"a"`
	B     models.Track `json:"b"`
	Score float64      `json:"score"`
}

func jaroWinkler() *metrics.JaroWinkler {
	m := metrics.NewJaroWinkler()
	m.CaseSensitive = false
	return m
}

func searchText(t models.Track) string {
	return shared.NormalizeText(strings.Join(t.Artists, " ") + " " + t.Title)
}

// FuzzySearch ranks tracks whose "artists title" or title alone is similar to query.
//
// A threshold <= 0 uses [DefaultThreshold]. Ties keep input order.
func FuzzySearch(tracks []models.Track, query string, threshold float64) []Match {
	query = shared.NormalizeText(query)
	if query == "" {
		return []Match{}
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	metric := jaroWinkler()
	matches := []Match{}
	for _, t := range tracks {
		score := max(
			strutil.Similarity(query, searchText(t), metric),
			strutil.Similarity(query, shared.NormalizeText(t.Title), metric),
		)
		if score >= threshold {
			matches = append(matches, Match{Track: t, Score: score})
		}
	}

	slices.SortStableFunc(matches, func(a, b Match) int { return cmp.Compare(b.Score, a.Score) })
	return matches
}

// FindDuplicates reports pairs of tracks with the same Beatport id or near-identical artists and title.
func FindDuplicates(tracks []models.Track, threshold float64) []Duplicate {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	metric := jaroWinkler()
	texts := make([]string, len(tracks))
	for i, t := range tracks {
		texts[i] = searchText(t)
	}

	dupes := []Duplicate{}
	for i := 0; i < len(tracks); i++ {
		for j := i + 1; j < len(tracks); j++ {
			a, b := tracks[i], tracks[j]
			var score float64
			if a.BeatportID != nil && b.BeatportID != nil && *a.BeatportID == *b.BeatportID {
				score = 1
			} else {
				score = strutil.Similarity(texts[i], texts[j], metric)
			}
			if score >= threshold {
				dupes = append(dupes, Duplicate{A: a, B: b, Score: score})
			}
		}
	}
	return dupes
}
