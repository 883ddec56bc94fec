// package compat scores how well tracks mix together by Camelot key and tempo.
package compat

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/desertthunder/rhytm/internal/models"
)

// Compatibility labels a harmonically mixable pair.
type Compatibility string

const (
	PerfectMatch Compatibility = "Perfect Match"
	EnergyChange Compatibility = "Energy Change"
	Compatible   Compatibility = "Compatible"
)

// Pair is two tracks that can be mixed harmonically. A precedes B in the input.
type Pair struct {
	A, B          models.Track
	Compatibility Compatibility
}

// KeyAnalysis is the result of [AnalyzeKeys].
type KeyAnalysis struct {
	Pairs    []Pair
	Analysis string
}

// BPMAnalysis is the result of [AnalyzeBPM].
type BPMAnalysis struct {
	Min, Max    float64
	Analysis    string
	Suggestions []string
}

func parseCamelot(key string) (int, byte, bool) {
	if len(key) < 2 {
		return 0, 0, false
	}
	mode := key[len(key)-1]
	if mode != 'A' && mode != 'B' {
		return 0, 0, false
	}
	n, err := strconv.Atoi(key[:len(key)-1])
	if err != nil || n < 1 || n > 12 {
		return 0, 0, false
	}
	return n, mode, true
}

func normalize(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}

func wheel(n int) int {
	return (n+11)%12 + 1
}

// CompatibleKeys returns the keys that mix with key on the Camelot wheel:
// the key itself, its relative major or minor, one step up and one step down.
//
// Unknown keys have no compatible keys.
func CompatibleKeys(key string) []string {
	n, mode, ok := parseCamelot(normalize(key))
	if !ok {
		return nil
	}
	other := byte('B')
	if mode == 'B' {
		other = 'A'
	}
	return []string{
		fmt.Sprintf("%d%c", n, mode),
		fmt.Sprintf("%d%c", n, other),
		fmt.Sprintf("%d%c", wheel(n+1), mode),
		fmt.Sprintf("%d%c", wheel(n-1), mode),
	}
}

// AnalyzeKeys checks every unordered pair of tracks for harmonic compatibility.
func AnalyzeKeys(tracks []models.Track) KeyAnalysis {
	var pairs []Pair
	for i := 0; i < len(tracks); i++ {
		keys := CompatibleKeys(tracks[i].Key)
		for j := i + 1; j < len(tracks); j++ {
			ka, kb := normalize(tracks[i].Key), normalize(tracks[j].Key)
			if !slices.Contains(keys, kb) {
				continue
			}

			kind := Compatible
			if ka == kb {
				kind = PerfectMatch
			} else if ka[len(ka)-1] != kb[len(kb)-1] {
				kind = EnergyChange
			}
			pairs = append(pairs, Pair{A: tracks[i], B: tracks[j], Compatibility: kind})
		}
	}

	analysis := "No harmonically compatible tracks found. Consider using transition techniques or effects."
	if n := len(pairs); n > 0 {
		plural := "s"
		if n == 1 {
			plural = ""
		}
		analysis = fmt.Sprintf("Found %d compatible track pair%s! These tracks can be mixed harmonically.", n, plural)
	}
	return KeyAnalysis{Pairs: pairs, Analysis: analysis}
}

func bpm(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// AnalyzeBPM describes the tempo spread of tracks and suggests how to mix across it.
func AnalyzeBPM(tracks []models.Track) BPMAnalysis {
	if len(tracks) < 2 {
		return BPMAnalysis{
			Analysis:    "Need at least 2 tracks to analyze BPM compatibility.",
			Suggestions: []string{"Add more tracks", "Try different selections"},
		}
	}

	lo, hi := tracks[0].BPM, tracks[0].BPM
	for _, t := range tracks[1:] {
		lo = min(lo, t.BPM)
		hi = max(hi, t.BPM)
	}
	spread := hi - lo
	out := BPMAnalysis{Min: lo, Max: hi}

	switch {
	case spread <= 5:
		out.Analysis = fmt.Sprintf("Excellent BPM compatibility! All tracks are within %s BPM (%s-%s). Perfect for seamless mixing.", bpm(spread), bpm(lo), bpm(hi))
		out.Suggestions = []string{"Mix without pitch adjustment", "Create smooth transitions"}
	case spread <= 15:
		out.Analysis = fmt.Sprintf("Good BPM range (%s-%s BPM). Minor pitch adjustments needed for some transitions.", bpm(lo), bpm(hi))
		out.Suggestions = []string{"Use pitch faders for transitions", "Group by similar BPMs"}
	case spread <= 30:
		out.Analysis = fmt.Sprintf("Wide BPM range (%s-%s BPM). Plan your energy progression carefully.", bpm(lo), bpm(hi))
		out.Suggestions = []string{"Start slow, build energy", "Use halftime/double-time techniques"}
	default:
		out.Analysis = fmt.Sprintf("Very wide BPM range (%s-%s BPM). Consider splitting into separate sets or use creative mixing techniques.", bpm(lo), bpm(hi))
		out.Suggestions = []string{"Create multiple playlists", "Use breakdown sections for transitions"}
	}
	return out
}
