// package beatport extracts Beatport track links from free text and resolves track ids into catalog tracks.
//
// There is no network client: [Generator] derives a deterministic track from the numeric id so
// that importing the same link twice yields the same track.
package beatport

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/desertthunder/rhytm/internal/models"
	"github.com/desertthunder/rhytm/internal/shared"
)

var (
	trackURL  = regexp.MustCompile(`(?:https?://)?(?:www\.)?beatport\.com/track/[^/\s]+/(\d+)`)
	trackPath = regexp.MustCompile(`/track/[^/]+/(\d+)`)
)

// Catalog resolves a Beatport track id into a track.
type Catalog interface {
	Lookup(ctx context.Context, beatportID int) (models.Track, error)
}

// ExtractURLs returns every Beatport track link in text, deduplicated in first-seen order.
//
// Links are accepted with or without scheme and "www.", e.g. "beatport.com/track/acid-rain/123456".
func ExtractURLs(text string) []string {
	seen := map[string]bool{}
	var urls []string
	for _, u := range trackURL.FindAllString(text, -1) {
		if seen[u] {
			continue
		}
		seen[u] = true
		urls = append(urls, u)
	}
	return urls
}

// ExtractTrackIDs parses the numeric id out of each url. Unparseable urls are skipped and
// repeated ids are reported once.
func ExtractTrackIDs(urls []string) []int {
	seen := map[int]bool{}
	var ids []int
	for _, u := range urls {
		m := trackPath.FindStringSubmatch(u)
		if m == nil {
			continue
		}
		id, err := strconv.Atoi(m[1])
		if err != nil || id <= 0 || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// TrackID is the library id used for an imported Beatport track.
func TrackID(beatportID int) string {
	return fmt.Sprintf("beatport-%d", beatportID)
}

var (
	sampleArtists = [][]string{
		{"Amelie Lens"}, {"Charlotte de Witte"}, {"Tale of Us", "Vaal"},
		{"Boris Brejcha"}, {"Maceo Plex"}, {"Adam Beyer"}, {"Carl Cox"},
		{"Nina Kraviz"}, {"Richie Hawtin"}, {"Solomun"}, {"Dixon"},
		{"Ben Böhmer"}, {"Artbat"}, {"Stephan Bodzin"}, {"Deadmau5"},
		{"Massano"}, {"Fideles"}, {"Kiasmos"}, {"Recondite"},
	}
	sampleTitles = []string{
		"Midnight Express", "Dark Energy", "Lost in Translation", "Cosmic Journey",
		"Underground Vibes", "Electric Dreams", "Neon Nights", "Digital Love",
		"Acid Rain", "Synthetic Soul", "Binary Sunset", "Quantum Leap",
		"Infinite Loop", "Bass Revolution", "Frequency Shift", "Time Warp",
		"Solar Flare", "Deep Waters", "Ethereal", "Urban Pulse",
	}
	sampleGenres = []string{
		"Techno", "House", "Melodic Techno", "Progressive House",
		"Deep House", "Tech House", "Minimal Techno", "Trance",
		"Minimal", "Ambient", "Electronica",
	}
	sampleLabels = []string{
		"Drumcode", "Afterlife", "Diynamic", "Kompakt", "Cocoon",
		"Defected", "Toolroom", "Anjunadeep", "mau5trap", "STMPD",
		"KNTXT", "Ellum", "Innervisions", "Plangent", "Herzblut",
	}
)

const embedSize = 128

// GenerateTrack builds the track for beatportID. The same id always yields the same track.
func GenerateTrack(beatportID int) (models.Track, error) {
	if beatportID <= 0 {
		return models.Track{}, fmt.Errorf("%w: beatport id must be positive, got %d", shared.ErrInvalidArgument, beatportID)
	}

	seed := beatportID % 1000
	random := func(index, max int) int {
		return ((seed+index)*9301 + 49297) % max
	}

	// Month is zero based and day 0 rolls back to the end of the previous month.
	released := time.Date(2020+random(7, 5), time.Month(random(8, 12)+1), random(9, 28), 0, 0, 0, 0, time.UTC)

	embed := make([]float64, embedSize)
	for i := range embed {
		embed[i] = float64(random(i+12, 200))/100 - 1
	}

	id := beatportID
	return models.Track{
		ID:          TrackID(beatportID),
		BeatportID:  &id,
		Title:       sampleTitles[random(1, len(sampleTitles))],
		Artists:     append([]string(nil), sampleArtists[random(2, len(sampleArtists))]...),
		Genre:       sampleGenres[random(3, len(sampleGenres))],
		BPM:         float64(118 + random(4, 52)),
		Key:         models.CamelotKeys[random(5, len(models.CamelotKeys))],
		Label:       sampleLabels[random(6, len(sampleLabels))],
		ReleaseDate: released.Format(time.DateOnly),
		PreviewURL:  fmt.Sprintf("https://geo-samples.beatport.com/track/%d.mp3", beatportID),
		Features: &models.Features{
			Energy:  0.3 + float64(random(10, 70))/100,
			Valence: float64(random(11, 100)) / 100,
			Embed:   embed,
		},
	}, nil
}

// Generator is the offline [Catalog]. Delay simulates lookup latency and honors ctx.
type Generator struct {
	Delay time.Duration
}

func (g Generator) Lookup(ctx context.Context, beatportID int) (models.Track, error) {
	if g.Delay > 0 {
		timer := time.NewTimer(g.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return models.Track{}, ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return models.Track{}, err
	}
	return GenerateTrack(beatportID)
}
