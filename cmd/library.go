package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/rhytm/internal/models"
	"github.com/desertthunder/rhytm/internal/query"
	"github.com/desertthunder/rhytm/internal/shared"
)

func requireArg(cmd *cli.Command, name string) (string, error) {
	v := strings.TrimSpace(cmd.StringArg(name))
	if v == "" {
		return "", fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	return v, nil
}

func formatBPM(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (r *Runner) writeTrack(i int, t models.Track) {
	liked := ""
	if t.Liked {
		liked = " ♥"
	}
	r.writePlain("%d. %s - %s%s\n", i, t.ArtistLine(), t.Title, liked)
	r.writePlain("   ID: %s\n", t.ID)
	r.writePlain("   %s BPM • %s", formatBPM(t.BPM), t.Key)
	if t.Genre != "" {
		r.writePlain(" • %s", t.Genre)
	}
	if t.Label != "" {
		r.writePlain(" • %s", t.Label)
	}
	r.writePlain("\n")
}

// trackCriteria builds filter criteria from list flags.
func trackCriteria(cmd *cli.Command) query.Criteria {
	c := query.Criteria{
		Genre:     cmd.String("genre"),
		Key:       cmd.String("key"),
		Query:     cmd.String("query"),
		LikedOnly: cmd.Bool("liked"),
	}
	if cmd.IsSet("bpm-min") {
		v := cmd.Float("bpm-min")
		c.BPMMin = &v
	}
	if cmd.IsSet("bpm-max") {
		v := cmd.Float("bpm-max")
		c.BPMMax = &v
	}
	return c
}

// LibraryAdd adds a track looked up from the Beatport catalog or described by flags.
func (r *Runner) LibraryAdd(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.library()
	if err != nil {
		return err
	}

	var track models.Track
	if id := cmd.Int("beatport"); id != 0 {
		if track, err = r.catalog.Lookup(ctx, int(id)); err != nil {
			return fmt.Errorf("beatport lookup failed: %w", err)
		}
	} else {
		track = models.Track{
			ID:          cmd.String("id"),
			Title:       cmd.String("title"),
			Artists:     cmd.StringSlice("artist"),
			Genre:       cmd.String("genre"),
			BPM:         cmd.Float("bpm"),
			Key:         cmd.String("key"),
			Label:       cmd.String("label"),
			ReleaseDate: cmd.String("release-date"),
			PreviewURL:  cmd.String("preview-url"),
		}
		if track.ID == "" {
			track.ID = shared.GenerateID()
		}
	}

	if lib.IsTrackInLibrary(track.ID) {
		r.writePlain("Track %s is already in the library\n", track.ID)
		return nil
	}
	if err := lib.AddTrackToLibrary(track); err != nil {
		return err
	}

	r.logger.Info("track added", "id", track.ID)
	if cmd.Bool("json") {
		return r.writeJSON(track, cmd.Bool("pretty"))
	}
	r.writePlain("✓ Added %s - %s (%s)\n", track.ArtistLine(), track.Title, track.ID)
	return nil
}

// LibraryList prints library tracks after filtering and optional sorting.
func (r *Runner) LibraryList(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.library()
	if err != nil {
		return err
	}

	tracks := query.Filter(lib.Tracks(), trackCriteria(cmd))
	if s := cmd.String("sort"); s != "" {
		field, err := query.ParseSortField(s)
		if err != nil {
			return err
		}
		dir, err := query.ParseDirection(cmd.String("dir"))
		if err != nil {
			return err
		}
		tracks = query.Sort(tracks, query.SortSpec{Field: field, Direction: dir})
	}

	if cmd.Bool("json") {
		return r.writeJSON(tracks, cmd.Bool("pretty"))
	}

	r.writePlain("Found %d tracks:\n\n", len(tracks))
	for i, t := range tracks {
		r.writeTrack(i+1, t)
	}
	return nil
}

// LibraryLike toggles a track's liked flag.
func (r *Runner) LibraryLike(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	lib, err := r.library()
	if err != nil {
		return err
	}

	track, ok := lib.Track(id)
	if !ok {
		return fmt.Errorf("%w: track %s", shared.ErrNotFound, id)
	}
	if err := lib.ToggleTrackLike(id); err != nil {
		return err
	}

	if track.Liked {
		r.writePlain("✓ Unliked %s\n", track.Title)
	} else {
		r.writePlain("✓ Liked %s\n", track.Title)
	}
	return nil
}

// LibraryRemove removes a track and its memberships.
func (r *Runner) LibraryRemove(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	lib, err := r.library()
	if err != nil {
		return err
	}

	if !lib.IsTrackInLibrary(id) {
		return fmt.Errorf("%w: track %s", shared.ErrNotFound, id)
	}
	if err := lib.RemoveTrackFromLibrary(id); err != nil {
		return err
	}
	r.writePlain("✓ Removed %s\n", id)
	return nil
}

// LibrarySearch ranks tracks by fuzzy similarity to the query.
func (r *Runner) LibrarySearch(ctx context.Context, cmd *cli.Command) error {
	q, err := requireArg(cmd, "query")
	if err != nil {
		return err
	}
	lib, err := r.library()
	if err != nil {
		return err
	}

	matches := query.FuzzySearch(lib.Tracks(), q, cmd.Float("threshold"))
	if cmd.Bool("json") {
		return r.writeJSON(matches, cmd.Bool("pretty"))
	}

	r.writePlain("Found %d matches for %q:\n\n", len(matches), q)
	for i, m := range matches {
		r.writeTrack(i+1, m.Track)
		r.writePlain("   Score: %.2f\n", m.Score)
	}
	return nil
}

// LibraryDupes lists likely duplicate pairs.
func (r *Runner) LibraryDupes(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.library()
	if err != nil {
		return err
	}

	dupes := query.FindDuplicates(lib.Tracks(), cmd.Float("threshold"))
	if cmd.Bool("json") {
		return r.writeJSON(dupes, cmd.Bool("pretty"))
	}

	if len(dupes) == 0 {
		r.writePlain("No duplicates found\n")
		return nil
	}
	r.writePlain("Found %d likely duplicates:\n\n", len(dupes))
	for _, d := range dupes {
		r.writePlain("%.2f  %s - %s (%s)\n", d.Score, d.A.ArtistLine(), d.A.Title, d.A.ID)
		r.writePlain("      %s - %s (%s)\n", d.B.ArtistLine(), d.B.Title, d.B.ID)
	}
	return nil
}

// LibraryFeedback appends a feedback event for a track.
func (r *Runner) LibraryFeedback(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	kind, err := models.ParseFeedbackType(cmd.String("type"))
	if err != nil {
		return err
	}
	fctx, err := models.ParseFeedbackContext(cmd.String("context"))
	if err != nil {
		return err
	}
	lib, err := r.library()
	if err != nil {
		return err
	}

	event, err := lib.RecordFeedback(id, kind, fctx)
	if err != nil {
		return err
	}
	r.writePlain("✓ Recorded %s for %s\n", event.Type, event.TrackID)
	return nil
}
