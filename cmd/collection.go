package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/rhytm/internal/compat"
	"github.com/desertthunder/rhytm/internal/library"
	"github.com/desertthunder/rhytm/internal/models"
	"github.com/desertthunder/rhytm/internal/shared"
)

type collectionSummary struct {
	models.Collection
	TrackCount int `json:"trackCount"`
}

type collectionDetail struct {
	Collection models.Collection `json:"collection"`
	Tracks     []models.Track    `json:"tracks"`
}

type collectionAnalysis struct {
	Keys []keyPair          `json:"keys"`
	Key  string             `json:"keyAnalysis"`
	BPM  compat.BPMAnalysis `json:"bpm"`
}

type keyPair struct {
	From          string `json:"from"`
	To            string `json:"to"`
	Compatibility string `json:"compatibility"`
}

// lookupCollection resolves the id argument to a collection.
func (r *Runner) lookupCollection(lib *library.Manager, cmd *cli.Command, arg string) (models.Collection, error) {
	id, err := requireArg(cmd, arg)
	if err != nil {
		return models.Collection{}, err
	}
	c, ok := lib.Collection(id)
	if !ok {
		return models.Collection{}, fmt.Errorf("%w: collection %s", shared.ErrNotFound, id)
	}
	return c, nil
}

// CollectionCreate creates a collection.
func (r *Runner) CollectionCreate(ctx context.Context, cmd *cli.Command) error {
	name, err := requireArg(cmd, "name")
	if err != nil {
		return err
	}
	lib, err := r.library()
	if err != nil {
		return err
	}

	c, err := lib.CreateCollection(name, cmd.StringSlice("tag"))
	if err != nil {
		return err
	}

	r.logger.Info("collection created", "id", c.ID, "name", c.Name)
	if cmd.Bool("json") {
		return r.writeJSON(c, cmd.Bool("pretty"))
	}
	r.writePlain("✓ Created collection %s (%s)\n", c.Name, c.ID)
	return nil
}

// CollectionList lists collections with their track counts.
func (r *Runner) CollectionList(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.library()
	if err != nil {
		return err
	}

	collections := lib.Collections()
	summaries := make([]collectionSummary, 0, len(collections))
	for _, c := range collections {
		summaries = append(summaries, collectionSummary{Collection: c, TrackCount: len(lib.Memberships(c.ID))})
	}

	if cmd.Bool("json") {
		return r.writeJSON(summaries, cmd.Bool("pretty"))
	}

	r.writePlain("Found %d collections:\n\n", len(summaries))
	for i, s := range summaries {
		r.writePlain("%d. %s\n", i+1, s.Name)
		r.writePlain("   ID: %s\n", s.ID)
		r.writePlain("   Tracks: %d\n", s.TrackCount)
		if len(s.Tags) > 0 {
			r.writePlain("   Tags: %s\n", strings.Join(s.Tags, ", "))
		}
		r.writePlain("\n")
	}
	return nil
}

// CollectionShow prints a collection and its ordered tracks.
func (r *Runner) CollectionShow(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.library()
	if err != nil {
		return err
	}
	c, err := r.lookupCollection(lib, cmd, "id")
	if err != nil {
		return err
	}

	tracks := lib.GetCollectionTracks(c.ID)
	if cmd.Bool("json") {
		return r.writeJSON(collectionDetail{Collection: c, Tracks: tracks}, cmd.Bool("pretty"))
	}

	r.writePlainHeader(c.Name)
	r.writePlain("ID: %s\n", c.ID)
	if len(c.Tags) > 0 {
		r.writePlain("Tags: %s\n", strings.Join(c.Tags, ", "))
	}
	r.writePlain("Updated: %s\n\n", c.UpdatedAt.Format("2006-01-02 15:04:05"))
	for i, t := range tracks {
		r.writeTrack(i+1, t)
	}
	return nil
}

// CollectionUpdate renames, retags or links a collection.
func (r *Runner) CollectionUpdate(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.library()
	if err != nil {
		return err
	}
	c, err := r.lookupCollection(lib, cmd, "id")
	if err != nil {
		return err
	}

	var patch library.CollectionPatch
	if cmd.IsSet("name") {
		name := cmd.String("name")
		patch.Name = &name
	}
	if cmd.Bool("clear-tags") {
		patch.Tags = []string{}
	} else if cmd.IsSet("tag") {
		patch.Tags = cmd.StringSlice("tag")
	}
	if cmd.IsSet("beatport-playlist") {
		id := cmd.String("beatport-playlist")
		patch.BeatportPlaylistID = &id
	}
	if patch.Name == nil && patch.Tags == nil && patch.BeatportPlaylistID == nil {
		return fmt.Errorf("%w: nothing to update, pass --name, --tag, --clear-tags or --beatport-playlist", shared.ErrMissingArgument)
	}

	if err := lib.UpdateCollection(c.ID, patch); err != nil {
		return err
	}
	r.writePlain("✓ Updated collection %s\n", c.ID)
	return nil
}

// CollectionDelete deletes a collection.
func (r *Runner) CollectionDelete(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.library()
	if err != nil {
		return err
	}
	c, err := r.lookupCollection(lib, cmd, "id")
	if err != nil {
		return err
	}

	if err := lib.DeleteCollection(c.ID); err != nil {
		return err
	}
	r.writePlain("✓ Deleted collection %s\n", c.Name)
	return nil
}

// CollectionAdd appends a track to a collection.
func (r *Runner) CollectionAdd(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.library()
	if err != nil {
		return err
	}
	c, err := r.lookupCollection(lib, cmd, "collection")
	if err != nil {
		return err
	}
	trackID, err := requireArg(cmd, "track")
	if err != nil {
		return err
	}

	if lib.IsTrackInCollection(c.ID, trackID) {
		r.writePlain("Track %s is already in %s\n", trackID, c.Name)
		return nil
	}
	if err := lib.AddTrackToCollection(c.ID, trackID); err != nil {
		return err
	}
	r.writePlain("✓ Added %s to %s\n", trackID, c.Name)
	return nil
}

// CollectionRemove removes a track from a collection.
func (r *Runner) CollectionRemove(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.library()
	if err != nil {
		return err
	}
	c, err := r.lookupCollection(lib, cmd, "collection")
	if err != nil {
		return err
	}
	trackID, err := requireArg(cmd, "track")
	if err != nil {
		return err
	}

	if !lib.IsTrackInCollection(c.ID, trackID) {
		return fmt.Errorf("%w: track %s in collection %s", shared.ErrNotFound, trackID, c.ID)
	}
	if err := lib.RemoveTrackFromCollection(c.ID, trackID); err != nil {
		return err
	}
	r.writePlain("✓ Removed %s from %s\n", trackID, c.Name)
	return nil
}

// CollectionReorder assigns positions from the order of the track arguments.
func (r *Runner) CollectionReorder(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) < 2 {
		return fmt.Errorf("%w: usage: collection reorder <collection> <track>...", shared.ErrMissingArgument)
	}

	lib, err := r.library()
	if err != nil {
		return err
	}
	c, ok := lib.Collection(args[0])
	if !ok {
		return fmt.Errorf("%w: collection %s", shared.ErrNotFound, args[0])
	}

	trackIDs := args[1:]
	for _, id := range trackIDs {
		if !lib.IsTrackInCollection(c.ID, id) {
			r.logger.Warn("track not in collection, ignoring", "collection", c.ID, "track", id)
		}
	}
	if err := lib.ReorderCollectionTracks(c.ID, trackIDs); err != nil {
		return err
	}
	r.writePlain("✓ Reordered %s\n", c.Name)
	return nil
}

// CollectionAnalyze prints harmonic key pairs and the BPM spread of a collection.
func (r *Runner) CollectionAnalyze(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.library()
	if err != nil {
		return err
	}
	c, err := r.lookupCollection(lib, cmd, "id")
	if err != nil {
		return err
	}

	tracks := lib.GetCollectionTracks(c.ID)
	keys := compat.AnalyzeKeys(tracks)
	tempo := compat.AnalyzeBPM(tracks)

	if cmd.Bool("json") {
		out := collectionAnalysis{Keys: []keyPair{}, Key: keys.Analysis, BPM: tempo}
		for _, p := range keys.Pairs {
			out.Keys = append(out.Keys, keyPair{From: p.A.ID, To: p.B.ID, Compatibility: string(p.Compatibility)})
		}
		return r.writeJSON(out, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Mix Analysis: " + c.Name)
	r.writePlain("%s\n", keys.Analysis)
	for _, p := range keys.Pairs {
		r.writePlain("  %s (%s) → %s (%s): %s\n", p.A.Title, p.A.Key, p.B.Title, p.B.Key, p.Compatibility)
	}
	r.writePlain("\n%s\n", tempo.Analysis)
	for _, s := range tempo.Suggestions {
		r.writePlain("  • %s\n", s)
	}
	return nil
}
