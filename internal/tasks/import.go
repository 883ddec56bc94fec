package tasks

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/desertthunder/rhytm/internal/beatport"
	"github.com/desertthunder/rhytm/internal/models"
	"github.com/desertthunder/rhytm/internal/shared"
)

// ImportOpts configures Beatport link imports.
type ImportOpts struct {
	BatchSize int     // Lookups run concurrently within a batch (default: 3)
	RateLimit float64 // Batches started per second (default: 1)
}

// ImportFailure records a Beatport id that could not be imported.
type ImportFailure struct {
	BeatportID int
	Err        error
}

// ImportResult summarizes an import run.
type ImportResult struct {
	URLs     []string
	Imported []models.Track
	Skipped  []string // library ids already present
	Failed   []ImportFailure
}

type lookupResult struct {
	id    int
	track models.Track
	err   error
}

// ImportURLs extracts Beatport track links from text and adds the tracks to the library.
//
// Ids already in the library are skipped without a lookup. Lookups run in batches with
// a pause between batches; failures are collected per id and do not stop the run.
func (e *Engine) ImportURLs(ctx context.Context, prog chan<- ProgressUpdate, text string, opts ImportOpts) (*ImportResult, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 3
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 1
	}

	result := &ImportResult{URLs: beatport.ExtractURLs(text)}
	ids := beatport.ExtractTrackIDs(result.URLs)
	e.sendProgress(prog, linksFoundUpdate(result.URLs, ids))
	if len(ids) == 0 {
		return result, fmt.Errorf("%w: no Beatport track links found", shared.ErrMissingArgument)
	}

	pending := make([]int, 0, len(ids))
	for _, id := range ids {
		if e.lib.IsTrackInLibrary(beatport.TrackID(id)) {
			result.Skipped = append(result.Skipped, beatport.TrackID(id))
			continue
		}
		pending = append(pending, id)
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	batches := (len(pending) + opts.BatchSize - 1) / opts.BatchSize
	step := len(result.Skipped)

	for b := 0; b < batches; b++ {
		if err := limiter.Wait(ctx); err != nil {
			return result, err
		}

		start := b * opts.BatchSize
		batch := pending[start:min(start+opts.BatchSize, len(pending))]
		e.sendProgress(prog, fetchBatchUpdate(b+1, batches, len(batch)))

		for _, res := range e.lookupBatch(ctx, batch) {
			step++
			if res.err != nil {
				e.logger.Warn("beatport lookup failed", "id", res.id, "error", res.err)
				result.Failed = append(result.Failed, ImportFailure{BeatportID: res.id, Err: res.err})
				continue
			}

			if e.lib.IsTrackInLibrary(res.track.ID) {
				result.Skipped = append(result.Skipped, res.track.ID)
				e.sendProgress(prog, skippedTrackUpdate(step, len(ids), res.track.ID))
				continue
			}
			if err := e.lib.AddTrackToLibrary(res.track); err != nil {
				result.Failed = append(result.Failed, ImportFailure{BeatportID: res.id, Err: err})
				continue
			}
			result.Imported = append(result.Imported, res.track)
			e.sendProgress(prog, savedTrackUpdate(step, len(ids), &res.track))
		}
	}

	e.logger.Info("import finished", "imported", len(result.Imported), "skipped", len(result.Skipped), "failed", len(result.Failed))
	return result, ctx.Err()
}

// lookupBatch resolves ids concurrently and returns results in input order.
func (e *Engine) lookupBatch(ctx context.Context, ids []int) []lookupResult {
	out := make([]lookupResult, len(ids))

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i, id int) {
			defer wg.Done()
			track, err := e.catalog.Lookup(ctx, id)
			out[i] = lookupResult{id: id, track: track, err: err}
		}(i, id)
	}
	wg.Wait()

	return out
}
