package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/desertthunder/rhytm/internal/formatter"
	"github.com/desertthunder/rhytm/internal/models"
	"github.com/desertthunder/rhytm/internal/shared"
)

// BulkExportOpts contains configuration for bulk collection exports.
type BulkExportOpts struct {
	Format     formatter.Format // csv, m3u or json (default: json)
	OutputDir  string           // Base output directory (default: rhytm_export_{epoch})
	NumWorkers int              // Concurrent workers (default: 4, max 10)
	RateLimit  float64          // Collections started per second (default: unlimited)
}

// BulkExportResult summarizes a bulk export.
type BulkExportResult struct {
	TotalCollections  int
	SuccessfulExports int
	FailedExports     int
	OutputDirectory   string
	ManifestPath      string
	Results           []formatter.ExportRecord
}

// CollectionExportJob is one collection snapshot queued for a worker.
type CollectionExportJob struct {
	Collection models.Collection
	Tracks     []models.Track
}

// BulkExport writes the collections named by ids (every collection when ids is empty) into
// opts.OutputDir with a worker pool and finishes with an export_manifest.json summary.
//
// Unknown ids are reported as failed records; they do not abort the run.
func (e *Engine) BulkExport(ctx context.Context, prog chan<- ProgressUpdate, ids []string, opts BulkExportOpts) (*BulkExportResult, error) {
	if opts.Format == "" {
		opts.Format = formatter.FormatJSON
	}
	format, err := formatter.ParseFormat(opts.Format.String())
	if err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		for _, c := range e.lib.Collections() {
			ids = append(ids, c.ID)
		}
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("rhytm_export_%d", e.now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		TotalCollections: len(ids),
		OutputDirectory:  opts.OutputDir,
		Results:          make([]formatter.ExportRecord, 0, len(ids)),
	}
	exportedAt := e.now()
	limiter := rate.NewLimiter(limit, 1)

	jobs := make(chan CollectionExportJob, len(ids))
	results := make(chan formatter.ExportRecord, len(ids))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, format, opts.OutputDir, exportedAt)
	}

	e.sendProgress(prog, resolvingCollectionsUpdate(len(ids)))
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(jobs)
		for i, id := range ids {
			if err := limiter.Wait(ctx); err != nil {
				return
			}

			c, ok := e.lib.Collection(id)
			if !ok {
				results <- formatter.ExportRecord{
					CollectionID:   id,
					CollectionName: fmt.Sprintf("Unknown (%s)", id),
					Err:            fmt.Errorf("%w: collection %s", shared.ErrNotFound, id),
				}
				continue
			}

			jobs <- CollectionExportJob{Collection: c, Tracks: e.lib.GetCollectionTracks(id)}
			e.sendProgress(prog, exportingCollectionUpdate(i+1, len(ids), &c))
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Err == nil {
			result.SuccessfulExports++
			e.sendProgress(prog, exportCompletedUpdate(completed, len(ids), res.CollectionName, res.TrackCount))
		} else {
			result.FailedExports++
			e.sendProgress(prog, exportFailedUpdate(completed, len(ids), res.CollectionName, res.Err))
		}
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := formatter.WriteBulkExportManifest(result.Results, format, exportedAt, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath

	e.logger.Info("bulk export finished", "format", format, "ok", result.SuccessfulExports, "failed", result.FailedExports)
	return result, nil
}

// exportWorker is a worker goroutine that exports collections from the jobs channel.
func (e *Engine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan CollectionExportJob,
	results chan<- formatter.ExportRecord,
	format formatter.Format,
	dir string,
	exportedAt time.Time,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		record := formatter.ExportRecord{
			CollectionID:   job.Collection.ID,
			CollectionName: job.Collection.Name,
			TrackCount:     len(job.Tracks),
		}

		// One directory per collection id: distinct names can sanitize to the same filename.
		path, err := formatter.WriteExport(filepath.Join(dir, job.Collection.ID), format, &job.Collection, job.Tracks, exportedAt)
		if err != nil {
			record.Err = fmt.Errorf("%s export failed: %w", format, err)
		} else {
			record.Files = []string{path}
		}
		results <- record
	}
}
