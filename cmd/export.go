package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/rhytm/internal/formatter"
	"github.com/desertthunder/rhytm/internal/shared"
	"github.com/desertthunder/rhytm/internal/tasks"
)

// ExportCollection writes one collection to a file, or to stdout with --stdout.
func (r *Runner) ExportCollection(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	lib, err := r.library()
	if err != nil {
		return err
	}
	c, err := r.lookupCollection(lib, cmd, "id")
	if err != nil {
		return err
	}

	tracks := lib.GetCollectionTracks(c.ID)
	now := shared.Now()

	if cmd.Bool("stdout") {
		data, err := formatter.Export(format, &c, tracks, now)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		if _, err := r.output.Write(data); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}

	dir := cmd.String("output")
	if dir == "" {
		dir = r.config.Export.OutputDir
	}
	path, err := formatter.WriteExport(dir, format, &c, tracks, now)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	r.logger.Info("collection exported", "id", c.ID, "format", format, "path", path)
	r.writePlain("✓ Exported %s (%d tracks) to %s\n", c.Name, len(tracks), path)
	return nil
}

// ExportAll exports every collection, or those named by --id, with a worker pool.
func (r *Runner) ExportAll(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	engine, err := r.tasks()
	if err != nil {
		return err
	}

	opts := tasks.BulkExportOpts{
		Format:     format,
		OutputDir:  cmd.String("output"),
		NumWorkers: int(cmd.Int("workers")),
		RateLimit:  cmd.Float("rate"),
	}
	if opts.OutputDir == "" {
		opts.OutputDir = r.config.Export.OutputDir
	}
	if opts.NumWorkers == 0 {
		opts.NumWorkers = r.config.Export.NumWorkers
	}

	progress, stop := r.printProgress()
	result, err := engine.BulkExport(ctx, progress, cmd.StringSlice("id"), opts)
	stop()
	if err != nil {
		return fmt.Errorf("bulk export failed: %w", err)
	}

	r.writePlainln("Export complete")
	r.writePlain("  Collections: %d\n", result.TotalCollections)
	r.writePlain("  Successful:  %d\n", result.SuccessfulExports)
	r.writePlain("  Failed:      %d\n", result.FailedExports)
	r.writePlain("  Directory:   %s\n", result.OutputDirectory)
	r.writePlain("  Manifest:    %s\n", result.ManifestPath)
	for _, rec := range result.Results {
		if rec.Err != nil {
			r.writePlain("  ✗ %s: %v\n", rec.CollectionName, rec.Err)
		}
	}
	return nil
}
