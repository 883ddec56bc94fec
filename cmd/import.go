package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/rhytm/internal/tasks"
)

func (r *Runner) importOpts(cmd *cli.Command) tasks.ImportOpts {
	opts := tasks.ImportOpts{
		BatchSize: int(cmd.Int("batch-size")),
		RateLimit: cmd.Float("rate"),
	}
	if opts.BatchSize == 0 {
		opts.BatchSize = r.config.Import.BatchSize
	}
	if opts.RateLimit == 0 {
		opts.RateLimit = r.config.Import.RateLimit
	}
	return opts
}

func readImportText(cmd *cli.Command, stdin io.Reader) (string, error) {
	parts := cmd.Args().Slice()

	switch path := cmd.String("file"); path {
	case "":
	case "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		parts = append(parts, string(data))
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", path, err)
		}
		parts = append(parts, string(data))
	}
	return strings.Join(parts, "\n"), nil
}

// ImportURLs imports every Beatport track link found in the arguments or the given file.
func (r *Runner) ImportURLs(ctx context.Context, cmd *cli.Command) error {
	text, err := readImportText(cmd, os.Stdin)
	if err != nil {
		return err
	}
	engine, err := r.tasks()
	if err != nil {
		return err
	}

	progress, stop := r.printProgress()
	result, err := engine.ImportURLs(ctx, progress, text, r.importOpts(cmd))
	stop()
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	r.writePlainln("Import complete")
	r.writePlain("  Links:    %d\n", len(result.URLs))
	r.writePlain("  Imported: %d\n", len(result.Imported))
	r.writePlain("  Skipped:  %d\n", len(result.Skipped))
	r.writePlain("  Failed:   %d\n", len(result.Failed))
	for _, f := range result.Failed {
		r.writePlain("  ✗ %d: %v\n", f.BeatportID, f.Err)
	}
	return nil
}

// ImportWatch imports links from files dropped into the watch folder until interrupted.
func (r *Runner) ImportWatch(ctx context.Context, cmd *cli.Command) error {
	dir := cmd.String("dir")
	if dir == "" {
		dir = r.config.Import.WatchDir
	}
	engine, err := r.tasks()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	progress, stop := r.printProgress()
	defer stop()

	err = engine.WatchImports(ctx, progress, dir, tasks.WatchOpts{Import: r.importOpts(cmd)})
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("watch failed: %w", err)
	}
	r.logger.Info("import watcher stopped", "dir", dir)
	return nil
}
