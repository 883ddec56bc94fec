package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/rhytm/internal/models"
	"github.com/desertthunder/rhytm/internal/shared"
)

type syncReport struct {
	Replayed int               `json:"replayed"`
	Failed   int               `json:"failed"`
	Queued   int               `json:"queued"`
	Status   models.SyncStatus `json:"sync"`
}

type syncState struct {
	Online bool              `json:"online"`
	Queued int               `json:"queued"`
	Status models.SyncStatus `json:"sync"`
}

// SyncRun checks the remote and replays queued mutations in order.
func (r *Runner) SyncRun(ctx context.Context, cmd *cli.Command) error {
	if r.config.Sync.RemoteURL == "" {
		return fmt.Errorf("%w: sync.remote_url is not set", shared.ErrMissingConfig)
	}
	lib, err := r.library()
	if err != nil {
		return err
	}

	if prober := r.prober(); prober != nil {
		if err := prober.Check(ctx); err != nil {
			return err
		}
	}

	result, err := lib.SyncWithServer(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrSyncFailed, err)
	}
	queued, err := lib.QueueLength()
	if err != nil {
		return err
	}

	report := syncReport{Replayed: result.Replayed, Failed: result.Failed, Queued: queued, Status: lib.SyncStatus()}
	if cmd.Bool("json") {
		return r.writeJSON(report, cmd.Bool("pretty"))
	}

	if report.Failed > 0 {
		r.writePlain("✗ Replayed %d, %d failed and remain queued\n", report.Replayed, report.Failed)
		return nil
	}
	r.writePlain("✓ Replayed %d queued change(s)\n", report.Replayed)
	return nil
}

// SyncStatus reports the queue length and the last sync outcome.
func (r *Runner) SyncStatus(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.library()
	if err != nil {
		return err
	}
	queued, err := lib.QueueLength()
	if err != nil {
		return err
	}

	state := syncState{Online: lib.Online(), Queued: queued, Status: lib.SyncStatus()}
	if cmd.Bool("json") {
		return r.writeJSON(state, cmd.Bool("pretty"))
	}

	r.writePlain("Status: %s\n", state.Status.State)
	r.writePlain("Queued: %d\n", state.Queued)
	if state.Status.LastSyncAt != nil {
		r.writePlain("Last sync: %s\n", state.Status.LastSyncAt.Format("2006-01-02 15:04:05"))
	} else {
		r.writePlain("Last sync: never\n")
	}
	if state.Status.Error != "" {
		r.writePlain("Error: %s\n", state.Status.Error)
	}
	return nil
}
