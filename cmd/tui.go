package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/rhytm/internal/formatter"
	"github.com/desertthunder/rhytm/internal/shared"
	"github.com/desertthunder/rhytm/internal/tasks"
	"github.com/desertthunder/rhytm/internal/ui"
)

// TUI launches the interactive collection browser.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	// Logs go to a file while the TUI owns the terminal. Set before the library binds a logger.
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, r.logger.GetLevel())
	r.SetLogger(fileLogger)

	lib, err := r.library()
	if err != nil {
		return err
	}
	engine, err := r.tasks()
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, lib, engine, tasks.BulkExportOpts{
		Format:     format,
		OutputDir:  r.config.Export.OutputDir,
		NumWorkers: r.config.Export.NumWorkers,
	})
	p := tea.NewProgram(model, tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
