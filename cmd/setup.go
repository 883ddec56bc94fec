package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/rhytm/internal/repositories"
	"github.com/desertthunder/rhytm/internal/shared"
)

// SetupDatabase creates the config file when missing, then creates the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := r.configPath
	if configPath == "" {
		configPath = "config.toml"
	}

	config := r.config
	if _, err := os.Stat(configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using current settings", "error", err)
		} else {
			r.writePlain("✓ Created %s\n", configPath)
		}
	}
	if err := config.Validate(); err != nil {
		return err
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	store, err := repositories.Open(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}
	defer store.Close()

	version, err := shared.SchemaVersion(store.DB())
	if err != nil {
		return fmt.Errorf("%w: failed to read schema version: %v", shared.ErrStorage, err)
	}

	r.logger.Info("setup complete", "path", config.Database.Path, "version", version)
	r.writePlain("✓ Database ready: %s (schema version %d)\n", config.Database.Path, version)
	return nil
}

// SetupRollback rolls back the latest applied migration.
func (r *Runner) SetupRollback(ctx context.Context, cmd *cli.Command) error {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrStorage, err)
	}
	defer db.Close()

	before, err := shared.SchemaVersion(db)
	if err != nil {
		return fmt.Errorf("%w: failed to read schema version: %v", shared.ErrStorage, err)
	}
	if err := shared.RollbackMigration(db); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrStorage, err)
	}
	after, err := shared.SchemaVersion(db)
	if err != nil {
		return fmt.Errorf("%w: failed to read schema version: %v", shared.ErrStorage, err)
	}

	r.logger.Warn("migration rolled back", "from", before, "to", after)
	r.writePlain("✓ Rolled back schema version %d → %d\n", before, after)
	return nil
}
