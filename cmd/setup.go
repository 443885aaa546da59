package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/urfave/cli/v3"

	"github.com/setsvm/novi/internal/shared"
	"github.com/setsvm/novi/internal/storage"
)

// SetupConfig writes a config file whose session key is random.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")

	key := securecookie.GenerateRandomKey(32)
	if key == nil {
		return fmt.Errorf("failed to generate session key")
	}

	if err := shared.CreateConfigFile(path, base64.RawURLEncoding.EncodeToString(key)); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path)
	r.writePlain("✓ Config written to %s\n", path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Point api.base_url at the content API gateway\n")
	r.writePlain("2. Run 'novi setup database --config %s'\n", path)
	return nil
}

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	applied, err := shared.RunMigrations(db)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	status, err := shared.Migrations(db)
	if err != nil {
		return err
	}

	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	return r.writePlain("✓ Database ready (%d applied now, schema version %d)\n", applied, status.Current())
}

// SetupPrune forgets web clients idle for longer than --days, with their stored sessions.
func (r *Runner) SetupPrune(ctx context.Context, cmd *cli.Command) error {
	days := cmd.Int("days")
	if days < 1 {
		return fmt.Errorf("%w: --days must be at least 1", shared.ErrInvalidArgument)
	}

	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	db, err := shared.OpenDatabase(config.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	cutoff := r.now().Add(-time.Duration(days) * 24 * time.Hour)
	removed, err := storage.NewClientRepository(db).Prune(cutoff)
	if err != nil {
		return err
	}

	r.logger.Info("pruned clients", "count", removed, "before", cutoff.Format(time.DateOnly))
	return r.writePlain("✓ Removed %d client(s) idle since before %s\n", removed, cutoff.Format(time.DateOnly))
}
