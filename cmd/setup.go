package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/crmx/internal/server"
	"github.com/desertthunder/crmx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes a config file when none exists, then initializes the database and runs migrations. With --rollback
// it reverts the latest migration instead.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		} else {
			r.logger.Info("config file created", "path", configPath)
		}
	}
	if err := r.loadConfig(cmd); err != nil {
		return err
	}
	if cmd.Bool("rollback") {
		return r.rollback()
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	return r.writePlain("Database ready at %s\n", r.config.Database.Path)
}

func (r *Runner) rollback() error {
	path := r.config.Database.Path
	db, err := shared.NewDatabase(path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := shared.RollbackMigration(db); err != nil {
		return err
	}
	r.logger.Info("rolled back migration", "path", path)
	return r.writePlain("Rolled back the latest migration of %s\n", path)
}

// Serve runs the development API until ctx is cancelled.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.ServerAddr()
	}
	token := cmd.String("token")
	if token == "" {
		token = r.config.Server.Token
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	srv := server.New(db, server.Options{Addr: addr, Token: token, Logger: r.logger})
	r.logger.Info("starting development API", "addr", addr, "auth", token != "")
	return srv.ListenAndServe(ctx)
}

// openDatabase opens the configured sqlite database and brings its schema up to date.
func (r *Runner) openDatabase() (*sql.DB, error) {
	path := r.config.Database.Path
	r.logger.Info("initializing database", "path", path)

	if !strings.HasPrefix(path, ":memory:") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := shared.NewDatabase(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	r.logger.Debug("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}
