// Command migrate manages the storefront database schema.
package main

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/migration"
	"go.uber.org/zap"
)

// ErrNotConfirmed is returned when a destructive command is run without --confirm
var ErrNotConfirmed = errors.New("operation not confirmed; pass --confirm")

// Globals are shared by every command
type Globals struct {
	LogLevel string `help:"Log level (debug, info, warn, error)" default:"info" enum:"debug,info,warn,error"`
	Path     string `help:"Migrations source directory, used by create and list" default:"migrations" type:"path"`
}

var cli struct {
	Globals

	Up      UpCmd      `cmd:"" help:"Apply all pending migrations"`
	Down    DownCmd    `cmd:"" help:"Roll back all migrations"`
	Step    StepCmd    `cmd:"" help:"Apply n migrations (negative rolls back)"`
	Goto    GotoCmd    `cmd:"" help:"Migrate to a specific version"`
	Version VersionCmd `cmd:"" help:"Show the current migration version"`
	Force   ForceCmd   `cmd:"" help:"Force the recorded version without running migrations"`
	Drop    DropCmd    `cmd:"" help:"Drop every table"`
	Create  CreateCmd  `cmd:"" help:"Create a new numbered migration pair for each driver"`
	List    ListCmd    `cmd:"" help:"List migrations on disk"`
}

// UpCmd applies pending migrations
type UpCmd struct{}

// Run executes the command
func (cmd *UpCmd) Run(g *Globals) error {
	return withMigrator(g, func(m *migration.Migrator) error {
		if err := m.Up(); err != nil {
			return err
		}
		color.Green("Migrations applied")
		return nil
	})
}

// DownCmd rolls everything back
type DownCmd struct {
	Confirm bool `help:"Confirm rolling back every migration"`
}

// Run executes the command
func (cmd *DownCmd) Run(g *Globals) error {
	if !cmd.Confirm {
		return ErrNotConfirmed
	}
	return withMigrator(g, func(m *migration.Migrator) error {
		if err := m.Down(); err != nil {
			return err
		}
		color.Yellow("All migrations rolled back")
		return nil
	})
}

// StepCmd applies n migrations
type StepCmd struct {
	N int `arg:"" help:"Number of migrations; negative rolls back"`
}

// Run executes the command
func (cmd *StepCmd) Run(g *Globals) error {
	return withMigrator(g, func(m *migration.Migrator) error {
		return m.Steps(cmd.N)
	})
}

// GotoCmd migrates to a version
type GotoCmd struct {
	Version uint `arg:"" help:"Target version"`
}

// Run executes the command
func (cmd *GotoCmd) Run(g *Globals) error {
	return withMigrator(g, func(m *migration.Migrator) error {
		return m.GoTo(cmd.Version)
	})
}

// VersionCmd prints the current version
type VersionCmd struct{}

// Run executes the command
func (cmd *VersionCmd) Run(g *Globals) error {
	return withMigrator(g, func(m *migration.Migrator) error {
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		if version == 0 {
			color.Cyan("No migrations applied")
			return nil
		}
		if dirty {
			color.Red("Version %d (dirty)", version)
			return nil
		}
		color.Cyan("Version %d", version)
		return nil
	})
}

// ForceCmd sets the recorded version
type ForceCmd struct {
	Version int `arg:"" help:"Version to record"`
}

// Run executes the command
func (cmd *ForceCmd) Run(g *Globals) error {
	return withMigrator(g, func(m *migration.Migrator) error {
		return m.Force(cmd.Version)
	})
}

// DropCmd drops every table
type DropCmd struct {
	Confirm bool `help:"Confirm dropping all data"`
}

// Run executes the command
func (cmd *DropCmd) Run(g *Globals) error {
	if !cmd.Confirm {
		return ErrNotConfirmed
	}
	return withMigrator(g, func(m *migration.Migrator) error {
		return m.Drop()
	})
}

// CreateCmd writes a new migration pair
type CreateCmd struct {
	Name        string   `arg:"" help:"Migration name"`
	Description string   `arg:"" optional:"" help:"Short description"`
	Driver      []string `help:"Limit to these drivers (postgres, sqlite)"`
}

// Run executes the command
func (cmd *CreateCmd) Run(g *Globals) error {
	files, err := migration.CreateMigration(g.Path, cmd.Name, cmd.Description, cmd.Driver...)
	if err != nil {
		return err
	}
	for _, mf := range files {
		color.Green("Created %s", mf.UpPath)
		color.Green("Created %s", mf.DownPath)
	}
	return nil
}

// ListCmd lists migrations per driver
type ListCmd struct{}

// Run executes the command
func (cmd *ListCmd) Run(g *Globals) error {
	for _, driver := range []string{migration.DriverPostgres, migration.DriverSQLite} {
		names, err := migration.ListMigrations(filepath.Join(g.Path, driver))
		if err != nil {
			return err
		}
		color.Cyan("%s (%d)", driver, len(names))
		for _, n := range names {
			fmt.Println("  -", n)
		}
	}
	return nil
}

func withMigrator(g *Globals, fn func(m *migration.Migrator) error) error {
	log, err := logger.New(&logger.Config{Level: g.LogLevel, Format: "console", Output: "stdout"})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync(log) }()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := openDB(&cfg.Database)
	if err != nil {
		return err
	}

	m, err := migration.New(db, cfg.Database.Driver, log)
	if err != nil {
		_ = db.Close()
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("Failed to close migrator", zap.Error(err))
		}
	}()

	log.Info("Migration CLI started", zap.String("driver", cfg.Database.Driver))
	return fn(m)
}

func openDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)
	switch cfg.Driver {
	case migration.DriverPostgres:
		db, err = sql.Open("postgres", cfg.DSN())
	case migration.DriverSQLite:
		db, err = sql.Open("sqlite3", cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name(filepath.Base(os.Args[0])),
		kong.Description("Storefront database migration tool"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
	)

	if err := ctx.Run(&cli.Globals); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}
