// Command migrate applies the booking ledger schema.
//
// Usage:
//
//	migrate [up]        apply every pending migration
//	migrate down [N]    roll back N migrations (default 1)
//	migrate force N     mark version N as applied without running it
//	migrate version     print the current version
package main

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/ateliercarvalho/atelier/internal/config"
	appmigrations "github.com/ateliercarvalho/atelier/migrations"
	"github.com/ateliercarvalho/atelier/pkg/logging"
)

// migrator is the part of *migrate.Migrate the commands use.
type migrator interface {
	Up() error
	Steps(n int) error
	Force(version int) error
	Version() (uint, bool, error)
}

type command struct {
	name string
	n    int
}

var errUsage = errors.New("usage: migrate [up | down [N] | force N | version]")

func parseCommand(args []string) (command, error) {
	if len(args) == 0 {
		return command{name: "up"}, nil
	}
	cmd := command{name: args[0]}
	switch cmd.name {
	case "up", "version":
		if len(args) != 1 {
			return command{}, errUsage
		}
	case "down":
		cmd.n = 1
		if len(args) == 2 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 1 {
				return command{}, fmt.Errorf("down: invalid step count %q", args[1])
			}
			cmd.n = n
		} else if len(args) > 2 {
			return command{}, errUsage
		}
	case "force":
		if len(args) != 2 {
			return command{}, errUsage
		}
		n, err := strconv.Atoi(args[1])
		if err != nil || n < -1 {
			return command{}, fmt.Errorf("force: invalid version %q", args[1])
		}
		cmd.n = n
	default:
		return command{}, errUsage
	}
	return cmd, nil
}

func run(m migrator, cmd command, logger *logging.Logger) error {
	switch cmd.name {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migrate up: %w", err)
		}
	case "down":
		if err := m.Steps(-cmd.n); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migrate down %d: %w", cmd.n, err)
		}
	case "force":
		if err := m.Force(cmd.n); err != nil {
			return fmt.Errorf("force version %d: %w", cmd.n, err)
		}
	case "version":
	default:
		return errUsage
	}

	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		logger.Info("ledger schema is empty", "command", cmd.name)
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		logger.Info("ledger schema version", "command", cmd.name, "version", version, "dirty", dirty)
	}
	return nil
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	cmd, err := parseCommand(os.Args[1:])
	if err != nil {
		logger.Error("invalid arguments", "error", err)
		os.Exit(2)
	}
	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		logger.Error("failed to reach database", "error", err)
		os.Exit(1)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		logger.Error("failed to build database driver", "error", err)
		os.Exit(1)
	}
	srcDriver, err := iofs.New(appmigrations.FS, ".")
	if err != nil {
		logger.Error("failed to read embedded migrations", "error", err)
		os.Exit(1)
	}
	m, err := migrate.NewWithInstance("iofs", srcDriver, "postgres", dbDriver)
	if err != nil {
		logger.Error("failed to create migrator", "error", err)
		os.Exit(1)
	}

	err = run(m, cmd, logger)
	_, _ = m.Close()
	if err != nil {
		logger.Error("migration failed", "command", cmd.name, "error", err)
		os.Exit(1)
	}
}
