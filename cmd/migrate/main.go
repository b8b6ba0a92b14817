package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/avaldezmon/shoplane-backend/pkg/config"
	"github.com/avaldezmon/shoplane-backend/pkg/db"
	"github.com/avaldezmon/shoplane-backend/pkg/logger"
	"github.com/avaldezmon/shoplane-backend/pkg/migrate"
)

const usage = `usage: migrate [-dir <path>] <command> [args]

Commands:
  up                 apply all pending migrations
  up-by-one          apply the next pending migration
  down               roll back the latest migration
  to <version>       migrate up or down to a specific version
  status             print migration status
  version            print the current DB version
  create <name>      create a new SQL migration file
  validate           check migration files without a DB
`

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	dir := flag.String("dir", migrate.DefaultDir, "migrations directory")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		return fmt.Errorf("command required")
	}
	command, commandArgs := args[0], args[1:]

	// create and validate work without a database.
	switch command {
	case "create":
		if len(commandArgs) != 1 {
			return fmt.Errorf("create requires a migration name")
		}
		path, err := migrate.CreateSQLMigration(*dir, commandArgs[0])
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	case "validate":
		if err := migrate.ValidateDir(*dir); err != nil {
			return err
		}
		fmt.Println("ok")
		return nil
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logg := logger.New(logger.Options{
		ServiceName: "shoplane-migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		return multierr.Append(fmt.Errorf("unwrap sql db: %w", err), dbClient.Close())
	}

	var runErr error
	switch command {
	case "to":
		if len(commandArgs) != 1 {
			runErr = fmt.Errorf("to requires a target version")
		} else {
			runErr = migrate.MigrateToVersion(ctx, sqlDB, *dir, commandArgs[0])
		}
	default:
		runErr = migrate.Run(ctx, sqlDB, *dir, command, commandArgs...)
	}

	return multierr.Append(runErr, dbClient.Close())
}
