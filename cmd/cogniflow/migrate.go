package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/BaSui01/cogniflow/agent/persistence"
	"github.com/BaSui01/cogniflow/internal/migration"
)

// =============================================================================
// 快照表迁移命令
// =============================================================================

// runMigrate 处理 migrate 子命令：cogniflow migrate <cmd> [version] [flags]
func runMigrate(args []string) {
	if len(args) < 1 {
		printMigrateUsage()
		os.Exit(1)
	}
	command := args[0]
	if command == "help" || command == "-h" || command == "--help" {
		printMigrateUsage()
		return
	}

	// goto/force/steps 的版本号在 flag 之前
	var positional []string
	rest := args[1:]
	if len(rest) > 0 && (command == "goto" || command == "force" || command == "steps") {
		positional, rest = rest[:1], rest[1:]
	}

	fs := flag.NewFlagSet("migrate "+command, flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	dbType := fs.String("db-type", "", "Database type (postgres, mysql, sqlite)")
	dbURL := fs.String("db-url", "", "Database connection URL")
	all := fs.Bool("all", false, "With down: roll back every migration")
	_ = fs.Parse(rest)

	if command == "down" && *all {
		command = "reset"
	}

	migrator, err := createMigrator(*configPath, *dbType, *dbURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create migrator: %v\n", err)
		os.Exit(1)
	}
	defer migrator.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := migration.NewCLI(migrator).Run(ctx, command, positional); err != nil {
		fmt.Fprintf(os.Stderr, "migrate %s: %v\n", command, err)
		if errors.Is(err, migration.ErrUnknownCommand) {
			printMigrateUsage()
		}
		os.Exit(1)
	}
}

// createMigrator 优先使用 --db-type/--db-url，否则读取配置文件中的 persistence.database
func createMigrator(configPath, dbType, dbURL string) (*migration.DefaultMigrator, error) {
	logger := zap.NewNop()
	if dbType != "" && dbURL != "" {
		return migration.NewMigratorFromURL(dbType, dbURL, logger)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger = initLogger(cfg.Log)

	dbCfg := persistence.StoreConfigFrom(cfg.Persistence).SQL
	if dbType != "" {
		dbCfg.Driver = dbType
	}
	return migration.NewMigratorFromDatabaseConfig(dbCfg, logger)
}

func printMigrateUsage() {
	fmt.Println(`Snapshot table migrations

Usage:
  cogniflow migrate <subcommand> [version] [options]

Subcommands:
  up          Apply all pending migrations
  down        Roll back the last migration (--all for every migration)
  reset       Roll back all migrations
  steps <n>   Apply n migrations, or roll back when n is negative
  goto <v>    Migrate to a specific version
  force <v>   Force set migration version (recover a dirty schema)
  status      Show migration status
  version     Show current migration version
  info        Show migration summary

Options:
  --config <path>     Path to configuration file (YAML)
  --db-type <type>    Database type: postgres, mysql, sqlite
  --db-url <url>      Database connection URL

Examples:
  cogniflow migrate up --config /etc/cogniflow/config.yaml
  cogniflow migrate goto 1
  cogniflow migrate status --db-type sqlite --db-url ./data/cogniflow.db`)
}
