package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"edulift.app/membership/common/logger"
	"edulift.app/membership/core/config"
	"edulift.app/membership/core/db"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: migrate [up|down|status]\n")
	}
	flag.Parse()

	command := "up"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeMigrate)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}
	logger.Setup(cfg)

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	switch command {
	case "up":
		err = database.Migrate(ctx)
	case "down":
		err = database.MigrateDown(ctx)
	case "status":
		err = database.MigrationStatus(ctx)
	default:
		flag.Usage()
		database.Close()
		os.Exit(2)
	}
	if err != nil {
		slog.ErrorContext(ctx, "migration failed", "command", command, "error", err)
		database.Close()
		os.Exit(1)
	}

	slog.InfoContext(ctx, "migration complete", "command", command)
}
