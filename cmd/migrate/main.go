package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"afa.directory/internal/config"
	"afa.directory/internal/migrate"
	"afa.directory/internal/obs"
	"afa.directory/internal/store/pg"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	dsn := flag.String("dsn", cfg.PGDSN, "PostgreSQL DSN")
	flag.Parse()

	logger, err := obs.NewLogger(cfg.LogLevel, "console")
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if *dsn == "" {
		logger.Fatal("missing DSN: provide via -dsn or DIRECTORY_PG_DSN")
	}
	if flag.NArg() == 0 {
		logger.Fatal("usage: migrate [up|down|seed|bootstrap|status]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store, err := pg.Open(*dsn)
	if err != nil {
		logger.Fatal("open db", zap.Error(err))
	}
	defer store.Close()

	mgr := migrate.NewManager(store.DB(), migrate.WithPasswordCost(cfg.BcryptCost), migrate.WithLogger(logger))

	switch cmd := flag.Arg(0); cmd {
	case "up":
		err = mgr.Up(ctx)
	case "down":
		err = mgr.Down(ctx)
	case "seed":
		err = mgr.Seed(ctx)
	case "bootstrap":
		err = mgr.Bootstrap(ctx)
	case "status":
		var states []migrate.MigrationState
		states, err = mgr.Status(ctx)
		for _, s := range states {
			applied := "pending"
			if s.Applied {
				applied = "applied " + s.AppliedAt.Format(time.RFC3339)
			}
			fmt.Printf("%05d  %-45s %s\n", s.Version, s.Path, applied)
		}
	default:
		logger.Fatal("unknown command", zap.String("command", cmd))
	}
	if err != nil {
		logger.Fatal("migrate failed", zap.String("command", flag.Arg(0)), zap.Error(err))
	}
}
