// Command import replaces every employee with the records of a JSON export.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"afa.directory/internal/cache"
	"afa.directory/internal/config"
	"afa.directory/internal/importer"
	"afa.directory/internal/obs"
	"afa.directory/internal/store/pg"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	var (
		file    = flag.String("file", "", "path to the employee export (JSON array)")
		dsn     = flag.String("dsn", cfg.PGDSN, "PostgreSQL DSN")
		confirm = flag.Bool("confirm", false, "required: the import deletes every existing employee")
	)
	flag.Parse()

	logger, err := obs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	obs.SetLogger(logger)
	obs.Init()

	if *file == "" {
		logger.Fatal("missing -file")
	}
	if *dsn == "" {
		logger.Fatal("missing DSN: provide via -dsn or DIRECTORY_PG_DSN")
	}
	f, err := os.Open(*file)
	if err != nil {
		logger.Fatal("open export", zap.Error(err))
	}
	export, err := importer.Parse(f)
	_ = f.Close()
	if err != nil {
		logger.Fatal("parse export", zap.String("file", *file), zap.Error(err))
	}
	if !*confirm {
		logger.Error("dry run: rerun with -confirm to delete every employee and import this file",
			zap.String("file", *file),
			zap.Int("records", len(export.Records)),
			zap.Int("malformed", export.Malformed),
		)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	store, err := pg.Open(*dsn)
	if err != nil {
		logger.Fatal("open db", zap.Error(err))
	}
	defer store.Close()

	opts := []importer.Option{importer.WithLogger(logger)}
	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Warn("redis unavailable, cached directory expires on its own", zap.Error(err))
		} else {
			defer rdb.Close()
			opts = append(opts, importer.WithCache(cache.New(rdb, cache.WithLogger(logger))))
		}
	}

	summary, err := importer.New(store, opts...).Run(ctx, export)
	if err != nil {
		logger.Fatal("import failed", zap.Error(err))
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(summary)
}
