package main

import (
	"context"
	"fmt"
	"os"

	"travelbooking/pkg/config"
	"travelbooking/pkg/db"
)

func main() {
	cfg := config.Load()
	if cfg.MigrationsPath == "" {
		cfg.MigrationsPath = "file://migrations"
	}
	if !cfg.JournalEnabled() {
		fmt.Fprintln(os.Stderr, "no database configured (set DATABASE_URL or DB_HOST)")
		os.Exit(2)
	}

	// This uses DIRECT_URL if set (recommended for pooled databases).
	if err := db.Migrate(cfg.MigrationsPath, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "migrate failed: %v\n", err)
		os.Exit(1)
	}

	// Sanity check the runtime connection (DATABASE_URL if set). DSNs are never printed.
	pool, err := db.Open(context.Background(), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "runtime db open failed: %v\n", err)
		os.Exit(1)
	}
	pool.Close()

	fmt.Println("migrations applied")
}
