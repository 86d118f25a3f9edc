// students-seed fills the configured store with sample students.
//
//	go run ./cmd/students-seed --config=config/local.yaml
//	go run ./cmd/students-seed --config=config/local.yaml --reset
//
// --reset deletes every existing student first.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/aanand-mishra/enrollment-api/internal/config"
	"github.com/aanand-mishra/enrollment-api/internal/seed"
	"github.com/aanand-mishra/enrollment-api/internal/storage/backend"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Registered before MustLoad, which calls flag.Parse.
	reset := flag.Bool("reset", false, "delete all existing students before seeding")

	cfg := config.MustLoad()

	log := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := backend.Open(ctx, cfg)
	if err != nil {
		log.Error("failed to initialise storage", slog.String("error", err.Error()))
		return 1
	}
	defer store.Close()

	log.Info("seeding", slog.String("location", backend.Describe(cfg)), slog.Bool("reset", *reset))

	res, err := seed.Run(ctx, store, *reset)
	if err != nil {
		log.Error("seeding failed", slog.String("error", err.Error()))
		return 1
	}

	log.Info("seeding finished",
		slog.Int("removed", res.Removed),
		slog.Int("inserted", res.Inserted),
		slog.Int("skipped", res.Skipped),
	)
	return 0
}
