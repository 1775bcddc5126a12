package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/andrasnagy-data/weekplan/internal/components/activity"
	"github.com/andrasnagy-data/weekplan/internal/shared/config"
	"github.com/andrasnagy-data/weekplan/internal/shared/events"
	"github.com/andrasnagy-data/weekplan/internal/shared/logging"
)

const lifecycleTimeout = 10 * time.Second

var errMemoryStore = errors.New("the memory store is discarded on exit; set STORE_DRIVER to sqlite or postgres")

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run ./cmd/seed <activities.yaml>")
		os.Exit(1)
	}

	if err := seed(os.Args[1]); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

// seed loads the file at path into the configured store. The store and the event publisher
// are closed on the way out whether or not seeding succeeded.
func seed(path string, opts ...fx.Option) error {
	var (
		cfg    *config.Config
		seeder *activity.Seeder
		logger zerolog.Logger
	)
	app := fx.New(
		fx.NopLogger,
		fx.Provide(
			config.NewConfig,
			logging.NewLogger,
			events.NewPublisher,
			activity.NewStore,
			activity.NewService,
			activity.NewSeeder,
		),
		fx.Options(opts...),
		fx.Populate(&cfg, &seeder, &logger),
	)
	if err := app.Err(); err != nil {
		return err
	}

	if cfg.StoreDriver == config.StoreMemory || cfg.StoreDriver == "" {
		return errMemoryStore
	}

	startCtx, cancel := context.WithTimeout(context.Background(), lifecycleTimeout)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}

	created, seedErr := seeder.SeedFile(context.Background(), path)
	if seedErr != nil {
		seedErr = fmt.Errorf("seeded %d activities before failing: %w", created, seedErr)
	} else {
		logger.Info().Int("created", created).Str("path", path).Msg("Seed complete")
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), lifecycleTimeout)
	defer cancel()
	return errors.Join(seedErr, app.Stop(stopCtx))
}
