package activity

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/andrasnagy-data/weekplan/internal/shared/config"
	"github.com/andrasnagy-data/weekplan/internal/shared/database"
)

// Store is the document collection activities are persisted in.
// Insert assigns the id. Update merges the non-nil patch fields. Update and Delete
// return ErrNotFound for unknown ids, and Update returns ErrVersionConflict when
// patch.ExpectedVersion is set and does not match. GetAll makes no ordering promise
// beyond being stable between calls with no writes in between.
type Store interface {
	Insert(ctx context.Context, doc Activity) (string, error)
	Update(ctx context.Context, id string, patch Patch) (*Activity, error)
	Delete(ctx context.Context, id string) error
	GetAll(ctx context.Context) ([]Activity, error)
	Get(ctx context.Context, id string) (*Activity, error)
	Ping(ctx context.Context) error
	Close() error
}

// OpenStore opens the backend selected by cfg.StoreDriver.
func OpenStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (Store, error) {
	switch cfg.StoreDriver {
	case config.StoreMemory, "":
		return NewMemoryStore(), nil
	case config.StoreSQLite:
		db, err := database.OpenSQLite(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		return NewSQLiteStore(db), nil
	case config.StorePostgres:
		pool, err := database.NewPgxPool(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return NewPostgresStore(pool), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// NewStore opens the configured backend, wraps it with the all-activities cache and
// closes it when the application stops.
func NewStore(lc fx.Lifecycle, cfg *config.Config, logger zerolog.Logger) (Store, error) {
	backend, err := OpenStore(context.Background(), cfg, logger)
	if err != nil {
		return nil, err
	}

	logger.Info().Str("driver", cfg.StoreDriver).Str("collection", Collection).Msg("Activity store opened")

	store := newCachedStore(backend)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return store.Close()
		},
	})
	return store, nil
}
