//go:build integration

package activity

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/andrasnagy-data/weekplan/internal/shared/config"
	"github.com/andrasnagy-data/weekplan/internal/shared/database"
)

func TestPostgresStore(t *testing.T) {
	ctx := context.Background()

	pg, err := postgrescontainer.Run(ctx, "postgres:16-alpine",
		postgrescontainer.WithDatabase("weekplan"),
		postgrescontainer.WithUsername("weekplan"),
		postgrescontainer.WithPassword("weekplan"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	cfg := &config.Config{DatabaseURL: connStr}

	testStore(t, func(t *testing.T) Store {
		pool, err := database.NewPgxPool(ctx, cfg, zerolog.Nop())
		require.NoError(t, err)

		_, err = pool.Exec(ctx, `TRUNCATE activities`)
		require.NoError(t, err)

		store := NewPostgresStore(pool)
		t.Cleanup(func() { _ = store.Close() })
		return store
	})
}
