package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrasnagy-data/weekplan/internal/components/activity"
	"github.com/andrasnagy-data/weekplan/internal/shared/config"
)

const seedYAML = `
activities:
  - title: Standup
    day: monday
    time: "09:00"
  - title: Weekend
    day: saturday
    time: "10:00"
`

func writeSeed(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "activities.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func storedTitles(t *testing.T, dbPath string) []string {
	t.Helper()

	store, err := activity.OpenStore(context.Background(), &config.Config{
		StoreDriver: config.StoreSQLite,
		SQLitePath:  dbPath,
	}, zerolog.Nop())
	require.NoError(t, err)
	defer store.Close()

	all, err := store.GetAll(context.Background())
	require.NoError(t, err)
	out := make([]string, 0, len(all))
	for _, a := range all {
		out = append(out, a.Title)
	}
	return out
}

func TestSeedRefusesMemoryStore(t *testing.T) {
	t.Setenv("STORE_DRIVER", config.StoreMemory)

	err := seed(writeSeed(t, seedYAML))
	assert.ErrorIs(t, err, errMemoryStore)
}

func TestSeedWritesToSQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "weekplan.db")
	t.Setenv("STORE_DRIVER", config.StoreSQLite)
	t.Setenv("SQLITE_PATH", dbPath)

	require.NoError(t, seed(writeSeed(t, "activities:\n  - title: Standup\n    day: monday\n    time: \"09:00\"\n")))

	assert.Equal(t, []string{"Standup"}, storedTitles(t, dbPath))
}

// A failing entry still leaves the earlier entries committed and the store closed.
func TestSeedFailureStopsApp(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "weekplan.db")
	t.Setenv("STORE_DRIVER", config.StoreSQLite)
	t.Setenv("SQLITE_PATH", dbPath)

	err := seed(writeSeed(t, seedYAML))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seeded 1 activities before failing")

	var vErr *activity.ValidationError
	assert.ErrorAs(t, err, &vErr)
	assert.Equal(t, []string{"Standup"}, storedTitles(t, dbPath))
}
