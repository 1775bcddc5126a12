package activity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type (
	seedFile struct {
		Activities []CreateActivityIn `yaml:"activities"`
	}

	// Seeder bulk-creates activities from a YAML file through the service, so seeded entries
	// are validated and published like any other.
	Seeder struct {
		service servicer
		logger  zerolog.Logger
	}
)

func NewSeeder(service servicer, logger zerolog.Logger) *Seeder {
	return &Seeder{service: service, logger: logger.With().Str("component", "seed").Logger()}
}

// LoadSeed parses a YAML document of the form `activities: [{title, description, day, time}]`.
func LoadSeed(r io.Reader) ([]CreateActivityIn, error) {
	var file seedFile
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return file.Activities, nil
}

// Seed creates entries in order and stops at the first one that fails, returning how many were created.
func (s *Seeder) Seed(ctx context.Context, entries []CreateActivityIn) (int, error) {
	for i, entry := range entries {
		created, err := s.service.CreateActivity(ctx, entry)
		if err != nil {
			return i, fmt.Errorf("entry %d (%q): %w", i, entry.Title, err)
		}
		s.logger.Debug().Int("index", i).Str("id", created.ID).Msg("Seeded activity")
	}
	return len(entries), nil
}

// SeedFile loads path and seeds its entries.
func (s *Seeder) SeedFile(ctx context.Context, path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	entries, err := LoadSeed(file)
	if err != nil {
		return 0, err
	}

	created, err := s.Seed(ctx, entries)
	s.logger.Info().Int("created", created).Int("total", len(entries)).Str("file", path).Msg("Seed finished")
	return created, err
}
