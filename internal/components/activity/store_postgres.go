package activity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const activityColumns = `id, title, description, day, time_of_day, created_at, updated_at, version`

type (
	rowScanner interface {
		Scan(dest ...any) error
	}

	postgresStore struct {
		pool *pgxpool.Pool
	}
)

func NewPostgresStore(pool *pgxpool.Pool) Store {
	return &postgresStore{pool: pool}
}

func scanActivity(row rowScanner) (Activity, error) {
	var (
		a   Activity
		day string
	)
	err := row.Scan(
		&a.ID,
		&a.Title,
		&a.Description,
		&day,
		&a.Time,
		&a.CreatedAt,
		&a.UpdatedAt,
		&a.Version,
	)
	a.Day = Day(day)
	return a, err
}

func (s *postgresStore) Insert(ctx context.Context, doc Activity) (string, error) {
	stmt := `
	INSERT INTO activities (
		id, title, description, day, time_of_day, created_at, updated_at, version
	)
	VALUES (
		$1, $2, $3, $4, $5, $6, $7, 1
	)`

	id := uuid.NewString()
	_, err := s.pool.Exec(
		ctx,
		stmt,
		id,
		doc.Title,
		doc.Description,
		string(doc.Day),
		doc.Time,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// Update builds the SET clause from the non-nil patch fields. The version guard is part of the
// WHERE clause, so a mismatch leaves the row untouched and is told apart from a missing row afterwards.
func (s *postgresStore) Update(ctx context.Context, id string, patch Patch) (*Activity, error) {
	setParts := []string{}
	args := []any{id}
	argIndex := 2

	if patch.Title != nil {
		setParts = append(setParts, fmt.Sprintf("title = $%d", argIndex))
		args = append(args, *patch.Title)
		argIndex++
	}
	if patch.Description != nil {
		setParts = append(setParts, fmt.Sprintf("description = $%d", argIndex))
		args = append(args, *patch.Description)
		argIndex++
	}
	if patch.Time != nil {
		setParts = append(setParts, fmt.Sprintf("time_of_day = $%d", argIndex))
		args = append(args, *patch.Time)
		argIndex++
	}

	setParts = append(setParts, fmt.Sprintf("updated_at = $%d", argIndex), "version = version + 1")
	args = append(args, patch.UpdatedAt)
	argIndex++

	whereClause := "WHERE id = $1"
	if patch.ExpectedVersion != 0 {
		whereClause += fmt.Sprintf(" AND version = $%d", argIndex)
		args = append(args, patch.ExpectedVersion)
	}

	stmt := fmt.Sprintf(`
	UPDATE activities
	SET %s
	%s
	RETURNING %s`, strings.Join(setParts, ", "), whereClause, activityColumns)

	updated, err := scanActivity(s.pool.QueryRow(ctx, stmt, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, s.missOrConflict(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *postgresStore) missOrConflict(ctx context.Context, id string) error {
	var version int
	err := s.pool.QueryRow(ctx, `SELECT version FROM activities WHERE id = $1`, id).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrVersionConflict
}

func (s *postgresStore) Delete(ctx context.Context, id string) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM activities WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *postgresStore) GetAll(ctx context.Context) ([]Activity, error) {
	stmt := fmt.Sprintf(`
	SELECT %s
	FROM activities
	ORDER BY created_at, id`, activityColumns)

	rows, err := s.pool.Query(ctx, stmt)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activities := []Activity{}
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return activities, nil
}

func (s *postgresStore) Get(ctx context.Context, id string) (*Activity, error) {
	stmt := fmt.Sprintf(`SELECT %s FROM activities WHERE id = $1`, activityColumns)

	a, err := scanActivity(s.pool.QueryRow(ctx, stmt, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *postgresStore) Ping(ctx context.Context) error {
	var res int
	if err := s.pool.QueryRow(ctx, "SELECT 1").Scan(&res); err != nil {
		return err
	}
	if res != 1 {
		return fmt.Errorf("unexpected ping result %d", res)
	}
	return nil
}

func (s *postgresStore) Close() error {
	s.pool.Close()
	return nil
}
