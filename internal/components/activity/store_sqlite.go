package activity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type sqliteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) Store {
	return &sqliteStore{db: db}
}

func (s *sqliteStore) Insert(ctx context.Context, doc Activity) (string, error) {
	stmt := `
	INSERT INTO activities (
		id, title, description, day, time_of_day, created_at, updated_at, version
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, 1)`

	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, stmt,
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

func (s *sqliteStore) Update(ctx context.Context, id string, patch Patch) (*Activity, error) {
	setParts := []string{}
	args := []any{}

	if patch.Title != nil {
		setParts = append(setParts, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Description != nil {
		setParts = append(setParts, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.Time != nil {
		setParts = append(setParts, "time_of_day = ?")
		args = append(args, *patch.Time)
	}
	setParts = append(setParts, "updated_at = ?", "version = version + 1")
	args = append(args, patch.UpdatedAt, id)

	whereClause := "WHERE id = ?"
	if patch.ExpectedVersion != 0 {
		whereClause += " AND version = ?"
		args = append(args, patch.ExpectedVersion)
	}

	stmt := fmt.Sprintf(`UPDATE activities SET %s %s RETURNING %s`,
		strings.Join(setParts, ", "), whereClause, activityColumns)

	updated, err := scanActivity(s.db.QueryRowContext(ctx, stmt, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, s.missOrConflict(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *sqliteStore) missOrConflict(ctx context.Context, id string) error {
	var version int
	err := s.db.QueryRowContext(ctx, `SELECT version FROM activities WHERE id = ?`, id).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrVersionConflict
}

func (s *sqliteStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM activities WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqliteStore) GetAll(ctx context.Context) ([]Activity, error) {
	stmt := fmt.Sprintf(`SELECT %s FROM activities ORDER BY created_at, id`, activityColumns)

	rows, err := s.db.QueryContext(ctx, stmt)
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

func (s *sqliteStore) Get(ctx context.Context, id string) (*Activity, error) {
	stmt := fmt.Sprintf(`SELECT %s FROM activities WHERE id = ?`, activityColumns)

	a, err := scanActivity(s.db.QueryRowContext(ctx, stmt, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *sqliteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}
