package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/meltforce/posereps/internal/models"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("not found")

// CreateSession inserts a session row. Re-inserting an existing id is a no-op.
func (db *DB) CreateSession(ctx context.Context, row models.SessionRow) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO sessions (id, source, started_at) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO NOTHING`,
		row.ID, row.Source, row.StartedAt)
	if err != nil {
		return fmt.Errorf("inserting session %s: %w", row.ID, err)
	}
	return nil
}

// EndSession stamps the session's end time.
func (db *DB) EndSession(ctx context.Context, id uuid.UUID, endedAt time.Time) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE sessions SET ended_at = $2 WHERE id = $1`, id, endedAt)
	if err != nil {
		return fmt.Errorf("ending session %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return nil
}

// GetSession returns one session row.
func (db *DB) GetSession(ctx context.Context, id uuid.UUID) (*models.SessionRow, error) {
	var s models.SessionRow
	err := db.Pool.QueryRow(ctx,
		`SELECT id, source, started_at, ended_at FROM sessions WHERE id = $1`, id,
	).Scan(&s.ID, &s.Source, &s.StartedAt, &s.EndedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}
	return &s, nil
}

// QuerySessions returns the most recent sessions, newest first.
func (db *DB) QuerySessions(ctx context.Context, limit int) ([]models.SessionRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT id, source, started_at, ended_at FROM sessions
		 ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var result []models.SessionRow
	for rows.Next() {
		var s models.SessionRow
		if err := rows.Scan(&s.ID, &s.Source, &s.StartedAt, &s.EndedAt); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}
