package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/meltforce/posereps/internal/models"
)

// RepFilter narrows QueryRepEvents. Zero fields do not filter.
type RepFilter struct {
	Start     time.Time
	End       time.Time
	Exercise  models.ExerciseKind
	SessionID uuid.UUID
	Limit     int
}

// InsertRepEvent stores a completed repetition and returns its id.
func (db *DB) InsertRepEvent(ctx context.Context, ev models.RepEvent) (int64, error) {
	angles, err := json.Marshal(ev.Angles)
	if err != nil {
		return 0, fmt.Errorf("encoding angles: %w", err)
	}

	var id int64
	err = db.Pool.QueryRow(ctx,
		`INSERT INTO rep_events (session_id, time, exercise, rep_count, status, confidence, angles)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 RETURNING id`,
		ev.SessionID, ev.Time, string(ev.Exercise), ev.RepCount, ev.Status, ev.Confidence, angles,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting rep event: %w", err)
	}
	return id, nil
}

// RecordRep stores ev. It satisfies trainer.RepSink.
func (db *DB) RecordRep(ctx context.Context, ev models.RepEvent) error {
	_, err := db.InsertRepEvent(ctx, ev)
	return err
}

// QueryRepEvents returns rep events matching f, newest first.
func (db *DB) QueryRepEvents(ctx context.Context, f RepFilter) ([]models.RepEvent, error) {
	query, args := buildRepQuery(f)
	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying rep events: %w", err)
	}
	defer rows.Close()

	return scanRepEvents(rows)
}

func buildRepQuery(f RepFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if !f.Start.IsZero() {
		add("time >= $%d", f.Start)
	}
	if !f.End.IsZero() {
		add("time < $%d", f.End)
	}
	if f.Exercise != "" {
		add("exercise = $%d", string(f.Exercise))
	}
	if f.SessionID != uuid.Nil {
		add("session_id = $%d", f.SessionID)
	}

	query := `SELECT id, session_id, time, exercise, rep_count, status, confidence, angles FROM rep_events`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY time DESC, id DESC"

	limit := f.Limit
	if limit <= 0 || limit > 5000 {
		limit = 5000
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	return query, args
}

func scanRepEvents(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]models.RepEvent, error) {
	var result []models.RepEvent
	for rows.Next() {
		var (
			ev       models.RepEvent
			exercise string
			angles   []byte
		)
		if err := rows.Scan(&ev.ID, &ev.SessionID, &ev.Time, &exercise, &ev.RepCount,
			&ev.Status, &ev.Confidence, &angles); err != nil {
			return nil, fmt.Errorf("scanning rep event: %w", err)
		}
		ev.Exercise = models.ExerciseKind(exercise)
		if len(angles) > 0 {
			if err := json.Unmarshal(angles, &ev.Angles); err != nil {
				return nil, fmt.Errorf("decoding angles of rep event %d: %w", ev.ID, err)
			}
		}
		result = append(result, ev)
	}
	return result, rows.Err()
}
