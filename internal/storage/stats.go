package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/meltforce/posereps/internal/models"
)

// RepStats holds aggregate statistics about all stored data.
type RepStats struct {
	TotalReps     int64      `json:"total_reps"`
	TotalSessions int64      `json:"total_sessions"`
	EarliestRep   *time.Time `json:"earliest_rep"`
	LatestRep     *time.Time `json:"latest_rep"`
}

// GetExerciseTotals aggregates completed reps per exercise in [start, end).
func (db *DB) GetExerciseTotals(ctx context.Context, start, end time.Time) ([]models.ExerciseTotal, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT exercise, COUNT(*), COUNT(DISTINCT session_id),
		        COALESCE(AVG(confidence), 0)::float8, MAX(time)
		 FROM rep_events
		 WHERE time >= $1 AND time < $2
		 GROUP BY exercise
		 ORDER BY COUNT(*) DESC, exercise`,
		start, end)
	if err != nil {
		return nil, fmt.Errorf("querying exercise totals: %w", err)
	}
	defer rows.Close()

	var result []models.ExerciseTotal
	for rows.Next() {
		var (
			t        models.ExerciseTotal
			exercise string
		)
		if err := rows.Scan(&exercise, &t.Reps, &t.Sessions, &t.AvgConfidence, &t.LastRep); err != nil {
			return nil, fmt.Errorf("scanning exercise total: %w", err)
		}
		t.Exercise = models.ExerciseKind(exercise)
		result = append(result, t)
	}
	return result, rows.Err()
}

// GetRepStats returns overall counts and the time range of stored reps.
func (db *DB) GetRepStats(ctx context.Context) (*RepStats, error) {
	stats := &RepStats{}

	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*), MIN(time), MAX(time) FROM rep_events`,
	).Scan(&stats.TotalReps, &stats.EarliestRep, &stats.LatestRep)
	if err != nil {
		return nil, fmt.Errorf("counting reps: %w", err)
	}

	err = db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&stats.TotalSessions)
	if err != nil {
		return nil, fmt.Errorf("counting sessions: %w", err)
	}
	return stats, nil
}
