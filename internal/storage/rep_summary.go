package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/meltforce/posereps/internal/models"
)

// ExercisePeriodSummary holds aggregated rep stats for one exercise within a period.
type ExercisePeriodSummary struct {
	Exercise      models.ExerciseKind `json:"exercise"`
	Reps          int                 `json:"reps"`
	Sessions      int                 `json:"sessions"`
	AvgConfidence float64             `json:"avg_confidence"`
}

// RepSummaryPeriod holds the per-exercise rep stats of one period.
type RepSummaryPeriod struct {
	Period    string                  `json:"period"`
	TotalReps int                     `json:"total_reps"`
	Exercises []ExercisePeriodSummary `json:"exercises"`
}

// GetRepSummary returns rep counts per exercise grouped by day, week or month.
func (db *DB) GetRepSummary(ctx context.Context, start, end time.Time, bucket string) ([]RepSummaryPeriod, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT date_trunc($1, time)::date AS period,
		        exercise,
		        COUNT(*)::int,
		        COUNT(DISTINCT session_id)::int,
		        AVG(confidence)::float8
		 FROM rep_events
		 WHERE time >= $2 AND time < $3
		 GROUP BY period, exercise
		 ORDER BY period DESC, COUNT(*) DESC`,
		truncInterval(bucket), start, end)
	if err != nil {
		return nil, fmt.Errorf("querying rep summary: %w", err)
	}
	defer rows.Close()

	periodMap := make(map[string]*RepSummaryPeriod)
	var periodOrder []string

	for rows.Next() {
		var (
			periodTime time.Time
			exercise   string
			es         ExercisePeriodSummary
		)
		if err := rows.Scan(&periodTime, &exercise, &es.Reps, &es.Sessions, &es.AvgConfidence); err != nil {
			return nil, fmt.Errorf("scanning rep summary: %w", err)
		}
		es.Exercise = models.ExerciseKind(exercise)

		key := periodTime.Format("2006-01-02")
		if _, ok := periodMap[key]; !ok {
			periodMap[key] = &RepSummaryPeriod{Period: key}
			periodOrder = append(periodOrder, key)
		}
		p := periodMap[key]
		p.Exercises = append(p.Exercises, es)
		p.TotalReps += es.Reps
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := make([]RepSummaryPeriod, 0, len(periodOrder))
	for _, key := range periodOrder {
		result = append(result, *periodMap[key])
	}
	return result, nil
}

// truncInterval converts bucket strings like "1 week" to the interval name
// that date_trunc expects. Unknown buckets group by day.
func truncInterval(bucket string) string {
	switch bucket {
	case "1 week", "week":
		return "week"
	case "1 month", "month":
		return "month"
	default:
		return "day"
	}
}
