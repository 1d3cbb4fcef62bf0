package mcp

import (
	"context"
	"time"

	"github.com/meltforce/posereps/internal/models"
	"github.com/meltforce/posereps/internal/storage"
)

// DataSource abstracts the data layer for MCP tools. Both *storage.DB (local)
// and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	QueryRepEvents(ctx context.Context, f storage.RepFilter) ([]models.RepEvent, error)
	GetExerciseTotals(ctx context.Context, start, end time.Time) ([]models.ExerciseTotal, error)
	GetRepSummary(ctx context.Context, start, end time.Time, bucket string) ([]storage.RepSummaryPeriod, error)
	QuerySessions(ctx context.Context, limit int) ([]models.SessionRow, error)
	GetRepStats(ctx context.Context) (*storage.RepStats, error)
}

// Compile-time check: *storage.DB satisfies DataSource.
var _ DataSource = (*storage.DB)(nil)
