package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/meltforce/posereps/internal/exercise"
	"github.com/meltforce/posereps/internal/storage"
)

const latestRepsInSummary = 10

func (h *handlers) dailySummary(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	tomorrow := today.AddDate(0, 0, 1)

	totals, err := h.ds.GetExerciseTotals(ctx, today, tomorrow)
	if err != nil {
		return nil, err
	}

	latest, err := h.ds.QueryRepEvents(ctx, storage.RepFilter{Start: today, End: tomorrow, Limit: latestRepsInSummary})
	if err != nil {
		h.log.Warn("daily_summary: rep query failed", "error", err)
	}

	return jsonContents(req.Params.URI, map[string]any{
		"date":        today.Format("2006-01-02"),
		"totals":      totals,
		"latest_reps": latest,
	})
}

func (h *handlers) recentReps(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	end := time.Now()
	start := end.AddDate(0, 0, -14)

	events, err := h.ds.QueryRepEvents(ctx, storage.RepFilter{Start: start, End: end})
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, events)
}

func (h *handlers) exerciseCatalog(_ context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonContents(req.Params.URI, exercise.Describe(h.profiles))
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
