package mcp

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/meltforce/posereps/internal/exercise"
	"github.com/meltforce/posereps/internal/models"
	"github.com/meltforce/posereps/internal/storage"
)

// defaultTimeRange returns start/end defaulting to the last 7 days.
func defaultTimeRange(startStr, endStr string) (time.Time, time.Time, error) {
	return timeRange(startStr, endStr, 0, -7)
}

// timeRange parses start/end; an empty start defaults to end shifted by
// months and days.
func timeRange(startStr, endStr string, months, days int) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		end = time.Now()
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, months, days)
	}

	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse("2006-01-02", s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

var exerciseNames = func() []string {
	names := make([]string, len(models.Catalog))
	for i, k := range models.Catalog {
		names[i] = string(k)
	}
	return names
}()

// --- Tool definitions ---

var toolGetRepHistory = mcp.NewTool("get_rep_history",
	mcp.WithDescription("List completed repetitions, newest first. Each rep carries its exercise, running count within the session, form confidence (0-100) and the joint angles at completion."),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 7 days ago.")),
	mcp.WithString("end", mcp.Description("End date (ISO 8601 or YYYY-MM-DD). Defaults to now.")),
	mcp.WithString("exercise", mcp.Description("Only reps of this exercise."), mcp.Enum(exerciseNames...)),
	mcp.WithString("session", mcp.Description("Only reps of this session id.")),
	mcp.WithNumber("limit", mcp.Description("Maximum number of reps. Defaults to 200.")),
)

var toolGetExerciseTotals = mcp.NewTool("get_exercise_totals",
	mcp.WithDescription("Total completed reps per exercise with session count, average form confidence and the time of the last rep."),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 7 days ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
)

var toolGetRepSummary = mcp.NewTool("get_rep_summary",
	mcp.WithDescription("Rep counts per exercise aggregated by day, week or month. Useful for spotting training streaks and gaps."),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 3 months ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
	mcp.WithString("bucket", mcp.Description("Aggregation period. Defaults to '1 week'."), mcp.Enum("1 day", "1 week", "1 month")),
)

var toolListSessions = mcp.NewTool("list_sessions",
	mcp.WithDescription("List recent training sessions with their source and start/end times."),
	mcp.WithNumber("limit", mcp.Description("Maximum number of sessions. Defaults to 20.")),
)

var toolListExercises = mcp.NewTool("list_exercises",
	mcp.WithDescription("List the tracked exercises in cycling order with the joints they use and their counting thresholds."),
)

var toolGetStats = mcp.NewTool("get_stats",
	mcp.WithDescription("Overall totals: reps, sessions and the time span covered by recorded reps."),
)

// --- Tool handlers ---

func (h *handlers) getRepHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	f := storage.RepFilter{Start: start, End: end, Limit: req.GetInt("limit", 200)}
	if v := req.GetString("exercise", ""); v != "" {
		kind, err := models.ParseExerciseKind(v)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		f.Exercise = kind
	}
	if v := req.GetString("session", ""); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return mcp.NewToolResultError("invalid session id: " + err.Error()), nil
		}
		f.SessionID = id
	}

	events, err := h.ds.QueryRepEvents(ctx, f)
	if err != nil {
		h.log.Error("mcp get_rep_history", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(events)
}

func (h *handlers) getExerciseTotals(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	totals, err := h.ds.GetExerciseTotals(ctx, start, end)
	if err != nil {
		h.log.Error("mcp get_exercise_totals", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(totals)
}

func (h *handlers) getRepSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := timeRange(req.GetString("start", ""), req.GetString("end", ""), -3, 0)
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	bucket := req.GetString("bucket", "1 week")
	summary, err := h.ds.GetRepSummary(ctx, start, end, bucket)
	if err != nil {
		h.log.Error("mcp get_rep_summary", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(summary)
}

func (h *handlers) listSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessions, err := h.ds.QuerySessions(ctx, req.GetInt("limit", 20))
	if err != nil {
		h.log.Error("mcp list_sessions", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(sessions)
}

func (h *handlers) listExercises(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(exercise.Describe(h.profiles))
}

func (h *handlers) getStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := h.ds.GetRepStats(ctx)
	if err != nil {
		h.log.Error("mcp get_stats", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(stats)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
