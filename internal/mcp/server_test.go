package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/meltforce/posereps/internal/exercise"
	"github.com/meltforce/posereps/internal/models"
	"github.com/meltforce/posereps/internal/storage"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeDataSource struct {
	filter  storage.RepFilter
	bucket  string
	start   time.Time
	limit   int
	fail    bool
	events  []models.RepEvent
	summary []storage.RepSummaryPeriod
}

var errFake = errors.New("database unavailable")

func (f *fakeDataSource) QueryRepEvents(_ context.Context, filter storage.RepFilter) ([]models.RepEvent, error) {
	f.filter = filter
	if f.fail {
		return nil, errFake
	}
	return f.events, nil
}

func (f *fakeDataSource) GetExerciseTotals(_ context.Context, start, end time.Time) ([]models.ExerciseTotal, error) {
	if f.fail {
		return nil, errFake
	}
	return []models.ExerciseTotal{{Exercise: models.Squat, Reps: 10}}, nil
}

func (f *fakeDataSource) GetRepSummary(_ context.Context, start, end time.Time, bucket string) ([]storage.RepSummaryPeriod, error) {
	f.start, f.bucket = start, bucket
	return f.summary, nil
}

func (f *fakeDataSource) QuerySessions(_ context.Context, limit int) ([]models.SessionRow, error) {
	f.limit = limit
	return []models.SessionRow{}, nil
}

func (f *fakeDataSource) GetRepStats(_ context.Context) (*storage.RepStats, error) {
	return &storage.RepStats{TotalReps: 5}, nil
}

func newTestHandlers(ds DataSource) *handlers {
	return &handlers{ds: ds, profiles: exercise.DefaultProfiles(), log: discard}
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

// resultText returns the first text content of a tool result.
func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	for _, c := range res.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	t.Fatal("result has no text content")
	return ""
}

// TestDefaultTimeRange verifies time range defaults (last 7 days) and parsing.
func TestDefaultTimeRange(t *testing.T) {
	// Both empty → defaults to last 7 days
	start, end, err := defaultTimeRange("", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	diff := end.Sub(start)
	if diff.Hours() < 167 || diff.Hours() > 169 { // ~168 hours = 7 days
		t.Errorf("default range = %.0f hours, want ~168", diff.Hours())
	}

	// Explicit dates
	start, end, err = defaultTimeRange("2024-01-01", "2024-01-31")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start.Year() != 2024 || start.Month() != 1 || start.Day() != 1 {
		t.Errorf("start = %v, want 2024-01-01", start)
	}
	if end.Year() != 2024 || end.Month() != 1 || end.Day() != 31 {
		t.Errorf("end = %v, want 2024-01-31", end)
	}

	// RFC3339
	start, _, err = defaultTimeRange("2024-06-15T10:30:00Z", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start.Hour() != 10 || start.Minute() != 30 {
		t.Errorf("start = %v, want 10:30", start)
	}

	// Invalid
	_, _, err = defaultTimeRange("not-a-date", "")
	if err == nil {
		t.Error("expected error for invalid date")
	}
}

// TestGetRepHistoryFilters verifies tool arguments become a rep filter.
func TestGetRepHistoryFilters(t *testing.T) {
	sid := uuid.New()
	ds := &fakeDataSource{events: []models.RepEvent{{ID: 1, Exercise: models.Squat, RepCount: 1}}}
	h := newTestHandlers(ds)

	res, err := h.getRepHistory(context.Background(), callRequest(map[string]any{
		"start":    "2025-03-01",
		"end":      "2025-03-08",
		"exercise": "squat",
		"session":  sid.String(),
		"limit":    float64(25),
	}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	if ds.filter.Exercise != models.Squat || ds.filter.SessionID != sid || ds.filter.Limit != 25 {
		t.Errorf("filter = %+v", ds.filter)
	}

	var events []models.RepEvent
	if err := json.Unmarshal([]byte(resultText(t, res)), &events); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(events) != 1 || events[0].Exercise != models.Squat {
		t.Errorf("events = %+v", events)
	}
}

// TestGetRepHistoryDefaults verifies the default limit.
func TestGetRepHistoryDefaults(t *testing.T) {
	ds := &fakeDataSource{}
	res, err := newTestHandlers(ds).getRepHistory(context.Background(), callRequest(nil))
	if err != nil || res.IsError {
		t.Fatalf("unexpected failure: %v", err)
	}
	if ds.filter.Limit != 200 {
		t.Errorf("limit = %d, want 200", ds.filter.Limit)
	}
}

// TestToolArgumentErrors verifies bad arguments become tool errors rather
// than protocol errors.
func TestToolArgumentErrors(t *testing.T) {
	cases := []struct {
		name string
		args map[string]any
	}{
		{"unknown exercise", map[string]any{"exercise": "burpee"}},
		{"bad session", map[string]any{"session": "abc"}},
		{"bad date", map[string]any{"start": "last week"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := newTestHandlers(&fakeDataSource{}).getRepHistory(context.Background(), callRequest(tc.args))
			if err != nil {
				t.Fatalf("protocol error: %v", err)
			}
			if !res.IsError {
				t.Error("expected tool error")
			}
		})
	}
}

// TestQueryFailureIsToolError verifies data source errors are reported in
// the result.
func TestQueryFailureIsToolError(t *testing.T) {
	res, err := newTestHandlers(&fakeDataSource{fail: true}).getExerciseTotals(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Error("expected tool error")
	}
}

// TestGetRepSummaryDefaults verifies the weekly bucket and 3 month window.
func TestGetRepSummaryDefaults(t *testing.T) {
	ds := &fakeDataSource{}
	if _, err := newTestHandlers(ds).getRepSummary(context.Background(), callRequest(nil)); err != nil {
		t.Fatal(err)
	}
	if ds.bucket != "1 week" {
		t.Errorf("bucket = %q, want 1 week", ds.bucket)
	}
	if d := time.Since(ds.start); d < 80*24*time.Hour || d > 95*24*time.Hour {
		t.Errorf("start is %v ago, want about 3 months", d)
	}
}

// TestListSessionsLimit verifies the default session limit.
func TestListSessionsLimit(t *testing.T) {
	ds := &fakeDataSource{}
	if _, err := newTestHandlers(ds).listSessions(context.Background(), callRequest(nil)); err != nil {
		t.Fatal(err)
	}
	if ds.limit != 20 {
		t.Errorf("limit = %d, want 20", ds.limit)
	}
}

// TestListExercises verifies the catalog tool reflects the configured profiles.
func TestListExercises(t *testing.T) {
	h := newTestHandlers(&fakeDataSource{})
	h.profiles = exercise.DefaultProfiles().WithOverrides(map[models.ExerciseKind]exercise.Profile{
		models.Squat: {Down: 95},
	})

	res, err := h.listExercises(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatal(err)
	}
	var infos []exercise.Info
	if err := json.Unmarshal([]byte(resultText(t, res)), &infos); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(infos) != len(models.Catalog) {
		t.Fatalf("got %d exercises", len(infos))
	}
	if infos[1].Exercise != models.Squat || infos[1].Profile.Down != 95 {
		t.Errorf("squat entry = %+v", infos[1])
	}
}

// TestExerciseCatalogResource verifies the catalog resource content.
func TestExerciseCatalogResource(t *testing.T) {
	h := newTestHandlers(&fakeDataSource{})
	var req mcp.ReadResourceRequest
	req.Params.URI = "posereps://exercise_catalog"

	contents, err := h.exerciseCatalog(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if len(contents) != 1 {
		t.Fatalf("got %d contents", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("content type %T", contents[0])
	}
	if tc.URI != req.Params.URI || tc.MIMEType != "application/json" {
		t.Errorf("content = %+v", tc)
	}
}

// TestDailySummaryResource verifies today's totals and latest reps are combined.
func TestDailySummaryResource(t *testing.T) {
	ds := &fakeDataSource{}
	h := newTestHandlers(ds)
	var req mcp.ReadResourceRequest
	req.Params.URI = "posereps://daily_summary"

	contents, err := h.dailySummary(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	var summary map[string]json.RawMessage
	if err := json.Unmarshal([]byte(contents[0].(mcp.TextResourceContents).Text), &summary); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, k := range []string{"date", "totals", "latest_reps"} {
		if _, ok := summary[k]; !ok {
			t.Errorf("missing %q", k)
		}
	}
	if ds.filter.Limit != latestRepsInSummary {
		t.Errorf("latest reps limit = %d", ds.filter.Limit)
	}
}

// TestNewRegistersServer verifies New builds a server without panicking.
func TestNewRegistersServer(t *testing.T) {
	if s := New(&fakeDataSource{}, nil, "test", discard); s == nil {
		t.Fatal("New returned nil")
	}
}
