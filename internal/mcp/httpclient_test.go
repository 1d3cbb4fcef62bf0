package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/meltforce/posereps/internal/models"
	"github.com/meltforce/posereps/internal/storage"
)

// newTestServer creates an httptest server that routes requests to handler functions
// keyed by path. Verifies the HTTP client sends correct paths and query params.
func newTestServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			t.Errorf("unexpected request path: %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
}

func writeTestJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatal(err)
	}
}

var (
	testStart = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	testEnd   = time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC)
)

// TestQueryRepEvents verifies the filter is sent as query params and the
// JSON array response is parsed.
func TestQueryRepEvents(t *testing.T) {
	sid := uuid.New()
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/reps": func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if got := q.Get("exercise"); got != "pushup" {
				t.Errorf("exercise=%q, want pushup", got)
			}
			if got := q.Get("session"); got != sid.String() {
				t.Errorf("session=%q, want %s", got, sid)
			}
			if got := q.Get("limit"); got != "5" {
				t.Errorf("limit=%q, want 5", got)
			}
			if got := q.Get("start"); got != "2026-01-01T00:00:00Z" {
				t.Errorf("start=%q", got)
			}
			writeTestJSON(t, w, []models.RepEvent{
				{ID: 7, SessionID: sid, Exercise: models.Pushup, RepCount: 3, Confidence: 90,
					Angles: models.Angles{models.LeftElbow: 82}},
			})
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL, "")
	events, err := client.QueryRepEvents(context.Background(), storage.RepFilter{
		Start: testStart, End: testEnd, Exercise: models.Pushup, SessionID: sid, Limit: 5,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].RepCount != 3 {
		t.Errorf("rep_count=%d, want 3", events[0].RepCount)
	}
	if v, ok := events[0].Angles.Get(models.LeftElbow); !ok || v != 82 {
		t.Errorf("left_elbow=%v,%v, want 82", v, ok)
	}
	if _, ok := events[0].Angles.Get(models.RightElbow); ok {
		t.Error("null angle decoded as observed")
	}
}

// TestQueryRepEventsOmitsEmptyFilters verifies unset filter fields are not sent.
func TestQueryRepEventsOmitsEmptyFilters(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/reps": func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			for _, k := range []string{"exercise", "session", "limit"} {
				if q.Has(k) {
					t.Errorf("unexpected param %s=%q", k, q.Get(k))
				}
			}
			writeTestJSON(t, w, []models.RepEvent{})
		},
	})
	defer ts.Close()

	if _, err := NewHTTPClient(ts.URL, "").QueryRepEvents(context.Background(), storage.RepFilter{Start: testStart, End: testEnd}); err != nil {
		t.Fatal(err)
	}
}

// TestGetExerciseTotals verifies totals parsing.
func TestGetExerciseTotals(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/reps/totals": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, []models.ExerciseTotal{
				{Exercise: models.Squat, Reps: 40, Sessions: 3, AvgConfidence: 81.5},
			})
		},
	})
	defer ts.Close()

	totals, err := NewHTTPClient(ts.URL, "").GetExerciseTotals(context.Background(), testStart, testEnd)
	if err != nil {
		t.Fatal(err)
	}
	if len(totals) != 1 || totals[0].Reps != 40 {
		t.Errorf("totals = %+v", totals)
	}
}

// TestGetRepSummary verifies the bucket is passed through.
func TestGetRepSummary(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/reps/summary": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("bucket"); got != "1 week" {
				t.Errorf("bucket=%q, want '1 week'", got)
			}
			writeTestJSON(t, w, []storage.RepSummaryPeriod{
				{Period: "2026-01-05", TotalReps: 25, Exercises: []storage.ExercisePeriodSummary{
					{Exercise: models.JumpingJack, Reps: 25, Sessions: 1},
				}},
			})
		},
	})
	defer ts.Close()

	summary, err := NewHTTPClient(ts.URL, "").GetRepSummary(context.Background(), testStart, testEnd, "1 week")
	if err != nil {
		t.Fatal(err)
	}
	if len(summary) != 1 || summary[0].Exercises[0].Exercise != models.JumpingJack {
		t.Errorf("summary = %+v", summary)
	}
}

// TestQuerySessionsSendsAPIKey verifies the session listing carries the key.
func TestQuerySessionsSendsAPIKey(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/sessions": func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("X-API-Key"); got != "secret" {
				t.Errorf("X-API-Key=%q, want secret", got)
			}
			if got := r.URL.Query().Get("limit"); got != "3" {
				t.Errorf("limit=%q, want 3", got)
			}
			writeTestJSON(t, w, []models.SessionRow{{ID: uuid.New(), Source: "webcam", StartedAt: testStart}})
		},
	})
	defer ts.Close()

	rows, err := NewHTTPClient(ts.URL, "secret").QuerySessions(context.Background(), 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Source != "webcam" {
		t.Errorf("rows = %+v", rows)
	}
}

// TestGetRepStats verifies single struct parsing.
func TestGetRepStats(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/stats": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, storage.RepStats{TotalReps: 120, TotalSessions: 9})
		},
	})
	defer ts.Close()

	stats, err := NewHTTPClient(ts.URL, "").GetRepStats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalReps != 120 || stats.TotalSessions != 9 {
		t.Errorf("stats = %+v", stats)
	}
}

// TestHTTPClientServerError verifies non-200 responses surface as errors
// that include the status code.
func TestHTTPClientServerError(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/stats": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"database unavailable"}`, http.StatusInternalServerError)
		},
	})
	defer ts.Close()

	_, err := NewHTTPClient(ts.URL, "").GetRepStats(context.Background())
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("error = %q, want status code included", err)
	}
}

// TestNewHTTPClientTrimsSlash verifies a trailing slash in the base URL does
// not produce double slashes.
func TestNewHTTPClientTrimsSlash(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/stats": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, storage.RepStats{})
		},
	})
	defer ts.Close()

	if _, err := NewHTTPClient(ts.URL+"/", "").GetRepStats(context.Background()); err != nil {
		t.Fatal(err)
	}
}
