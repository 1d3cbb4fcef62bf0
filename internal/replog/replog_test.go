package replog

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/meltforce/posereps/internal/models"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestOpenCreatesEmptyDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "exercise_log.json")
	if _, err := Open(path, discard); err != nil {
		t.Fatalf("Open: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "[]" {
		t.Errorf("content = %q, want []", data)
	}
}

// TestOpenResetsMalformedDocument covers garbage and a JSON object where an
// array is expected.
func TestOpenResetsMalformedDocument(t *testing.T) {
	for _, content := range []string{"{not json", `{"a":1}`, ""} {
		path := filepath.Join(t.TempDir(), "log.json")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		l, err := Open(path, discard)
		if err != nil {
			t.Fatalf("Open(%q): %v", content, err)
		}
		recs, err := l.All()
		if err != nil || len(recs) != 0 {
			t.Errorf("after reset of %q: recs=%v err=%v", content, recs, err)
		}
	}
}

func TestOpenKeepsValidDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.json")
	existing := `[{"timestamp":"2025-03-01T09:00:00Z","exercise":"squat","rep_count":1,"status":"rep_completed","angles":{}}]`
	if err := os.WriteFile(path, []byte(existing), 0o644); err != nil {
		t.Fatal(err)
	}
	l, err := Open(path, discard)
	if err != nil {
		t.Fatal(err)
	}
	recs, err := l.All()
	if err != nil || len(recs) != 1 || recs[0].Exercise != models.Squat {
		t.Errorf("recs=%v err=%v", recs, err)
	}
}

func TestAppendFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.json")
	l, err := Open(path, discard)
	if err != nil {
		t.Fatal(err)
	}

	ev := models.RepEvent{
		Time:     time.Date(2025, 3, 1, 9, 0, 1, 0, time.UTC),
		Exercise: models.Pushup,
		RepCount: 1,
		Status:   models.StatusRepCompleted,
		Angles:   models.Angles{models.LeftElbow: 155, models.RightElbow: 158},
	}
	if err := l.RecordRep(context.Background(), ev); err != nil {
		t.Fatalf("RecordRep: %v", err)
	}
	ev.RepCount = 2
	if err := l.RecordRep(context.Background(), ev); err != nil {
		t.Fatalf("RecordRep: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "\n    {\n        \"timestamp\"") {
		t.Errorf("expected 4-space indentation, got:\n%s", data)
	}

	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if len(raw) != 2 {
		t.Fatalf("got %d records, want 2", len(raw))
	}
	angles := raw[0]["angles"].(map[string]any)
	if len(angles) != len(models.Joints) {
		t.Errorf("angles has %d keys, want %d", len(angles), len(models.Joints))
	}
	if angles["left_knee"] != nil {
		t.Errorf("left_knee = %v, want null", angles["left_knee"])
	}
	if raw[1]["rep_count"].(float64) != 2 || raw[1]["status"] != "rep_completed" {
		t.Errorf("second record = %v", raw[1])
	}
}

// TestAppendRecoversFromCorruption corrupts the file between appends.
func TestAppendRecoversFromCorruption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.json")
	l, err := Open(path, discard)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := l.Append(Record{Exercise: models.Squat, RepCount: 3, Status: models.StatusRepCompleted}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	recs, err := l.All()
	if err != nil || len(recs) != 1 || recs[0].RepCount != 3 {
		t.Errorf("recs=%v err=%v", recs, err)
	}
}

// TestOpenKeepsForeignEntries covers zone-less timestamps and entries that do
// not decode as records: the array is valid, so nothing is discarded.
func TestOpenKeepsForeignEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.json")
	existing := `[
    {"timestamp": "2025-03-01T09:00:00.123456", "exercise": "squat", "rep_count": 1, "status": "rep_completed", "angles": {"left_knee": 92.5, "right_knee": null}},
    {"timestamp": "2025-03-01T09:00:02", "exercise": "squat", "rep_count": 2, "status": "rep_completed", "angles": [1, 2]}
]`
	if err := os.WriteFile(path, []byte(existing), 0o644); err != nil {
		t.Fatal(err)
	}

	l, err := Open(path, discard)
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Append(Record{Exercise: models.Squat, RepCount: 3, Status: models.StatusRepCompleted}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if len(raw) != 3 {
		t.Fatalf("document has %d entries, want 3:\n%s", len(raw), data)
	}
	if raw[0]["timestamp"] != "2025-03-01T09:00:00.123456" {
		t.Errorf("first timestamp rewritten to %v", raw[0]["timestamp"])
	}
	if _, ok := raw[1]["angles"].([]any); !ok {
		t.Errorf("foreign angles rewritten to %v", raw[1]["angles"])
	}

	recs, err := l.All()
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d readable records, want 2", len(recs))
	}
	want := time.Date(2025, 3, 1, 9, 0, 0, 123456000, time.Local)
	if !recs[0].Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want %v", recs[0].Timestamp, want)
	}
	if recs[0].Angles[models.LeftKnee] != 92.5 || recs[1].RepCount != 3 {
		t.Errorf("records = %+v", recs)
	}
}
