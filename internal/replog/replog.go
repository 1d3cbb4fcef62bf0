package replog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/meltforce/posereps/internal/models"
)

// Record is one completed repetition in the log document.
type Record struct {
	Timestamp time.Time           `json:"timestamp"`
	Exercise  models.ExerciseKind `json:"exercise"`
	RepCount  int                 `json:"rep_count"`
	Status    string              `json:"status"`
	Angles    models.Angles       `json:"angles"`
}

// FromEvent converts a rep event to its log record.
func FromEvent(ev models.RepEvent) Record {
	return Record{
		Timestamp: ev.Time,
		Exercise:  ev.Exercise,
		RepCount:  ev.RepCount,
		Status:    ev.Status,
		Angles:    ev.Angles,
	}
}

// Log is a JSON file holding an array of records. Every append rewrites the
// whole document.
type Log struct {
	mu   sync.Mutex
	path string
	log  *slog.Logger
}

// Open prepares the log at path. A missing file is created and a file that
// does not hold a JSON array is replaced by an empty one. Entries of an
// existing array are kept even when they are not records this package wrote.
func Open(path string, log *slog.Logger) (*Log, error) {
	if log == nil {
		log = slog.Default()
	}
	l := &Log{path: path, log: log}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating log dir %s: %w", dir, err)
		}
	}

	_, err := l.read()
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := l.write(nil); err != nil {
			return nil, err
		}
	case errors.Is(err, errMalformed):
		log.Warn("rep log is malformed, resetting", "path", path, "error", err)
		if err := l.write(nil); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	}
	return l, nil
}

// Path returns the file the log writes to.
func (l *Log) Path() string { return l.path }

// Append adds rec to the end of the document.
func (l *Log) Append(rec Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.read()
	if errors.Is(err, errMalformed) || errors.Is(err, fs.ErrNotExist) {
		l.log.Warn("rep log unreadable, starting a new document", "path", l.path, "error", err)
		entries, err = nil, nil
	}
	if err != nil {
		return err
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding rep record: %w", err)
	}
	return l.write(append(entries, data))
}

// RecordRep appends the event. It satisfies trainer.RepSink.
func (l *Log) RecordRep(_ context.Context, ev models.RepEvent) error {
	return l.Append(FromEvent(ev))
}

// All returns every record in the document. Entries that do not decode as a
// record are skipped.
func (l *Log) All() ([]Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.read()
	if err != nil {
		return nil, err
	}
	recs := make([]Record, 0, len(entries))
	for i, e := range entries {
		var rec Record
		if err := json.Unmarshal(e, &rec); err != nil {
			l.log.Debug("skipping unreadable rep log entry", "path", l.path, "index", i, "error", err)
			continue
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// UnmarshalJSON accepts timestamps without a zone, read as local time.
func (r *Record) UnmarshalJSON(data []byte) error {
	type plain Record
	var aux struct {
		plain
		Timestamp string `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = Record(aux.plain)
	if aux.Timestamp == "" {
		return nil
	}
	ts, err := parseTimestamp(aux.Timestamp)
	if err != nil {
		return err
	}
	r.Timestamp = ts
	return nil
}

func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02T15:04:05.999999999", s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t, nil
}

var errMalformed = errors.New("malformed rep log")

// read returns the raw array elements of the document.
func (l *Log) read() ([]json.RawMessage, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("reading rep log: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		return nil, errMalformed
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformed, err)
	}
	return entries, nil
}

func (l *Log) write(entries []json.RawMessage) error {
	if entries == nil {
		entries = []json.RawMessage{}
	}
	data, err := json.MarshalIndent(entries, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding rep log: %w", err)
	}
	if err := os.WriteFile(l.path, data, 0o644); err != nil {
		return fmt.Errorf("writing rep log: %w", err)
	}
	return nil
}
