package replay

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Fingerprint identifies the content of a recording.
type Fingerprint struct {
	Size int64
	Hash string
}

// FingerprintFile sizes and hashes the recording at path.
func FingerprintFile(path string) (Fingerprint, error) {
	f, err := os.Open(path)
	if err != nil {
		return Fingerprint{}, err
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("hashing %s: %w", path, err)
	}
	return Fingerprint{Size: n, Hash: hex.EncodeToString(h.Sum(nil))}, nil
}

// Replayed is what the state database remembers about a recording.
type Replayed struct {
	SessionID  uuid.UUID
	Frames     int
	Reps       int
	Partial    bool
	ReplayedAt time.Time
}

// StateDB tracks which recordings have been replayed so a directory can be
// re-scanned without counting the same reps twice.
type StateDB struct {
	db *sql.DB
}

// OpenStateDB opens (or creates) the SQLite state database at dir/replay.db.
func OpenStateDB(dir string) (*StateDB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "replay.db"))
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS recordings (
		path        TEXT PRIMARY KEY,
		size        INTEGER NOT NULL,
		hash        TEXT NOT NULL,
		session_id  TEXT NOT NULL,
		frames      INTEGER NOT NULL,
		reps        INTEGER NOT NULL,
		partial     INTEGER NOT NULL DEFAULT 0,
		replayed_at INTEGER NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating recordings table: %w", err)
	}

	return &StateDB{db: db}, nil
}

// Lookup returns the stored replay of path when its content still matches fp,
// or nil when the recording is new or has changed.
func (s *StateDB) Lookup(path string, fp Fingerprint) (*Replayed, error) {
	var (
		r         Replayed
		sessionID string
		at        int64
	)
	err := s.db.QueryRow(
		`SELECT session_id, frames, reps, partial, replayed_at
		 FROM recordings WHERE path = ? AND size = ? AND hash = ?`,
		path, fp.Size, fp.Hash,
	).Scan(&sessionID, &r.Frames, &r.Reps, &r.Partial, &at)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up %s: %w", path, err)
	}

	if r.SessionID, err = uuid.Parse(sessionID); err != nil {
		return nil, fmt.Errorf("stored session id for %s: %w", path, err)
	}
	r.ReplayedAt = time.UnixMilli(at).UTC()
	return &r, nil
}

// MarkReplayed records a replay of path, replacing any earlier entry.
func (s *StateDB) MarkReplayed(path string, fp Fingerprint, res *Result) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO recordings (path, size, hash, session_id, frames, reps, partial, replayed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		path, fp.Size, fp.Hash, res.SessionID.String(), res.Frames, res.TotalReps(), res.Partial,
		time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("marking %s replayed: %w", path, err)
	}
	return nil
}

// Close closes the state database.
func (s *StateDB) Close() error {
	return s.db.Close()
}
