package trainer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/meltforce/posereps/internal/exercise"
	"github.com/meltforce/posereps/internal/feedback"
	"github.com/meltforce/posereps/internal/models"
)

// Praise and correction bands for the form confidence of a completed rep.
const (
	PraiseThreshold     = 80
	CorrectionThreshold = 50
)

// RepSink receives every completed repetition.
type RepSink interface {
	RecordRep(ctx context.Context, ev models.RepEvent) error
}

// Announcer accepts spoken messages without blocking.
type Announcer interface {
	Enqueue(msg string) bool
}

// SessionConfig configures a Session. Zero values are usable.
type SessionConfig struct {
	ID       uuid.UUID
	Source   string
	Exercise models.ExerciseKind
	Profiles exercise.Profiles
	Clock    exercise.Clock
	Sinks    []RepSink
	Narrator Announcer
	Phrases  feedback.Phrases
	Log      *slog.Logger
}

// FrameResult is what one processed frame produced.
type FrameResult struct {
	Exercise     models.ExerciseKind `json:"exercise"`
	Phase        models.Phase        `json:"phase"`
	FormOK       bool                `json:"form_ok"`
	RepCompleted bool                `json:"rep_completed"`
	RepCount     int                 `json:"rep_count"`
	Confidence   int                 `json:"confidence"`
	Feedback     []string            `json:"feedback"`
}

// Snapshot describes a session at a point in time.
type Snapshot struct {
	ID        uuid.UUID      `json:"id"`
	Source    string         `json:"source"`
	StartedAt time.Time      `json:"started_at"`
	Frames    int64          `json:"frames"`
	State     exercise.State `json:"state"`
}

// Session runs the per-frame pipeline for one user. Methods are safe for
// concurrent use; calls are serialized.
type Session struct {
	mu        sync.Mutex
	id        uuid.UUID
	source    string
	startedAt time.Time
	frames    int64

	engine   *exercise.Engine
	clock    exercise.Clock
	sinks    []RepSink
	narrator Announcer
	phrases  feedback.Phrases
	log      *slog.Logger
}

// NewSession creates a session on cfg.Exercise, or the first catalog exercise
// when unset.
func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.Exercise != "" && !cfg.Exercise.Valid() {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownExercise, cfg.Exercise)
	}
	if cfg.ID == uuid.Nil {
		cfg.ID = uuid.New()
	}
	if cfg.Clock == nil {
		cfg.Clock = exercise.WallClock
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.Profiles == nil {
		cfg.Profiles = exercise.DefaultProfiles()
	}

	log := cfg.Log.With("session", cfg.ID)
	e := exercise.New(cfg.Profiles, exercise.WithClock(cfg.Clock), exercise.WithLogger(log))
	if cfg.Exercise != "" {
		e.Switch(cfg.Exercise)
	}

	return &Session{
		id:        cfg.ID,
		source:    cfg.Source,
		startedAt: cfg.Clock.Now(),
		engine:    e,
		clock:     cfg.Clock,
		sinks:     cfg.Sinks,
		narrator:  cfg.Narrator,
		phrases:   cfg.Phrases,
		log:       log,
	}, nil
}

// ID returns the session id.
func (s *Session) ID() uuid.UUID { return s.id }

// Process runs one frame through form check, rep counting and feedback.
// Rep counting only advances when the form check passes.
func (s *Session) Process(ctx context.Context, a models.Angles) FrameResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.frames++
	kind := s.engine.Kind()

	res := FrameResult{Exercise: kind}
	res.FormOK = s.engine.CheckForm(kind, a)
	if res.FormOK {
		res.RepCompleted = s.engine.CountReps(kind, a)
	}
	res.Confidence, res.Feedback = s.engine.FormFeedback(kind, a)

	st := s.engine.State()
	res.Phase = st.Phase
	res.RepCount = st.Reps

	if res.RepCompleted {
		s.onRep(ctx, kind, st, res.Confidence, a)
	}
	return res
}

func (s *Session) onRep(ctx context.Context, kind models.ExerciseKind, st exercise.State, conf int, a models.Angles) {
	ts := s.clock.Now()
	if st.LastCompletion != nil {
		ts = *st.LastCompletion
	}
	ev := models.RepEvent{
		Time:       ts,
		SessionID:  s.id,
		Exercise:   kind,
		RepCount:   st.Reps,
		Status:     models.StatusRepCompleted,
		Confidence: conf,
		Angles:     a,
	}
	s.log.Info("rep completed", "exercise", kind, "count", st.Reps, "confidence", conf)

	for _, sink := range s.sinks {
		if err := sink.RecordRep(ctx, ev); err != nil {
			s.log.Error("recording rep", "sink", fmt.Sprintf("%T", sink), "error", err)
		}
	}

	if s.narrator == nil {
		return
	}
	s.narrator.Enqueue(fmt.Sprintf("Rep %d completed!", st.Reps))
	switch {
	case conf >= PraiseThreshold:
		s.narrator.Enqueue(s.phrases.Praise(kind))
	case conf < CorrectionThreshold:
		s.narrator.Enqueue(s.phrases.Correction(kind))
	}
}

// Next cycles to the following catalog exercise and resets the count.
func (s *Session) Next() models.ExerciseKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.engine.Kind().Next()
	s.engine.Switch(next)
	s.log.Info("switched exercise", "exercise", next)
	return next
}

// Select switches directly to kind and resets the count.
func (s *Session) Select(kind models.ExerciseKind) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %q", models.ErrUnknownExercise, kind)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.Switch(kind)
	s.log.Info("switched exercise", "exercise", kind)
	return nil
}

// Reset clears the count for the active exercise.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.Reset()
}

// Snapshot returns the current session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:        s.id,
		Source:    s.source,
		StartedAt: s.startedAt,
		Frames:    s.frames,
		State:     s.engine.State(),
	}
}
