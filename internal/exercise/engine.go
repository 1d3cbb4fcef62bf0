package exercise

import (
	"io"
	"log/slog"
	"time"

	"github.com/meltforce/posereps/internal/models"
)

// Clock supplies the timestamps used for dwell and gap timing. Successive
// readings must never go backwards.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// WallClock reads time.Now, which carries a monotonic reading.
var WallClock Clock = ClockFunc(time.Now)

// Engine tracks repetitions and form for a single session. It is not safe for
// concurrent use; callers serialize access per session.
type Engine struct {
	profiles Profiles
	machines map[models.ExerciseKind]Machine
	state    State
	clock    Clock
	log      *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the wall clock, e.g. with frame timestamps during replay.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithLogger sets the logger used for transition debug output.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// New creates an engine whose session starts on the first catalog exercise.
// Exercises missing from profiles fall back to the defaults.
func New(profiles Profiles, opts ...Option) *Engine {
	ps := DefaultProfiles().WithOverrides(nil)
	for k, p := range profiles {
		ps[k] = p
	}

	e := &Engine{
		profiles: ps,
		clock:    WallClock,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.machines = newMachines(ps, e.log)
	e.Switch(models.Catalog[0])
	return e
}

// CheckForm reports whether the transition the exercise is currently waiting
// for is satisfied by a. It has no side effects. For an exercise other than
// the active one it is evaluated from that exercise's initial phase.
func (e *Engine) CheckForm(kind models.ExerciseKind, a models.Angles) bool {
	m, ok := e.machines[kind]
	if !ok {
		return false
	}
	st := e.state
	if kind != st.Kind {
		st = State{Kind: kind, Phase: m.InitialPhase()}
	}
	return m.CheckForm(st, a)
}

// CountReps advances the state machine by one frame and reports whether a
// repetition completed. A kind other than the active one is ignored; use
// Switch to change exercises.
func (e *Engine) CountReps(kind models.ExerciseKind, a models.Angles) bool {
	m, ok := e.machines[kind]
	if !ok || kind != e.state.Kind {
		return false
	}

	before := e.state.Phase
	now := e.clock.Now()
	done := m.CountReps(&e.state, a, now)

	if e.state.Phase != before {
		e.log.Debug("phase transition", "exercise", kind, "from", before, "to", e.state.Phase)
	}
	if done {
		e.log.Debug("rep completed", "exercise", kind, "count", e.state.Reps)
	}
	return done
}

// FormFeedback scores the current pose. It depends only on a, never on the
// session state, and always returns at least one message.
func (e *Engine) FormFeedback(kind models.ExerciseKind, a models.Angles) (int, []string) {
	m, ok := e.machines[kind]
	if !ok {
		return 0, withDefault(nil)
	}
	return m.Feedback(a)
}

// Reset clears the rep count, timers and phase of the active exercise.
func (e *Engine) Reset() {
	kind := e.state.Kind
	e.state = State{
		Kind:  kind,
		Phase: e.machines[kind].InitialPhase(),
	}
}

// Switch makes kind the active exercise and resets the session.
// Unknown kinds are ignored.
func (e *Engine) Switch(kind models.ExerciseKind) {
	if _, ok := e.machines[kind]; !ok {
		return
	}
	e.state.Kind = kind
	e.Reset()
}

// Kind returns the active exercise.
func (e *Engine) Kind() models.ExerciseKind { return e.state.Kind }

// RepCount returns the reps completed since the last reset.
func (e *Engine) RepCount() int { return e.state.Reps }

// State returns a copy of the session state.
func (e *Engine) State() State { return e.state.Copy() }

// Profile returns the thresholds in use for kind.
func (e *Engine) Profile(kind models.ExerciseKind) (Profile, bool) {
	p, ok := e.profiles[kind]
	return p, ok
}

// Profiles returns a copy of all thresholds in use.
func (e *Engine) Profiles() Profiles {
	return e.profiles.WithOverrides(nil)
}
