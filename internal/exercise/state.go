package exercise

import (
	"time"

	"github.com/meltforce/posereps/internal/models"
)

// State is the mutable part of a tracking session.
type State struct {
	Kind           models.ExerciseKind `json:"exercise"`
	Phase          models.Phase        `json:"phase"`
	Reps           int                 `json:"rep_count"`
	PhaseStart     *time.Time          `json:"phase_start,omitempty"`
	LastCompletion *time.Time          `json:"last_completion,omitempty"`
}

// Copy returns a deep copy, safe to hand to other goroutines.
func (s State) Copy() State {
	if s.PhaseStart != nil {
		s.PhaseStart = at(*s.PhaseStart)
	}
	if s.LastCompletion != nil {
		s.LastCompletion = at(*s.LastCompletion)
	}
	return s
}

func (s *State) complete(now time.Time) {
	s.Reps++
	s.LastCompletion = at(now)
}

// gapElapsed reports whether enough time has passed since the last completed rep.
func (s *State) gapElapsed(now time.Time, gap time.Duration) bool {
	return s.LastCompletion == nil || now.Sub(*s.LastCompletion) >= gap
}

func at(t time.Time) *time.Time { return &t }
