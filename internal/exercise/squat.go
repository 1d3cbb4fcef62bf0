package exercise

import (
	"log/slog"
	"time"

	"github.com/meltforce/posereps/internal/models"
)

// squat tracks mean knee angle with two thresholds, a dwell time before each
// transition commits, and a minimum gap between counted reps.
type squat struct {
	p   Profile
	log *slog.Logger
}

func (squat) Kind() models.ExerciseKind  { return models.Squat }
func (squat) InitialPhase() models.Phase { return models.PhaseUp }

func (s squat) CheckForm(st State, a models.Angles) bool {
	knee, _, ok := pairStats(a, models.LeftKnee, models.RightKnee)
	if !ok {
		return false
	}
	if st.Phase == models.PhaseUp {
		return knee <= s.p.Down
	}
	return knee >= s.p.Up
}

func (s squat) CountReps(st *State, a models.Angles, now time.Time) bool {
	knee, _, ok := pairStats(a, models.LeftKnee, models.RightKnee)
	if !ok {
		return false
	}

	switch {
	case st.Phase == models.PhaseUp && knee < s.p.Down:
		if st.PhaseStart == nil {
			st.PhaseStart = at(now)
		} else if now.Sub(*st.PhaseStart) >= s.p.Dwell {
			st.Phase = models.PhaseDown
			st.PhaseStart = nil
		}
	case st.Phase == models.PhaseDown && knee > s.p.Up:
		if st.PhaseStart == nil {
			st.PhaseStart = at(now)
		} else if now.Sub(*st.PhaseStart) >= s.p.Dwell && st.gapElapsed(now, s.p.MinRepGap) {
			st.Phase = models.PhaseUp
			st.PhaseStart = nil
			st.complete(now)
			return true
		}
	}

	if st.PhaseStart != nil && now.Sub(*st.PhaseStart) > s.p.StuckTimeout {
		if s.log != nil {
			s.log.Debug("squat transition stalled, resetting to up",
				"phase", st.Phase, "waited", now.Sub(*st.PhaseStart).String())
		}
		st.PhaseStart = nil
		st.Phase = models.PhaseUp
	}
	return false
}

func (s squat) Feedback(a models.Angles) (int, []string) {
	knee, diff, ok := pairStats(a, models.LeftKnee, models.RightKnee)
	if !ok {
		return 0, withDefault(nil)
	}

	depthScore := clampScore(knee / s.p.Down * 100)
	alignScore := clampScore(100 - diff/s.p.KneeAlignment*100)

	var feedback []string
	if knee > s.p.Down {
		feedback = append(feedback, "Squat deeper")
	}
	if diff > s.p.KneeAlignment {
		feedback = append(feedback, "Keep knees aligned")
	}
	return confidence(depthScore, alignScore), withDefault(feedback)
}
