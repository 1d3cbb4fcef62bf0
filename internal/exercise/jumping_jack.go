package exercise

import (
	"time"

	"github.com/meltforce/posereps/internal/models"
)

// jumpingJack tracks mean shoulder angle. PhaseDown means the arms are
// raised; a rep completes when they come back down past the lower threshold.
type jumpingJack struct {
	p Profile
}

func (jumpingJack) Kind() models.ExerciseKind  { return models.JumpingJack }
func (jumpingJack) InitialPhase() models.Phase { return models.PhaseUp }

func (j jumpingJack) CheckForm(st State, a models.Angles) bool {
	shoulder, _, ok := pairStats(a, models.LeftShoulder, models.RightShoulder)
	if !ok {
		return false
	}
	if st.Phase == models.PhaseUp {
		return shoulder >= j.p.Up
	}
	return shoulder <= j.p.Down
}

func (j jumpingJack) CountReps(st *State, a models.Angles, now time.Time) bool {
	shoulder, _, ok := pairStats(a, models.LeftShoulder, models.RightShoulder)
	if !ok {
		return false
	}
	switch {
	case st.Phase == models.PhaseUp && shoulder > j.p.Up:
		st.Phase = models.PhaseDown
	case st.Phase == models.PhaseDown && shoulder < j.p.Down:
		st.Phase = models.PhaseUp
		st.complete(now)
		return true
	}
	return false
}

func (j jumpingJack) Feedback(a models.Angles) (int, []string) {
	shoulder, _, ok := pairStats(a, models.LeftShoulder, models.RightShoulder)
	if !ok {
		return 0, withDefault(nil)
	}

	var feedback []string
	if shoulder < j.p.Up {
		feedback = append(feedback, "Raise arms higher")
	}
	return confidence(shoulder / j.p.Up * 100), withDefault(feedback)
}
