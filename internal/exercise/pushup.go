package exercise

import (
	"time"

	"github.com/meltforce/posereps/internal/models"
)

type pushup struct {
	p Profile
}

func (pushup) Kind() models.ExerciseKind  { return models.Pushup }
func (pushup) InitialPhase() models.Phase { return models.PhaseUp }

func (u pushup) CheckForm(st State, a models.Angles) bool {
	elbow, _, ok := pairStats(a, models.LeftElbow, models.RightElbow)
	if !ok {
		return false
	}
	if st.Phase == models.PhaseUp {
		return elbow <= u.p.Down
	}
	return elbow >= u.p.Up
}

func (u pushup) CountReps(st *State, a models.Angles, now time.Time) bool {
	elbow, _, ok := pairStats(a, models.LeftElbow, models.RightElbow)
	if !ok {
		return false
	}
	switch {
	case st.Phase == models.PhaseUp && elbow < u.p.Down:
		st.Phase = models.PhaseDown
	case st.Phase == models.PhaseDown && elbow > u.p.Up:
		st.Phase = models.PhaseUp
		st.complete(now)
		return true
	}
	return false
}

// Feedback needs the hips as well as the elbows to judge body alignment.
func (u pushup) Feedback(a models.Angles) (int, []string) {
	elbow, _, eok := pairStats(a, models.LeftElbow, models.RightElbow)
	_, hipDiff, hok := pairStats(a, models.LeftHip, models.RightHip)
	if !eok || !hok {
		return 0, withDefault(nil)
	}

	depthScore := clampScore(elbow / u.p.Down * 100)
	hipScore := clampScore(100 - hipDiff/u.p.HipVariance*100)

	var feedback []string
	if elbow > u.p.Down {
		feedback = append(feedback, "Lower your chest")
	}
	if hipDiff > u.p.HipVariance {
		feedback = append(feedback, "Keep your body straight")
	}
	return confidence(depthScore, hipScore), withDefault(feedback)
}
