package exercise

import (
	"time"

	"github.com/meltforce/posereps/internal/models"
)

// treePose counts sustained holds: one knee bent well past the other while
// the hips stay level.
type treePose struct {
	p Profile
}

func (treePose) Kind() models.ExerciseKind  { return models.TreePose }
func (treePose) InitialPhase() models.Phase { return models.PhaseStart }

func (t treePose) diffs(a models.Angles) (kneeDiff, hipDiff float64, ok bool) {
	_, kneeDiff, kok := pairStats(a, models.LeftKnee, models.RightKnee)
	_, hipDiff, hok := pairStats(a, models.LeftHip, models.RightHip)
	return kneeDiff, hipDiff, kok && hok
}

func (t treePose) held(kneeDiff, hipDiff float64) bool {
	return kneeDiff > t.p.KneeBend && hipDiff < t.p.HipVariance
}

// CheckForm is true while entering the hold, and for every observed frame
// during a hold so that a release can be registered.
func (t treePose) CheckForm(st State, a models.Angles) bool {
	kd, hd, ok := t.diffs(a)
	if !ok {
		return false
	}
	return t.held(kd, hd) || st.Phase == models.PhaseHolding
}

func (t treePose) CountReps(st *State, a models.Angles, now time.Time) bool {
	kd, hd, ok := t.diffs(a)
	if !ok {
		return false
	}

	if !t.held(kd, hd) {
		st.Phase = models.PhaseStart
		st.PhaseStart = nil
		return false
	}

	switch st.Phase {
	case models.PhaseHolding:
		if st.PhaseStart == nil {
			st.PhaseStart = at(now)
			return false
		}
		if now.Sub(*st.PhaseStart) >= t.p.BalanceDuration && st.gapElapsed(now, t.p.MinRepGap) {
			st.complete(now)
			return true
		}
	default:
		st.Phase = models.PhaseHolding
		st.PhaseStart = at(now)
	}
	return false
}

func (t treePose) Feedback(a models.Angles) (int, []string) {
	kd, hd, ok := t.diffs(a)
	if !ok {
		return 0, withDefault(nil)
	}

	kneeScore := clampScore(kd / t.p.KneeBend * 100)
	hipScore := clampScore(100 - hd/t.p.HipVariance*100)

	var feedback []string
	if kd < t.p.KneeBend {
		feedback = append(feedback, "Raise your knee higher")
	}
	if hd > t.p.HipVariance {
		feedback = append(feedback, "Keep your hips level")
	}
	return confidence(kneeScore, hipScore), withDefault(feedback)
}
