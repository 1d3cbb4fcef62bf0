package exercise

import (
	"log/slog"
	"math"
	"time"

	"github.com/meltforce/posereps/internal/models"
)

// DefaultFeedback is returned when no correction applies.
const DefaultFeedback = "Form looks good!"

// Machine is the repetition state machine for one exercise.
//
// CheckForm and Feedback are pure. CountReps is the only method that mutates
// the state it is given.
type Machine interface {
	Kind() models.ExerciseKind
	InitialPhase() models.Phase
	CheckForm(st State, a models.Angles) bool
	CountReps(st *State, a models.Angles, now time.Time) bool
	Feedback(a models.Angles) (confidence int, feedback []string)
}

func newMachines(ps Profiles, log *slog.Logger) map[models.ExerciseKind]Machine {
	return map[models.ExerciseKind]Machine{
		models.TreePose:    treePose{p: ps[models.TreePose]},
		models.Squat:       squat{p: ps[models.Squat], log: log},
		models.Pushup:      pushup{p: ps[models.Pushup]},
		models.JumpingJack: jumpingJack{p: ps[models.JumpingJack]},
	}
}

// pairStats returns the mean and absolute difference of a symmetric joint pair.
func pairStats(a models.Angles, left, right models.Joint) (mean, diff float64, ok bool) {
	l, r, ok := a.Pair(left, right)
	if !ok {
		return 0, 0, false
	}
	return (l + r) / 2, math.Abs(r - l), true
}

func clampScore(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}

// confidence averages already-clamped sub-scores and truncates to an int in [0,100].
func confidence(scores ...float64) int {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += clampScore(s)
	}
	return int(clampScore(sum / float64(len(scores))))
}

func withDefault(feedback []string) []string {
	if len(feedback) == 0 {
		return []string{DefaultFeedback}
	}
	return feedback
}
