package feedback

import (
	"math/rand/v2"

	"github.com/meltforce/posereps/internal/models"
)

// Fallbacks for exercises without their own phrase list.
const (
	FallbackCorrection = "Check your form."
	FallbackPraise     = "Good job!"
)

var corrections = map[models.ExerciseKind][]string{
	models.Squat:       {"Go lower!", "Keep your chest up!", "Knees over toes!"},
	models.Pushup:      {"Lower your chest!", "Keep your back straight!", "Go all the way down!"},
	models.JumpingJack: {"Jump wider!", "Raise arms higher!", "More energy!"},
}

var praises = map[models.ExerciseKind][]string{
	models.Squat:       {"Perfect squat!", "Great depth!", "Excellent form!"},
	models.Pushup:      {"Strong pushup!", "Great form!", "Keep it up!"},
	models.JumpingJack: {"Great rhythm!", "Full energy!", "Looking good!"},
}

// Phrases picks spoken corrections and praises.
type Phrases struct {
	// Intn returns a value in [0,n). Defaults to math/rand/v2.
	Intn func(n int) int
}

// Correction returns a random correction for kind.
func (p Phrases) Correction(kind models.ExerciseKind) string {
	return p.pick(corrections[kind], FallbackCorrection)
}

// Praise returns a random praise for kind.
func (p Phrases) Praise(kind models.ExerciseKind) string {
	return p.pick(praises[kind], FallbackPraise)
}

func (p Phrases) pick(list []string, fallback string) string {
	if len(list) == 0 {
		return fallback
	}
	intn := p.Intn
	if intn == nil {
		intn = rand.IntN
	}
	return list[intn(len(list))]
}
