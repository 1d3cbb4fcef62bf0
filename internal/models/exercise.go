package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ExerciseKind identifies one of the supported exercises.
type ExerciseKind string

const (
	TreePose    ExerciseKind = "tree_pose"
	Squat       ExerciseKind = "squat"
	Pushup      ExerciseKind = "pushup"
	JumpingJack ExerciseKind = "jumping_jack"
)

// Catalog is the fixed exercise list, in the order the switch command cycles it.
var Catalog = []ExerciseKind{TreePose, Squat, Pushup, JumpingJack}

// ErrUnknownExercise is returned when a name does not match any catalog entry.
var ErrUnknownExercise = errors.New("unknown exercise")

// ParseExerciseKind maps a name such as "squat" or "Jumping Jack" to its kind.
func ParseExerciseKind(s string) (ExerciseKind, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.ReplaceAll(norm, " ", "_")
	norm = strings.ReplaceAll(norm, "-", "_")
	for _, k := range Catalog {
		if string(k) == norm {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownExercise, s)
}

// Valid reports whether k is part of the catalog.
func (k ExerciseKind) Valid() bool {
	for _, c := range Catalog {
		if c == k {
			return true
		}
	}
	return false
}

// Next returns the exercise after k in catalog order, wrapping around.
// Unknown kinds restart at the first entry.
func (k ExerciseKind) Next() ExerciseKind {
	for i, c := range Catalog {
		if c == k {
			return Catalog[(i+1)%len(Catalog)]
		}
	}
	return Catalog[0]
}

// Title returns a display name, e.g. "Jumping Jack".
func (k ExerciseKind) Title() string {
	words := strings.Split(string(k), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// Phase is the discrete state of an exercise's repetition state machine.
type Phase string

const (
	PhaseStart   Phase = "start"
	PhaseHolding Phase = "holding"
	PhaseUp      Phase = "up"
	PhaseDown    Phase = "down"
)

// StatusRepCompleted is the status recorded for every completed repetition.
const StatusRepCompleted = "rep_completed"

// RepEvent is emitted once per completed repetition.
type RepEvent struct {
	ID         int64        `json:"id,omitempty"`
	Time       time.Time    `json:"timestamp"`
	SessionID  uuid.UUID    `json:"session_id"`
	Exercise   ExerciseKind `json:"exercise"`
	RepCount   int          `json:"rep_count"`
	Status     string       `json:"status"`
	Confidence int          `json:"confidence"`
	Angles     Angles       `json:"angles"`
}

// SessionRow is a row of the sessions table.
type SessionRow struct {
	ID        uuid.UUID  `json:"id"`
	Source    string     `json:"source"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// ExerciseTotal aggregates completed reps for one exercise.
type ExerciseTotal struct {
	Exercise      ExerciseKind `json:"exercise"`
	Reps          int64        `json:"reps"`
	Sessions      int64        `json:"sessions"`
	AvgConfidence float64      `json:"avg_confidence"`
	LastRep       time.Time    `json:"last_rep"`
}
