package exercise

import (
	"fmt"
	"time"

	"github.com/meltforce/posereps/internal/models"
)

// Profile holds the thresholds for one exercise. Angles are in degrees.
// Fields that do not apply to an exercise are left zero.
type Profile struct {
	Down          float64 `yaml:"down" json:"down,omitempty"`
	Up            float64 `yaml:"up" json:"up,omitempty"`
	KneeBend      float64 `yaml:"knee_bend" json:"knee_bend,omitempty"`
	HipVariance   float64 `yaml:"hip_variance" json:"hip_variance,omitempty"`
	KneeAlignment float64 `yaml:"knee_alignment" json:"knee_alignment,omitempty"`

	BalanceDuration time.Duration `yaml:"balance_duration" json:"balance_duration,omitempty"`
	Dwell           time.Duration `yaml:"dwell" json:"dwell,omitempty"`
	MinRepGap       time.Duration `yaml:"min_rep_gap" json:"min_rep_gap,omitempty"`
	StuckTimeout    time.Duration `yaml:"stuck_timeout" json:"stuck_timeout,omitempty"`

	// Confidence is the minimum keypoint confidence the exercise was tuned for.
	Confidence float64 `yaml:"confidence" json:"confidence,omitempty"`
}

// Profiles maps every exercise to its thresholds.
type Profiles map[models.ExerciseKind]Profile

// DefaultProfiles returns the stock thresholds.
func DefaultProfiles() Profiles {
	return Profiles{
		models.TreePose: {
			KneeBend:        25,
			HipVariance:     20,
			BalanceDuration: 1500 * time.Millisecond,
			MinRepGap:       time.Second,
			Confidence:      0.6,
		},
		models.Squat: {
			Down:          100,
			Up:            130,
			KneeAlignment: 30,
			Dwell:         200 * time.Millisecond,
			MinRepGap:     800 * time.Millisecond,
			StuckTimeout:  2 * time.Second,
			Confidence:    0.5,
		},
		models.Pushup: {
			Down:        100,
			Up:          150,
			HipVariance: 20,
			Confidence:  0.5,
		},
		models.JumpingJack: {
			Down:       30,
			Up:         90,
			Confidence: 0.5,
		},
	}
}

// Merge returns p with every non-zero field of o applied on top.
func (p Profile) Merge(o Profile) Profile {
	if o.Down != 0 {
		p.Down = o.Down
	}
	if o.Up != 0 {
		p.Up = o.Up
	}
	if o.KneeBend != 0 {
		p.KneeBend = o.KneeBend
	}
	if o.HipVariance != 0 {
		p.HipVariance = o.HipVariance
	}
	if o.KneeAlignment != 0 {
		p.KneeAlignment = o.KneeAlignment
	}
	if o.BalanceDuration != 0 {
		p.BalanceDuration = o.BalanceDuration
	}
	if o.Dwell != 0 {
		p.Dwell = o.Dwell
	}
	if o.MinRepGap != 0 {
		p.MinRepGap = o.MinRepGap
	}
	if o.StuckTimeout != 0 {
		p.StuckTimeout = o.StuckTimeout
	}
	if o.Confidence != 0 {
		p.Confidence = o.Confidence
	}
	return p
}

// WithOverrides returns a copy of ps with the given per-exercise overrides merged in.
func (ps Profiles) WithOverrides(overrides map[models.ExerciseKind]Profile) Profiles {
	out := make(Profiles, len(ps))
	for k, p := range ps {
		out[k] = p
	}
	for k, o := range overrides {
		out[k] = out[k].Merge(o)
	}
	return out
}

// Validate checks that every catalog exercise has a usable profile.
func (ps Profiles) Validate() error {
	for _, k := range models.Catalog {
		p, ok := ps[k]
		if !ok {
			return fmt.Errorf("%s: missing profile", k)
		}
		switch k {
		case models.TreePose:
			if p.KneeBend <= 0 || p.HipVariance <= 0 {
				return fmt.Errorf("%s: knee_bend and hip_variance must be positive", k)
			}
			if p.BalanceDuration <= 0 {
				return fmt.Errorf("%s: balance_duration must be positive", k)
			}
		case models.Squat, models.Pushup, models.JumpingJack:
			if p.Down <= 0 || p.Up <= 0 {
				return fmt.Errorf("%s: down and up must be positive", k)
			}
			if p.Down >= p.Up {
				return fmt.Errorf("%s: down (%.0f) must be below up (%.0f)", k, p.Down, p.Up)
			}
		}
		if k == models.Squat && p.StuckTimeout <= p.Dwell {
			return fmt.Errorf("%s: stuck_timeout must exceed dwell", k)
		}
		if k == models.Squat && p.KneeAlignment <= 0 {
			return fmt.Errorf("%s: knee_alignment must be positive", k)
		}
		if k == models.Pushup && p.HipVariance <= 0 {
			return fmt.Errorf("%s: hip_variance must be positive", k)
		}
		if p.Confidence < 0 || p.Confidence > 1 {
			return fmt.Errorf("%s: confidence must be within [0,1]", k)
		}
	}
	return nil
}
