package exercise

import (
	"reflect"
	"testing"

	"github.com/meltforce/posereps/internal/models"
)

func TestFormFeedback(t *testing.T) {
	cases := []struct {
		name     string
		kind     models.ExerciseKind
		a        models.Angles
		wantConf int
		wantFB   []string
	}{
		{
			name:     "squat deep and aligned",
			kind:     models.Squat,
			a:        knees(90),
			wantConf: 95,
			wantFB:   []string{DefaultFeedback},
		},
		{
			name:     "squat shallow and misaligned",
			kind:     models.Squat,
			a:        models.Angles{models.LeftKnee: 120, models.RightKnee: 160},
			wantConf: 50,
			wantFB:   []string{"Squat deeper", "Keep knees aligned"},
		},
		{
			name: "tree pose good hold",
			kind: models.TreePose,
			a:    treeHeld(),
			// knee score capped at 100, hip score 75
			wantConf: 87,
			wantFB:   []string{DefaultFeedback},
		},
		{
			name: "tree pose standing with tilted hips",
			kind: models.TreePose,
			a: models.Angles{
				models.LeftKnee: 170, models.RightKnee: 170,
				models.LeftHip: 170, models.RightHip: 140,
			},
			wantConf: 0,
			wantFB:   []string{"Raise your knee higher", "Keep your hips level"},
		},
		{
			name: "pushup at depth",
			kind: models.Pushup,
			a: models.Angles{
				models.LeftElbow: 80, models.RightElbow: 80,
				models.LeftHip: 170, models.RightHip: 170,
			},
			wantConf: 90,
			wantFB:   []string{DefaultFeedback},
		},
		{
			name: "pushup high with sagging hips",
			kind: models.Pushup,
			a: models.Angles{
				models.LeftElbow: 160, models.RightElbow: 160,
				models.LeftHip: 170, models.RightHip: 140,
			},
			wantConf: 50,
			wantFB:   []string{"Lower your chest", "Keep your body straight"},
		},
		{
			name:     "pushup without hips",
			kind:     models.Pushup,
			a:        elbows(80),
			wantConf: 0,
			wantFB:   []string{DefaultFeedback},
		},
		{
			name:     "jumping jack arms half way",
			kind:     models.JumpingJack,
			a:        shoulders(45),
			wantConf: 50,
			wantFB:   []string{"Raise arms higher"},
		},
		{
			name:     "jumping jack arms overhead",
			kind:     models.JumpingJack,
			a:        shoulders(120),
			wantConf: 100,
			wantFB:   []string{DefaultFeedback},
		},
		{
			name:     "no angles",
			kind:     models.Squat,
			a:        nil,
			wantConf: 0,
			wantFB:   []string{DefaultFeedback},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e, _ := newTestEngine(tc.kind)
			conf, fb := e.FormFeedback(tc.kind, tc.a)
			if conf != tc.wantConf {
				t.Errorf("confidence = %d, want %d", conf, tc.wantConf)
			}
			if !reflect.DeepEqual(fb, tc.wantFB) {
				t.Errorf("feedback = %q, want %q", fb, tc.wantFB)
			}
		})
	}
}

// TestFormFeedbackIgnoresState verifies feedback depends on angles only.
func TestFormFeedbackIgnoresState(t *testing.T) {
	a := models.Angles{models.LeftKnee: 110, models.RightKnee: 95}

	e, _ := newTestEngine(models.Squat)
	conf1, fb1 := e.FormFeedback(models.Squat, a)

	e.state.Phase = models.PhaseDown
	e.state.Reps = 7
	conf2, fb2 := e.FormFeedback(models.Squat, a)

	if conf1 != conf2 || !reflect.DeepEqual(fb1, fb2) {
		t.Errorf("feedback changed with state: (%d %q) vs (%d %q)", conf1, fb1, conf2, fb2)
	}
	if e.state.Reps != 7 || e.state.Phase != models.PhaseDown {
		t.Error("FormFeedback mutated state")
	}
}

// TestConfidenceBounds sweeps angles across the full range for every exercise.
func TestConfidenceBounds(t *testing.T) {
	e, _ := newTestEngine(models.Squat)
	for _, kind := range models.Catalog {
		for l := 0.0; l <= 180; l += 15 {
			for r := 0.0; r <= 180; r += 15 {
				a := models.Angles{}
				for _, j := range models.Joints {
					a[j] = l
				}
				a[models.RightKnee] = r
				a[models.RightHip] = r
				a[models.RightElbow] = r
				a[models.RightShoulder] = r

				conf, fb := e.FormFeedback(kind, a)
				if conf < 0 || conf > 100 {
					t.Fatalf("%s l=%.0f r=%.0f: confidence %d out of range", kind, l, r, conf)
				}
				if len(fb) == 0 {
					t.Fatalf("%s l=%.0f r=%.0f: empty feedback", kind, l, r)
				}
			}
		}
	}
}
