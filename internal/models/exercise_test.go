package models

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
)

// TestParseExerciseKind verifies that display names and API names both resolve.
func TestParseExerciseKind(t *testing.T) {
	cases := []struct {
		in   string
		want ExerciseKind
	}{
		{"squat", Squat},
		{"Tree Pose", TreePose},
		{" jumping-jack ", JumpingJack},
		{"PUSHUP", Pushup},
	}
	for _, tc := range cases {
		got, err := ParseExerciseKind(tc.in)
		if err != nil {
			t.Errorf("ParseExerciseKind(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseExerciseKind(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

// TestParseExerciseKindUnknown verifies the sentinel error is wrapped.
func TestParseExerciseKindUnknown(t *testing.T) {
	_, err := ParseExerciseKind("plank")
	if !errors.Is(err, ErrUnknownExercise) {
		t.Fatalf("err = %v, want ErrUnknownExercise", err)
	}
}

// TestExerciseKindNextCycles verifies that switching walks the catalog and wraps.
func TestExerciseKindNextCycles(t *testing.T) {
	k := TreePose
	var seen []string
	for range len(Catalog) + 1 {
		seen = append(seen, string(k))
		k = k.Next()
	}
	want := "tree_pose,squat,pushup,jumping_jack,tree_pose"
	if got := strings.Join(seen, ","); got != want {
		t.Errorf("cycle = %s, want %s", got, want)
	}
	if ExerciseKind("plank").Next() != Catalog[0] {
		t.Error("unknown kind should restart at the first exercise")
	}
}

func TestExerciseKindTitle(t *testing.T) {
	if got := JumpingJack.Title(); got != "Jumping Jack" {
		t.Errorf("Title() = %q", got)
	}
	if got := Squat.Title(); got != "Squat" {
		t.Errorf("Title() = %q", got)
	}
}

// TestAnglesJSONWritesNullForMissing verifies the persisted shape: every joint
// present, unobserved ones null.
func TestAnglesJSONWritesNullForMissing(t *testing.T) {
	a := Angles{LeftKnee: 90.5, RightKnee: math.NaN()}
	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var raw map[string]*float64
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal raw: %v", err)
	}
	if len(raw) != len(Joints) {
		t.Errorf("got %d keys, want %d", len(raw), len(Joints))
	}
	if v := raw["left_knee"]; v == nil || *v != 90.5 {
		t.Errorf("left_knee = %v, want 90.5", v)
	}
	if raw["right_knee"] != nil {
		t.Error("NaN right_knee should encode as null")
	}

	var back Angles
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(back) != 1 {
		t.Errorf("decoded %d angles, want 1: %v", len(back), back)
	}
}

// TestAnglesUnmarshalDropsUnknownJoints verifies that extra keys are ignored.
func TestAnglesUnmarshalDropsUnknownJoints(t *testing.T) {
	var a Angles
	if err := json.Unmarshal([]byte(`{"left_elbow": 120, "neck": 10, "right_elbow": null}`), &a); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := a.Get(LeftElbow); !ok {
		t.Error("left_elbow missing")
	}
	if _, ok := a.Get(RightElbow); ok {
		t.Error("null right_elbow should be absent")
	}
	if len(a) != 1 {
		t.Errorf("len = %d, want 1", len(a))
	}
}

// TestAnglesPairRequiresBothSides verifies a one-sided observation is not usable.
func TestAnglesPairRequiresBothSides(t *testing.T) {
	a := Angles{LeftHip: 170, RightHip: math.Inf(1)}
	if _, _, ok := a.Pair(LeftHip, RightHip); ok {
		t.Error("Pair ok with infinite right side")
	}
	a[RightHip] = 165
	l, r, ok := a.Pair(LeftHip, RightHip)
	if !ok || l != 170 || r != 165 {
		t.Errorf("Pair = %v %v %v", l, r, ok)
	}
}

// TestFrameDecode verifies the JSON-lines frame shape including keypoint arrays.
func TestFrameDecode(t *testing.T) {
	raw := `{"t":"2025-03-01T09:00:00.2Z","keypoints":[[1,2,0.9],[3,4,0.1]]}`
	var f Frame
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(f.Keypoints) != 2 {
		t.Fatalf("got %d keypoints", len(f.Keypoints))
	}
	if kp := f.Keypoints[1]; kp.X != 3 || kp.Y != 4 || kp.Confidence != 0.1 {
		t.Errorf("keypoint = %+v", kp)
	}
	if f.Time.Nanosecond() != 200_000_000 {
		t.Errorf("time = %v", f.Time)
	}
}

func TestKeypointRejectsWrongArity(t *testing.T) {
	var kp Keypoint
	if err := json.Unmarshal([]byte(`[1,2]`), &kp); err == nil {
		t.Error("expected error for two-element keypoint")
	}
}
