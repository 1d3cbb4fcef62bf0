package models

import (
	"encoding/json"
	"fmt"
	"math"
)

// Joint names an angle measured at a body joint.
type Joint string

const (
	LeftShoulder  Joint = "left_shoulder"
	RightShoulder Joint = "right_shoulder"
	LeftElbow     Joint = "left_elbow"
	RightElbow    Joint = "right_elbow"
	LeftHip       Joint = "left_hip"
	RightHip      Joint = "right_hip"
	LeftKnee      Joint = "left_knee"
	RightKnee     Joint = "right_knee"
)

// Joints lists every joint the angle extractor produces, in log order.
var Joints = []Joint{
	LeftShoulder, RightShoulder,
	LeftElbow, RightElbow,
	LeftHip, RightHip,
	LeftKnee, RightKnee,
}

// Angles maps a joint to its angle in degrees. A missing key means the angle
// could not be observed with enough confidence. NaN and Inf count as missing.
type Angles map[Joint]float64

// Get returns the angle at j and whether it was observed.
func (a Angles) Get(j Joint) (float64, bool) {
	v, ok := a[j]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Pair returns both sides of a symmetric joint pair. ok is false unless both
// sides were observed.
func (a Angles) Pair(left, right Joint) (l, r float64, ok bool) {
	l, lok := a.Get(left)
	r, rok := a.Get(right)
	return l, r, lok && rok
}

// Nullable returns the persisted form: every known joint is present and
// unobserved joints map to nil.
func (a Angles) Nullable() map[string]*float64 {
	out := make(map[string]*float64, len(Joints))
	for _, j := range Joints {
		if v, ok := a.Get(j); ok {
			out[string(j)] = &v
		} else {
			out[string(j)] = nil
		}
	}
	return out
}

// MarshalJSON encodes all known joints, writing null for unobserved ones.
func (a Angles) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Nullable())
}

// UnmarshalJSON accepts an object of joint names to numbers or null.
// Null values and unknown joint names are dropped.
func (a *Angles) UnmarshalJSON(data []byte) error {
	var raw map[string]*float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding angles: %w", err)
	}
	out := make(Angles, len(raw))
	for _, j := range Joints {
		if v := raw[string(j)]; v != nil {
			out[j] = *v
		}
	}
	*a = out
	return nil
}
