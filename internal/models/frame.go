package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Keypoint is one tracked body landmark in image coordinates.
// On the wire it is a three-element array [x, y, confidence].
type Keypoint struct {
	X          float64
	Y          float64
	Confidence float64
}

func (k Keypoint) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]float64{k.X, k.Y, k.Confidence})
}

func (k *Keypoint) UnmarshalJSON(data []byte) error {
	var v []float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decoding keypoint: %w", err)
	}
	if len(v) != 3 {
		return fmt.Errorf("keypoint has %d values, want 3", len(v))
	}
	k.X, k.Y, k.Confidence = v[0], v[1], v[2]
	return nil
}

// Frame is a single observation from the pose estimator. Either Keypoints
// (COCO-17 order) or precomputed Angles may be set; Angles wins when both are.
// A frame with Switch set carries no pose and asks for the next exercise.
type Frame struct {
	Time      time.Time  `json:"t"`
	Keypoints []Keypoint `json:"keypoints,omitempty"`
	Angles    Angles     `json:"angles,omitempty"`
	Switch    bool       `json:"switch,omitempty"`
}
