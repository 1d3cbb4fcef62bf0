package pose

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/meltforce/posereps/internal/models"
)

// DefaultCutoff is the minimum keypoint confidence for an angle to be reported.
const DefaultCutoff = 0.5

// COCO-17 keypoint indices.
const (
	Nose = iota
	LeftEye
	RightEye
	LeftEar
	RightEar
	LeftShoulder
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	LeftAnkle
	RightAnkle

	NumKeypoints
)

// Angle returns the angle at p2 formed by p1-p2-p3, in degrees. ok is false
// when any keypoint is below cutoff or either limb has zero length.
func Angle(p1, p2, p3 models.Keypoint, cutoff float64) (deg float64, ok bool) {
	if p1.Confidence < cutoff || p2.Confidence < cutoff || p3.Confidence < cutoff {
		return 0, false
	}
	a := r2.Sub(vec(p1), vec(p2))
	b := r2.Sub(vec(p3), vec(p2))
	na, nb := r2.Norm(a), r2.Norm(b)
	if na == 0 || nb == 0 {
		return 0, false
	}
	cos := r2.Dot(a, b) / (na * nb)
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi, true
}

func vec(k models.Keypoint) r2.Vec { return r2.Vec{X: k.X, Y: k.Y} }

type triple struct {
	joint        models.Joint
	a, vertex, c int
}

var triples = []triple{
	{models.LeftShoulder, LeftElbow, LeftShoulder, LeftHip},
	{models.RightShoulder, RightElbow, RightShoulder, RightHip},
	{models.LeftElbow, LeftShoulder, LeftElbow, LeftWrist},
	{models.RightElbow, RightShoulder, RightElbow, RightWrist},
	{models.LeftHip, LeftShoulder, LeftHip, LeftKnee},
	{models.RightHip, RightShoulder, RightHip, RightKnee},
	{models.LeftKnee, LeftHip, LeftKnee, LeftAnkle},
	{models.RightKnee, RightHip, RightKnee, RightAnkle},
}

// Extractor turns a COCO-17 keypoint set into joint angles.
type Extractor struct {
	Cutoff float64
}

// NewExtractor returns an extractor using cutoff, or DefaultCutoff when cutoff is zero.
func NewExtractor(cutoff float64) Extractor {
	if cutoff == 0 {
		cutoff = DefaultCutoff
	}
	return Extractor{Cutoff: cutoff}
}

// Angles computes every joint angle it can. Joints whose keypoints fall below
// the cutoff are left out. A short keypoint slice yields no angles.
func (e Extractor) Angles(kps []models.Keypoint) models.Angles {
	out := models.Angles{}
	if len(kps) < NumKeypoints {
		return out
	}
	for _, t := range triples {
		if deg, ok := Angle(kps[t.a], kps[t.vertex], kps[t.c], e.Cutoff); ok {
			out[t.joint] = deg
		}
	}
	return out
}

// FrameAngles returns the frame's precomputed angles when present, and
// otherwise extracts them from its keypoints.
func (e Extractor) FrameAngles(f models.Frame) models.Angles {
	if len(f.Angles) > 0 {
		return f.Angles
	}
	return e.Angles(f.Keypoints)
}
