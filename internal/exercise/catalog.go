package exercise

import "github.com/meltforce/posereps/internal/models"

// Info describes one catalog exercise for listings.
type Info struct {
	Exercise     models.ExerciseKind `json:"exercise"`
	Title        string              `json:"title"`
	InitialPhase models.Phase        `json:"initial_phase"`
	Joints       []models.Joint      `json:"joints"`
	Profile      Profile             `json:"thresholds"`
}

var trackedJoints = map[models.ExerciseKind][]models.Joint{
	models.TreePose:    {models.LeftKnee, models.RightKnee, models.LeftHip, models.RightHip},
	models.Squat:       {models.LeftKnee, models.RightKnee},
	models.Pushup:      {models.LeftElbow, models.RightElbow, models.LeftHip, models.RightHip},
	models.JumpingJack: {models.LeftShoulder, models.RightShoulder},
}

// Describe lists the catalog in cycling order with the thresholds from ps.
func Describe(ps Profiles) []Info {
	machines := newMachines(ps, nil)
	out := make([]Info, 0, len(models.Catalog))
	for _, k := range models.Catalog {
		out = append(out, Info{
			Exercise:     k,
			Title:        k.Title(),
			InitialPhase: machines[k].InitialPhase(),
			Joints:       trackedJoints[k],
			Profile:      ps[k],
		})
	}
	return out
}
