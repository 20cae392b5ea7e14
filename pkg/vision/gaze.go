package vision

import (
	"math"

	"FocusGolang/internal/entity"
)

type GazeConfig struct {
	// NeutralVerticalRatio is the nose-tip drop below the eye midline,
	// normalized by interocular distance, for a calibrated forward gaze.
	NeutralVerticalRatio float64
}

func DefaultGazeConfig() GazeConfig {
	return GazeConfig{NeutralVerticalRatio: 0.7}
}

type GazeEstimate struct {
	Horizontal float64
	Vertical   float64
}

// EstimateGaze derives the normalized deviation of the eye region from a
// calibrated neutral pose. Horizontal and vertical deviations are the
// nose-tip offset from the eye midline in interocular units; both are 0
// for a centered forward gaze. Returns nil when no face was detected.
func EstimateGaze(ls *entity.LandmarkSet, cfg GazeConfig) *GazeEstimate {
	if !hasFullSet(ls) {
		return nil
	}

	rightEye := centroid(ls.Points, EyeRightStart, EyeRightEnd)
	leftEye := centroid(ls.Points, EyeLeftStart, EyeLeftEnd)
	interocular := dist(rightEye, leftEye)
	if interocular <= 0 {
		return nil
	}

	mid := entity.LandmarkPoint{X: (rightEye.X + leftEye.X) / 2, Y: (rightEye.Y + leftEye.Y) / 2}
	nose := ls.Points[NoseTip]

	return &GazeEstimate{
		Horizontal: (nose.X - mid.X) / interocular,
		Vertical:   (nose.Y-mid.Y)/interocular - cfg.NeutralVerticalRatio,
	}
}

// Deviation is the scalar gaze deviation magnitude used by the
// distraction rule.
func (g *GazeEstimate) Deviation() float64 {
	if g == nil {
		return 0
	}
	return math.Hypot(g.Horizontal, g.Vertical)
}
