package vision

import "FocusGolang/internal/entity"

type HeadPoseConfig struct {
	// ConfidenceFloor below which no pose is reported rather than
	// extrapolating from unreliable landmarks.
	ConfidenceFloor float64
	// YawScale maps the jaw asymmetry ratio [-1,1] to degrees.
	YawScale float64
	// NeutralPitchRatio is the nose-tip position between eye midline and
	// chin for a level head; PitchScale maps the ratio delta to degrees.
	NeutralPitchRatio float64
	PitchScale        float64
}

func DefaultHeadPoseConfig() HeadPoseConfig {
	return HeadPoseConfig{
		ConfidenceFloor:   0.85,
		YawScale:          90,
		NeutralPitchRatio: 0.375,
		PitchScale:        120,
	}
}

type HeadPoseEstimate struct {
	Yaw   float64
	Pitch float64
}

// EstimateHeadPose derives yaw and pitch in degrees from the rigid
// landmark subset (jaw extremes, chin, nose, eye midline) projected
// against a fixed frontal head model under a small-angle approximation.
// Yaw comes from the horizontal asymmetry of the nose tip between the
// jaw extremes; pitch from the nose-tip position along the eye-to-chin
// axis. Reports nil on low detection confidence rather than
// extrapolating.
func EstimateHeadPose(ls *entity.LandmarkSet, cfg HeadPoseConfig) *HeadPoseEstimate {
	if !hasFullSet(ls) || ls.Confidence < cfg.ConfidenceFloor {
		return nil
	}

	nose := ls.Points[NoseTip]
	jawRight := ls.Points[JawRight]
	jawLeft := ls.Points[JawLeft]
	chin := ls.Points[JawChin]

	rightSpan := absf(nose.X - jawRight.X)
	leftSpan := absf(jawLeft.X - nose.X)
	span := rightSpan + leftSpan
	if span <= 0 {
		return nil
	}
	yaw := (rightSpan - leftSpan) / span * cfg.YawScale

	rightEye := centroid(ls.Points, EyeRightStart, EyeRightEnd)
	leftEye := centroid(ls.Points, EyeLeftStart, EyeLeftEnd)
	eyeMidY := (rightEye.Y + leftEye.Y) / 2
	faceHeight := chin.Y - eyeMidY
	if faceHeight <= 0 {
		return nil
	}
	pitchRatio := (nose.Y - eyeMidY) / faceHeight
	pitch := (pitchRatio - cfg.NeutralPitchRatio) * cfg.PitchScale

	return &HeadPoseEstimate{Yaw: yaw, Pitch: pitch}
}
