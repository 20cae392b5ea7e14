package vision

import "FocusGolang/internal/entity"

type BlinkConfig struct {
	// ClosedThreshold is the eye-aspect-ratio below which a frame counts
	// as eyes-closed. Typical open eyes sit near 0.3.
	ClosedThreshold float64
}

func DefaultBlinkConfig() BlinkConfig {
	return BlinkConfig{ClosedThreshold: 0.12}
}

type BlinkEstimate struct {
	Openness float64
	Closed   bool
}

// EstimateBlink computes the eye-openness ratio from eyelid landmark
// distances: the classic eye aspect ratio averaged over both eyes.
// Debounced blink counting (consecutive closed frames followed by a
// reopen) is cross-frame state and lives with the session aggregator.
// Returns nil when no face was detected.
func EstimateBlink(ls *entity.LandmarkSet, cfg BlinkConfig) *BlinkEstimate {
	if !hasFullSet(ls) {
		return nil
	}

	right := eyeAspectRatio(ls.Points, EyeRightStart)
	left := eyeAspectRatio(ls.Points, EyeLeftStart)
	openness := (right + left) / 2

	return &BlinkEstimate{
		Openness: openness,
		Closed:   openness < cfg.ClosedThreshold,
	}
}

// eyeAspectRatio over the six landmarks of one eye, ordered corner,
// upper lid x2, corner, lower lid x2.
func eyeAspectRatio(points []entity.LandmarkPoint, start int) float64 {
	p1, p2, p3 := points[start], points[start+1], points[start+2]
	p4, p5, p6 := points[start+3], points[start+4], points[start+5]

	horizontal := dist(p1, p4)
	if horizontal <= 0 {
		return 0
	}
	return (dist(p2, p6) + dist(p3, p5)) / (2 * horizontal)
}
