package vision

import "FocusGolang/internal/entity"

type FusionConfig struct {
	WindowSize int

	GazeWeight  float64
	BlinkWeight float64
	PoseWeight  float64

	// Full-scale deviations: the point at which a component score
	// reaches zero.
	GazeFullScale  float64
	YawFullScale   float64
	PitchFullScale float64

	// RestingBlinkRate is the baseline blinks-per-minute; the blink
	// component scores the deviation from it.
	RestingBlinkRate float64
}

func DefaultFusionConfig() FusionConfig {
	return FusionConfig{
		WindowSize:       10,
		GazeWeight:       0.45,
		BlinkWeight:      0.2,
		PoseWeight:       0.35,
		GazeFullScale:    0.6,
		YawFullScale:     35,
		PitchFullScale:   25,
		RestingBlinkRate: 15,
	}
}

// WindowFrame is one fusion input: the per-frame features plus the
// detection confidence they were derived under.
type WindowFrame struct {
	Features   entity.FocusFeatures
	Confidence float64
	FaceFound  bool
}

// FocusResult is the smoothed output for the newest frame of the window.
type FocusResult struct {
	Score      float64
	Confidence float64
}

// FuseFocus combines the window of per-frame features (oldest first,
// newest last, at most WindowSize entries) into one smoothed focus score.
//
// Per frame, the instant score is the weighted mean of the inverse
// normalized gaze deviation, the inverse blink-rate deviation from the
// resting baseline, and the inverse head-pose deviation; components
// missing on a frame drop out and the remaining weights renormalize.
// Smoothing uses linear recency decay: the i-th oldest frame carries
// weight (i+1), and every frame weight is additionally scaled by its
// detection confidence, so a low-confidence detection cannot produce a
// high-confidence score. The computation is pure floating-point
// arithmetic over the inputs: identical windows yield bit-identical
// results.
//
// A partial window (session start) still produces a score. A window with
// no usable face frames carries prevScore forward with zero confidence.
func FuseFocus(window []WindowFrame, blinkRate float64, prevScore float64, cfg FusionConfig) FocusResult {
	if len(window) > cfg.WindowSize {
		window = window[len(window)-cfg.WindowSize:]
	}

	var weightedScore, usedWeight, totalWeight, confSum float64
	for i, frame := range window {
		recency := float64(i + 1)
		totalWeight += recency
		if !frame.FaceFound {
			continue
		}
		instant, ok := instantScore(frame.Features, blinkRate, cfg)
		if !ok {
			continue
		}
		w := recency * frame.Confidence
		weightedScore += w * instant
		usedWeight += w
		confSum += recency * frame.Confidence
	}

	if usedWeight <= 0 {
		return FocusResult{Score: prevScore, Confidence: 0}
	}

	// Confidence is the recency-weighted mean detection confidence over
	// the window; absent frames contribute zero, so it degrades with
	// both low confidence and missing faces.
	confidence := confSum / totalWeight

	return FocusResult{
		Score:      clamp01(weightedScore / usedWeight * confidence),
		Confidence: clamp01(confidence),
	}
}

func instantScore(f entity.FocusFeatures, blinkRate float64, cfg FusionConfig) (float64, bool) {
	var sum, weights float64

	if f.GazeHorizontal != nil && f.GazeVertical != nil {
		deviation := (&GazeEstimate{Horizontal: *f.GazeHorizontal, Vertical: *f.GazeVertical}).Deviation()
		sum += cfg.GazeWeight * (1 - clamp01(deviation/cfg.GazeFullScale))
		weights += cfg.GazeWeight
	}

	if f.EyeOpenness != nil && cfg.RestingBlinkRate > 0 {
		rateDeviation := absf(blinkRate-cfg.RestingBlinkRate) / cfg.RestingBlinkRate
		sum += cfg.BlinkWeight * (1 - clamp01(rateDeviation))
		weights += cfg.BlinkWeight
	}

	if f.HeadYaw != nil && f.HeadPitch != nil {
		yawDev := clamp01(absf(*f.HeadYaw) / cfg.YawFullScale)
		pitchDev := clamp01(absf(*f.HeadPitch) / cfg.PitchFullScale)
		poseDev := yawDev
		if pitchDev > poseDev {
			poseDev = pitchDev
		}
		sum += cfg.PoseWeight * (1 - poseDev)
		weights += cfg.PoseWeight
	}

	if weights <= 0 {
		return 0, false
	}
	return sum / weights, true
}
