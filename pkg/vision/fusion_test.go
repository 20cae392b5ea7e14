package vision_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FocusGolang/internal/entity"
	"FocusGolang/pkg/landmark"
	"FocusGolang/pkg/vision"
)

// frameOf runs the estimators over a synthetic face and packs the result
// the way the pipeline does.
func frameOf(t *testing.T, opts landmark.SyntheticOpts) vision.WindowFrame {
	t.Helper()
	face := landmark.SyntheticFace(opts)

	features := entity.FocusFeatures{}
	if gaze := vision.EstimateGaze(face, vision.DefaultGazeConfig()); gaze != nil {
		features.GazeHorizontal = &gaze.Horizontal
		features.GazeVertical = &gaze.Vertical
	}
	if blink := vision.EstimateBlink(face, vision.DefaultBlinkConfig()); blink != nil {
		features.EyeOpenness = &blink.Openness
		features.BlinkClosed = blink.Closed
	}
	if pose := vision.EstimateHeadPose(face, vision.DefaultHeadPoseConfig()); pose != nil {
		features.HeadYaw = &pose.Yaw
		features.HeadPitch = &pose.Pitch
	}

	return vision.WindowFrame{
		Features:   features,
		Confidence: face.Confidence,
		FaceFound:  true,
	}
}

func attentiveWindow(t *testing.T, n int, confidence float64) []vision.WindowFrame {
	t.Helper()
	window := make([]vision.WindowFrame, 0, n)
	for i := 0; i < n; i++ {
		window = append(window, frameOf(t, landmark.SyntheticOpts{Confidence: confidence}))
	}
	return window
}

func TestFuseFocusDeterministic(t *testing.T) {
	window := attentiveWindow(t, 10, 0.92)
	cfg := vision.DefaultFusionConfig()

	a := vision.FuseFocus(window, 15, 0, cfg)
	b := vision.FuseFocus(window, 15, 0, cfg)

	// Identical windows must yield bit-identical results.
	assert.Equal(t, a, b)
	assert.Greater(t, a.Score, 0.8)
	assert.Greater(t, a.Confidence, 0.9)
}

func TestFuseFocusConfidenceMonotone(t *testing.T) {
	cfg := vision.DefaultFusionConfig()

	high := vision.FuseFocus(attentiveWindow(t, 10, 0.95), 15, 0, cfg)
	low := vision.FuseFocus(attentiveWindow(t, 10, 0.60), 15, 0, cfg)

	assert.Greater(t, high.Score, low.Score)
	assert.Greater(t, high.Confidence, low.Confidence)
}

func TestFuseFocusPartialWindow(t *testing.T) {
	window := attentiveWindow(t, 3, 0.92)

	result := vision.FuseFocus(window, 15, 0, vision.DefaultFusionConfig())

	assert.Greater(t, result.Score, 0.0)
	assert.Greater(t, result.Confidence, 0.0)
}

func TestFuseFocusCarriesForwardWithoutFaces(t *testing.T) {
	window := make([]vision.WindowFrame, 10)
	for i := range window {
		window[i] = vision.WindowFrame{FaceFound: false}
	}

	result := vision.FuseFocus(window, 15, 0.42, vision.DefaultFusionConfig())

	assert.Equal(t, 0.42, result.Score)
	assert.Equal(t, 0.0, result.Confidence)
}

func TestFuseFocusGazeDeviationLowersScore(t *testing.T) {
	cfg := vision.DefaultFusionConfig()

	centered := vision.FuseFocus(attentiveWindow(t, 10, 0.92), 15, 0, cfg)

	away := make([]vision.WindowFrame, 0, 10)
	for i := 0; i < 10; i++ {
		away = append(away, frameOf(t, landmark.SyntheticOpts{GazeShiftX: 0.5}))
	}
	distracted := vision.FuseFocus(away, 15, 0, cfg)

	assert.Greater(t, centered.Score, distracted.Score)
}

func TestFuseFocusMissingFramesLowerConfidence(t *testing.T) {
	cfg := vision.DefaultFusionConfig()

	full := attentiveWindow(t, 10, 0.92)
	holey := attentiveWindow(t, 10, 0.92)
	holey[3] = vision.WindowFrame{FaceFound: false}
	holey[7] = vision.WindowFrame{FaceFound: false}

	fullResult := vision.FuseFocus(full, 15, 0, cfg)
	holeyResult := vision.FuseFocus(holey, 15, 0, cfg)

	require.Greater(t, holeyResult.Confidence, 0.0)
	assert.Greater(t, fullResult.Confidence, holeyResult.Confidence)
}
