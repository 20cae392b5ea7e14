package attention_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FocusGolang/internal/api/attention"
)

func TestDefaultPipelineConfig(t *testing.T) {
	cfg := attention.DefaultPipelineConfig()

	assert.Equal(t, 0.85, cfg.DetectionConfidenceFloor)
	assert.Equal(t, 0.6, cfg.EmotionConfidenceFloor)
	assert.Equal(t, 10, cfg.SmoothingWindowSize)
	assert.Equal(t, 24.0, cfg.FatigueBlinkRate)
	assert.Equal(t, 30*time.Second, cfg.FatigueMinDuration)
	assert.Equal(t, 5*time.Second, cfg.DistractionMinDuration)
	assert.Equal(t, 2*time.Second, cfg.GapTolerance)
	assert.Equal(t, 1000*time.Millisecond, cfg.FrameLatencyBudget)

	require.NoError(t, cfg.Validate())
}

func TestLoadPipelineConfigEnvOverrides(t *testing.T) {
	t.Setenv("PIPELINE_SMOOTHING_WINDOW_SIZE", "20")
	t.Setenv("PIPELINE_FATIGUE_BLINK_RATE", "30")
	t.Setenv("PIPELINE_FRAME_LATENCY_BUDGET_MS", "500")
	t.Setenv("PIPELINE_GAP_TOLERANCE_MS", "4000")

	cfg, err := attention.LoadPipelineConfig()
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.SmoothingWindowSize)
	assert.Equal(t, 30.0, cfg.FatigueBlinkRate)
	assert.Equal(t, 500*time.Millisecond, cfg.FrameLatencyBudget)
	assert.Equal(t, 4*time.Second, cfg.GapTolerance)

	// Untouched keys keep their defaults.
	assert.Equal(t, 0.35, cfg.DistractionGazeThreshold)
}

func TestLoadPipelineConfigIgnoresUnparsableValues(t *testing.T) {
	t.Setenv("PIPELINE_FATIGUE_BLINK_RATE", "not-a-number")

	cfg, err := attention.LoadPipelineConfig()
	require.NoError(t, err)

	assert.Equal(t, 24.0, cfg.FatigueBlinkRate)
}

func TestLoadPipelineConfigRejectsInvalid(t *testing.T) {
	t.Setenv("PIPELINE_SMOOTHING_WINDOW_SIZE", "0")

	_, err := attention.LoadPipelineConfig()
	require.Error(t, err)
}

func TestValidateRejectsBadConfidenceFloor(t *testing.T) {
	cfg := attention.DefaultPipelineConfig()
	cfg.DetectionConfidenceFloor = 1.5

	require.Error(t, cfg.Validate())
}

func TestValidateRejectsInvertedFrameBounds(t *testing.T) {
	cfg := attention.DefaultPipelineConfig()
	cfg.MinFrameBytes = 1024
	cfg.MaxFrameBytes = 512

	require.Error(t, cfg.Validate())
}
