package attention

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// PipelineConfig is the fixed configuration surface of the attention
// pipeline. Every rule threshold and budget lives here rather than being
// hard-coded in the stages.
type PipelineConfig struct {
	DetectionConfidenceFloor float64
	EmotionConfidenceFloor   float64
	SmoothingWindowSize      int

	BlinkClosedThreshold float64
	FatigueBlinkRate     float64 // blinks per minute
	FatigueOpennessMax   float64
	FatigueMinDuration   time.Duration

	DistractionGazeThreshold float64
	DistractionMinDuration   time.Duration

	EventCooldown time.Duration
	GapTolerance  time.Duration

	FrameLatencyBudget time.Duration
	MaxFrameBytes      int
	MinFrameBytes      int
	MinFrameDim        int
	LightingFloor      float64
	SharpnessFloor     float64

	LaneQueueSize   int
	RecentCacheSize int
}

func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		DetectionConfidenceFloor: 0.85,
		EmotionConfidenceFloor:   0.6,
		SmoothingWindowSize:      10,
		BlinkClosedThreshold:     0.12,
		FatigueBlinkRate:         24,
		FatigueOpennessMax:       0.22,
		FatigueMinDuration:       30 * time.Second,
		DistractionGazeThreshold: 0.35,
		DistractionMinDuration:   5 * time.Second,
		EventCooldown:            20 * time.Second,
		GapTolerance:             2 * time.Second,
		FrameLatencyBudget:       1000 * time.Millisecond,
		MaxFrameBytes:            5 * 1024 * 1024,
		MinFrameBytes:            512,
		MinFrameDim:              64,
		LightingFloor:            0.15,
		SharpnessFloor:           0.08,
		LaneQueueSize:            32,
		RecentCacheSize:          50,
	}
}

// LoadPipelineConfig applies environment overrides on top of the
// defaults and validates the result. Environment values are plain
// numbers; durations are milliseconds.
func LoadPipelineConfig() (PipelineConfig, error) {
	cfg := DefaultPipelineConfig()

	envFloat("PIPELINE_DETECTION_CONFIDENCE_FLOOR", &cfg.DetectionConfidenceFloor)
	envFloat("PIPELINE_EMOTION_CONFIDENCE_FLOOR", &cfg.EmotionConfidenceFloor)
	envInt("PIPELINE_SMOOTHING_WINDOW_SIZE", &cfg.SmoothingWindowSize)
	envFloat("PIPELINE_BLINK_CLOSED_THRESHOLD", &cfg.BlinkClosedThreshold)
	envFloat("PIPELINE_FATIGUE_BLINK_RATE", &cfg.FatigueBlinkRate)
	envFloat("PIPELINE_FATIGUE_OPENNESS_MAX", &cfg.FatigueOpennessMax)
	envDurationMS("PIPELINE_FATIGUE_MIN_DURATION_MS", &cfg.FatigueMinDuration)
	envFloat("PIPELINE_DISTRACTION_GAZE_THRESHOLD", &cfg.DistractionGazeThreshold)
	envDurationMS("PIPELINE_DISTRACTION_MIN_DURATION_MS", &cfg.DistractionMinDuration)
	envDurationMS("PIPELINE_EVENT_COOLDOWN_MS", &cfg.EventCooldown)
	envDurationMS("PIPELINE_GAP_TOLERANCE_MS", &cfg.GapTolerance)
	envDurationMS("PIPELINE_FRAME_LATENCY_BUDGET_MS", &cfg.FrameLatencyBudget)
	envInt("PIPELINE_MAX_FRAME_BYTES", &cfg.MaxFrameBytes)
	envInt("PIPELINE_MIN_FRAME_BYTES", &cfg.MinFrameBytes)
	envInt("PIPELINE_MIN_FRAME_DIM", &cfg.MinFrameDim)
	envFloat("PIPELINE_LIGHTING_FLOOR", &cfg.LightingFloor)
	envFloat("PIPELINE_SHARPNESS_FLOOR", &cfg.SharpnessFloor)
	envInt("PIPELINE_LANE_QUEUE_SIZE", &cfg.LaneQueueSize)
	envInt("PIPELINE_RECENT_CACHE_SIZE", &cfg.RecentCacheSize)

	if err := cfg.Validate(); err != nil {
		return PipelineConfig{}, err
	}
	return cfg, nil
}

func (c PipelineConfig) Validate() error {
	if c.DetectionConfidenceFloor < 0 || c.DetectionConfidenceFloor > 1 {
		return fmt.Errorf("detection confidence floor %v out of [0,1]", c.DetectionConfidenceFloor)
	}
	if c.EmotionConfidenceFloor < 0 || c.EmotionConfidenceFloor > 1 {
		return fmt.Errorf("emotion confidence floor %v out of [0,1]", c.EmotionConfidenceFloor)
	}
	if c.SmoothingWindowSize < 1 {
		return fmt.Errorf("smoothing window size %d must be positive", c.SmoothingWindowSize)
	}
	if c.FatigueMinDuration <= 0 || c.DistractionMinDuration <= 0 {
		return fmt.Errorf("rule minimum durations must be positive")
	}
	if c.GapTolerance <= 0 {
		return fmt.Errorf("gap tolerance must be positive")
	}
	if c.FrameLatencyBudget <= 0 {
		return fmt.Errorf("frame latency budget must be positive")
	}
	if c.MinFrameBytes <= 0 || c.MaxFrameBytes <= c.MinFrameBytes {
		return fmt.Errorf("frame byte bounds invalid: min %d max %d", c.MinFrameBytes, c.MaxFrameBytes)
	}
	if c.LaneQueueSize < 1 || c.RecentCacheSize < 1 {
		return fmt.Errorf("queue and cache sizes must be positive")
	}
	return nil
}

func envFloat(key string, dst *float64) {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			*dst = v
		}
	}
}

func envInt(key string, dst *int) {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			*dst = v
		}
	}
}

func envDurationMS(key string, dst *time.Duration) {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			*dst = time.Duration(v) * time.Millisecond
		}
	}
}
