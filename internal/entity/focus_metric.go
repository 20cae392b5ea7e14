package entity

import "time"

type EmotionLabel string

const (
	EmotionNeutral  EmotionLabel = "neutral"
	EmotionHappy    EmotionLabel = "happy"
	EmotionStressed EmotionLabel = "stressed"
	EmotionFatigued EmotionLabel = "fatigued"
)

// EmotionVocabulary is the fixed label set; probability maps always carry
// exactly these keys.
var EmotionVocabulary = []EmotionLabel{
	EmotionNeutral,
	EmotionHappy,
	EmotionStressed,
	EmotionFatigued,
}

const (
	QualityWarningLowLight     = "low_light"
	QualityWarningLowSharpness = "low_sharpness"
)

// FocusFeatures are per-frame geometric estimates derived from one
// LandmarkSet. Pointer fields are nil when the feature is undefined for
// the frame (no face, or detection confidence below the floor).
type FocusFeatures struct {
	GazeHorizontal *float64 `json:"gaze_horizontal"`
	GazeVertical   *float64 `json:"gaze_vertical"`
	EyeOpenness    *float64 `json:"eye_openness"`
	BlinkClosed    bool     `json:"blink_closed"`
	HeadYaw        *float64 `json:"head_yaw"`
	HeadPitch      *float64 `json:"head_pitch"`
}

// FocusMetricRecord is the unit of output and persistence: created once
// per processed frame, never mutated afterwards.
type FocusMetricRecord struct {
	SessionID            string                   `json:"session_id"`
	FrameID              string                   `json:"frame_id"`
	Sequence             uint64                   `json:"sequence"`
	Timestamp            time.Time                `json:"timestamp"`
	FaceDetected         bool                     `json:"face_detected"`
	DetectionConfidence  float64                  `json:"detection_confidence"`
	FocusScore           float64                  `json:"focus_score"`
	FocusConfidence      float64                  `json:"focus_confidence"`
	Features             FocusFeatures            `json:"features"`
	Emotion              EmotionLabel             `json:"emotion"`
	EmotionConfidence    float64                  `json:"emotion_confidence"`
	EmotionProbabilities map[EmotionLabel]float64 `json:"emotion_probabilities"`
	FrameQuality         float64                  `json:"frame_quality"`
	Lighting             float64                  `json:"lighting"`
	Sharpness            float64                  `json:"sharpness"`
	LatencyMS            int64                    `json:"latency_ms"`
	QualityWarning       *string                  `json:"quality_warning"`
	LowConfidence        bool                     `json:"low_confidence_warning"`
}

// FocusAggregate is the session-level summary returned by the aggregate
// query, with the operational counters tracked alongside it.
type FocusAggregate struct {
	SessionID        string  `json:"session_id"`
	AvgFocusScore    float64 `json:"avg_focus_score"`
	MinFocusScore    float64 `json:"min_focus_score"`
	MaxFocusScore    float64 `json:"max_focus_score"`
	FramesProcessed  uint64  `json:"frames_processed"`
	FramesDropped    uint64  `json:"frames_dropped"`
	DeadlineExceeded uint64  `json:"deadline_exceeded"`
	P95LatencyMS     int64   `json:"p95_latency_ms"`
}
