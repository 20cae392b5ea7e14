package entity

import "time"

type FocusEventKind string

const (
	EventFatigue     FocusEventKind = "fatigue"
	EventDistraction FocusEventKind = "distraction"
)

type DistractionType string

const (
	DistractionGazeAway DistractionType = "gaze_away"
	DistractionFaceLost DistractionType = "face_lost"
)

// FocusEvent is raised by the session aggregator when a rule's qualifying
// duration is met. Immutable; handed to the storage and broadcast
// collaborators once created. FatigueLevel is set for fatigue flags,
// DistractionType and GazeDeviation for distraction events.
type FocusEvent struct {
	ID              string          `json:"id"`
	SessionID       string          `json:"session_id"`
	Kind            FocusEventKind  `json:"kind"`
	RaisedAt        time.Time       `json:"raised_at"`
	DurationMS      int64           `json:"duration_ms"`
	FatigueLevel    float64         `json:"fatigue_level,omitempty"`
	BlinkRate       float64         `json:"blink_rate,omitempty"`
	DistractionType DistractionType `json:"distraction_type,omitempty"`
	GazeDeviation   float64         `json:"gaze_deviation,omitempty"`
}

func NewFatigueFlag(id, sessionID string, raisedAt time.Time, held time.Duration, level, blinkRate float64) FocusEvent {
	return FocusEvent{
		ID:           id,
		SessionID:    sessionID,
		Kind:         EventFatigue,
		RaisedAt:     raisedAt,
		DurationMS:   held.Milliseconds(),
		FatigueLevel: level,
		BlinkRate:    blinkRate,
	}
}

func NewDistractionEvent(id, sessionID string, raisedAt time.Time, held time.Duration, kind DistractionType, gazeDeviation float64) FocusEvent {
	return FocusEvent{
		ID:              id,
		SessionID:       sessionID,
		Kind:            EventDistraction,
		RaisedAt:        raisedAt,
		DurationMS:      held.Milliseconds(),
		DistractionType: kind,
		GazeDeviation:   gazeDeviation,
	}
}
