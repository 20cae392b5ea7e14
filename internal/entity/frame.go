package entity

import "time"

// LandmarkCount is the fixed cardinality of a landmark set, following the
// classic 68-point facial layout: jaw 0-16, brows 17-26, nose 27-35,
// right eye 36-41, left eye 42-47, mouth 48-67.
const LandmarkCount = 68

type FrameSample struct {
	SessionID  string
	FrameID    string
	Sequence   uint64
	Image      []byte
	CapturedAt time.Time
	ReceivedAt time.Time
}

type LandmarkPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z,omitempty"`
}

// LandmarkSet is immutable once produced. A frame without a face is a
// normal zero-information set (FaceFound false, Confidence 0, nil Points),
// never an error.
type LandmarkSet struct {
	Points     []LandmarkPoint `json:"points"`
	Confidence float64         `json:"confidence"`
	FaceFound  bool            `json:"face_found"`
}
