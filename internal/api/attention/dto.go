package attention

import (
	"time"

	"FocusGolang/internal/entity"
)

type StartSessionResponse struct {
	Data entity.StudySession `json:"data"`
}

// ProcessFrameRequest is the JSON form of frame ingest; multipart upload
// with a "frame" file part is the alternative. CapturedAt is unix
// milliseconds of the client-side capture clock.
type ProcessFrameRequest struct {
	ImageBase64 string `json:"image_base64" validate:"required"`
	CapturedAt  int64  `json:"captured_at" validate:"required"`
}

type ProcessFrameResponse struct {
	Data entity.FocusMetricRecord `json:"data"`
}

// StreamFrameResult is the per-frame websocket reply: the metric record
// plus any events the frame caused the aggregator to raise.
type StreamFrameResult struct {
	Record entity.FocusMetricRecord `json:"record"`
	Events []entity.FocusEvent      `json:"events,omitempty"`
	Error  string                   `json:"error,omitempty"`
}

type MetricsResponse struct {
	Data []entity.FocusMetricRecord `json:"data"`
}

type AggregateResponse struct {
	Data entity.FocusAggregate `json:"data"`
}

type EventsResponse struct {
	Data []entity.FocusEvent `json:"data"`
}

func ParseCapturedAt(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
