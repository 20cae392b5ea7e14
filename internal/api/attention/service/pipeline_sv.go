package attentionService

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
	"golang.org/x/sync/errgroup"

	"FocusGolang/internal/api/attention"
	"FocusGolang/internal/entity"
	"FocusGolang/pkg/vision"
)

// sessionCacheTTL is the sliding liveness window for the Redis session
// key; every processed frame refreshes it.
const sessionCacheTTL = 24 * time.Hour

// processFrame runs the full per-frame pipeline on the lane goroutine:
// gate, landmark extraction, parallel feature estimation, fusion, emotion
// classification and the aggregation rules. It returns the immutable
// record for the frame plus any events whose qualifying duration was met.
func (s *attentionService) processFrame(ctx context.Context, lane *sessionLane, frame *entity.FrameSample) (entity.FocusMetricRecord, []entity.FocusEvent, error) {
	w := lane.window

	if !w.lastTimestamp.IsZero() && !frame.CapturedAt.After(w.lastTimestamp) {
		return entity.FocusMetricRecord{}, nil, attention.ErrOutOfOrderFrame
	}

	quality, err := vision.InspectFrame(frame.Image, s.gateCfg)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"session_id": frame.SessionID,
			"frame_id":   frame.FrameID,
			"error":      err.Error(),
		}).Warn("Frame rejected by gate")
		return entity.FocusMetricRecord{}, nil, attention.ErrMalformedFrame
	}

	degraded := false
	ls, err := s.detector.DetectLandmarks(ctx, frame.Image)
	if err != nil {
		// A failed or slow detection degrades the frame to a
		// no-face observation instead of failing the request.
		degraded = true
		ls = &entity.LandmarkSet{FaceFound: false, Confidence: 0}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			lane.stats.recordDeadline()
			s.log.WithFields(logrus.Fields{
				"session_id": frame.SessionID,
				"frame_id":   frame.FrameID,
				"budget_ms":  s.cfg.FrameLatencyBudget.Milliseconds(),
			}).Warn("Landmark extraction exceeded the frame latency budget")
		} else {
			s.log.WithFields(logrus.Fields{
				"session_id": frame.SessionID,
				"frame_id":   frame.FrameID,
				"error":      err.Error(),
			}).Error("Landmark extraction failed")
		}
	}

	var (
		gaze  *vision.GazeEstimate
		blink *vision.BlinkEstimate
		pose  *vision.HeadPoseEstimate
	)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		gaze = vision.EstimateGaze(ls, s.gazeCfg)
		return nil
	})
	g.Go(func() error {
		blink = vision.EstimateBlink(ls, s.blinkCfg)
		return nil
	})
	g.Go(func() error {
		pose = vision.EstimateHeadPose(ls, s.poseCfg)
		return nil
	})
	g.Wait()

	features := entity.FocusFeatures{}
	if gaze != nil {
		features.GazeHorizontal = &gaze.Horizontal
		features.GazeVertical = &gaze.Vertical
	}
	if blink != nil {
		features.EyeOpenness = &blink.Openness
		features.BlinkClosed = blink.Closed
	}
	if pose != nil {
		features.HeadYaw = &pose.Yaw
		features.HeadPitch = &pose.Pitch
	}

	s.observeGap(w, frame.CapturedAt)
	if w.firstTimestamp.IsZero() {
		w.firstTimestamp = frame.CapturedAt
	}
	blinkRate := s.trackBlink(w, frame.CapturedAt, blink)
	s.appendFrame(w, vision.WindowFrame{
		Features:   features,
		Confidence: ls.Confidence,
		FaceFound:  ls.FaceFound,
	})

	fused := vision.FuseFocus(w.frames, blinkRate, w.prevScore, s.fusionCfg)
	w.prevScore = fused.Score

	emotion := vision.ClassifyEmotion(ls, features, s.emotionCfg)

	events := s.evaluateRules(w, frame.CapturedAt, features, ls.FaceFound, gaze.Deviation(), blinkRate)
	w.lastTimestamp = frame.CapturedAt

	lowConfidence := degraded ||
		!ls.FaceFound ||
		ls.Confidence < s.cfg.DetectionConfidenceFloor ||
		emotion.LowConfidence

	record := entity.FocusMetricRecord{
		SessionID:            frame.SessionID,
		FrameID:              frame.FrameID,
		Sequence:             frame.Sequence,
		Timestamp:            frame.CapturedAt,
		FaceDetected:         ls.FaceFound,
		DetectionConfidence:  ls.Confidence,
		FocusScore:           fused.Score,
		FocusConfidence:      fused.Confidence,
		Features:             features,
		Emotion:              emotion.Label,
		EmotionConfidence:    emotion.Confidence,
		EmotionProbabilities: emotion.Probabilities,
		FrameQuality:         quality.Quality,
		Lighting:             quality.Lighting,
		Sharpness:            quality.Sharpness,
		LatencyMS:            time.Since(frame.ReceivedAt).Milliseconds(),
		LowConfidence:        lowConfidence,
	}
	if quality.Warning != "" {
		warning := quality.Warning
		record.QualityWarning = &warning
	}

	lane.stats.recordLatency(record.LatencyMS)

	return record, events, nil
}

// emit hands the finished record and events to the storage, cache and
// broadcast collaborators. It runs off the lane goroutine so persistence
// latency never blocks frame processing.
func (s *attentionService) emit(record entity.FocusMetricRecord, events []entity.FocusEvent) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		client, err := s.repo.NewClient(false)
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"session_id": record.SessionID,
				"error":      err.Error(),
			}).Error("Failed to open repository client for metric emit")
			return
		}

		if err := client.Metrics.CreateMetric(ctx, record); err != nil {
			s.log.WithFields(logrus.Fields{
				"session_id": record.SessionID,
				"frame_id":   record.FrameID,
				"error":      err.Error(),
			}).Error("Failed to persist focus metric")
		}

		if err := s.redis.PushMetric(ctx, record.SessionID, record, s.cfg.RecentCacheSize); err != nil {
			s.log.WithFields(logrus.Fields{
				"session_id": record.SessionID,
				"error":      err.Error(),
			}).Warn("Failed to cache focus metric")
		}
		if err := s.redis.SetSessionActive(ctx, record.SessionID, sessionCacheTTL); err != nil {
			s.log.WithFields(logrus.Fields{
				"session_id": record.SessionID,
				"error":      err.Error(),
			}).Warn("Failed to refresh session liveness key")
		}

		for _, event := range events {
			if err := client.Events.CreateEvent(ctx, event); err != nil {
				s.log.WithFields(logrus.Fields{
					"session_id": event.SessionID,
					"event_id":   event.ID,
					"kind":       event.Kind,
					"error":      err.Error(),
				}).Error("Failed to persist focus event")
			}
			s.broadcaster.PublishEvent(event.SessionID, event)
		}
	}()
}
