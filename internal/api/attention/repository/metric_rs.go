package attentionRepository

import (
	"context"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"FocusGolang/internal/entity"
	contextPkg "FocusGolang/pkg/context"
)

func (r *metricRepository) CreateMetric(ctx context.Context, record entity.FocusMetricRecord) error {
	requestID := contextPkg.GetRequestID(ctx)

	featuresJSON, err := json.Marshal(record.Features)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to marshal focus features")
		return err
	}
	probsJSON, err := json.Marshal(record.EmotionProbabilities)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to marshal emotion probabilities")
		return err
	}

	argsKV := map[string]interface{}{
		"session_id":             record.SessionID,
		"frame_id":               record.FrameID,
		"sequence":               int64(record.Sequence),
		"ts":                     record.Timestamp,
		"face_detected":          record.FaceDetected,
		"detection_confidence":   record.DetectionConfidence,
		"focus_score":            record.FocusScore,
		"focus_confidence":       record.FocusConfidence,
		"features":               string(featuresJSON),
		"emotion":                string(record.Emotion),
		"emotion_confidence":     record.EmotionConfidence,
		"emotion_probabilities":  string(probsJSON),
		"frame_quality":          record.FrameQuality,
		"lighting":               record.Lighting,
		"sharpness":              record.Sharpness,
		"latency_ms":             record.LatencyMS,
		"quality_warning":        record.QualityWarning,
		"low_confidence_warning": record.LowConfidence,
	}

	query, args, err := sqlx.Named(queryCreateMetric, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("CreateMetric named query preparation err")
		return err
	}
	query = r.q.Rebind(query)

	if _, err = r.q.ExecContext(ctx, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": record.SessionID,
			"error":      err.Error(),
		}).Error("Database error when creating metric")
		return err
	}

	return nil
}

// GetRecentMetrics returns the newest records in chronological order.
func (r *metricRepository) GetRecentMetrics(ctx context.Context, sessionID string, limit int) ([]entity.FocusMetricRecord, error) {
	rows, err := r.selectMetrics(ctx, queryGetRecentMetrics, map[string]interface{}{
		"session_id": sessionID,
		"limit":      limit,
	})
	if err != nil {
		return nil, err
	}

	// Query is newest-first for the LIMIT; callers expect ascending.
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, nil
}

func (r *metricRepository) GetTimeSeries(ctx context.Context, sessionID string) ([]entity.FocusMetricRecord, error) {
	return r.selectMetrics(ctx, queryGetTimeSeries, map[string]interface{}{
		"session_id": sessionID,
	})
}

func (r *metricRepository) GetAggregate(ctx context.Context, sessionID string) (entity.FocusAggregate, error) {
	requestID := contextPkg.GetRequestID(ctx)

	query, args, err := sqlx.Named(queryGetAggregate, map[string]interface{}{"session_id": sessionID})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetAggregate named query preparation err")
		return entity.FocusAggregate{}, err
	}
	query = r.q.Rebind(query)

	var row struct {
		Avg    float64 `db:"avg_focus_score"`
		Min    float64 `db:"min_focus_score"`
		Max    float64 `db:"max_focus_score"`
		Frames int64   `db:"frames"`
	}
	if err := r.q.QueryRowxContext(ctx, query, args...).StructScan(&row); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetAggregate execution err")
		return entity.FocusAggregate{}, err
	}

	return entity.FocusAggregate{
		SessionID:       sessionID,
		AvgFocusScore:   row.Avg,
		MinFocusScore:   row.Min,
		MaxFocusScore:   row.Max,
		FramesProcessed: uint64(row.Frames),
	}, nil
}

func (r *metricRepository) selectMetrics(ctx context.Context, namedQuery string, argsKV map[string]interface{}) ([]entity.FocusMetricRecord, error) {
	requestID := contextPkg.GetRequestID(ctx)

	query, args, err := sqlx.Named(namedQuery, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("selectMetrics named query preparation err")
		return nil, err
	}
	query = r.q.Rebind(query)

	var rows []focusMetricDB
	if err := r.q.SelectContext(ctx, &rows, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("selectMetrics execution err")
		return nil, err
	}

	records := make([]entity.FocusMetricRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, makeFocusMetric(row))
	}
	return records, nil
}

func makeFocusMetric(row focusMetricDB) entity.FocusMetricRecord {
	record := entity.FocusMetricRecord{
		SessionID:           row.SessionID.String,
		FrameID:             row.FrameID.String,
		Sequence:            uint64(row.Sequence),
		Timestamp:           row.Timestamp,
		FaceDetected:        row.FaceDetected,
		DetectionConfidence: row.DetectionConfidence,
		FocusScore:          row.FocusScore,
		FocusConfidence:     row.FocusConfidence,
		Emotion:             entity.EmotionLabel(row.Emotion.String),
		EmotionConfidence:   row.EmotionConfidence,
		FrameQuality:        row.FrameQuality,
		Lighting:            row.Lighting,
		Sharpness:           row.Sharpness,
		LatencyMS:           row.LatencyMS,
		LowConfidence:       row.LowConfidence,
	}

	if len(row.Features) > 0 {
		json.Unmarshal(row.Features, &record.Features)
	}
	if len(row.EmotionProbabilities) > 0 {
		json.Unmarshal(row.EmotionProbabilities, &record.EmotionProbabilities)
	}
	if row.QualityWarning.Valid {
		warning := row.QualityWarning.String
		record.QualityWarning = &warning
	}

	return record
}
