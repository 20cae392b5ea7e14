package attentionRepository

const (
	queryCreateSession = `
		INSERT INTO study_sessions (
			id, started_at, ended_at, status
		) VALUES (
			:id, :started_at, :ended_at, :status
		)
	`

	queryGetSessionByID = `
		SELECT
			id, started_at, ended_at, status
		FROM study_sessions
		WHERE id = :id
	`

	queryEndSession = `
		UPDATE study_sessions
		SET
			ended_at = :ended_at,
			status = :status
		WHERE id = :id
	`

	queryDeleteSession = `
		DELETE FROM study_sessions
		WHERE id = :id
	`

	queryCreateMetric = `
		INSERT INTO focus_metrics (
			session_id, frame_id, sequence, ts, face_detected,
			detection_confidence, focus_score, focus_confidence, features,
			emotion, emotion_confidence, emotion_probabilities,
			frame_quality, lighting, sharpness, latency_ms,
			quality_warning, low_confidence_warning
		) VALUES (
			:session_id, :frame_id, :sequence, :ts, :face_detected,
			:detection_confidence, :focus_score, :focus_confidence, :features,
			:emotion, :emotion_confidence, :emotion_probabilities,
			:frame_quality, :lighting, :sharpness, :latency_ms,
			:quality_warning, :low_confidence_warning
		)
	`

	queryGetRecentMetrics = `
		SELECT
			session_id, frame_id, sequence, ts, face_detected,
			detection_confidence, focus_score, focus_confidence, features,
			emotion, emotion_confidence, emotion_probabilities,
			frame_quality, lighting, sharpness, latency_ms,
			quality_warning, low_confidence_warning
		FROM focus_metrics
		WHERE session_id = :session_id
		ORDER BY ts DESC
		LIMIT :limit
	`

	queryGetTimeSeries = `
		SELECT
			session_id, frame_id, sequence, ts, face_detected,
			detection_confidence, focus_score, focus_confidence, features,
			emotion, emotion_confidence, emotion_probabilities,
			frame_quality, lighting, sharpness, latency_ms,
			quality_warning, low_confidence_warning
		FROM focus_metrics
		WHERE session_id = :session_id
		ORDER BY ts ASC
	`

	queryGetAggregate = `
		SELECT
			COALESCE(AVG(focus_score), 0) AS avg_focus_score,
			COALESCE(MIN(focus_score), 0) AS min_focus_score,
			COALESCE(MAX(focus_score), 0) AS max_focus_score,
			COUNT(*) AS frames
		FROM focus_metrics
		WHERE session_id = :session_id
	`

	queryCreateEvent = `
		INSERT INTO focus_events (
			id, session_id, kind, raised_at, duration_ms,
			fatigue_level, blink_rate, distraction_type, gaze_deviation
		) VALUES (
			:id, :session_id, :kind, :raised_at, :duration_ms,
			:fatigue_level, :blink_rate, :distraction_type, :gaze_deviation
		)
	`

	queryGetEventsBySession = `
		SELECT
			id, session_id, kind, raised_at, duration_ms,
			fatigue_level, blink_rate, distraction_type, gaze_deviation
		FROM focus_events
		WHERE session_id = :session_id
		ORDER BY raised_at ASC
	`
)
