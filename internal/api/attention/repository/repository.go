package attentionRepository

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"

	"FocusGolang/internal/entity"
)

type SQLExecutor interface {
	sqlx.ExtContext
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
	Rebind(query string) string
}

func New(db *sqlx.DB, log *logrus.Logger) Repository {
	return &repository{
		DB:  db,
		log: log,
	}
}

type repository struct {
	DB  *sqlx.DB
	log *logrus.Logger
}

type Repository interface {
	NewClient(tx bool) (Client, error)
}

func (r *repository) NewClient(tx bool) (Client, error) {
	var sqlExecutor SQLExecutor
	var commitFunc, rollbackFunc func() error

	sqlExecutor = r.DB

	if tx {
		txx, err := r.DB.Beginx()
		if err != nil {
			return Client{}, err
		}

		sqlExecutor = txx
		commitFunc = txx.Commit
		rollbackFunc = txx.Rollback
	} else {
		commitFunc = func() error { return nil }
		rollbackFunc = func() error { return nil }
	}

	return Client{
		Sessions: &sessionRepository{q: sqlExecutor, log: r.log},
		Metrics:  &metricRepository{q: sqlExecutor, log: r.log},
		Events:   &eventRepository{q: sqlExecutor, log: r.log},
		Commit:   commitFunc,
		Rollback: rollbackFunc,
	}, nil
}

type Client struct {
	Sessions interface {
		CreateSession(ctx context.Context, session entity.StudySession) error
		GetSessionByID(ctx context.Context, id string) (entity.StudySession, error)
		EndSession(ctx context.Context, id string, endedAt time.Time) error
		DeleteSession(ctx context.Context, id string) error
	}

	Metrics interface {
		CreateMetric(ctx context.Context, record entity.FocusMetricRecord) error
		GetRecentMetrics(ctx context.Context, sessionID string, limit int) ([]entity.FocusMetricRecord, error)
		GetTimeSeries(ctx context.Context, sessionID string) ([]entity.FocusMetricRecord, error)
		GetAggregate(ctx context.Context, sessionID string) (entity.FocusAggregate, error)
	}

	Events interface {
		CreateEvent(ctx context.Context, event entity.FocusEvent) error
		GetEventsBySession(ctx context.Context, sessionID string) ([]entity.FocusEvent, error)
	}

	Commit   func() error
	Rollback func() error
}

type sessionRepository struct {
	q   SQLExecutor
	log *logrus.Logger
}

type metricRepository struct {
	q   SQLExecutor
	log *logrus.Logger
}

type eventRepository struct {
	q   SQLExecutor
	log *logrus.Logger
}

type studySessionDB struct {
	ID        sql.NullString `db:"id"`
	StartedAt time.Time      `db:"started_at"`
	EndedAt   sql.NullTime   `db:"ended_at"`
	Status    sql.NullString `db:"status"`
}

type focusMetricDB struct {
	SessionID            sql.NullString  `db:"session_id"`
	FrameID              sql.NullString  `db:"frame_id"`
	Sequence             int64           `db:"sequence"`
	Timestamp            time.Time       `db:"ts"`
	FaceDetected         bool            `db:"face_detected"`
	DetectionConfidence  float64         `db:"detection_confidence"`
	FocusScore           float64         `db:"focus_score"`
	FocusConfidence      float64         `db:"focus_confidence"`
	Features             []byte          `db:"features"`
	Emotion              sql.NullString  `db:"emotion"`
	EmotionConfidence    float64         `db:"emotion_confidence"`
	EmotionProbabilities []byte          `db:"emotion_probabilities"`
	FrameQuality         float64         `db:"frame_quality"`
	Lighting             float64         `db:"lighting"`
	Sharpness            float64         `db:"sharpness"`
	LatencyMS            int64           `db:"latency_ms"`
	QualityWarning       sql.NullString  `db:"quality_warning"`
	LowConfidence        bool            `db:"low_confidence_warning"`
}

type focusEventDB struct {
	ID              sql.NullString  `db:"id"`
	SessionID       sql.NullString  `db:"session_id"`
	Kind            sql.NullString  `db:"kind"`
	RaisedAt        time.Time       `db:"raised_at"`
	DurationMS      int64           `db:"duration_ms"`
	FatigueLevel    sql.NullFloat64 `db:"fatigue_level"`
	BlinkRate       sql.NullFloat64 `db:"blink_rate"`
	DistractionType sql.NullString  `db:"distraction_type"`
	GazeDeviation   sql.NullFloat64 `db:"gaze_deviation"`
}
