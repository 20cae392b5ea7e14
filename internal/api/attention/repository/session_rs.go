package attentionRepository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"FocusGolang/internal/api/attention"
	"FocusGolang/internal/entity"
	contextPkg "FocusGolang/pkg/context"
)

func (r *sessionRepository) CreateSession(ctx context.Context, session entity.StudySession) error {
	requestID := contextPkg.GetRequestID(ctx)

	argsKV := map[string]interface{}{
		"id":         session.ID,
		"started_at": session.StartedAt,
		"ended_at":   session.EndedAt,
		"status":     string(session.Status),
	}

	query, args, err := sqlx.Named(queryCreateSession, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("CreateSession named query preparation err")
		return err
	}
	query = r.q.Rebind(query)

	if _, err = r.q.ExecContext(ctx, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when creating session")
		return err
	}

	return nil
}

func (r *sessionRepository) GetSessionByID(ctx context.Context, id string) (entity.StudySession, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var sessionDB studySessionDB

	query, args, err := sqlx.Named(queryGetSessionByID, map[string]interface{}{"id": id})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetSessionByID named query preparation err")
		return entity.StudySession{}, err
	}
	query = r.q.Rebind(query)

	if err := r.q.QueryRowxContext(ctx, query, args...).StructScan(&sessionDB); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.StudySession{}, attention.ErrUnknownSession
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetSessionByID execution err")
		return entity.StudySession{}, err
	}

	return makeStudySession(sessionDB), nil
}

func (r *sessionRepository) EndSession(ctx context.Context, id string, endedAt time.Time) error {
	requestID := contextPkg.GetRequestID(ctx)

	argsKV := map[string]interface{}{
		"id":       id,
		"ended_at": endedAt,
		"status":   string(entity.SessionEnded),
	}

	query, args, err := sqlx.Named(queryEndSession, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("EndSession named query preparation err")
		return err
	}
	query = r.q.Rebind(query)

	result, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("EndSession execution err")
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return attention.ErrUnknownSession
	}

	return nil
}

// DeleteSession removes the session row; focus_metrics and focus_events
// rows follow via ON DELETE CASCADE.
func (r *sessionRepository) DeleteSession(ctx context.Context, id string) error {
	requestID := contextPkg.GetRequestID(ctx)

	query, args, err := sqlx.Named(queryDeleteSession, map[string]interface{}{"id": id})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("DeleteSession named query preparation err")
		return err
	}
	query = r.q.Rebind(query)

	if _, err = r.q.ExecContext(ctx, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("DeleteSession execution err")
		return err
	}

	return nil
}

func makeStudySession(sessionDB studySessionDB) entity.StudySession {
	session := entity.StudySession{
		ID:        sessionDB.ID.String,
		StartedAt: sessionDB.StartedAt,
		Status:    entity.SessionStatus(sessionDB.Status.String),
	}
	if sessionDB.EndedAt.Valid {
		endedAt := sessionDB.EndedAt.Time
		session.EndedAt = &endedAt
	}
	return session
}
