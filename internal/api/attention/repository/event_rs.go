package attentionRepository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"FocusGolang/internal/entity"
	contextPkg "FocusGolang/pkg/context"
)

func (r *eventRepository) CreateEvent(ctx context.Context, event entity.FocusEvent) error {
	requestID := contextPkg.GetRequestID(ctx)

	argsKV := map[string]interface{}{
		"id":               event.ID,
		"session_id":       event.SessionID,
		"kind":             string(event.Kind),
		"raised_at":        event.RaisedAt,
		"duration_ms":      event.DurationMS,
		"fatigue_level":    nullIfZero(event.FatigueLevel),
		"blink_rate":       nullIfZero(event.BlinkRate),
		"distraction_type": nullIfEmpty(string(event.DistractionType)),
		"gaze_deviation":   nullIfZero(event.GazeDeviation),
	}

	query, args, err := sqlx.Named(queryCreateEvent, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("CreateEvent named query preparation err")
		return err
	}
	query = r.q.Rebind(query)

	if _, err = r.q.ExecContext(ctx, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": event.SessionID,
			"kind":       event.Kind,
			"error":      err.Error(),
		}).Error("Database error when creating focus event")
		return err
	}

	return nil
}

func (r *eventRepository) GetEventsBySession(ctx context.Context, sessionID string) ([]entity.FocusEvent, error) {
	requestID := contextPkg.GetRequestID(ctx)

	query, args, err := sqlx.Named(queryGetEventsBySession, map[string]interface{}{"session_id": sessionID})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetEventsBySession named query preparation err")
		return nil, err
	}
	query = r.q.Rebind(query)

	var rows []focusEventDB
	if err := r.q.SelectContext(ctx, &rows, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetEventsBySession execution err")
		return nil, err
	}

	events := make([]entity.FocusEvent, 0, len(rows))
	for _, row := range rows {
		events = append(events, makeFocusEvent(row))
	}
	return events, nil
}

func makeFocusEvent(row focusEventDB) entity.FocusEvent {
	return entity.FocusEvent{
		ID:              row.ID.String,
		SessionID:       row.SessionID.String,
		Kind:            entity.FocusEventKind(row.Kind.String),
		RaisedAt:        row.RaisedAt,
		DurationMS:      row.DurationMS,
		FatigueLevel:    row.FatigueLevel.Float64,
		BlinkRate:       row.BlinkRate.Float64,
		DistractionType: entity.DistractionType(row.DistractionType.String),
		GazeDeviation:   row.GazeDeviation.Float64,
	}
}

func nullIfZero(v float64) interface{} {
	if v == 0 {
		return nil
	}
	return v
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
