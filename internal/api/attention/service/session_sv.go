package attentionService

import (
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"

	"FocusGolang/internal/api/attention"
	"FocusGolang/internal/entity"
)

type frameReply struct {
	record entity.FocusMetricRecord
	events []entity.FocusEvent
	err    error
}

type frameJob struct {
	frame *entity.FrameSample
	reply chan frameReply
}

// sessionLane serializes one session's frames through a single goroutine
// so records come out strictly ordered regardless of how many transports
// feed the session. The job channel is bounded; a full queue drops the
// oldest pending frame in favor of the newest.
type sessionLane struct {
	sessionID string
	jobs      chan *frameJob
	quit      chan struct{}
	done      chan struct{}
	window    *sessionWindow
	stats     laneStats
	sequence  uint64
}

func (s *attentionService) StartSession(ctx context.Context) (entity.StudySession, error) {
	now := time.Now().UTC()
	id, err := s.utils.NewULIDFromTimestamp(now)
	if err != nil {
		s.log.Errorf("Failed to mint session id: %v", err)
		return entity.StudySession{}, attention.ErrInternalServerError
	}

	session := entity.StudySession{
		ID:        id,
		StartedAt: now,
		Status:    entity.SessionActive,
	}

	client, err := s.repo.NewClient(false)
	if err != nil {
		return entity.StudySession{}, attention.ErrInternalServerError
	}
	if err := client.Sessions.CreateSession(ctx, session); err != nil {
		return entity.StudySession{}, attention.ErrInternalServerError
	}

	if err := s.redis.SetSessionActive(ctx, id, sessionCacheTTL); err != nil {
		s.log.WithFields(logrus.Fields{
			"session_id": id,
			"error":      err.Error(),
		}).Warn("Failed to mark session active in cache")
	}

	lane := &sessionLane{
		sessionID: id,
		jobs:      make(chan *frameJob, s.cfg.LaneQueueSize),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
		window:    newSessionWindow(id),
	}

	s.mu.Lock()
	s.lanes[id] = lane
	s.mu.Unlock()

	go s.runLane(lane)

	s.log.WithFields(logrus.Fields{"session_id": id}).Info("Study session started")
	return session, nil
}

func (s *attentionService) EndSession(ctx context.Context, sessionID string, purge bool) error {
	s.mu.Lock()
	lane, ok := s.lanes[sessionID]
	if ok {
		delete(s.lanes, sessionID)
	}
	s.mu.Unlock()

	if ok {
		close(lane.quit)
		<-lane.done
	}

	client, err := s.repo.NewClient(false)
	if err != nil {
		return attention.ErrInternalServerError
	}

	if purge {
		// Removes the session row; metrics and events follow by cascade.
		if err := client.Sessions.DeleteSession(ctx, sessionID); err != nil {
			return attention.ErrInternalServerError
		}
	} else {
		if err := client.Sessions.EndSession(ctx, sessionID, time.Now().UTC()); err != nil {
			return err
		}
	}

	if err := s.redis.ClearSession(ctx, sessionID); err != nil {
		s.log.WithFields(logrus.Fields{
			"session_id": sessionID,
			"error":      err.Error(),
		}).Warn("Failed to clear cached session state")
	}
	s.broadcaster.CloseSession(sessionID)

	s.log.WithFields(logrus.Fields{
		"session_id": sessionID,
		"purged":     purge,
	}).Info("Study session ended")
	return nil
}

// ProcessFrame submits one frame to the session's lane and blocks until
// its record is ready. A full lane queue evicts the oldest pending frame,
// whose caller gets the drop error; the submitted frame always enqueues.
func (s *attentionService) ProcessFrame(ctx context.Context, sessionID string, image []byte, capturedAt time.Time) (entity.FocusMetricRecord, []entity.FocusEvent, error) {
	s.mu.RLock()
	lane, ok := s.lanes[sessionID]
	s.mu.RUnlock()
	if !ok {
		return entity.FocusMetricRecord{}, nil, s.classifyMissingSession(ctx, sessionID)
	}

	now := time.Now()
	frameID, err := s.utils.NewULIDFromTimestamp(now)
	if err != nil {
		return entity.FocusMetricRecord{}, nil, attention.ErrInternalServerError
	}

	job := &frameJob{
		frame: &entity.FrameSample{
			SessionID:  sessionID,
			FrameID:    frameID,
			Sequence:   atomic.AddUint64(&lane.sequence, 1),
			Image:      image,
			CapturedAt: capturedAt,
			ReceivedAt: now,
		},
		reply: make(chan frameReply, 1),
	}

	select {
	case lane.jobs <- job:
	case <-lane.quit:
		return entity.FocusMetricRecord{}, nil, attention.ErrSessionEnded
	default:
		s.evictOldest(lane)
		select {
		case lane.jobs <- job:
		case <-lane.quit:
			return entity.FocusMetricRecord{}, nil, attention.ErrSessionEnded
		}
	}

	select {
	case reply := <-job.reply:
		return reply.record, reply.events, reply.err
	case <-ctx.Done():
		return entity.FocusMetricRecord{}, nil, ctx.Err()
	}
}

// classifyMissingSession distinguishes a session that never existed from
// one that existed and was ended.
func (s *attentionService) classifyMissingSession(ctx context.Context, sessionID string) error {
	client, err := s.repo.NewClient(false)
	if err != nil {
		return attention.ErrUnknownSession
	}
	session, err := client.Sessions.GetSessionByID(ctx, sessionID)
	if err != nil {
		return attention.ErrUnknownSession
	}
	if session.Status == entity.SessionEnded {
		return attention.ErrSessionEnded
	}
	return attention.ErrUnknownSession
}

func (s *attentionService) evictOldest(lane *sessionLane) {
	select {
	case old := <-lane.jobs:
		lane.stats.recordDrop()
		s.log.WithFields(logrus.Fields{
			"session_id": lane.sessionID,
			"frame_id":   old.frame.FrameID,
		}).Warn("Lane queue full, dropping oldest pending frame")
		old.reply <- frameReply{err: attention.ErrFrameDropped}
	default:
	}
}

// runLane is the single consumer of a session's job queue. Frames are
// processed one at a time in arrival order under the frame latency
// budget; results go back to the waiting caller and, on success, out to
// the collaborators.
func (s *attentionService) runLane(lane *sessionLane) {
	defer close(lane.done)

	for {
		select {
		case <-lane.quit:
			s.drainLane(lane)
			return
		case job := <-lane.jobs:
			ctx, cancel := context.WithTimeout(context.Background(), s.cfg.FrameLatencyBudget)
			record, events, err := s.processFrame(ctx, lane, job.frame)
			cancel()

			job.reply <- frameReply{record: record, events: events, err: err}
			if err == nil {
				s.emit(record, events)
			}
		}
	}
}

func (s *attentionService) drainLane(lane *sessionLane) {
	for {
		select {
		case job := <-lane.jobs:
			job.reply <- frameReply{err: attention.ErrSessionEnded}
		default:
			return
		}
	}
}

// Shutdown stops every lane and waits for in-flight frames to finish.
func (s *attentionService) Shutdown() {
	s.mu.Lock()
	lanes := make([]*sessionLane, 0, len(s.lanes))
	for id, lane := range s.lanes {
		lanes = append(lanes, lane)
		delete(s.lanes, id)
	}
	s.mu.Unlock()

	for _, lane := range lanes {
		close(lane.quit)
		<-lane.done
	}
	s.detector.Close()
}
