package attentionService

import (
	"golang.org/x/net/context"

	attentionRepository "FocusGolang/internal/api/attention/repository"
	"FocusGolang/internal/entity"
)

// GetRecentMetrics serves the last n records for a session, cache first.
// The Redis list holds the newest RecentCacheSize records; anything
// beyond that, or a cold cache, falls through to the database.
func (s *attentionService) GetRecentMetrics(ctx context.Context, sessionID string, n int) ([]entity.FocusMetricRecord, error) {
	if n <= 0 || n > s.cfg.RecentCacheSize {
		n = s.cfg.RecentCacheSize
	}

	client, err := s.verifySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	// A cache holding fewer than n records may simply be rebuilding
	// after a restart; only a full answer short-circuits the database.
	cached, cacheErr := s.redis.GetRecentMetrics(ctx, sessionID, n)
	if cacheErr == nil && len(cached) >= n {
		return cached, nil
	}

	return client.Metrics.GetRecentMetrics(ctx, sessionID, n)
}

func (s *attentionService) GetTimeSeries(ctx context.Context, sessionID string) ([]entity.FocusMetricRecord, error) {
	client, err := s.verifySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return client.Metrics.GetTimeSeries(ctx, sessionID)
}

// GetAggregate combines the persisted score summary with the live
// operational counters of the session's lane. A session whose lane is
// gone reports only what storage kept.
func (s *attentionService) GetAggregate(ctx context.Context, sessionID string) (entity.FocusAggregate, error) {
	client, err := s.verifySession(ctx, sessionID)
	if err != nil {
		return entity.FocusAggregate{}, err
	}

	aggregate, err := client.Metrics.GetAggregate(ctx, sessionID)
	if err != nil {
		return entity.FocusAggregate{}, err
	}

	s.mu.RLock()
	lane, ok := s.lanes[sessionID]
	s.mu.RUnlock()
	if ok {
		processed, dropped, deadlineExceeded, p95 := lane.stats.snapshot()
		if processed > aggregate.FramesProcessed {
			aggregate.FramesProcessed = processed
		}
		aggregate.FramesDropped = dropped
		aggregate.DeadlineExceeded = deadlineExceeded
		aggregate.P95LatencyMS = p95
	}

	return aggregate, nil
}

func (s *attentionService) GetEvents(ctx context.Context, sessionID string) ([]entity.FocusEvent, error) {
	client, err := s.verifySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return client.Events.GetEventsBySession(ctx, sessionID)
}

// verifySession resolves a repository client and confirms the session
// exists. A live lane or a fresh Redis liveness key short-circuits the
// database lookup.
func (s *attentionService) verifySession(ctx context.Context, sessionID string) (attentionRepository.Client, error) {
	client, err := s.repo.NewClient(false)
	if err != nil {
		return attentionRepository.Client{}, err
	}

	s.mu.RLock()
	_, live := s.lanes[sessionID]
	s.mu.RUnlock()
	if live {
		return client, nil
	}

	if active, err := s.redis.IsSessionActive(ctx, sessionID); err == nil && active {
		return client, nil
	}

	if _, err := client.Sessions.GetSessionByID(ctx, sessionID); err != nil {
		return attentionRepository.Client{}, err
	}
	return client, nil
}
