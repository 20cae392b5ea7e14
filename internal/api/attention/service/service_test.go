package attentionService_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FocusGolang/internal/api/attention"
	attentionRepository "FocusGolang/internal/api/attention/repository"
	attentionService "FocusGolang/internal/api/attention/service"
	"FocusGolang/internal/entity"
	"FocusGolang/pkg/landmark"
	"FocusGolang/pkg/utils"
)

// fakeRepo is an in-memory stand-in for the Postgres repository.
type fakeRepo struct {
	mu       sync.Mutex
	sessions map[string]entity.StudySession
	metrics  map[string][]entity.FocusMetricRecord
	events   map[string][]entity.FocusEvent
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		sessions: make(map[string]entity.StudySession),
		metrics:  make(map[string][]entity.FocusMetricRecord),
		events:   make(map[string][]entity.FocusEvent),
	}
}

func (f *fakeRepo) NewClient(_ bool) (attentionRepository.Client, error) {
	noop := func() error { return nil }
	return attentionRepository.Client{
		Sessions: f,
		Metrics:  f,
		Events:   f,
		Commit:   noop,
		Rollback: noop,
	}, nil
}

func (f *fakeRepo) CreateSession(_ context.Context, session entity.StudySession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[session.ID] = session
	return nil
}

func (f *fakeRepo) GetSessionByID(_ context.Context, id string) (entity.StudySession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[id]
	if !ok {
		return entity.StudySession{}, attention.ErrUnknownSession
	}
	return session, nil
}

func (f *fakeRepo) EndSession(_ context.Context, id string, endedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[id]
	if !ok {
		return attention.ErrUnknownSession
	}
	session.Status = entity.SessionEnded
	session.EndedAt = &endedAt
	f.sessions[id] = session
	return nil
}

func (f *fakeRepo) DeleteSession(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, id)
	delete(f.metrics, id)
	delete(f.events, id)
	return nil
}

func (f *fakeRepo) CreateMetric(_ context.Context, record entity.FocusMetricRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.metrics[record.SessionID] = append(f.metrics[record.SessionID], record)
	return nil
}

func (f *fakeRepo) GetRecentMetrics(_ context.Context, sessionID string, limit int) ([]entity.FocusMetricRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	records := f.metrics[sessionID]
	if len(records) > limit {
		records = records[len(records)-limit:]
	}
	out := make([]entity.FocusMetricRecord, len(records))
	copy(out, records)
	return out, nil
}

func (f *fakeRepo) GetTimeSeries(_ context.Context, sessionID string) ([]entity.FocusMetricRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]entity.FocusMetricRecord, len(f.metrics[sessionID]))
	copy(out, f.metrics[sessionID])
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (f *fakeRepo) GetAggregate(_ context.Context, sessionID string) (entity.FocusAggregate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	aggregate := entity.FocusAggregate{SessionID: sessionID}
	records := f.metrics[sessionID]
	if len(records) == 0 {
		return aggregate, nil
	}

	aggregate.MinFocusScore = records[0].FocusScore
	var sum float64
	for _, record := range records {
		sum += record.FocusScore
		if record.FocusScore < aggregate.MinFocusScore {
			aggregate.MinFocusScore = record.FocusScore
		}
		if record.FocusScore > aggregate.MaxFocusScore {
			aggregate.MaxFocusScore = record.FocusScore
		}
	}
	aggregate.AvgFocusScore = sum / float64(len(records))
	aggregate.FramesProcessed = uint64(len(records))
	return aggregate, nil
}

func (f *fakeRepo) CreateEvent(_ context.Context, event entity.FocusEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events[event.SessionID] = append(f.events[event.SessionID], event)
	return nil
}

func (f *fakeRepo) GetEventsBySession(_ context.Context, sessionID string) ([]entity.FocusEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]entity.FocusEvent, len(f.events[sessionID]))
	copy(out, f.events[sessionID])
	return out, nil
}

// fakeRedis keeps the recent-metrics cache in memory.
type fakeRedis struct {
	mu     sync.Mutex
	recent map[string][]entity.FocusMetricRecord
	active map[string]bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		recent: make(map[string][]entity.FocusMetricRecord),
		active: make(map[string]bool),
	}
}

func (f *fakeRedis) PushMetric(_ context.Context, sessionID string, record entity.FocusMetricRecord, maxLen int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	records := append(f.recent[sessionID], record)
	if len(records) > maxLen {
		records = records[len(records)-maxLen:]
	}
	f.recent[sessionID] = records
	return nil
}

func (f *fakeRedis) GetRecentMetrics(_ context.Context, sessionID string, n int) ([]entity.FocusMetricRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	records := f.recent[sessionID]
	if len(records) > n {
		records = records[len(records)-n:]
	}
	out := make([]entity.FocusMetricRecord, len(records))
	copy(out, records)
	return out, nil
}

func (f *fakeRedis) cachedCount(sessionID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.recent[sessionID])
}

func (f *fakeRedis) SetSessionActive(_ context.Context, sessionID string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active[sessionID] = true
	return nil
}

func (f *fakeRedis) IsSessionActive(_ context.Context, sessionID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active[sessionID], nil
}

func (f *fakeRedis) ClearSession(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.recent, sessionID)
	delete(f.active, sessionID)
	return nil
}

// fakeBroadcaster records published events instead of fanning out.
type fakeBroadcaster struct {
	mu        sync.Mutex
	published map[string][]entity.FocusEvent
	closed    map[string]bool
}

func newFakeBroadcaster() *fakeBroadcaster {
	return &fakeBroadcaster{
		published: make(map[string][]entity.FocusEvent),
		closed:    make(map[string]bool),
	}
}

func (f *fakeBroadcaster) Register(string, *websocket.Conn)   {}
func (f *fakeBroadcaster) Unregister(string, *websocket.Conn) {}

func (f *fakeBroadcaster) PublishEvent(sessionID string, event entity.FocusEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published[sessionID] = append(f.published[sessionID], event)
}

func (f *fakeBroadcaster) CloseSession(sessionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed[sessionID] = true
}

// stalledDetector never answers before the frame deadline.
type stalledDetector struct{}

func (stalledDetector) DetectLandmarks(ctx context.Context, _ []byte) (*entity.LandmarkSet, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
func (stalledDetector) IsConnected() bool { return true }
func (stalledDetector) Reconnect() error  { return nil }
func (stalledDetector) Close()            {}

type fixture struct {
	svc         attentionService.IAttentionService
	repo        *fakeRepo
	redis       *fakeRedis
	broadcaster *fakeBroadcaster
}

func newFixture(t *testing.T, detector landmark.IDetector, cfg attention.PipelineConfig) *fixture {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	repo := newFakeRepo()
	redis := newFakeRedis()
	broadcaster := newFakeBroadcaster()

	svc := attentionService.New(logger, repo, detector, redis, broadcaster, utils.New(), cfg)
	t.Cleanup(svc.Shutdown)

	return &fixture{svc: svc, repo: repo, redis: redis, broadcaster: broadcaster}
}

func fastRuleConfig() attention.PipelineConfig {
	cfg := attention.DefaultPipelineConfig()
	cfg.FatigueMinDuration = 2 * time.Second
	cfg.DistractionMinDuration = 1 * time.Second
	cfg.EventCooldown = 3 * time.Second
	return cfg
}

var frameOnce struct {
	sync.Once
	data []byte
}

// testFrame is a valid JPEG that clears the gate without warnings.
func testFrame(t *testing.T) []byte {
	t.Helper()
	frameOnce.Do(func() {
		img := image.NewRGBA(image.Rect(0, 0, 128, 128))
		for y := 0; y < 128; y++ {
			for x := 0; x < 128; x++ {
				if ((x/8)+(y/8))%2 == 0 {
					img.Set(x, y, color.White)
				} else {
					img.Set(x, y, color.Black)
				}
			}
		}
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
			panic(err)
		}
		frameOnce.data = buf.Bytes()
	})
	return frameOnce.data
}

// feed pushes a scripted sequence of frames through the session at the
// given interval of capture time and returns records plus raised events.
func feed(t *testing.T, f *fixture, sessionID string, base time.Time, step time.Duration, faces []*entity.LandmarkSet) ([]entity.FocusMetricRecord, []entity.FocusEvent) {
	t.Helper()

	var records []entity.FocusMetricRecord
	var events []entity.FocusEvent
	for i := range faces {
		record, raised, err := f.svc.ProcessFrame(context.Background(), sessionID, testFrame(t), base.Add(time.Duration(i)*step))
		require.NoError(t, err)
		records = append(records, record)
		events = append(events, raised...)
	}
	return records, events
}

func TestStartSessionAndProcessFrame(t *testing.T) {
	detector := landmark.NewFakeDetector(landmark.SyntheticFace(landmark.SyntheticOpts{}))
	f := newFixture(t, detector, fastRuleConfig())

	session, err := f.svc.StartSession(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, session.ID)
	assert.Equal(t, entity.SessionActive, session.Status)

	record, events, err := f.svc.ProcessFrame(context.Background(), session.ID, testFrame(t), time.Now())
	require.NoError(t, err)

	assert.Equal(t, session.ID, record.SessionID)
	assert.Equal(t, uint64(1), record.Sequence)
	assert.True(t, record.FaceDetected)
	assert.Equal(t, 0.92, record.DetectionConfidence)
	assert.Greater(t, record.FocusScore, 0.0)
	assert.LessOrEqual(t, record.FocusScore, 1.0)
	assert.Equal(t, entity.EmotionNeutral, record.Emotion)
	assert.False(t, record.LowConfidence)
	assert.Nil(t, record.QualityWarning)
	assert.GreaterOrEqual(t, record.LatencyMS, int64(0))
	assert.Empty(t, events)
}

func TestProcessFrameUnknownSession(t *testing.T) {
	f := newFixture(t, landmark.NewFakeDetector(), fastRuleConfig())

	_, _, err := f.svc.ProcessFrame(context.Background(), "no-such-session", testFrame(t), time.Now())
	assert.ErrorIs(t, err, attention.ErrUnknownSession)
}

func TestProcessFrameMalformed(t *testing.T) {
	f := newFixture(t, landmark.NewFakeDetector(landmark.SyntheticFace(landmark.SyntheticOpts{})), fastRuleConfig())

	session, err := f.svc.StartSession(context.Background())
	require.NoError(t, err)

	_, _, err = f.svc.ProcessFrame(context.Background(), session.ID, []byte("definitely not a jpeg"), time.Now())
	assert.ErrorIs(t, err, attention.ErrMalformedFrame)
}

func TestProcessFrameOutOfOrder(t *testing.T) {
	f := newFixture(t, landmark.NewFakeDetector(landmark.SyntheticFace(landmark.SyntheticOpts{})), fastRuleConfig())

	session, err := f.svc.StartSession(context.Background())
	require.NoError(t, err)

	ts := time.Now()
	_, _, err = f.svc.ProcessFrame(context.Background(), session.ID, testFrame(t), ts)
	require.NoError(t, err)

	_, _, err = f.svc.ProcessFrame(context.Background(), session.ID, testFrame(t), ts)
	assert.ErrorIs(t, err, attention.ErrOutOfOrderFrame)
}

func TestEndSessionStopsProcessing(t *testing.T) {
	f := newFixture(t, landmark.NewFakeDetector(landmark.SyntheticFace(landmark.SyntheticOpts{})), fastRuleConfig())

	session, err := f.svc.StartSession(context.Background())
	require.NoError(t, err)

	require.NoError(t, f.svc.EndSession(context.Background(), session.ID, false))

	_, _, err = f.svc.ProcessFrame(context.Background(), session.ID, testFrame(t), time.Now())
	assert.ErrorIs(t, err, attention.ErrSessionEnded)

	f.broadcaster.mu.Lock()
	closed := f.broadcaster.closed[session.ID]
	f.broadcaster.mu.Unlock()
	assert.True(t, closed)
}

func TestEndSessionPurgeRemovesData(t *testing.T) {
	f := newFixture(t, landmark.NewFakeDetector(landmark.SyntheticFace(landmark.SyntheticOpts{})), fastRuleConfig())

	session, err := f.svc.StartSession(context.Background())
	require.NoError(t, err)

	require.NoError(t, f.svc.EndSession(context.Background(), session.ID, true))

	_, err = f.svc.GetRecentMetrics(context.Background(), session.ID, 10)
	assert.ErrorIs(t, err, attention.ErrUnknownSession)
}

func TestFatigueEventEndToEnd(t *testing.T) {
	// Blink pattern: two closed frames then a reopen, repeating. Every
	// openness value stays inside the fatigue band.
	faces := make([]*entity.LandmarkSet, 16)
	for i := range faces {
		openness := 0.10
		if i%3 == 2 {
			openness = 0.18
		}
		faces[i] = landmark.SyntheticFace(landmark.SyntheticOpts{EyeOpenness: openness})
	}

	detector := landmark.NewFakeDetector(faces...)
	f := newFixture(t, detector, fastRuleConfig())

	session, err := f.svc.StartSession(context.Background())
	require.NoError(t, err)

	_, events := feed(t, f, session.ID, time.Now(), 200*time.Millisecond, faces)

	require.Len(t, events, 1)
	event := events[0]
	assert.Equal(t, entity.EventFatigue, event.Kind)
	assert.Equal(t, session.ID, event.SessionID)
	assert.GreaterOrEqual(t, event.BlinkRate, 24.0)
	assert.Greater(t, event.FatigueLevel, 0.0)
	assert.GreaterOrEqual(t, event.DurationMS, int64(2000))
}

func TestDistractionGazeAwayEndToEnd(t *testing.T) {
	faces := make([]*entity.LandmarkSet, 7)
	for i := range faces {
		faces[i] = landmark.SyntheticFace(landmark.SyntheticOpts{GazeShiftX: 0.5})
	}

	f := newFixture(t, landmark.NewFakeDetector(faces...), fastRuleConfig())

	session, err := f.svc.StartSession(context.Background())
	require.NoError(t, err)

	_, events := feed(t, f, session.ID, time.Now(), 200*time.Millisecond, faces)

	require.Len(t, events, 1)
	event := events[0]
	assert.Equal(t, entity.EventDistraction, event.Kind)
	assert.Equal(t, entity.DistractionGazeAway, event.DistractionType)
	assert.InDelta(t, 0.5, event.GazeDeviation, 1e-9)
}

func TestFaceLostEndToEnd(t *testing.T) {
	faces := make([]*entity.LandmarkSet, 7)
	for i := range faces {
		faces[i] = landmark.NoFace()
	}

	f := newFixture(t, landmark.NewFakeDetector(faces...), fastRuleConfig())

	session, err := f.svc.StartSession(context.Background())
	require.NoError(t, err)

	records, events := feed(t, f, session.ID, time.Now(), 200*time.Millisecond, faces)

	require.Len(t, events, 1)
	assert.Equal(t, entity.DistractionFaceLost, events[0].DistractionType)

	for _, record := range records {
		assert.False(t, record.FaceDetected)
		assert.True(t, record.LowConfidence)
		assert.Equal(t, 0.0, record.FocusConfidence)
	}
}

func TestGazeSpikeDoesNotRaiseEvent(t *testing.T) {
	neutral := landmark.SyntheticFace(landmark.SyntheticOpts{})
	away := landmark.SyntheticFace(landmark.SyntheticOpts{GazeShiftX: 0.5})
	faces := []*entity.LandmarkSet{neutral, neutral, away, neutral, neutral, neutral}

	f := newFixture(t, landmark.NewFakeDetector(faces...), fastRuleConfig())

	session, err := f.svc.StartSession(context.Background())
	require.NoError(t, err)

	_, events := feed(t, f, session.ID, time.Now(), 200*time.Millisecond, faces)
	assert.Empty(t, events)
}

func TestFocusCurveDipsAndRecovers(t *testing.T) {
	var faces []*entity.LandmarkSet
	for i := 0; i < 25; i++ {
		faces = append(faces, landmark.SyntheticFace(landmark.SyntheticOpts{}))
	}
	// Short distraction dip, below the event qualifying duration.
	for i := 0; i < 5; i++ {
		faces = append(faces, landmark.SyntheticFace(landmark.SyntheticOpts{GazeShiftX: 0.5}))
	}
	for i := 0; i < 20; i++ {
		faces = append(faces, landmark.SyntheticFace(landmark.SyntheticOpts{}))
	}

	cfg := fastRuleConfig()
	f := newFixture(t, landmark.NewFakeDetector(faces...), cfg)

	session, err := f.svc.StartSession(context.Background())
	require.NoError(t, err)

	records, events := feed(t, f, session.ID, time.Now(), 200*time.Millisecond, faces)
	require.Len(t, records, 50)
	assert.Empty(t, events)

	var steady float64
	for _, record := range records[20:25] {
		steady += record.FocusScore
	}
	steady /= 5

	dipMin := steady
	for _, record := range records[25:35] {
		if record.FocusScore < dipMin {
			dipMin = record.FocusScore
		}
	}

	final := records[49].FocusScore

	assert.Greater(t, steady, 0.6)
	assert.Less(t, dipMin, steady-0.1)
	assert.Greater(t, final, dipMin+0.1)

	// Timestamps stay strictly ordered.
	for i := 1; i < len(records); i++ {
		assert.True(t, records[i].Timestamp.After(records[i-1].Timestamp))
	}

	aggregate, err := f.svc.GetAggregate(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Less(t, aggregate.P95LatencyMS, cfg.FrameLatencyBudget.Milliseconds())
}

func TestRecentMetricsServedFromCache(t *testing.T) {
	neutral := landmark.SyntheticFace(landmark.SyntheticOpts{})
	f := newFixture(t, landmark.NewFakeDetector(neutral), fastRuleConfig())

	session, err := f.svc.StartSession(context.Background())
	require.NoError(t, err)

	faces := []*entity.LandmarkSet{neutral, neutral, neutral}
	feed(t, f, session.ID, time.Now(), 200*time.Millisecond, faces)

	// Persistence is asynchronous; wait for the cache to fill.
	require.Eventually(t, func() bool {
		return f.redis.cachedCount(session.ID) == 3
	}, 2*time.Second, 10*time.Millisecond)

	records, err := f.svc.GetRecentMetrics(context.Background(), session.ID, 3)
	require.NoError(t, err)
	require.Len(t, records, 3)
	for i := 1; i < len(records); i++ {
		assert.Greater(t, records[i].Sequence, records[i-1].Sequence)
	}
}

func TestRecentMetricsFallThroughOnShortCache(t *testing.T) {
	neutral := landmark.SyntheticFace(landmark.SyntheticOpts{})
	f := newFixture(t, landmark.NewFakeDetector(neutral), fastRuleConfig())

	session, err := f.svc.StartSession(context.Background())
	require.NoError(t, err)

	faces := []*entity.LandmarkSet{neutral, neutral, neutral, neutral, neutral}
	feed(t, f, session.ID, time.Now(), 200*time.Millisecond, faces)

	require.Eventually(t, func() bool {
		series, err := f.svc.GetTimeSeries(context.Background(), session.ID)
		return err == nil && len(series) == 5
	}, 2*time.Second, 10*time.Millisecond)

	// A cache wiped mid-session must not shadow records the database
	// still has.
	require.NoError(t, f.redis.ClearSession(context.Background(), session.ID))

	records, err := f.svc.GetRecentMetrics(context.Background(), session.ID, 5)
	require.NoError(t, err)
	assert.Len(t, records, 5)
}

func TestSessionLivenessShortCircuitsLookup(t *testing.T) {
	f := newFixture(t, landmark.NewFakeDetector(), fastRuleConfig())

	// No lane and no database row, only the Redis liveness key.
	require.NoError(t, f.redis.SetSessionActive(context.Background(), "cached-session", time.Minute))

	records, err := f.svc.GetTimeSeries(context.Background(), "cached-session")
	require.NoError(t, err)
	assert.Empty(t, records)

	_, err = f.svc.GetTimeSeries(context.Background(), "gone-session")
	assert.ErrorIs(t, err, attention.ErrUnknownSession)
}

func TestAggregateReportsOperationalCounters(t *testing.T) {
	neutral := landmark.SyntheticFace(landmark.SyntheticOpts{})
	f := newFixture(t, landmark.NewFakeDetector(neutral), fastRuleConfig())

	session, err := f.svc.StartSession(context.Background())
	require.NoError(t, err)

	faces := []*entity.LandmarkSet{neutral, neutral, neutral, neutral, neutral}
	feed(t, f, session.ID, time.Now(), 200*time.Millisecond, faces)

	aggregate, err := f.svc.GetAggregate(context.Background(), session.ID)
	require.NoError(t, err)

	assert.Equal(t, uint64(5), aggregate.FramesProcessed)
	assert.Equal(t, uint64(0), aggregate.FramesDropped)
	assert.GreaterOrEqual(t, aggregate.P95LatencyMS, int64(0))
}

func TestSlowDetectorDegradesWithinBudget(t *testing.T) {
	cfg := fastRuleConfig()
	cfg.FrameLatencyBudget = 80 * time.Millisecond

	f := newFixture(t, stalledDetector{}, cfg)

	session, err := f.svc.StartSession(context.Background())
	require.NoError(t, err)

	record, _, err := f.svc.ProcessFrame(context.Background(), session.ID, testFrame(t), time.Now())
	require.NoError(t, err)

	assert.False(t, record.FaceDetected)
	assert.True(t, record.LowConfidence)

	aggregate, err := f.svc.GetAggregate(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), aggregate.DeadlineExceeded)
}

func TestBackpressureDropsOldestPendingFrame(t *testing.T) {
	cfg := fastRuleConfig()
	cfg.FrameLatencyBudget = 80 * time.Millisecond
	cfg.LaneQueueSize = 1

	f := newFixture(t, stalledDetector{}, cfg)

	session, err := f.svc.StartSession(context.Background())
	require.NoError(t, err)

	base := time.Now()
	results := make(chan error, 3)

	submit := func(offset time.Duration) {
		_, _, err := f.svc.ProcessFrame(context.Background(), session.ID, testFrame(t), base.Add(offset))
		results <- err
	}

	// First frame occupies the lane, second waits in the queue, third
	// finds the queue full and evicts the second.
	go submit(0)
	time.Sleep(20 * time.Millisecond)
	go submit(time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	go submit(2 * time.Millisecond)

	var dropped, processed int
	for i := 0; i < 3; i++ {
		select {
		case err := <-results:
			if err == nil {
				processed++
			} else {
				require.ErrorIs(t, err, attention.ErrFrameDropped)
				dropped++
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for frame results")
		}
	}

	assert.Equal(t, 1, dropped)
	assert.Equal(t, 2, processed)

	aggregate, err := f.svc.GetAggregate(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), aggregate.FramesDropped)
}

func TestEventsPersistedAndBroadcast(t *testing.T) {
	faces := make([]*entity.LandmarkSet, 7)
	for i := range faces {
		faces[i] = landmark.SyntheticFace(landmark.SyntheticOpts{GazeShiftX: 0.5})
	}

	f := newFixture(t, landmark.NewFakeDetector(faces...), fastRuleConfig())

	session, err := f.svc.StartSession(context.Background())
	require.NoError(t, err)

	_, events := feed(t, f, session.ID, time.Now(), 200*time.Millisecond, faces)
	require.Len(t, events, 1)

	require.Eventually(t, func() bool {
		f.broadcaster.mu.Lock()
		defer f.broadcaster.mu.Unlock()
		return len(f.broadcaster.published[session.ID]) == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		stored, err := f.svc.GetEvents(context.Background(), session.ID)
		return err == nil && len(stored) == 1
	}, 2*time.Second, 10*time.Millisecond)
}
