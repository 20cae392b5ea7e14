package attentionService

import (
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"FocusGolang/internal/entity"
	"FocusGolang/pkg/vision"
)

type SessionPhase string

const (
	PhaseWarming              SessionPhase = "warming"
	PhaseSteady               SessionPhase = "steady"
	PhaseFatigueSuspected     SessionPhase = "fatigue_suspected"
	PhaseDistractionSuspected SessionPhase = "distraction_suspected"
)

// blinkRateWindow is the rolling window the blinks-per-minute rate is
// computed over.
const blinkRateWindow = 60 * time.Second

// laneStats are the operational counters surfaced by the aggregate
// query. They are the only window state touched outside the lane
// goroutine, hence the dedicated lock.
type laneStats struct {
	mu               sync.Mutex
	processed        uint64
	dropped          uint64
	deadlineExceeded uint64
	latencies        []int64
}

func (s *laneStats) recordLatency(ms int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed++
	s.latencies = append(s.latencies, ms)
	if len(s.latencies) > 512 {
		s.latencies = s.latencies[len(s.latencies)-512:]
	}
}

func (s *laneStats) recordDrop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropped++
}

func (s *laneStats) recordDeadline() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deadlineExceeded++
}

func (s *laneStats) snapshot() (processed, dropped, deadlineExceeded uint64, p95 int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n := len(s.latencies); n > 0 {
		sorted := make([]int64, n)
		copy(sorted, s.latencies)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		idx := (n * 95) / 100
		if idx >= n {
			idx = n - 1
		}
		p95 = sorted[idx]
	}
	return s.processed, s.dropped, s.deadlineExceeded, p95
}

// sessionWindow is the per-session aggregation state. It is owned by the
// session's lane goroutine; nothing here needs locking.
type sessionWindow struct {
	sessionID string
	phase     SessionPhase

	frames []vision.WindowFrame
	warmed bool

	firstTimestamp time.Time
	lastTimestamp  time.Time
	prevScore      float64

	// Blink debounce: a blink is counted when at least two consecutive
	// eyes-closed frames are followed by a reopen.
	closedStreak int
	blinkTimes   []time.Time

	// Rule accumulation. A zero start time means the rule condition is
	// not currently holding.
	fatigueStart          time.Time
	distractionStart      time.Time
	distractionKind       entity.DistractionType
	peakGazeDeviation     float64
	lastFatigueRaised     time.Time
	lastDistractionRaised time.Time
}

func newSessionWindow(sessionID string) *sessionWindow {
	return &sessionWindow{
		sessionID: sessionID,
		phase:     PhaseWarming,
	}
}

// observeGap resets rule accumulation and the smoothing window when the
// inter-frame gap exceeds the tolerance. Cooldown timers survive the gap
// so a flaky camera cannot be used to re-raise events faster.
func (s *attentionService) observeGap(w *sessionWindow, ts time.Time) {
	if w.lastTimestamp.IsZero() || ts.Sub(w.lastTimestamp) <= s.cfg.GapTolerance {
		return
	}

	s.log.WithFields(logrus.Fields{
		"session_id": w.sessionID,
		"gap_ms":     ts.Sub(w.lastTimestamp).Milliseconds(),
	}).Debug("Frame gap exceeded tolerance, resetting aggregation window")

	w.frames = w.frames[:0]
	w.warmed = false
	w.phase = PhaseWarming
	w.closedStreak = 0
	w.blinkTimes = w.blinkTimes[:0]
	w.fatigueStart = time.Time{}
	w.distractionStart = time.Time{}
	w.peakGazeDeviation = 0
}

// trackBlink runs the debounced blink counter and returns the rolling
// blinks-per-minute rate as of ts.
func (s *attentionService) trackBlink(w *sessionWindow, ts time.Time, blink *vision.BlinkEstimate) float64 {
	if blink == nil {
		// No face: a streak cannot complete without a visible reopen.
		w.closedStreak = 0
	} else if blink.Closed {
		w.closedStreak++
	} else {
		if w.closedStreak >= 2 {
			w.blinkTimes = append(w.blinkTimes, ts)
		}
		w.closedStreak = 0
	}

	cutoff := ts.Add(-blinkRateWindow)
	kept := w.blinkTimes[:0]
	for _, t := range w.blinkTimes {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	w.blinkTimes = kept

	elapsed := blinkRateWindow
	if !w.firstTimestamp.IsZero() && ts.Sub(w.firstTimestamp) < blinkRateWindow {
		elapsed = ts.Sub(w.firstTimestamp)
	}
	if elapsed < time.Second {
		elapsed = time.Second
	}
	return float64(len(w.blinkTimes)) * float64(time.Minute) / float64(elapsed)
}

// appendFrame pushes the newest frame into the smoothing window, evicting
// the oldest once the window is full.
func (s *attentionService) appendFrame(w *sessionWindow, frame vision.WindowFrame) {
	w.frames = append(w.frames, frame)
	if len(w.frames) > s.cfg.SmoothingWindowSize {
		w.frames = w.frames[1:]
	}
	if len(w.frames) >= s.cfg.SmoothingWindowSize {
		w.warmed = true
	}
}

// evaluateRules applies the fatigue and distraction rules for the newest
// frame and returns any events whose qualifying duration was just met.
// Single frames never raise anything; conditions must hold continuously
// for the configured minimum, and a raised event starts its cooldown.
func (s *attentionService) evaluateRules(
	w *sessionWindow,
	ts time.Time,
	features entity.FocusFeatures,
	faceFound bool,
	gazeDeviation float64,
	blinkRate float64,
) []entity.FocusEvent {
	var events []entity.FocusEvent

	fatigueHolding := faceFound &&
		features.EyeOpenness != nil &&
		blinkRate >= s.cfg.FatigueBlinkRate &&
		*features.EyeOpenness <= s.cfg.FatigueOpennessMax

	if fatigueHolding {
		if w.fatigueStart.IsZero() {
			w.fatigueStart = ts
		}
		held := ts.Sub(w.fatigueStart)
		cooled := w.lastFatigueRaised.IsZero() || ts.Sub(w.lastFatigueRaised) >= s.cfg.EventCooldown
		if held >= s.cfg.FatigueMinDuration && cooled {
			level := clampUnit(0.5*blinkRate/s.cfg.FatigueBlinkRate +
				0.5*(1-*features.EyeOpenness/s.cfg.FatigueOpennessMax))
			id, err := s.utils.NewULIDFromTimestamp(ts)
			if err != nil {
				s.log.WithFields(logrus.Fields{
					"session_id": w.sessionID,
					"error":      err.Error(),
				}).Error("Failed to mint fatigue event id")
			} else {
				events = append(events, entity.NewFatigueFlag(id, w.sessionID, ts, held, level, blinkRate))
				w.lastFatigueRaised = ts
				w.fatigueStart = time.Time{}
			}
		}
	} else {
		w.fatigueStart = time.Time{}
	}

	var distractionKind entity.DistractionType
	distractionHolding := false
	switch {
	case !faceFound:
		distractionHolding = true
		distractionKind = entity.DistractionFaceLost
	case gazeDeviation > s.cfg.DistractionGazeThreshold:
		distractionHolding = true
		distractionKind = entity.DistractionGazeAway
	}

	if distractionHolding {
		if w.distractionStart.IsZero() || w.distractionKind != distractionKind {
			w.distractionStart = ts
			w.distractionKind = distractionKind
			w.peakGazeDeviation = 0
		}
		if gazeDeviation > w.peakGazeDeviation {
			w.peakGazeDeviation = gazeDeviation
		}
		held := ts.Sub(w.distractionStart)
		cooled := w.lastDistractionRaised.IsZero() || ts.Sub(w.lastDistractionRaised) >= s.cfg.EventCooldown
		if held >= s.cfg.DistractionMinDuration && cooled {
			id, err := s.utils.NewULIDFromTimestamp(ts)
			if err != nil {
				s.log.WithFields(logrus.Fields{
					"session_id": w.sessionID,
					"error":      err.Error(),
				}).Error("Failed to mint distraction event id")
			} else {
				events = append(events, entity.NewDistractionEvent(id, w.sessionID, ts, held, distractionKind, w.peakGazeDeviation))
				w.lastDistractionRaised = ts
				w.distractionStart = time.Time{}
				w.peakGazeDeviation = 0
			}
		}
	} else {
		w.distractionStart = time.Time{}
		w.peakGazeDeviation = 0
	}

	switch {
	case !w.fatigueStart.IsZero():
		w.phase = PhaseFatigueSuspected
	case !w.distractionStart.IsZero():
		w.phase = PhaseDistractionSuspected
	case w.warmed:
		w.phase = PhaseSteady
	default:
		w.phase = PhaseWarming
	}

	return events
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
