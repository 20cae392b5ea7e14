package landmark_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"FocusGolang/internal/entity"
	"FocusGolang/pkg/landmark"
)

type scriptedReply struct {
	FaceFound  bool                   `json:"face_found"`
	Confidence float64                `json:"confidence"`
	Points     []entity.LandmarkPoint `json:"points"`
}

// landmarkServer answers each frame with a confidence derived from the
// frame bytes, delaying some replies to tempt the client into pairing a
// frame with another frame's response.
func landmarkServer(t *testing.T, confidences map[string]float64, delays map[string]time.Duration) *httptest.Server {
	t.Helper()

	upgrader := websocket.Upgrader{}
	points := make([]entity.LandmarkPoint, entity.LandmarkCount)

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var writeMu sync.Mutex
		for {
			_, frame, err := conn.ReadMessage()
			if err != nil {
				return
			}
			go func(frame string) {
				time.Sleep(delays[frame])
				payload, err := jsoniter.Marshal(scriptedReply{
					FaceFound:  true,
					Confidence: confidences[frame],
					Points:     points,
				})
				if err != nil {
					return
				}
				writeMu.Lock()
				defer writeMu.Unlock()
				conn.WriteMessage(websocket.TextMessage, payload)
			}(string(frame))
		}
	}))
}

func newTestDetector(t *testing.T, server *httptest.Server) landmark.IDetector {
	t.Helper()
	t.Setenv("AI_LANDMARK_URL", "ws"+strings.TrimPrefix(server.URL, "http"))

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	detector := landmark.NewWebSocketDetector(logger)
	t.Cleanup(detector.Close)

	require.Eventually(t, detector.IsConnected, 2*time.Second, 10*time.Millisecond)
	return detector
}

func TestDetectLandmarksConcurrentCallsKeepRepliesPaired(t *testing.T) {
	confidences := map[string]float64{"frame-slow": 0.05, "frame-fast": 0.95}
	delays := map[string]time.Duration{"frame-slow": 150 * time.Millisecond}

	server := landmarkServer(t, confidences, delays)
	defer server.Close()

	detector := newTestDetector(t, server)

	// Two lanes detect at once; the slow frame's reply must never be
	// handed to the fast frame's caller.
	var g errgroup.Group
	for frame, want := range confidences {
		frame, want := frame, want
		g.Go(func() error {
			for i := 0; i < 3; i++ {
				set, err := detector.DetectLandmarks(context.Background(), []byte(frame))
				if err != nil {
					return err
				}
				assert.Equal(t, want, set.Confidence, frame)
				assert.True(t, set.FaceFound)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}

func TestDetectLandmarksHonorsContextDeadline(t *testing.T) {
	confidences := map[string]float64{"frame-slow": 0.05}
	delays := map[string]time.Duration{"frame-slow": 500 * time.Millisecond}

	server := landmarkServer(t, confidences, delays)
	defer server.Close()

	detector := newTestDetector(t, server)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := detector.DetectLandmarks(ctx, []byte("frame-slow"))
	require.Error(t, err)
}
