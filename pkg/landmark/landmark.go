package landmark

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"

	"FocusGolang/internal/entity"
)

// IDetector is the narrow boundary over the external landmark-detection
// capability. "No face" is a normal zero-information LandmarkSet, not an
// error; only transport failures surface as errors.
type IDetector interface {
	DetectLandmarks(ctx context.Context, frame []byte) (*entity.LandmarkSet, error)
	IsConnected() bool
	Reconnect() error
	Close()
}

type detectorResponse struct {
	FaceFound  bool                  `json:"face_found"`
	Confidence float64               `json:"confidence"`
	Points     []entity.LandmarkPoint `json:"points"`
}

type wsDetector struct {
	conn         *websocket.Conn
	mu           sync.Mutex
	log          *logrus.Logger
	pingInterval time.Duration
	readTimeout  time.Duration
	writeTimeout time.Duration
}

// NewWebSocketDetector connects to the landmark AI service configured by
// AI_LANDMARK_URL. The initial connection happens in the background;
// DetectLandmarks reconnects on demand when the link is down.
func NewWebSocketDetector(log *logrus.Logger) IDetector {
	d := &wsDetector{
		log:          log,
		pingInterval: 30 * time.Second,
		readTimeout:  10 * time.Second,
		writeTimeout: 5 * time.Second,
	}

	go func() {
		if err := d.Reconnect(); err != nil {
			log.Warnf("Initial landmark service connection failed: %v. Will retry on demand.", err)
		} else {
			log.Info("Connected to landmark service")
		}
	}()

	return d
}

func serviceURL() string {
	url := os.Getenv("AI_LANDMARK_URL")
	if url == "" {
		url = "ws://localhost:8000/api/v1/landmarks/ws"
	}
	return url
}

func (d *wsDetector) IsConnected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conn != nil
}

func (d *wsDetector) Reconnect() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reconnectLocked()
}

func (d *wsDetector) reconnectLocked() error {
	if d.conn != nil {
		d.conn.Close()
		d.conn = nil
	}

	url := serviceURL()
	d.log.Infof("Connecting to landmark service at %s", url)

	dialer := websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", url, err)
	}

	conn.SetPingHandler(func(appData string) error {
		if err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(d.writeTimeout)); err != nil {
			d.log.Errorf("Error sending pong to landmark service: %v", err)
		}
		return nil
	})

	d.conn = conn
	go d.keepAlive()

	return nil
}

func (d *wsDetector) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.conn != nil {
		d.conn.Close()
		d.conn = nil
	}
}

func (d *wsDetector) keepAlive() {
	ticker := time.NewTicker(d.pingInterval)
	defer ticker.Stop()

	for range ticker.C {
		d.mu.Lock()
		conn := d.conn
		if conn == nil {
			d.mu.Unlock()
			return
		}

		err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(d.writeTimeout))
		if err != nil {
			d.log.Warnf("Ping to landmark service failed, marking connection as dead: %v", err)
			d.conn = nil
			conn.Close()
			d.mu.Unlock()
			return
		}
		d.mu.Unlock()
	}
}

// DetectLandmarks sends the frame bytes and blocks for the landmark
// response. The context deadline bounds the exchange so a slow detection
// degrades the frame instead of stalling the session lane. The service
// protocol has no request ids, so the lock spans the whole write+read
// exchange: one frame in flight per connection, and a reply always
// belongs to the frame that was just sent.
func (d *wsDetector) DetectLandmarks(ctx context.Context, frame []byte) (*entity.LandmarkSet, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.conn == nil {
		if err := d.reconnectLocked(); err != nil {
			return nil, fmt.Errorf("cannot connect to landmark service: %w", err)
		}
	}
	conn := d.conn

	deadline := time.Now().Add(d.readTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	conn.SetWriteDeadline(deadline)
	if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		d.conn = nil
		conn.Close()
		return nil, fmt.Errorf("error sending frame to landmark service: %w", err)
	}

	conn.SetReadDeadline(deadline)
	_, message, err := conn.ReadMessage()
	if err != nil {
		d.conn = nil
		conn.Close()
		return nil, fmt.Errorf("error reading landmark response: %w", err)
	}

	conn.SetReadDeadline(time.Time{})
	conn.SetWriteDeadline(time.Time{})

	var resp detectorResponse
	if err := jsoniter.Unmarshal(message, &resp); err != nil {
		return nil, fmt.Errorf("error unmarshaling landmark response: %w", err)
	}

	if !resp.FaceFound {
		return &entity.LandmarkSet{FaceFound: false, Confidence: 0}, nil
	}
	if len(resp.Points) != entity.LandmarkCount {
		return nil, fmt.Errorf("landmark service returned %d points, want %d", len(resp.Points), entity.LandmarkCount)
	}

	return &entity.LandmarkSet{
		Points:     resp.Points,
		Confidence: resp.Confidence,
		FaceFound:  true,
	}, nil
}
