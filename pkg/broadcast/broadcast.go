package broadcast

import (
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"

	"FocusGolang/internal/entity"
)

// IBroadcaster is the real-time fan-out boundary: the pipeline hands a
// raised event to PublishEvent and is done with it. Client connection
// management stays behind this interface.
type IBroadcaster interface {
	Register(sessionID string, conn *websocket.Conn)
	Unregister(sessionID string, conn *websocket.Conn)
	PublishEvent(sessionID string, event entity.FocusEvent)
	CloseSession(sessionID string)
}

type hub struct {
	mu           sync.RWMutex
	subscribers  map[string]map[*websocket.Conn]bool
	log          *logrus.Logger
	writeTimeout time.Duration
}

func NewHub(log *logrus.Logger) IBroadcaster {
	return &hub{
		subscribers:  make(map[string]map[*websocket.Conn]bool),
		log:          log,
		writeTimeout: 5 * time.Second,
	}
}

func (h *hub) Register(sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subscribers[sessionID] == nil {
		h.subscribers[sessionID] = make(map[*websocket.Conn]bool)
	}
	h.subscribers[sessionID][conn] = true
	h.log.Debugf("Event subscriber registered for session %s", sessionID)
}

func (h *hub) Unregister(sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, ok := h.subscribers[sessionID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.subscribers, sessionID)
		}
	}
}

func (h *hub) PublishEvent(sessionID string, event entity.FocusEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns := h.subscribers[sessionID]
	if len(conns) == 0 {
		return
	}

	for conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
		if err := conn.WriteJSON(event); err != nil {
			h.log.Warnf("Dropping dead event subscriber for session %s: %v", sessionID, err)
			conn.Close()
			delete(conns, conn)
		}
	}
	if len(conns) == 0 {
		delete(h.subscribers, sessionID)
	}
}

func (h *hub) CloseSession(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.subscribers[sessionID] {
		conn.Close()
	}
	delete(h.subscribers, sessionID)
}
