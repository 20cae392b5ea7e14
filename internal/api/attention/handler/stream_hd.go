package attentionHandler

import (
	"time"

	"github.com/gofiber/websocket/v2"
	"golang.org/x/net/context"

	"FocusGolang/internal/api/attention"
)

// handleFrameWebSocket streams binary frames through the session's lane.
// Each frame gets one JSON reply with its record and any raised events,
// in submission order. The capture timestamp is taken at receipt.
func (h *AttentionHandler) handleFrameWebSocket(c *websocket.Conn) {
	sessionID := c.Params("sessionId")
	h.log.Infof("Frame stream connected for session %s", sessionID)
	defer h.log.Infof("Frame stream disconnected for session %s", sessionID)

	c.SetPingHandler(func(data string) error {
		if err := c.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second)); err != nil {
			h.log.Errorf("Error sending pong: %v", err)
		}
		return nil
	})

	maxReadTimeout := 60 * time.Second

	for {
		if err := c.SetReadDeadline(time.Now().Add(maxReadTimeout)); err != nil {
			h.log.Errorf("Error setting read deadline: %v", err)
			break
		}

		messageType, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Errorf("Frame stream error for session %s: %v", sessionID, err)
			} else {
				h.log.Infof("Frame stream closed for session %s", sessionID)
			}
			break
		}

		if messageType != websocket.BinaryMessage {
			h.log.Warnf("Received unexpected message type: %d", messageType)
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		record, events, err := h.attentionService.ProcessFrame(ctx, sessionID, message, time.Now().UTC())
		cancel()

		result := attention.StreamFrameResult{Record: record, Events: events}
		if err != nil {
			result = attention.StreamFrameResult{Error: err.Error()}
		}

		if err := c.SetWriteDeadline(time.Now().Add(10 * time.Second)); err != nil {
			h.log.Errorf("Error setting write deadline: %v", err)
			break
		}
		if err := c.WriteJSON(result); err != nil {
			h.log.Errorf("Error writing frame result: %v", err)
			break
		}
		if err := c.SetWriteDeadline(time.Time{}); err != nil {
			h.log.Errorf("Error resetting write deadline: %v", err)
			break
		}
	}
}

// handleEventsWebSocket subscribes the connection to the session's raised
// focus events. The broadcaster owns the writes; this loop only keeps the
// connection registered until the peer goes away.
func (h *AttentionHandler) handleEventsWebSocket(c *websocket.Conn) {
	sessionID := c.Params("sessionId")
	h.log.Infof("Event subscriber connected for session %s", sessionID)

	h.broadcaster.Register(sessionID, c)
	defer func() {
		h.broadcaster.Unregister(sessionID, c)
		h.log.Infof("Event subscriber disconnected for session %s", sessionID)
	}()

	c.SetPingHandler(func(data string) error {
		if err := c.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second)); err != nil {
			h.log.Errorf("Error sending pong: %v", err)
		}
		return nil
	})

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}
}
