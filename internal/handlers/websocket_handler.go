package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/skitch/coworkstreambot/internal/broadcast"
	"github.com/skitch/coworkstreambot/internal/models"
	"github.com/skitch/coworkstreambot/internal/session"
)

// WebSocketHandler subscribes overlay and dashboard viewers to their
// channel's event topic.
type WebSocketHandler struct {
	Registry *session.Registry
	Hub      *broadcast.Hub
}

func NewWebSocketHandler(registry *session.Registry, hub *broadcast.Hub) *WebSocketHandler {
	return &WebSocketHandler{Registry: registry, Hub: hub}
}

func (h *WebSocketHandler) WebSocketMiddleware(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// HandleWebSocket registers the viewer, sends the full sanitized
// snapshot plus the timer snapshot so late joiners synchronize without
// replay, then parks on the read loop until the peer goes away.
func (h *WebSocketHandler) HandleWebSocket(c *websocket.Conn) {
	defer func() {
		_ = c.Close()
	}()

	channel := c.Params("channel")
	sess := h.Registry.Get(channel)
	if sess == nil {
		return
	}

	id, viewer := h.Hub.Subscribe(sess.Channel, c)
	defer h.Hub.Unsubscribe(sess.Channel, id)

	// The snapshot goes through the serialized writer the hub handed
	// back, never the raw conn: a timer tick may publish to this
	// subscriber at any moment after Subscribe.
	if err := sendSnapshot(viewer, sess); err != nil {
		return
	}

	// Viewers never send; drain until the connection drops.
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
	}
}

// sendSnapshot delivers the late-joiner pair: the full sanitized state
// followed by the current timer triple.
func sendSnapshot(viewer broadcast.Conn, sess *session.Session) error {
	if err := viewer.WriteJSON(models.Event{Name: models.EventInitTasks, Data: sess.Snapshot()}); err != nil {
		return err
	}
	return viewer.WriteJSON(models.Event{Name: models.EventTimerUpdate, Data: sess.TimerState()})
}
