package broadcast

import (
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/skitch/coworkstreambot/internal/models"
)

// Conn is the write side of a subscriber connection. *websocket.Conn
// satisfies it; tests use recorders.
type Conn interface {
	WriteJSON(v any) error
}

// Hub fans events out to every subscriber of a channel's topic. It
// holds no channel state of its own, it only relays.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[uuid.UUID]*lockedConn
}

// lockedConn serializes writes to one subscriber. Websocket
// connections do not support concurrent writers, and a publish can
// race the snapshot delivered on join.
type lockedConn struct {
	mu   sync.Mutex
	conn Conn
}

func (c *lockedConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[uuid.UUID]*lockedConn)}
}

// Subscribe registers conn on the channel's topic. It returns the id
// to unsubscribe with and the serialized writer the caller must use
// for any direct writes (such as the join snapshot); writing to the
// raw conn would race the hub's own deliveries.
func (h *Hub) Subscribe(channel string, conn Conn) (uuid.UUID, Conn) {
	id := uuid.New()
	wrapped := &lockedConn{conn: conn}

	h.mu.Lock()
	if h.subs[channel] == nil {
		h.subs[channel] = make(map[uuid.UUID]*lockedConn)
	}
	h.subs[channel][id] = wrapped
	h.mu.Unlock()

	return id, wrapped
}

func (h *Hub) Unsubscribe(channel string, id uuid.UUID) {
	h.mu.Lock()
	delete(h.subs[channel], id)
	h.mu.Unlock()
}

// Publish delivers ev to every current subscriber of the channel. A
// failed write is logged and skipped; the connection reaper is the
// websocket read loop, not the hub.
func (h *Hub) Publish(channel string, ev models.Event) {
	h.mu.Lock()
	conns := make([]*lockedConn, 0, len(h.subs[channel]))
	for _, c := range h.subs[channel] {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		if err := c.WriteJSON(ev); err != nil {
			log.Printf("broadcast %s to %s viewer: %v", ev.Name, channel, err)
		}
	}
}

// SubscriberCount reports how many viewers are on the channel's topic.
func (h *Hub) SubscriberCount(channel string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[channel])
}
