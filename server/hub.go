package server

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"holdem-room/models"
)

// Conn is one client endpoint as seen by the hub. Send must not block; it
// reports false when the frame was dropped.
type Conn interface {
	Send(data []byte) bool
	Close() error
}

type client struct {
	id     string
	name   string
	roomID string
	conn   Conn
}

// Hub tracks live connections and which room channel each one listens on.
// It implements engine.Emitter and never calls back into a room.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
	rooms   map[string]map[string]struct{}
	log     zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*client),
		rooms:   make(map[string]map[string]struct{}),
		log:     logger,
	}
}

// Register assigns a fresh connection id.
func (h *Hub) Register(conn Conn, name string) string {
	id := uuid.NewString()
	h.mu.Lock()
	h.clients[id] = &client{id: id, name: name, conn: conn}
	total := len(h.clients)
	h.mu.Unlock()

	h.log.Debug().Str("conn", id).Int("clients", total).Msg("client registered")
	return id
}

// Unregister forgets the connection and returns the room it was in.
func (h *Hub) Unregister(connID string) string {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[connID]
	if !ok {
		return ""
	}
	roomID := c.roomID
	h.unsubscribeLocked(c)
	delete(h.clients, connID)
	return roomID
}

// Subscribe moves connID onto roomID's channel.
func (h *Hub) Subscribe(roomID, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[connID]
	if !ok {
		return
	}
	h.unsubscribeLocked(c)
	members, ok := h.rooms[roomID]
	if !ok {
		members = make(map[string]struct{})
		h.rooms[roomID] = members
	}
	members[connID] = struct{}{}
	c.roomID = roomID
}

func (h *Hub) unsubscribeLocked(c *client) {
	if c.roomID == "" {
		return
	}
	if members, ok := h.rooms[c.roomID]; ok {
		delete(members, c.id)
		if len(members) == 0 {
			delete(h.rooms, c.roomID)
		}
	}
	c.roomID = ""
}

// RoomOf returns the room connID is subscribed to, or "".
func (h *Hub) RoomOf(connID string) string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if c, ok := h.clients[connID]; ok {
		return c.roomID
	}
	return ""
}

func (h *Hub) Name(connID string) string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if c, ok := h.clients[connID]; ok {
		return c.name
	}
	return ""
}

func (h *Hub) SetName(connID, name string) {
	h.mu.Lock()
	if c, ok := h.clients[connID]; ok {
		c.name = name
	}
	h.mu.Unlock()
}

// ClientCount is the number of live connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CloseAll closes every registered connection.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	conns := make([]Conn, 0, len(h.clients))
	for _, c := range h.clients {
		conns = append(conns, c.conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		_ = conn.Close()
	}
}

func (h *Hub) EmitToRoom(roomID, event string, payload interface{}) {
	data, ok := h.encode(roomID, event, payload)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for connID := range h.rooms[roomID] {
		h.deliverLocked(connID, event, data)
	}
}

func (h *Hub) EmitToParticipant(connID, event string, payload interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	c, ok := h.clients[connID]
	if !ok {
		return
	}
	data, ok := h.encode(c.roomID, event, payload)
	if !ok {
		return
	}
	h.deliverLocked(connID, event, data)
}

func (h *Hub) ConnectedParticipants(ctx context.Context, roomID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h.mu.RLock()
	ids := make([]string, 0, len(h.rooms[roomID]))
	for connID := range h.rooms[roomID] {
		ids = append(ids, connID)
	}
	h.mu.RUnlock()

	sort.Strings(ids)
	return ids, nil
}

func (h *Hub) IsConnected(connID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[connID]
	return ok
}

func (h *Hub) RemoveFromRoom(roomID, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[connID]
	if !ok || c.roomID != roomID {
		return
	}
	h.unsubscribeLocked(c)
}

func (h *Hub) encode(roomID, event string, payload interface{}) ([]byte, bool) {
	data, err := json.Marshal(models.Event{Event: event, RoomID: roomID, Data: payload})
	if err != nil {
		h.log.Error().Err(err).Str("event", event).Msg("failed to encode event")
		return nil, false
	}
	return data, true
}

func (h *Hub) deliverLocked(connID, event string, data []byte) {
	c, ok := h.clients[connID]
	if !ok {
		return
	}
	if !c.conn.Send(data) {
		h.log.Warn().Str("conn", connID).Str("event", event).Msg("send buffer full, dropping frame")
	}
}
