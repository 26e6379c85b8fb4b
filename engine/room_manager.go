package engine

import (
	"errors"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"holdem-room/models"
)

// RoomManager owns the roomID -> Room mapping. It never holds its own lock
// while calling into a room; rooms call back into it (remove) while holding
// theirs.
type RoomManager struct {
	rooms   map[string]*Room
	mu      sync.RWMutex
	emitter Emitter
	opts    Options
	log     zerolog.Logger
}

func NewRoomManager(emitter Emitter, opts Options) *RoomManager {
	opts = opts.withDefaults()
	roomLog := opts.Logger.With().Str("component", "room").Logger()
	rm := &RoomManager{
		rooms:   make(map[string]*Room),
		emitter: emitter,
		log:     opts.Logger.With().Str("component", "registry").Logger(),
	}
	opts.Logger = &roomLog
	rm.opts = opts
	return rm
}

// GetOrCreate returns the room for roomID, creating it on first use.
func (rm *RoomManager) GetOrCreate(roomID string) *Room {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if room, exists := rm.rooms[roomID]; exists {
		return room
	}
	room := NewRoom(roomID, rm.emitter, rm.opts, rm.remove)
	rm.rooms[roomID] = room
	rm.log.Info().Str("room", roomID).Msg("room created")
	return room
}

func (rm *RoomManager) Get(roomID string) (*Room, error) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	room, exists := rm.rooms[roomID]
	if !exists {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// Join places connID in roomID, creating the room if needed. A room that is
// released between lookup and join is replaced by a fresh one.
func (rm *RoomManager) Join(roomID, connID, name string) (*Room, error) {
	for attempt := 0; attempt < 2; attempt++ {
		room := rm.GetOrCreate(roomID)
		err := room.Join(connID, name)
		if errors.Is(err, ErrRoomReleased) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return room, nil
	}
	return nil, ErrRoomReleased
}

func (rm *RoomManager) remove(roomID string, room *Room) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if current, exists := rm.rooms[roomID]; exists && current == room {
		delete(rm.rooms, roomID)
		rm.log.Info().Str("room", roomID).Msg("room deleted")
	}
}

// ListRooms returns a summary per live room, oldest first.
func (rm *RoomManager) ListRooms() []models.RoomSummary {
	rm.mu.RLock()
	rooms := make([]*Room, 0, len(rm.rooms))
	for _, room := range rm.rooms {
		rooms = append(rooms, room)
	}
	rm.mu.RUnlock()

	summaries := make([]models.RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		summaries = append(summaries, room.Summary())
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].CreatedAt.Equal(summaries[j].CreatedAt) {
			return summaries[i].RoomID < summaries[j].RoomID
		}
		return summaries[i].CreatedAt.Before(summaries[j].CreatedAt)
	})
	return summaries
}

func (rm *RoomManager) Count() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.rooms)
}

// Shutdown stops every room's timers. Rooms stay in the map.
func (rm *RoomManager) Shutdown() {
	rm.mu.RLock()
	rooms := make([]*Room, 0, len(rm.rooms))
	for _, room := range rm.rooms {
		rooms = append(rooms, room)
	}
	rm.mu.RUnlock()

	for _, room := range rooms {
		room.Stop()
	}
	rm.log.Info().Int("rooms", len(rooms)).Msg("room manager stopped")
}
