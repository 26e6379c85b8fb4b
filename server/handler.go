package server

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"holdem-room/engine"
	"holdem-room/internal/middleware"
	"holdem-room/internal/validation"
	"holdem-room/models"
)

var (
	errNotInRoom   = errors.New("join a room first")
	errRateLimited = errors.New("too many requests, slow down")
)

// CommandHandler turns client intents into room operations. Transports call
// Handle once per decoded command and Disconnect when the socket closes.
type CommandHandler struct {
	rooms   *engine.RoomManager
	hub     *Hub
	limiter *middleware.RateLimiter
	tracker *ActionTracker
	log     zerolog.Logger
}

func NewCommandHandler(rooms *engine.RoomManager, hub *Hub, limiter *middleware.RateLimiter, tracker *ActionTracker, logger zerolog.Logger) *CommandHandler {
	return &CommandHandler{
		rooms:   rooms,
		hub:     hub,
		limiter: limiter,
		tracker: tracker,
		log:     logger,
	}
}

func (h *CommandHandler) Handle(connID string, cmd models.Command) models.Response {
	if h.limiter != nil && !h.limiter.Allow(connID) {
		return h.reject(connID, cmd.Command, errRateLimited)
	}

	switch cmd.Command {
	case "rooms.list":
		return ok(cmd.Command, map[string]interface{}{"rooms": h.rooms.ListRooms()})
	case "room.join":
		return h.handleJoin(connID, cmd)
	case "room.leave":
		return h.handleLeave(connID, cmd)
	}

	room, err := h.currentRoom(connID)
	if err != nil {
		return fail(cmd.Command, err)
	}

	switch cmd.Command {
	case "seat.take":
		err = h.withSeat(cmd.Data, func(seatIdx int) error { return room.TakeSeat(connID, seatIdx) })
	case "seat.leave":
		err = room.LeaveSeat(connID)
	case "seat.toggleAI":
		err = h.withSeat(cmd.Data, func(seatIdx int) error { return room.ToggleAI(connID, seatIdx) })
	case "seat.kick":
		err = h.withSeat(cmd.Data, func(seatIdx int) error { return room.KickSeat(connID, seatIdx) })
	case "match.start":
		err = h.handleStart(connID, room, cmd.Data)
	case "game.action":
		var duplicate bool
		duplicate, err = h.handleAction(connID, room, cmd.Data)
		if err == nil && duplicate {
			return ok(cmd.Command, map[string]bool{"duplicate": true})
		}
	case "player.rebuy":
		var amount int
		if amount, err = getInt(cmd.Data, "amount"); err == nil {
			err = room.RequestRebuy(connID, amount)
		}
	case "rebuy.approve", "rebuy.deny":
		err = h.handleResolveRebuy(connID, room, cmd)
	case "hand.next":
		err = room.AdvanceHand(connID)
	case "match.ack":
		err = room.Acknowledge(connID)
	case "match.abort":
		err = room.AbortMatch(connID)
	case "voice.join":
		err = room.VoiceJoin(connID)
	case "voice.leave":
		room.VoiceLeave(connID)
	case "voice.signal":
		err = h.handleVoiceSignal(connID, room, cmd.Data)
	default:
		return fail(cmd.Command, fmt.Errorf("unknown command: %s", cmd.Command))
	}

	if err != nil {
		return h.reject(connID, cmd.Command, err)
	}
	return ok(cmd.Command, nil)
}

// Disconnect drops connID from its room and from the hub.
func (h *CommandHandler) Disconnect(connID string) {
	if roomID := h.hub.RoomOf(connID); roomID != "" {
		if room, err := h.rooms.Get(roomID); err == nil {
			room.Disconnect(connID)
		}
	}
	h.hub.Unregister(connID)
	if h.limiter != nil {
		h.limiter.Forget(connID)
	}
	h.log.Debug().Str("conn", connID).Msg("connection closed")
}

func (h *CommandHandler) handleJoin(connID string, cmd models.Command) models.Response {
	roomID := getString(cmd.Data, "roomId")
	if err := validation.ValidateRoomID(roomID); err != nil {
		return fail(cmd.Command, err)
	}

	name := getString(cmd.Data, "name")
	if name == "" {
		name = h.hub.Name(connID)
	}
	name, err := validation.DisplayName(name)
	if err != nil {
		return fail(cmd.Command, err)
	}

	if current := h.hub.RoomOf(connID); current != "" && current != roomID {
		h.leaveRoom(connID, current)
	}

	h.hub.SetName(connID, name)
	// Subscribe first so the joiner sees the roomUpdate the join broadcasts.
	h.hub.Subscribe(roomID, connID)
	room, err := h.rooms.Join(roomID, connID, name)
	if err != nil {
		h.hub.RemoveFromRoom(roomID, connID)
		return fail(cmd.Command, err)
	}

	h.log.Info().Str("room", roomID).Str("conn", connID).Str("name", name).Msg("joined room")
	return ok(cmd.Command, room.Summary())
}

func (h *CommandHandler) handleLeave(connID string, cmd models.Command) models.Response {
	roomID := h.hub.RoomOf(connID)
	if roomID == "" {
		return fail(cmd.Command, errNotInRoom)
	}
	h.leaveRoom(connID, roomID)
	return ok(cmd.Command, nil)
}

func (h *CommandHandler) leaveRoom(connID, roomID string) {
	if room, err := h.rooms.Get(roomID); err == nil {
		room.Disconnect(connID)
	}
	h.hub.RemoveFromRoom(roomID, connID)
}

func (h *CommandHandler) currentRoom(connID string) (*engine.Room, error) {
	roomID := h.hub.RoomOf(connID)
	if roomID == "" {
		return nil, errNotInRoom
	}
	room, err := h.rooms.Get(roomID)
	if err != nil {
		return nil, err
	}
	return room, nil
}

func (h *CommandHandler) withSeat(data map[string]interface{}, fn func(seatIdx int) error) error {
	seatIdx, err := getInt(data, "seatIdx")
	if err != nil {
		return err
	}
	if err := validation.ValidateIntRange(seatIdx, 0, engine.MaxSeats-1, "seatIdx"); err != nil {
		return err
	}
	return fn(seatIdx)
}

func (h *CommandHandler) handleStart(connID string, room *engine.Room, data map[string]interface{}) error {
	totalHands, err := getInt(data, "totalHands")
	if err != nil {
		return err
	}
	initialChips, err := getInt(data, "initialChips")
	if err != nil {
		return err
	}
	return room.StartMatch(connID, totalHands, initialChips)
}

func (h *CommandHandler) handleAction(connID string, room *engine.Room, data map[string]interface{}) (bool, error) {
	actionStr := getString(data, "action")
	if err := validation.ValidateGameAction(actionStr); err != nil {
		return false, err
	}
	action, _ := models.ParseAction(actionStr)

	amount := 0
	if _, present := data["amount"]; present {
		var err error
		if amount, err = getInt(data, "amount"); err != nil {
			return false, err
		}
	}

	requestID := getString(data, "requestId")
	if err := validation.ValidateRequestID(requestID); err != nil {
		return false, err
	}
	if h.tracker != nil && h.tracker.IsDuplicate(requestID) {
		h.log.Debug().Str("conn", connID).Str("request", requestID).Msg("duplicate action ignored")
		return true, nil
	}

	if err := room.Act(connID, action, amount); err != nil {
		return false, err
	}
	if h.tracker != nil {
		h.tracker.MarkProcessed(requestID, connID, room.ID(), actionStr, amount)
	}
	return false, nil
}

func (h *CommandHandler) handleResolveRebuy(connID string, room *engine.Room, cmd models.Command) error {
	seatIdx, err := getInt(cmd.Data, "seatIdx")
	if err != nil {
		return err
	}
	amount, err := getInt(cmd.Data, "amount")
	if err != nil {
		return err
	}
	return room.ResolveRebuy(connID, seatIdx, amount, cmd.Command == "rebuy.approve")
}

func (h *CommandHandler) handleVoiceSignal(connID string, room *engine.Room, data map[string]interface{}) error {
	to := getString(data, "to")
	if to == "" {
		return engine.ErrVoiceUnknownPeer
	}
	payload, err := json.Marshal(data["payload"])
	if err != nil {
		return fmt.Errorf("invalid voice payload: %w", err)
	}
	return room.VoiceSignal(connID, to, payload)
}

// reject answers the command and also pushes an errorMessage event so the
// participant's UI can surface it.
func (h *CommandHandler) reject(connID, command string, err error) models.Response {
	if h.hub.RoomOf(connID) != "" {
		h.hub.EmitToParticipant(connID, engine.EventError, models.ErrorEvent{Message: err.Error()})
	}
	h.log.Debug().Err(err).Str("conn", connID).Str("command", command).Msg("intent rejected")
	return fail(command, err)
}

func ok(command string, data interface{}) models.Response {
	return models.Response{Command: command, Success: true, Data: data}
}

func fail(command string, err error) models.Response {
	return models.Response{Command: command, Success: false, Error: err.Error()}
}

func getString(data map[string]interface{}, key string) string {
	if val, ok := data[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

func getInt(data map[string]interface{}, key string) (int, error) {
	return validation.NonNegativeInt(data[key], key)
}
