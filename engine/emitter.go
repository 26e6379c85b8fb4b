package engine

import (
	"context"
	"time"

	"holdem-room/models"
)

// Outbound event names. Clients match on these strings.
const (
	EventRoomUpdate     = "roomUpdate"
	EventGameState      = "gameState"
	EventPrivateHand    = "privateHand"
	EventTurn           = "turn"
	EventActivity       = "activity"
	EventPlayerAction   = "playerAction"
	EventHandOver       = "handOver"
	EventMatchOver      = "matchOver"
	EventRoomClosed     = "roomClosed"
	EventError          = "errorMessage"
	EventRebuyRequested = "rebuyRequested"
	EventRebuyResult    = "rebuyResult"
	EventKicked         = "kicked"
	EventVoicePeers     = "voicePeers"
	EventVoiceSignal    = "voiceSignal"
)

// Emitter is the narrow capability a room has over the transport layer.
// Emit calls must not block; ConnectedParticipants is best-effort and may
// fail.
type Emitter interface {
	EmitToRoom(roomID, event string, payload interface{})
	EmitToParticipant(connID, event string, payload interface{})
	ConnectedParticipants(ctx context.Context, roomID string) ([]string, error)
	IsConnected(connID string) bool
	RemoveFromRoom(roomID, connID string)
}

// MatchRecorder receives settled hands and finished matches for archival.
// Calls happen off the room lock.
type MatchRecorder interface {
	RecordHand(ctx context.Context, roomID string, hand models.HandRecord) error
	RecordMatch(ctx context.Context, summary models.MatchSummary) error
}

// MultiRecorder fans out to every recorder and returns the first error.
type MultiRecorder []MatchRecorder

func (m MultiRecorder) RecordHand(ctx context.Context, roomID string, hand models.HandRecord) error {
	var first error
	for _, rec := range m {
		if err := rec.RecordHand(ctx, roomID, hand); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m MultiRecorder) RecordMatch(ctx context.Context, summary models.MatchSummary) error {
	var first error
	for _, rec := range m {
		if err := rec.RecordMatch(ctx, summary); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Timer is the handle of a scheduled callback.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it through
// realAfterFunc.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
