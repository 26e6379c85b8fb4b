package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"holdem-room/models"
)

func newTestManager() (*RoomManager, *recordingEmitter) {
	emitter := newRecordingEmitter()
	sched := &manualScheduler{}
	return NewRoomManager(emitter, Options{Seed: 1, AfterFunc: sched.AfterFunc}), emitter
}

func TestRoomManager_OneRoomPerID(t *testing.T) {
	rm, _ := newTestManager()

	a := rm.GetOrCreate("alpha")
	b := rm.GetOrCreate("alpha")
	assert.Same(t, a, b)
	rm.GetOrCreate("beta")
	assert.Equal(t, 2, rm.Count())

	_, err := rm.Get("gamma")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRoomManager_ReleasedRoomIsDeleted(t *testing.T) {
	rm, emitter := newTestManager()
	emitter.setConnected("c0", true)

	room, err := rm.Join("alpha", "c0", "Ann")
	require.NoError(t, err)
	require.NoError(t, room.TakeSeat("c0", 0))

	room.Disconnect("c0")
	assert.True(t, room.Released())
	assert.Equal(t, 0, rm.Count())

	// A fresh room takes the old id.
	again, err := rm.Join("alpha", "c1", "Bob")
	require.NoError(t, err)
	assert.NotSame(t, room, again)
	assert.True(t, again.IsHost("c1"))
}

func TestRoomManager_StaleRemoveKeepsNewRoom(t *testing.T) {
	rm, _ := newTestManager()
	old := rm.GetOrCreate("alpha")
	rm.remove("alpha", old)
	fresh := rm.GetOrCreate("alpha")

	rm.remove("alpha", old)
	current, err := rm.Get("alpha")
	require.NoError(t, err)
	assert.Same(t, fresh, current)
}

func TestRoomManager_ListRooms(t *testing.T) {
	rm, _ := newTestManager()
	_, err := rm.Join("alpha", "c0", "Ann")
	require.NoError(t, err)
	_, err = rm.Join("beta", "c1", "Bob")
	require.NoError(t, err)

	rooms := rm.ListRooms()
	require.Len(t, rooms, 2)
	ids := []string{rooms[0].RoomID, rooms[1].RoomID}
	assert.ElementsMatch(t, []string{"alpha", "beta"}, ids)
	assert.Len(t, rooms[0].Seats, MaxSeats)
	assert.Equal(t, 1, rooms[0].Members)
}

func TestLobby_SeatRules(t *testing.T) {
	tr := newTestRoom(t, Options{})
	tr.seatHumans(t, 0, 1)

	assert.NoError(t, tr.TakeSeat("c0", 0))
	assert.ErrorIs(t, tr.TakeSeat("c1", 0), ErrSeatOccupied)
	assert.ErrorIs(t, tr.TakeSeat("c1", MaxSeats), ErrInvalidSeat)
	assert.ErrorIs(t, tr.TakeSeat("c1", -1), ErrInvalidSeat)
	assert.ErrorIs(t, tr.TakeSeat("nobody", 5), ErrNotMember)

	// Moving seats frees the old one.
	require.NoError(t, tr.TakeSeat("c1", 6))
	state := tr.State()
	assert.Equal(t, models.OccupantNone, state.Seats[1].Type)
	assert.Equal(t, models.OccupantHuman, state.Seats[6].Type)

	assert.ErrorIs(t, tr.ToggleAI("c1", 3), ErrNotHost)
	assert.ErrorIs(t, tr.ToggleAI("c0", 6), ErrSeatOccupied)
	require.NoError(t, tr.ToggleAI("c0", 3))
	assert.Equal(t, "Bot 1", tr.State().Seats[3].Name)
	require.NoError(t, tr.ToggleAI("c0", 3))
	assert.Equal(t, models.OccupantNone, tr.State().Seats[3].Type)

	require.NoError(t, tr.LeaveSeat("c1"))
	assert.ErrorIs(t, tr.LeaveSeat("c1"), ErrNotSeated)
}

func TestLobby_KickSeat(t *testing.T) {
	tr := newTestRoom(t, Options{})
	tr.seatHumans(t, 0, 1)

	assert.ErrorIs(t, tr.KickSeat("c1", 0), ErrNotHost)
	assert.ErrorIs(t, tr.KickSeat("c0", 5), ErrSeatEmpty)
	require.NoError(t, tr.KickSeat("c0", 1))

	kicked, ok := tr.emitter.last(EventKicked)
	require.True(t, ok)
	assert.Equal(t, "c1", kicked.connID)
	assert.False(t, tr.Released())
	assert.Equal(t, 2, tr.Summary().Members)

	require.NoError(t, tr.TakeSeat("c1", 1))
	require.NoError(t, tr.StartMatch("c0", 2, 1000))
	assert.ErrorIs(t, tr.KickSeat("c0", 1), ErrMatchStarted)
	assert.ErrorIs(t, tr.TakeSeat("c1", 4), ErrMatchStarted)
}

func TestVoice_RelaysBetweenRegisteredPeers(t *testing.T) {
	tr := newTestRoom(t, Options{})
	tr.seatHumans(t, 0, 1)

	payload := json.RawMessage(`{"sdp":"offer"}`)
	assert.ErrorIs(t, tr.VoiceSignal("c0", "c1", payload), ErrVoiceUnknownPeer)
	assert.ErrorIs(t, tr.VoiceJoin("stranger"), ErrNotMember)

	require.NoError(t, tr.VoiceJoin("c0"))
	require.NoError(t, tr.VoiceJoin("c1"))
	peers, ok := tr.emitter.last(EventVoicePeers)
	require.True(t, ok)
	assert.Len(t, peers.payload.([]models.VoicePeer), 2)

	require.NoError(t, tr.VoiceSignal("c0", "c1", payload))
	sig, ok := tr.emitter.last(EventVoiceSignal)
	require.True(t, ok)
	assert.Equal(t, "c1", sig.connID)
	relayed := sig.payload.(models.VoiceSignalEvent)
	assert.Equal(t, "c0", relayed.From)
	assert.Equal(t, 0, relayed.FromSeatIdx)
	assert.JSONEq(t, `{"sdp":"offer"}`, string(relayed.Payload))

	tr.VoiceLeave("c1")
	assert.ErrorIs(t, tr.VoiceSignal("c0", "c1", payload), ErrVoiceUnknownPeer)
}

func TestSeatSet_Operations(t *testing.T) {
	var s SeatSet
	s = s.Add(3).Add(7).Add(3).Add(MaxSeats)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []int{3, 7}, s.Seats())

	copied := s
	s = s.Remove(3)
	assert.True(t, copied.Has(3))
	assert.False(t, s.Has(3))
	assert.False(t, s.Has(-1))
	assert.True(t, SeatSet(0).Empty())
}

func TestSeatAtActiveOffset_SkipsIneligible(t *testing.T) {
	tr := newTestRoom(t, Options{})
	tr.mu.Lock()
	defer tr.mu.Unlock()

	assert.Equal(t, -1, tr.seatAtActiveOffset(0, 1))

	for _, idx := range []int{2, 5, 8} {
		tr.seats[idx].Occupant = models.OccupantAI
		tr.players[idx] = models.NewPlayerState(1000)
	}
	tr.players[5].Chips = 0

	assert.Equal(t, 8, tr.seatAtActiveOffset(2, 1))
	assert.Equal(t, 2, tr.seatAtActiveOffset(2, 2))
	assert.Equal(t, 8, tr.seatAtActiveOffset(2, 3))
	assert.Equal(t, []int{8, 2}, tr.eligibleFrom(5))
}
