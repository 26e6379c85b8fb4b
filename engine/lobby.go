package engine

import (
	"fmt"

	"holdem-room/models"
)

// Join adds a connection to the room. The first member becomes host.
func (r *Room) Join(connID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return ErrRoomReleased
	}
	if r.closing {
		return ErrRoomClosing
	}

	found := false
	for i := range r.members {
		if r.members[i].connID == connID {
			r.members[i].name = name
			found = true
			break
		}
	}
	if !found {
		r.members = append(r.members, member{connID: connID, name: name})
	}
	if r.hostID == "" {
		r.hostID = connID
	}

	r.log.Info().Str("conn", connID).Str("name", name).Msg("member joined")
	r.activity(fmt.Sprintf("%s joined the room", name))
	r.broadcastSummary()
	r.emitTo(connID, EventGameState, r.gameState())
	return nil
}

func (r *Room) memberName(connID string) (string, bool) {
	for _, m := range r.members {
		if m.connID == connID {
			return m.name, true
		}
	}
	return "", false
}

func (r *Room) removeMember(connID string) bool {
	for i, m := range r.members {
		if m.connID == connID {
			r.members = append(r.members[:i], r.members[i+1:]...)
			return true
		}
	}
	return false
}

// IsHost reports whether connID currently holds host privileges.
func (r *Room) IsHost(connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hostID != "" && r.hostID == connID
}

func (r *Room) checkLobby(connID string) error {
	if r.released {
		return ErrRoomReleased
	}
	if r.closing {
		return ErrRoomClosing
	}
	if r.started {
		return ErrMatchStarted
	}
	if _, ok := r.memberName(connID); !ok {
		return ErrNotMember
	}
	return nil
}

func (r *Room) checkHostLobby(connID string) error {
	if err := r.checkLobby(connID); err != nil {
		return err
	}
	if connID != r.hostID {
		return ErrNotHost
	}
	return nil
}

// TakeSeat seats a human. Taking a seat while seated elsewhere moves them.
func (r *Room) TakeSeat(connID string, seatIdx int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkLobby(connID); err != nil {
		return err
	}
	if !validSeat(seatIdx) {
		return ErrInvalidSeat
	}
	seat := &r.seats[seatIdx]
	if seat.Occupied() {
		if seat.IsHuman() && seat.ConnID == connID {
			return nil
		}
		return ErrSeatOccupied
	}

	if prev := r.seatOf(connID); prev >= 0 {
		r.seats[prev].Clear()
		r.players[prev] = nil
	}

	name, _ := r.memberName(connID)
	seat.Occupant = models.OccupantHuman
	seat.ConnID = connID
	seat.Name = name
	r.players[seatIdx] = models.NewPlayerState(r.initialChips)

	r.log.Info().Int("seat", seatIdx).Str("name", name).Msg("seat taken")
	r.activity(fmt.Sprintf("%s sat down at seat %d", name, seatIdx+1))
	r.broadcastSummary()
	r.broadcastState()
	return nil
}

// LeaveSeat stands a human up before the match starts.
func (r *Room) LeaveSeat(connID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkLobby(connID); err != nil {
		return err
	}
	idx := r.seatOf(connID)
	if idx < 0 {
		return ErrNotSeated
	}
	name := r.seats[idx].Name
	r.seats[idx].Clear()
	r.players[idx] = nil

	r.activity(fmt.Sprintf("%s left seat %d", name, idx+1))
	r.broadcastSummary()
	r.broadcastState()
	return nil
}

// ToggleAI adds a bot to an empty seat or removes the bot from an AI seat.
func (r *Room) ToggleAI(connID string, seatIdx int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkHostLobby(connID); err != nil {
		return err
	}
	if !validSeat(seatIdx) {
		return ErrInvalidSeat
	}

	seat := &r.seats[seatIdx]
	switch {
	case seat.IsHuman():
		return ErrSeatOccupied
	case seat.IsAI():
		name := seat.Name
		seat.Clear()
		r.players[seatIdx] = nil
		r.activity(fmt.Sprintf("%s was removed", name))
	default:
		r.aiCount++
		seat.Occupant = models.OccupantAI
		seat.Name = fmt.Sprintf("Bot %d", r.aiCount)
		r.players[seatIdx] = models.NewPlayerState(r.initialChips)
		r.activity(fmt.Sprintf("%s sat down at seat %d", seat.Name, seatIdx+1))
	}

	r.broadcastSummary()
	r.broadcastState()
	return nil
}

// KickSeat empties any occupied seat before the match starts. A kicked
// human stays in the room as a spectator.
func (r *Room) KickSeat(connID string, seatIdx int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkHostLobby(connID); err != nil {
		return err
	}
	if !validSeat(seatIdx) {
		return ErrInvalidSeat
	}
	seat := &r.seats[seatIdx]
	if !seat.Occupied() {
		return ErrSeatEmpty
	}

	name := seat.Name
	if seat.IsHuman() {
		r.emitTo(seat.ConnID, EventKicked, map[string]int{"seatIdx": seatIdx})
	}
	seat.Clear()
	r.players[seatIdx] = nil

	r.log.Info().Int("seat", seatIdx).Str("name", name).Msg("seat kicked")
	r.activity(fmt.Sprintf("%s was removed from seat %d", name, seatIdx+1))
	r.broadcastSummary()
	r.broadcastState()
	return nil
}

// Disconnect removes a connection from the room, vacating its seat even in
// the middle of a hand.
func (r *Room) Disconnect(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return
	}
	wasMember := r.removeMember(connID)
	r.voiceLeave(connID)

	if r.closing {
		delete(r.expectedAcks, connID)
		if idx := r.seatOf(connID); idx >= 0 {
			r.seats[idx].Clear()
			r.players[idx] = nil
		}
		if len(r.members) == 0 {
			r.release()
			return
		}
		r.checkRelease()
		return
	}

	vacated := false
	if idx := r.seatOf(connID); idx >= 0 {
		delete(r.rebuyRequests, idx)
		r.vacateSeat(idx)
		vacated = true
	}

	if r.hostID == connID {
		r.hostID = ""
		if len(r.members) > 0 {
			r.hostID = r.members[0].connID
			r.activity(fmt.Sprintf("%s is now the host", r.members[0].name))
		}
	}

	if !wasMember && !vacated {
		return
	}
	r.log.Info().Str("conn", connID).Bool("vacated", vacated).Msg("member left")

	if len(r.members) == 0 || (vacated && r.occupiedCount() == 0) {
		r.release()
		return
	}
	r.broadcastSummary()
}

// vacateSeat removes the occupant and repairs the running hand around the
// hole it leaves. Chips already in the pot stay there.
func (r *Room) vacateSeat(idx int) {
	name := r.seats[idx].Name
	wasActive := r.activeSeatIdx == idx
	r.seats[idx].Clear()
	r.players[idx] = nil
	r.pending = r.pending.Remove(idx)
	r.activity(fmt.Sprintf("%s left the table", name))

	if !r.started || !r.round.IsBetting() {
		r.broadcastState()
		return
	}

	if r.countSeats(r.isInHand) <= 1 {
		r.finishHand()
		return
	}
	r.prunePending()
	if r.pending.Empty() {
		r.proceedToNextStreet()
		return
	}
	if wasActive || !r.pending.Has(r.activeSeatIdx) {
		r.activeSeatIdx = r.nextPendingSeat(idx)
		r.requestTurn()
		return
	}
	r.broadcastState()
}
