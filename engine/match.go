package engine

import (
	"context"
	"fmt"

	"holdem-room/models"
)

// AdvanceHand deals the next hand, or ends the match once every scheduled
// hand has been played.
func (r *Room) AdvanceHand(connID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkHostMatch(connID); err != nil {
		return err
	}
	if r.round != models.RoundHandOver || r.pot != 0 {
		return ErrHandInProgress
	}
	if r.handNum >= r.totalHands {
		r.endMatch("All hands played")
		return nil
	}
	r.startHand()
	return nil
}

// AbortMatch ends a running match between hands.
func (r *Room) AbortMatch(connID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkHostMatch(connID); err != nil {
		return err
	}
	if r.round != models.RoundHandOver && r.round != models.RoundWaiting {
		return ErrHandInProgress
	}
	r.endMatch("Match aborted by host")
	return nil
}

func (r *Room) checkHostMatch(connID string) error {
	if r.released {
		return ErrRoomReleased
	}
	if r.closing {
		return ErrRoomClosing
	}
	if !r.started {
		return ErrMatchNotStarted
	}
	if connID != r.hostID {
		return ErrNotHost
	}
	return nil
}

// endMatch publishes standings and starts the acknowledgement-gated close.
func (r *Room) endMatch(reason string) {
	r.cancelAITimer()

	summary := r.matchSummary(reason)
	r.log.Info().Str("reason", reason).Int("hands", summary.HandsPlayed).Msg("match over")
	r.emitRoom(EventMatchOver, summary)

	r.closing = true
	r.started = false
	if err := r.setRound(models.RoundWaiting); err != nil {
		r.round = models.RoundWaiting
	}
	r.pending = 0
	r.activeSeatIdx = -1
	r.rebuyRequests = make(map[int]int)

	r.expectedAcks = make(map[string]bool)
	for _, connID := range r.connectedParticipants() {
		r.expectedAcks[connID] = false
	}

	r.record(func(ctx context.Context, rec MatchRecorder) error {
		return rec.RecordMatch(ctx, summary)
	})

	r.broadcastSummary()
	r.checkRelease()
}

// Acknowledge records that a participant has seen the match summary.
func (r *Room) Acknowledge(connID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return ErrRoomReleased
	}
	if !r.closing {
		return ErrNotClosing
	}
	if _, ok := r.expectedAcks[connID]; ok {
		r.expectedAcks[connID] = true
	}
	r.checkRelease()
	return nil
}

func (r *Room) checkRelease() {
	if !r.closing || r.released {
		return
	}
	for connID, acked := range r.expectedAcks {
		if !acked && r.emitter != nil && r.emitter.IsConnected(connID) {
			return
		}
	}
	r.release()
}

// release evicts every remaining socket and drops the room from the
// registry. It runs at most once.
func (r *Room) release() {
	if r.released {
		return
	}
	r.cancelAITimer()

	targets := map[string]struct{}{}
	for _, connID := range r.connectedParticipants() {
		targets[connID] = struct{}{}
	}
	for _, m := range r.members {
		targets[m.connID] = struct{}{}
	}
	for connID := range targets {
		r.emitTo(connID, EventRoomClosed, map[string]string{"roomId": r.id})
		if r.emitter != nil {
			r.emitter.RemoveFromRoom(r.id, connID)
		}
	}

	r.released = true
	r.members = nil
	r.expectedAcks = nil
	r.log.Info().Int("evicted", len(targets)).Msg("room released")
	if r.onRelease != nil {
		r.onRelease(r.id, r)
	}
}

// RequestRebuy asks for chips while bankrupt. Without host approval, or when
// the host asks, the rebuy is queued straight away for the next hand.
func (r *Room) RequestRebuy(connID string, amount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return ErrRoomReleased
	}
	if r.closing {
		return ErrRoomClosing
	}
	if !r.started {
		return ErrMatchNotStarted
	}
	idx := r.seatOf(connID)
	if idx < 0 {
		return ErrNotSeated
	}
	if amount < MinRebuy || amount%RebuyStep != 0 {
		return ErrInvalidAmount
	}
	p := r.players[idx]
	if p == nil || !p.Bankrupt || p.Chips > 0 || p.PendingRebuy > 0 {
		return ErrNotBankrupt
	}

	name := r.seats[idx].Name
	if !r.opts.RebuyApproval || connID == r.hostID {
		r.queueRebuy(idx, amount)
		return nil
	}

	r.rebuyRequests[idx] = amount
	r.emitTo(r.hostID, EventRebuyRequested, models.RebuyRequestEvent{SeatIdx: idx, Name: name, Amount: amount})
	r.activity(fmt.Sprintf("%s asked to rebuy for %d", name, amount))
	return nil
}

func (r *Room) queueRebuy(idx, amount int) {
	p := r.players[idx]
	p.PendingRebuy = amount
	p.Bankrupt = false
	delete(r.rebuyRequests, idx)

	seat := r.seats[idx]
	if seat.IsHuman() {
		r.emitTo(seat.ConnID, EventRebuyResult, models.RebuyResultEvent{SeatIdx: idx, Amount: amount, Approved: true})
	}
	r.activity(fmt.Sprintf("%s will rebuy for %d next hand", seat.Name, amount))
	r.broadcastState()
}

// ResolveRebuy approves or denies a pending request. amount must match the
// request so a stale click cannot approve a different sum.
func (r *Room) ResolveRebuy(connID string, seatIdx, amount int, approve bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkHostMatch(connID); err != nil {
		return err
	}
	if !validSeat(seatIdx) {
		return ErrInvalidSeat
	}
	requested, ok := r.rebuyRequests[seatIdx]
	if !ok || requested != amount {
		return ErrNoRebuyRequest
	}
	p := r.player(seatIdx)
	if p == nil || !r.seats[seatIdx].Occupied() {
		delete(r.rebuyRequests, seatIdx)
		return ErrSeatEmpty
	}

	if approve {
		r.queueRebuy(seatIdx, amount)
		return nil
	}

	delete(r.rebuyRequests, seatIdx)
	seat := r.seats[seatIdx]
	if seat.IsHuman() {
		r.emitTo(seat.ConnID, EventRebuyResult, models.RebuyResultEvent{SeatIdx: seatIdx, Amount: amount, Approved: false})
	}
	r.activity(fmt.Sprintf("Rebuy for %s was declined", seat.Name))
	return nil
}
