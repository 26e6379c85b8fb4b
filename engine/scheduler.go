package engine

import "holdem-room/models"

const (
	aiFoldChance  = 0.15
	aiRaiseChance = 0.30
)

// aiTicket identifies one armed AI turn. Values are captured when the timer
// is armed and compared against live state when it fires.
type aiTicket struct {
	seat  int
	nonce uint64
	gen   uint64
}

// requestTurn hands the action to the active seat, or settles/advances when
// nobody can act.
func (r *Room) requestTurn() {
	r.cancelAITimer()
	if !r.started || r.closing || !r.round.IsBetting() {
		return
	}

	if r.countSeats(r.isInHand) <= 1 {
		r.finishHand()
		return
	}
	if r.countSeats(r.canAct) == 0 {
		r.showdown()
		return
	}

	r.prunePending()
	if !r.pending.Has(r.activeSeatIdx) {
		from := r.activeSeatIdx
		if from < 0 {
			from = r.dealerSeatIdx
		}
		r.activeSeatIdx = r.nextPendingSeat(from)
	}
	if r.activeSeatIdx < 0 {
		r.proceedToNextStreet()
		return
	}

	r.broadcastState()

	idx := r.activeSeatIdx
	if r.seats[idx].IsAI() {
		r.armAITimer(idx)
		return
	}
	p := r.players[idx]
	r.emitRoom(EventTurn, models.TurnNotice{
		SeatIdx:   idx,
		TurnNonce: r.turnNonce,
		ToCall:    max(0, r.currentMaxBet-p.Bet),
		MinRaise:  r.minRaise,
	})
}

func (r *Room) armAITimer(seat int) {
	r.timerGen++
	ticket := aiTicket{seat: seat, nonce: r.turnNonce, gen: r.timerGen}
	r.aiTimer = r.opts.AfterFunc(r.opts.AIDelay, func() {
		r.fireAITurn(ticket)
	})
}

// cancelAITimer stops any armed AI turn. Bumping the generation also
// invalidates a callback that already started and is waiting on the lock.
func (r *Room) cancelAITimer() {
	r.timerGen++
	if r.aiTimer != nil {
		r.aiTimer.Stop()
		r.aiTimer = nil
	}
}

func (r *Room) ticketValid(t aiTicket) bool {
	return !r.released &&
		r.started &&
		!r.closing &&
		r.round.IsBetting() &&
		t.gen == r.timerGen &&
		t.nonce == r.turnNonce &&
		t.seat == r.activeSeatIdx &&
		r.seats[t.seat].IsAI()
}

func (r *Room) fireAITurn(t aiTicket) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.ticketValid(t) {
		r.log.Debug().Int("seat", t.seat).Uint64("nonce", t.nonce).Msg("dropping stale AI turn")
		return
	}
	r.aiTimer = nil
	r.aiAct(t.seat)
}

// aiAct is a fixed policy: no memory, no hand strength.
func (r *Room) aiAct(seat int) {
	if !r.canAct(seat) {
		r.pending = r.pending.Remove(seat)
		r.activeSeatIdx = r.nextPendingSeat(seat)
		r.requestTurn()
		return
	}

	p := r.players[seat]
	owed := max(0, r.currentMaxBet-p.Bet)
	roll := r.rng.Float64()

	action := models.ActionCheck
	amount := 0
	switch {
	case owed > 0 && roll < aiFoldChance:
		action = models.ActionFold
	case roll >= aiFoldChance && roll < aiFoldChance+aiRaiseChance && p.Chips >= owed+r.minRaise:
		action = models.ActionRaise
		amount = r.minRaise
	case owed > 0:
		action = models.ActionCall
	}

	if err := r.handleAction(seat, action, amount); err != nil {
		r.log.Warn().Err(err).Int("seat", seat).Str("action", string(action)).Msg("AI action rejected, folding")
		if err := r.handleAction(seat, models.ActionFold, 0); err != nil {
			r.log.Error().Err(err).Int("seat", seat).Msg("AI fold rejected")
		}
	}
}
