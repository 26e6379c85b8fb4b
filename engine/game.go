package engine

import (
	"fmt"
	"strings"

	"holdem-room/models"
)

// StartMatch funds every occupied seat and deals the first hand.
func (r *Room) StartMatch(connID string, totalHands, initialChips int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkHostLobby(connID); err != nil {
		return err
	}
	if totalHands < MinTotalHands || totalHands > MaxTotalHands {
		return ErrInvalidHands
	}
	if initialChips < MinInitialChips {
		return ErrInvalidChips
	}
	if r.occupiedCount() < 2 {
		return ErrNotEnoughPlayers
	}

	r.totalHands = totalHands
	r.initialChips = initialChips
	for i := range r.seats {
		if r.seats[i].Occupied() {
			r.players[i] = models.NewPlayerState(initialChips)
		} else {
			r.players[i] = nil
		}
	}
	r.started = true
	r.handNum = 0
	r.history = nil
	r.rebuyRequests = make(map[int]int)
	// rotated onto the first eligible seat by startHand
	r.dealerSeatIdx = 0

	r.log.Info().Int("hands", totalHands).Int("chips", initialChips).Int("seats", r.occupiedCount()).Msg("match started")
	r.activity(fmt.Sprintf("Match started: %d hands, %d chips each", totalHands, initialChips))
	r.broadcastSummary()
	r.startHand()
	return nil
}

// startHand moves WAITING/HAND_OVER into PRE-FLOP, or ends the match when
// fewer than two seats can be dealt in.
func (r *Room) startHand() {
	r.cancelAITimer()

	for i := range r.players {
		if !r.hasPlayer(i) {
			continue
		}
		p := r.players[i]
		if amount := p.ApplyRebuy(); amount > 0 {
			r.activity(fmt.Sprintf("%s rebought for %d", r.seats[i].Name, amount))
		}
		p.ResetForHand()
	}

	if r.countSeats(r.isEligible) < 2 {
		r.endMatch("Not enough players with chips")
		return
	}

	r.handNum++
	r.turnNonce++
	r.pot = 0
	r.communityCards = make([]models.Card, 0, 5)
	r.deck = r.newDeck()
	r.pending = 0
	r.lastActorSeat = -1
	r.currentMaxBet = 0
	r.minRaise = r.bigBlind

	r.dealerSeatIdx = r.seatAtActiveOffset(r.dealerSeatIdx, 1)
	r.sbSeatIdx = r.seatAtActiveOffset(r.dealerSeatIdx, 1)
	r.bbSeatIdx = r.seatAtActiveOffset(r.dealerSeatIdx, 2)
	utg := r.seatAtActiveOffset(r.dealerSeatIdx, 3)

	// Deal order is fixed before blinds can put anyone all-in.
	order := r.eligibleFrom(r.dealerSeatIdx)

	sbPosted := r.commit(r.sbSeatIdx, r.smallBlind)
	bbPosted := r.commit(r.bbSeatIdx, r.bigBlind)

	for pass := 0; pass < 2; pass++ {
		for _, idx := range order {
			r.players[idx].Hand = append(r.players[idx].Hand, r.dealCard())
		}
	}

	r.currentMaxBet = max(r.bigBlind, sbPosted, bbPosted)
	r.pending = r.seatSet(r.canAct)
	r.activeSeatIdx = utg

	if err := r.setRound(models.RoundPreFlop); err != nil {
		return
	}

	for _, idx := range order {
		if seat := r.seats[idx]; seat.IsHuman() {
			r.emitTo(seat.ConnID, EventPrivateHand, models.PrivateHand{
				SeatIdx: idx,
				HandNum: r.handNum,
				Cards:   append([]models.Card(nil), r.players[idx].Hand...),
			})
		}
	}

	r.log.Debug().Int("hand", r.handNum).Int("dealer", r.dealerSeatIdx).Int("sb", r.sbSeatIdx).Int("bb", r.bbSeatIdx).Msg("hand started")
	r.activity(fmt.Sprintf("Hand %d of %d: %s deals, blinds %d/%d",
		r.handNum, r.totalHands, r.seats[r.dealerSeatIdx].Name, sbPosted, bbPosted))
	r.requestTurn()
}

// commit moves up to amount chips from a seat's stack into its bet and the
// pot and returns what moved.
func (r *Room) commit(idx, amount int) int {
	p := r.player(idx)
	if p == nil {
		return 0
	}
	placed := p.PlaceBet(amount)
	r.pot += placed
	return placed
}

func (r *Room) dealCard() models.Card {
	card, err := r.deck.Deal()
	if err != nil {
		// Only reachable with an undersized stacked deck.
		r.log.Error().Err(err).Msg("deck exhausted, opening a fresh deck")
		r.deck = models.NewDeck(r.rng)
		card, _ = r.deck.Deal()
	}
	return card
}

func (r *Room) dealCommunity(n int) []models.Card {
	dealt := make([]models.Card, 0, n)
	for i := 0; i < n && len(r.communityCards) < 5; i++ {
		card := r.dealCard()
		r.communityCards = append(r.communityCards, card)
		dealt = append(dealt, card)
	}
	return dealt
}

// runOutBoard deals community cards until there are five.
func (r *Room) runOutBoard() {
	if len(r.communityCards) < 5 {
		r.dealCommunity(5 - len(r.communityCards))
	}
}

// Act applies a human seat's betting action.
func (r *Room) Act(connID string, action models.PlayerAction, amount int) error {
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
	if !r.round.IsBetting() {
		return ErrNoActiveHand
	}
	idx := r.seatOf(connID)
	if idx < 0 {
		return ErrNotSeated
	}
	return r.handleAction(idx, action, amount)
}

func (r *Room) handleAction(idx int, action models.PlayerAction, amount int) error {
	if idx != r.activeSeatIdx {
		return ErrNotYourTurn
	}
	if !r.isEligible(idx) || !r.isInHand(idx) {
		return ErrCannotAct
	}
	if amount < 0 {
		return ErrInvalidAmount
	}

	p := r.players[idx]
	owed := r.currentMaxBet - p.Bet
	if owed < 0 {
		owed = 0
	}
	committed := 0

	switch action {
	case models.ActionFold:
		p.Folded = true
		r.pending = r.pending.Remove(idx)

	case models.ActionCheck:
		if owed > 0 {
			return ErrIllegalCheck
		}
		r.pending = r.pending.Remove(idx)

	case models.ActionCall:
		if owed == 0 {
			action = models.ActionCheck
		} else {
			committed = r.commit(idx, owed)
		}
		r.pending = r.pending.Remove(idx)

	case models.ActionRaise:
		committed = r.commit(idx, owed+max(amount, r.minRaise))
		r.settleRaise(idx)

	case models.ActionAllIn:
		committed = r.commit(idx, p.Chips)
		r.settleRaise(idx)

	default:
		return ErrUnknownAction
	}

	r.lastActorSeat = idx
	name := r.seats[idx].Name
	r.emitRoom(EventPlayerAction, models.ActionNotice{
		SeatIdx: idx,
		Name:    name,
		Action:  action,
		Amount:  committed,
		Text:    actionText(name, action, committed, p.Bet),
	})
	r.log.Debug().Int("hand", r.handNum).Int("seat", idx).Str("action", string(action)).Int("amount", committed).Msg("action")

	r.afterAction(idx)
	return nil
}

// settleRaise reopens the action when a bet topped the table maximum;
// anything short of that only answers the current bet.
func (r *Room) settleRaise(idx int) {
	p := r.players[idx]
	if p.Bet <= r.currentMaxBet {
		r.pending = r.pending.Remove(idx)
		return
	}
	if increment := p.Bet - r.currentMaxBet; increment > r.minRaise {
		r.minRaise = increment
	}
	r.currentMaxBet = p.Bet
	r.reopenAction(idx)
}

func actionText(name string, action models.PlayerAction, committed, bet int) string {
	switch action {
	case models.ActionFold:
		return name + " folds"
	case models.ActionCheck:
		return name + " checks"
	case models.ActionCall:
		return fmt.Sprintf("%s calls %d", name, committed)
	case models.ActionRaise:
		return fmt.Sprintf("%s raises to %d", name, bet)
	case models.ActionAllIn:
		return fmt.Sprintf("%s goes all-in for %d", name, committed)
	}
	return name
}

func (r *Room) afterAction(idx int) {
	if r.countSeats(r.isInHand) <= 1 {
		r.finishHand()
		return
	}
	r.prunePending()
	if r.pending.Empty() {
		r.proceedToNextStreet()
		return
	}
	r.activeSeatIdx = r.nextPendingSeat(idx)
	r.requestTurn()
}

var nextStreet = map[models.Round]struct {
	round models.Round
	cards int
}{
	models.RoundPreFlop: {models.RoundFlop, 3},
	models.RoundFlop:    {models.RoundTurn, 1},
	models.RoundTurn:    {models.RoundRiver, 1},
}

func (r *Room) proceedToNextStreet() {
	r.cancelAITimer()
	for i := range r.players {
		if r.hasPlayer(i) {
			r.players[i].Bet = 0
		}
	}
	r.currentMaxBet = 0
	r.minRaise = r.bigBlind
	r.pending = 0
	r.turnNonce++

	if r.round == models.RoundRiver {
		r.showdown()
		return
	}
	next, ok := nextStreet[r.round]
	if !ok {
		r.log.Error().Str("round", r.round.String()).Msg("no street to advance to")
		return
	}

	dealt := r.dealCommunity(next.cards)
	if err := r.setRound(next.round); err != nil {
		return
	}
	r.activity(fmt.Sprintf("%s: %s", next.round, cardsText(dealt)))

	// Nobody left to bet against: run the board out.
	if r.countSeats(r.canAct) <= 1 {
		r.showdown()
		return
	}

	r.pending = r.seatSet(r.canAct)
	r.activeSeatIdx = r.nextPendingSeat(r.dealerSeatIdx)
	r.requestTurn()
}

func (r *Room) showdown() {
	r.runOutBoard()
	if err := r.setRound(models.RoundShowdown); err != nil {
		return
	}
	r.finishHand()
}

func cardsText(cards []models.Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}
