package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"holdem-room/models"
)

// SplitPot divides pot among winner seats by floor division. Odd chips go
// one at a time to winners clockwise from the dealer's left, so the shares
// always sum to pot.
func SplitPot(pot int, winners []int, dealerSeatIdx int) map[int]int {
	shares := make(map[int]int, len(winners))
	if len(winners) == 0 || pot <= 0 {
		return shares
	}
	each := pot / len(winners)
	for _, idx := range winners {
		shares[idx] = each
	}
	remainder := pot - each*len(winners)
	for k := 1; remainder > 0 && k <= MaxSeats; k++ {
		idx := (dealerSeatIdx + k) % MaxSeats
		if _, ok := shares[idx]; ok {
			shares[idx]++
			remainder--
		}
	}
	return shares
}

type seatEval struct {
	seat int
	eval HandEvaluation
}

// finishHand settles the pot and moves the room to HAND_OVER.
func (r *Room) finishHand() {
	r.cancelAITimer()
	r.pending = 0
	r.activeSeatIdx = -1

	pot := r.pot
	contenders := r.seatSet(r.isInHand).Seats()
	var winners []models.Winner
	var revealed []models.RevealedHand
	var description string

	switch len(contenders) {
	case 0:
		// Unreachable in normal play; resolve anyway so the room can move on.
		if r.lastActorSeat >= 0 && r.hasPlayer(r.lastActorSeat) {
			idx := r.lastActorSeat
			r.players[idx].AddChips(pot)
			winners = []models.Winner{{SeatIdx: idx, Name: r.seats[idx].Name, Amount: pot}}
			description = fmt.Sprintf("%s takes the pot of %d", r.seats[idx].Name, pot)
		} else {
			description = "No winner"
			r.log.Warn().Int("hand", r.handNum).Int("pot", pot).Msg("hand ended with no contenders")
		}

	case 1:
		idx := contenders[0]
		r.players[idx].AddChips(pot)
		winners = []models.Winner{{SeatIdx: idx, Name: r.seats[idx].Name, Amount: pot}}
		description = fmt.Sprintf("%s wins %d uncontested", r.seats[idx].Name, pot)

	default:
		r.runOutBoard()
		winners, revealed, description = r.showdownWinners(contenders, pot)
	}

	names := make([]string, len(winners))
	for i, w := range winners {
		names[i] = w.Name
	}
	record := models.HandRecord{HandNum: r.handNum, Winners: names, Description: description}
	r.history = append(r.history, record)
	r.pot = 0

	if err := r.setRound(models.RoundHandOver); err != nil {
		return
	}

	for i := range r.players {
		if r.hasPlayer(i) {
			p := r.players[i]
			if p.Chips <= 0 && p.PendingRebuy == 0 {
				p.Bankrupt = true
			}
		}
	}

	r.log.Info().Int("hand", r.handNum).Int("pot", pot).Strs("winners", names).Msg("hand settled")
	r.emitRoom(EventHandOver, models.HandOver{
		HandNum:        r.handNum,
		Winners:        winners,
		Pot:            pot,
		Description:    description,
		CommunityCards: append([]models.Card(nil), r.communityCards...),
		Revealed:       revealed,
		MatchComplete:  r.handNum >= r.totalHands,
	})
	r.activity(description)
	r.broadcastState()

	roomID := r.id
	r.record(func(ctx context.Context, rec MatchRecorder) error {
		return rec.RecordHand(ctx, roomID, record)
	})
}

func (r *Room) showdownWinners(contenders []int, pot int) ([]models.Winner, []models.RevealedHand, string) {
	evals := make([]seatEval, 0, len(contenders))
	revealed := make([]models.RevealedHand, 0, len(contenders))
	for _, idx := range contenders {
		p := r.players[idx]
		all := append(append([]models.Card{}, p.Hand...), r.communityCards...)
		eval, err := GetBestHand(all)
		if err != nil {
			r.log.Error().Err(err).Int("seat", idx).Msg("could not evaluate hand")
			continue
		}
		evals = append(evals, seatEval{seat: idx, eval: eval})
		revealed = append(revealed, models.RevealedHand{
			SeatIdx:  idx,
			Name:     r.seats[idx].Name,
			Hole:     append([]models.Card(nil), p.Hand...),
			Best:     eval.Cards,
			HandName: eval.Rank.String(),
		})
	}
	if len(evals) == 0 {
		return nil, revealed, "No winner"
	}

	sort.SliceStable(evals, func(i, j int) bool {
		return CompareHands(evals[i].eval, evals[j].eval) > 0
	})
	best := evals[0].eval
	tied := []seatEval{}
	seats := []int{}
	for _, se := range evals {
		if CompareHands(se.eval, best) == 0 {
			tied = append(tied, se)
			seats = append(seats, se.seat)
		}
	}

	shares := SplitPot(pot, seats, r.dealerSeatIdx)
	winners := make([]models.Winner, 0, len(tied))
	names := make([]string, 0, len(tied))
	for _, se := range tied {
		amount := shares[se.seat]
		r.players[se.seat].AddChips(amount)
		name := r.seats[se.seat].Name
		names = append(names, name)
		winners = append(winners, models.Winner{
			SeatIdx:  se.seat,
			Name:     name,
			Amount:   amount,
			HandName: se.eval.Rank.String(),
			Cards:    se.eval.Cards,
		})
	}

	var description string
	if len(winners) == 1 {
		description = fmt.Sprintf("%s wins %d with %s", names[0], pot, best.Rank)
	} else {
		description = fmt.Sprintf("%s split %d with %s", strings.Join(names, " & "), pot, best.Rank)
	}
	return winners, revealed, description
}

// standings lists every occupied seat by final stack, largest first.
func (r *Room) standings() []models.Standing {
	out := make([]models.Standing, 0, MaxSeats)
	for i := range r.seats {
		if !r.hasPlayer(i) {
			continue
		}
		p := r.players[i]
		out = append(out, models.Standing{
			SeatIdx: i,
			Name:    r.seats[i].Name,
			Type:    r.seats[i].Occupant,
			Chips:   p.Chips,
			BuyIn:   p.BuyIn,
			Net:     p.Chips - p.BuyIn,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Chips > out[j].Chips
	})
	return out
}

func (r *Room) matchSummary(reason string) models.MatchSummary {
	return models.MatchSummary{
		RoomID:      r.id,
		Reason:      reason,
		HandsPlayed: r.handNum,
		TotalHands:  r.totalHands,
		Standings:   r.standings(),
		History:     append([]models.HandRecord(nil), r.history...),
		EndedAt:     time.Now(),
	}
}
