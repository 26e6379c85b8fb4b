package engine

import "holdem-room/models"

// SeatSet is a value set of seat indices. Copies never alias.
type SeatSet uint16

func (s SeatSet) Has(idx int) bool {
	if idx < 0 || idx >= MaxSeats {
		return false
	}
	return s&(1<<uint(idx)) != 0
}

func (s SeatSet) Add(idx int) SeatSet {
	if idx < 0 || idx >= MaxSeats {
		return s
	}
	return s | 1<<uint(idx)
}

func (s SeatSet) Remove(idx int) SeatSet {
	if idx < 0 || idx >= MaxSeats {
		return s
	}
	return s &^ (1 << uint(idx))
}

func (s SeatSet) Len() int {
	n := 0
	for i := 0; i < MaxSeats; i++ {
		if s.Has(i) {
			n++
		}
	}
	return n
}

func (s SeatSet) Empty() bool {
	return s == 0
}

// Seats lists members in ascending seat order.
func (s SeatSet) Seats() []int {
	out := make([]int, 0, MaxSeats)
	for i := 0; i < MaxSeats; i++ {
		if s.Has(i) {
			out = append(out, i)
		}
	}
	return out
}

type seatFilter func(idx int) bool

func (r *Room) player(idx int) *models.PlayerState {
	if idx < 0 || idx >= MaxSeats {
		return nil
	}
	return r.players[idx]
}

func (r *Room) hasPlayer(idx int) bool {
	return r.seats[idx].Occupied() && r.players[idx] != nil
}

// isEligible: may be dealt into a hand.
func (r *Room) isEligible(idx int) bool {
	if idx < 0 || idx >= MaxSeats || !r.hasPlayer(idx) {
		return false
	}
	p := r.players[idx]
	return !p.Bankrupt && p.Chips > 0
}

// isInHand: still contests the pot, possibly all-in.
func (r *Room) isInHand(idx int) bool {
	if idx < 0 || idx >= MaxSeats || !r.hasPlayer(idx) {
		return false
	}
	p := r.players[idx]
	return !p.Folded && !p.Bankrupt
}

// canAct: in the hand with chips behind.
func (r *Room) canAct(idx int) bool {
	return r.isInHand(idx) && r.players[idx].Chips > 0
}

func (r *Room) countSeats(filter seatFilter) int {
	count := 0
	for i := 0; i < MaxSeats; i++ {
		if filter(i) {
			count++
		}
	}
	return count
}

func (r *Room) seatSet(filter seatFilter) SeatSet {
	var s SeatSet
	for i := 0; i < MaxSeats; i++ {
		if filter(i) {
			s = s.Add(i)
		}
	}
	return s
}

func (r *Room) occupiedCount() int {
	return r.countSeats(func(i int) bool { return r.seats[i].Occupied() })
}

// seatAtActiveOffset walks clockwise from `from`, counting only eligible
// seats, and returns the seat reached after `offset` of them. The walk is
// capped so it terminates even when nothing is eligible, returning -1.
func (r *Room) seatAtActiveOffset(from, offset int) int {
	if offset <= 0 {
		return -1
	}
	count := 0
	idx := from
	for i := 0; i < 3*MaxSeats; i++ {
		idx = (idx + 1 + MaxSeats) % MaxSeats
		if r.isEligible(idx) {
			count++
			if count == offset {
				return idx
			}
		}
	}
	return -1
}

// eligibleFrom lists eligible seats clockwise starting left of `from`.
func (r *Room) eligibleFrom(from int) []int {
	out := make([]int, 0, MaxSeats)
	for k := 1; k <= MaxSeats; k++ {
		idx := (from + k + MaxSeats) % MaxSeats
		if r.isEligible(idx) {
			out = append(out, idx)
		}
	}
	return out
}

// nextPendingSeat returns the first pending seat clockwise after `from`,
// wrapping back to `from` itself, or -1.
func (r *Room) nextPendingSeat(from int) int {
	for k := 1; k <= MaxSeats; k++ {
		idx := (from + k + MaxSeats) % MaxSeats
		if r.pending.Has(idx) {
			return idx
		}
	}
	return -1
}

// prunePending drops seats that can no longer act.
func (r *Room) prunePending() {
	for _, idx := range r.pending.Seats() {
		if !r.canAct(idx) {
			r.pending = r.pending.Remove(idx)
		}
	}
}

// reopenAction re-obligates every actable seat except the raiser.
func (r *Room) reopenAction(raiser int) {
	r.pending = r.seatSet(r.canAct).Remove(raiser)
}

func (r *Room) seatOf(connID string) int {
	if connID == "" {
		return -1
	}
	for i := range r.seats {
		if r.seats[i].IsHuman() && r.seats[i].ConnID == connID {
			return i
		}
	}
	return -1
}

func validSeat(idx int) bool {
	return idx >= 0 && idx < MaxSeats
}
