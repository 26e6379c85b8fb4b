package models

type OccupantType string

const (
	OccupantNone  OccupantType = ""
	OccupantHuman OccupantType = "human"
	OccupantAI    OccupantType = "ai"
)

// Seat is a stable table position. ConnID is set only for human occupants.
type Seat struct {
	Index    int          `json:"seatIdx"`
	Occupant OccupantType `json:"type"`
	ConnID   string       `json:"connId,omitempty"`
	Name     string       `json:"name,omitempty"`
}

func (s *Seat) Occupied() bool {
	return s.Occupant != OccupantNone
}

func (s *Seat) IsAI() bool {
	return s.Occupant == OccupantAI
}

func (s *Seat) IsHuman() bool {
	return s.Occupant == OccupantHuman
}

func (s *Seat) Clear() {
	s.Occupant = OccupantNone
	s.ConnID = ""
	s.Name = ""
}

// PlayerState is the financial and in-hand state of an occupied seat.
type PlayerState struct {
	Chips        int    `json:"chips"`
	Bet          int    `json:"bet"`
	Folded       bool   `json:"folded"`
	Bankrupt     bool   `json:"bankrupt"`
	Hand         []Card `json:"-"`
	BuyIn        int    `json:"buyIn"`
	PendingRebuy int    `json:"pendingRebuy"`
}

func NewPlayerState(chips int) *PlayerState {
	return &PlayerState{
		Chips: chips,
		BuyIn: chips,
		Hand:  make([]Card, 0, 2),
	}
}

// ResetForHand clears per-hand state. A player with no chips left sits the
// hand out as folded and bankrupt.
func (p *PlayerState) ResetForHand() {
	p.Bet = 0
	p.Hand = make([]Card, 0, 2)
	broke := p.Chips <= 0
	p.Folded = broke
	p.Bankrupt = broke
}

// PlaceBet moves up to amount chips from the stack into the current-street
// bet and returns what was actually committed.
func (p *PlayerState) PlaceBet(amount int) int {
	if amount <= 0 {
		return 0
	}
	if amount > p.Chips {
		amount = p.Chips
	}
	p.Chips -= amount
	p.Bet += amount
	return amount
}

func (p *PlayerState) AddChips(amount int) {
	p.Chips += amount
}

// ApplyRebuy credits a pending rebuy to the stack and the buy-in total.
func (p *PlayerState) ApplyRebuy() int {
	amount := p.PendingRebuy
	if amount <= 0 {
		return 0
	}
	p.Chips += amount
	p.BuyIn += amount
	p.PendingRebuy = 0
	p.Bankrupt = false
	return amount
}
