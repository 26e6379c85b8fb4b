package models

import "time"

// Round is the betting-round state of a room.
type Round int

const (
	RoundWaiting Round = iota
	RoundPreFlop
	RoundFlop
	RoundTurn
	RoundRiver
	RoundShowdown
	RoundHandOver
)

var roundLabels = map[Round]string{
	RoundWaiting:  "WAITING",
	RoundPreFlop:  "PRE-FLOP",
	RoundFlop:     "FLOP",
	RoundTurn:     "TURN",
	RoundRiver:    "RIVER",
	RoundShowdown: "SHOWDOWN",
	RoundHandOver: "HAND_OVER",
}

func (r Round) String() string {
	if label, ok := roundLabels[r]; ok {
		return label
	}
	return "UNKNOWN"
}

// IsBetting reports whether seats may act in this round.
func (r Round) IsBetting() bool {
	return r >= RoundPreFlop && r <= RoundRiver
}

type PlayerAction string

const (
	ActionFold  PlayerAction = "fold"
	ActionCheck PlayerAction = "check"
	ActionCall  PlayerAction = "call"
	ActionRaise PlayerAction = "raise"
	ActionAllIn PlayerAction = "allin"
)

// ParseAction validates a client-supplied action name.
func ParseAction(s string) (PlayerAction, bool) {
	switch PlayerAction(s) {
	case ActionFold, ActionCheck, ActionCall, ActionRaise, ActionAllIn:
		return PlayerAction(s), true
	}
	return "", false
}

// HandRecord is one entry of a room's hand history.
type HandRecord struct {
	HandNum     int      `json:"handNum"`
	Winners     []string `json:"winners"`
	Description string   `json:"description"`
}

type Winner struct {
	SeatIdx  int    `json:"seatIdx"`
	Name     string `json:"name"`
	Amount   int    `json:"amount"`
	HandName string `json:"handName,omitempty"`
	Cards    []Card `json:"cards,omitempty"`
}

// RevealedHand is a seat's hole cards and best five shown at showdown.
type RevealedHand struct {
	SeatIdx  int    `json:"seatIdx"`
	Name     string `json:"name"`
	Hole     []Card `json:"hole"`
	Best     []Card `json:"best"`
	HandName string `json:"handName"`
}

type Standing struct {
	SeatIdx int          `json:"seatIdx"`
	Name    string       `json:"name"`
	Type    OccupantType `json:"type"`
	Chips   int          `json:"chips"`
	BuyIn   int          `json:"buyIn"`
	Net     int          `json:"net"`
}

type MatchSummary struct {
	RoomID      string       `json:"roomId"`
	Reason      string       `json:"reason"`
	HandsPlayed int          `json:"handsPlayed"`
	TotalHands  int          `json:"totalHands"`
	Standings   []Standing   `json:"standings"`
	History     []HandRecord `json:"history"`
	EndedAt     time.Time    `json:"endedAt"`
}

// SeatView is the public per-seat projection broadcast to the room.
type SeatView struct {
	SeatIdx      int          `json:"seatIdx"`
	Type         OccupantType `json:"type"`
	Name         string       `json:"name,omitempty"`
	Chips        int          `json:"chips"`
	Bet          int          `json:"bet"`
	Folded       bool         `json:"folded"`
	Bankrupt     bool         `json:"bankrupt"`
	PendingRebuy int          `json:"pendingRebuy,omitempty"`
	HasCards     bool         `json:"hasCards"`
}

type RoomSummary struct {
	RoomID       string     `json:"roomId"`
	HostID       string     `json:"hostId"`
	CreatedAt    time.Time  `json:"createdAt"`
	Started      bool       `json:"started"`
	Closing      bool       `json:"closing"`
	TotalHands   int        `json:"totalHands"`
	HandNum      int        `json:"handNum"`
	InitialChips int        `json:"initialChips"`
	SmallBlind   int        `json:"smallBlind"`
	BigBlind     int        `json:"bigBlind"`
	Seats        []SeatView `json:"seats"`
	Members      int        `json:"members"`
}

type GameState struct {
	RoomID         string     `json:"roomId"`
	Round          string     `json:"round"`
	HandNum        int        `json:"handNum"`
	TotalHands     int        `json:"totalHands"`
	Pot            int        `json:"pot"`
	CommunityCards []Card     `json:"communityCards"`
	CurrentMaxBet  int        `json:"currentMaxBet"`
	MinRaise       int        `json:"minRaise"`
	DealerSeatIdx  int        `json:"dealerSeatIdx"`
	SBSeatIdx      int        `json:"sbSeatIdx"`
	BBSeatIdx      int        `json:"bbSeatIdx"`
	ActiveSeatIdx  int        `json:"activeSeatIdx"`
	TurnNonce      uint64     `json:"turnNonce"`
	Seats          []SeatView `json:"seats"`
}

type PrivateHand struct {
	SeatIdx int    `json:"seatIdx"`
	HandNum int    `json:"handNum"`
	Cards   []Card `json:"cards"`
}

type TurnNotice struct {
	SeatIdx   int    `json:"seatIdx"`
	TurnNonce uint64 `json:"turnNonce"`
	ToCall    int    `json:"toCall"`
	MinRaise  int    `json:"minRaise"`
}

type ActionNotice struct {
	SeatIdx int          `json:"seatIdx"`
	Name    string       `json:"name"`
	Action  PlayerAction `json:"action"`
	Amount  int          `json:"amount"`
	Text    string       `json:"text"`
}

type HandOver struct {
	HandNum        int            `json:"handNum"`
	Winners        []Winner       `json:"winners"`
	Pot            int            `json:"pot"`
	Description    string         `json:"description"`
	CommunityCards []Card         `json:"communityCards"`
	Revealed       []RevealedHand `json:"revealed,omitempty"`
	MatchComplete  bool           `json:"matchComplete"`
}

type VoicePeer struct {
	ConnID  string `json:"connId"`
	SeatIdx int    `json:"seatIdx"`
	Name    string `json:"name"`
}
