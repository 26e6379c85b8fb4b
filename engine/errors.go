package engine

import "errors"

var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomReleased     = errors.New("room has been closed")
	ErrRoomClosing      = errors.New("match is over, room is closing")
	ErrNotMember        = errors.New("not a member of this room")
	ErrNotHost          = errors.New("only the host can do that")
	ErrInvalidSeat      = errors.New("invalid seat index")
	ErrSeatOccupied     = errors.New("seat is occupied")
	ErrSeatEmpty        = errors.New("seat is empty")
	ErrNotSeated        = errors.New("you are not seated")
	ErrMatchStarted     = errors.New("match already started")
	ErrMatchNotStarted  = errors.New("match has not started")
	ErrNotEnoughPlayers = errors.New("need at least 2 seated players")
	ErrInvalidHands     = errors.New("total hands must be between 1 and 50")
	ErrInvalidChips     = errors.New("initial chips must be at least 1000")
	ErrNoActiveHand     = errors.New("no hand in progress")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrCannotAct        = errors.New("seat cannot act")
	ErrIllegalCheck     = errors.New("cannot check - must call, raise, or fold")
	ErrUnknownAction    = errors.New("unknown action")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrHandInProgress   = errors.New("current hand still in progress")
	ErrNotBankrupt      = errors.New("rebuy is only allowed while bankrupt")
	ErrNoRebuyRequest   = errors.New("no matching rebuy request")
	ErrNotClosing       = errors.New("match is not over")
	ErrVoiceUnknownPeer = errors.New("voice peer is not registered")
	ErrBadTransition    = errors.New("illegal round transition")
)
