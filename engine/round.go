package engine

import (
	"fmt"

	"holdem-room/models"
)

var roundTransitions = map[models.Round][]models.Round{
	models.RoundWaiting:  {models.RoundPreFlop},
	models.RoundPreFlop:  {models.RoundFlop, models.RoundShowdown, models.RoundHandOver, models.RoundWaiting},
	models.RoundFlop:     {models.RoundTurn, models.RoundShowdown, models.RoundHandOver, models.RoundWaiting},
	models.RoundTurn:     {models.RoundRiver, models.RoundShowdown, models.RoundHandOver, models.RoundWaiting},
	models.RoundRiver:    {models.RoundShowdown, models.RoundHandOver, models.RoundWaiting},
	models.RoundShowdown: {models.RoundHandOver, models.RoundWaiting},
	models.RoundHandOver: {models.RoundPreFlop, models.RoundWaiting},
}

func canTransition(from, to models.Round) bool {
	for _, next := range roundTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// setRound moves the state machine, rejecting moves outside the table.
func (r *Room) setRound(to models.Round) error {
	if r.round == to {
		return nil
	}
	if !canTransition(r.round, to) {
		r.log.Error().Str("from", r.round.String()).Str("to", to.String()).Msg("rejected round transition")
		return fmt.Errorf("%w: %s -> %s", ErrBadTransition, r.round, to)
	}
	r.round = to
	return nil
}
