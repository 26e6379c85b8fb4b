package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"holdem-room/models"
)

type sentEvent struct {
	roomID  string
	connID  string
	event   string
	payload interface{}
}

// recordingEmitter captures everything a room emits.
type recordingEmitter struct {
	mu              sync.Mutex
	events          []sentEvent
	connected       map[string]bool
	removed         []string
	participantsErr error
}

func newRecordingEmitter() *recordingEmitter {
	return &recordingEmitter{connected: make(map[string]bool)}
}

func (e *recordingEmitter) EmitToRoom(roomID, event string, payload interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, sentEvent{roomID: roomID, event: event, payload: payload})
}

func (e *recordingEmitter) EmitToParticipant(connID, event string, payload interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, sentEvent{connID: connID, event: event, payload: payload})
}

func (e *recordingEmitter) ConnectedParticipants(ctx context.Context, roomID string) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.participantsErr != nil {
		return nil, e.participantsErr
	}
	ids := make([]string, 0, len(e.connected))
	for id, ok := range e.connected {
		if ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (e *recordingEmitter) IsConnected(connID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.connected[connID]
}

func (e *recordingEmitter) RemoveFromRoom(roomID, connID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.removed = append(e.removed, connID)
}

func (e *recordingEmitter) setConnected(connID string, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.connected[connID] = ok
}

func (e *recordingEmitter) named(event string) []sentEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []sentEvent
	for _, ev := range e.events {
		if ev.event == event {
			out = append(out, ev)
		}
	}
	return out
}

func (e *recordingEmitter) last(event string) (sentEvent, bool) {
	evs := e.named(event)
	if len(evs) == 0 {
		return sentEvent{}, false
	}
	return evs[len(evs)-1], true
}

func (e *recordingEmitter) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.events)
}

// manualScheduler stands in for time.AfterFunc; tests fire timers by hand.
type manualScheduler struct {
	mu     sync.Mutex
	timers []*manualTimer
}

type manualTimer struct {
	s       *manualScheduler
	f       func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTimer{s: s, f: f}
	s.timers = append(s.timers, t)
	return t
}

// fireNext runs the oldest live timer and reports whether one ran.
func (s *manualScheduler) fireNext() bool {
	s.mu.Lock()
	var next *manualTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			next = t
			break
		}
	}
	if next != nil {
		next.fired = true
	}
	s.mu.Unlock()
	if next == nil {
		return false
	}
	next.f()
	return true
}

func (s *manualScheduler) live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func (s *manualScheduler) latest() *manualTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.timers) == 0 {
		return nil
	}
	return s.timers[len(s.timers)-1]
}

type testRoom struct {
	*Room
	emitter     *recordingEmitter
	sched       *manualScheduler
	releasedIDs []string
}

func newTestRoom(t *testing.T, opts Options) *testRoom {
	t.Helper()
	tr := &testRoom{emitter: newRecordingEmitter(), sched: &manualScheduler{}}
	if opts.Seed == 0 {
		opts.Seed = 42
	}
	opts.AfterFunc = tr.sched.AfterFunc
	tr.Room = NewRoom("test-room", tr.emitter, opts, func(id string, _ *Room) {
		tr.releasedIDs = append(tr.releasedIDs, id)
	})
	return tr
}

// seatHumans joins c0..cN-1 and seats them at the given seats; c0 is host.
func (tr *testRoom) seatHumans(t *testing.T, seats ...int) {
	t.Helper()
	for i, seat := range seats {
		connID := fmt.Sprintf("c%d", i)
		tr.emitter.setConnected(connID, true)
		require.NoError(t, tr.Join(connID, fmt.Sprintf("Player %d", i)))
		require.NoError(t, tr.TakeSeat(connID, seat))
	}
}

// stackDeck makes every following hand deal exactly these cards.
func (tr *testRoom) stackDeck(t *testing.T, cards ...string) {
	t.Helper()
	parsed := make([]models.Card, len(cards))
	for i, c := range cards {
		card, err := models.ParseCard(c)
		require.NoError(t, err)
		parsed[i] = card
	}
	tr.mu.Lock()
	tr.newDeck = func() *models.Deck { return models.NewStackedDeck(parsed) }
	tr.mu.Unlock()
}

func (tr *testRoom) totalChips() int {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	total := tr.pot
	for i := range tr.players {
		if tr.hasPlayer(i) {
			total += tr.players[i].Chips
		}
	}
	return total
}

func (tr *testRoom) chips(idx int) int {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return tr.players[idx].Chips
}

// pendingActable checks that every pending seat can still act.
func (tr *testRoom) pendingActable() bool {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	for _, idx := range tr.pending.Seats() {
		if !tr.canAct(idx) {
			return false
		}
	}
	return true
}

func mustCards(t *testing.T, cards ...string) []models.Card {
	t.Helper()
	out := make([]models.Card, len(cards))
	for i, c := range cards {
		card, err := models.ParseCard(c)
		require.NoError(t, err)
		out[i] = card
	}
	return out
}
