package server

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"holdem-room/engine"
	"holdem-room/models"
)

type decodedEvent struct {
	Event  string          `json:"event"`
	RoomID string          `json:"roomId"`
	Data   json.RawMessage `json:"data"`
}

// fakeConn records frames in memory.
type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
	full   bool
	closed bool
}

func (f *fakeConn) Send(data []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.full || f.closed {
		return false
	}
	f.frames = append(f.frames, append([]byte(nil), data...))
	return true
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakeConn) events(name string) []decodedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []decodedEvent
	for _, frame := range f.frames {
		var ev decodedEvent
		if err := json.Unmarshal(frame, &ev); err == nil && ev.Event == name {
			out = append(out, ev)
		}
	}
	return out
}

func (f *fakeConn) lastEvent(t *testing.T, name string, into interface{}) decodedEvent {
	t.Helper()
	evs := f.events(name)
	require.NotEmpty(t, evs, "no %s event", name)
	ev := evs[len(evs)-1]
	if into != nil {
		require.NoError(t, json.Unmarshal(ev.Data, into))
	}
	return ev
}

func (f *fakeConn) reset() {
	f.mu.Lock()
	f.frames = nil
	f.mu.Unlock()
}

type testGateway struct {
	hub     *Hub
	rooms   *engine.RoomManager
	tracker *ActionTracker
	handler *CommandHandler
}

func newTestGateway(t *testing.T) *testGateway {
	t.Helper()
	hub := NewHub(zerolog.Nop())
	rooms := engine.NewRoomManager(hub, engine.Options{AIDelay: time.Hour, Seed: 7})
	tracker := NewActionTracker(time.Minute)
	t.Cleanup(tracker.Stop)
	t.Cleanup(rooms.Shutdown)
	return &testGateway{
		hub:     hub,
		rooms:   rooms,
		tracker: tracker,
		handler: NewCommandHandler(rooms, hub, nil, tracker, zerolog.Nop()),
	}
}

func (g *testGateway) connect(name string) (string, *fakeConn) {
	conn := &fakeConn{}
	return g.hub.Register(conn, name), conn
}

func (g *testGateway) do(t *testing.T, connID, command string, data map[string]interface{}) models.Response {
	t.Helper()
	return g.handler.Handle(connID, models.Command{Command: command, Data: data})
}

func (g *testGateway) mustDo(t *testing.T, connID, command string, data map[string]interface{}) models.Response {
	t.Helper()
	resp := g.do(t, connID, command, data)
	require.True(t, resp.Success, "%s failed: %s", command, resp.Error)
	return resp
}
