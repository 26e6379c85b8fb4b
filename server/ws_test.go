package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"holdem-room/models"
)

type stubHistory struct {
	matches []models.MatchSummary
	err     error
	roomID  string
	limit   int
}

func (s *stubHistory) RecentMatches(ctx context.Context, roomID string, limit int) ([]models.MatchSummary, error) {
	s.roomID, s.limit = roomID, limit
	return s.matches, s.err
}

func newTestRouter(t *testing.T, history HistorySource) (*testGateway, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	g := newTestGateway(t)
	gw := &Gateway{
		Hub:     g.hub,
		Handler: g.handler,
		Rooms:   g.rooms,
		History: history,
		Log:     zerolog.Nop(),
	}
	return g, gw.NewRouter()
}

func get(router http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestRouter_HealthAndRooms(t *testing.T) {
	g, router := newTestRouter(t, nil)

	rec := get(router, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	g.rooms.GetOrCreate("alpha")
	rec = get(router, "/api/rooms")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Rooms []models.RoomSummary `json:"rooms"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Rooms, 1)
	assert.Equal(t, "alpha", body.Rooms[0].RoomID)

	assert.Equal(t, http.StatusOK, get(router, "/api/rooms/alpha").Code)
	assert.Equal(t, http.StatusNotFound, get(router, "/api/rooms/nope").Code)
}

type stubCheck struct{ err error }

func (s stubCheck) HealthCheck(ctx context.Context) error { return s.err }

func TestRouter_HealthReportsFailedBackends(t *testing.T) {
	gin.SetMode(gin.TestMode)
	g := newTestGateway(t)
	gw := &Gateway{
		Hub:     g.hub,
		Handler: g.handler,
		Rooms:   g.rooms,
		Checks:  map[string]HealthChecker{"database": stubCheck{}, "redis": stubCheck{}},
		Log:     zerolog.Nop(),
	}

	assert.Equal(t, http.StatusOK, get(gw.NewRouter(), "/health").Code)

	gw.Checks["redis"] = stubCheck{err: errors.New("connection refused")}
	rec := get(gw.NewRouter(), "/health")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body struct {
		Status string            `json:"status"`
		Failed map[string]string `json:"failed"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, map[string]string{"redis": "connection refused"}, body.Failed)
}

func TestRouter_History(t *testing.T) {
	_, disabled := newTestRouter(t, nil)
	assert.Equal(t, http.StatusServiceUnavailable, get(disabled, "/api/history/alpha").Code)

	history := &stubHistory{matches: []models.MatchSummary{{RoomID: "alpha", Reason: "All hands played"}}}
	_, router := newTestRouter(t, history)

	rec := get(router, "/api/history/alpha?limit=3")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alpha", history.roomID)
	assert.Equal(t, 3, history.limit)
	assert.Contains(t, rec.Body.String(), "All hands played")

	assert.Equal(t, http.StatusBadRequest, get(router, "/api/history/alpha?limit=x").Code)
	assert.Equal(t, http.StatusBadRequest, get(router, "/api/history/bad%20id").Code)

	history.err = errors.New("db down")
	assert.Equal(t, http.StatusInternalServerError, get(router, "/api/history/alpha").Code)
}

type stubArchive struct {
	stubHistory
	hands []models.HandRecord
}

func (s *stubArchive) Hands(ctx context.Context, roomID string) ([]models.HandRecord, error) {
	s.roomID = roomID
	return s.hands, s.err
}

func TestRouter_Hands(t *testing.T) {
	_, cacheOnly := newTestRouter(t, &stubHistory{})
	assert.Equal(t, http.StatusServiceUnavailable, get(cacheOnly, "/api/history/alpha/hands").Code)

	archive := &stubArchive{hands: []models.HandRecord{{HandNum: 1, Winners: []string{"Ann"}, Description: "Ann wins 150 uncontested"}}}
	_, router := newTestRouter(t, archive)

	rec := get(router, "/api/history/alpha/hands")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alpha", archive.roomID)
	assert.Contains(t, rec.Body.String(), "Ann wins 150 uncontested")

	assert.Equal(t, http.StatusBadRequest, get(router, "/api/history/bad%20id/hands").Code)
}

func TestServeWS_RejectsBadName(t *testing.T) {
	_, router := newTestRouter(t, nil)
	rec := get(router, "/ws?name=%3Cscript%3E")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServeWS_JoinOverSocket(t *testing.T) {
	g, router := newTestRouter(t, nil)
	srv := httptest.NewServer(router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?name=Ann"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(models.Command{Command: "room.join", Data: map[string]interface{}{"roomId": "alpha"}}))

	var sawResponse, sawRoomUpdate bool
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for !(sawResponse && sawRoomUpdate) {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var frame map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &frame))
		if frame["command"] == "room.join" {
			assert.Equal(t, true, frame["success"])
			sawResponse = true
		}
		if frame["event"] == "roomUpdate" {
			assert.Equal(t, "alpha", frame["roomId"])
			sawRoomUpdate = true
		}
	}

	// Garbage still gets an answer.
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{nope")))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var resp models.Response
		if json.Unmarshal(data, &resp) == nil && strings.HasPrefix(resp.Error, "invalid JSON") {
			break
		}
	}

	conn.Close()
	require.Eventually(t, func() bool { return g.rooms.Count() == 0 && g.hub.ClientCount() == 0 },
		2*time.Second, 10*time.Millisecond, "closing the socket disconnects and releases the room")
}
