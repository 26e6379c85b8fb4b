package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"holdem-room/engine"
	"holdem-room/internal/middleware"
	"holdem-room/internal/validation"
	"holdem-room/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 256
)

// upgrader configures the WebSocket upgrader
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HistorySource serves archived matches over HTTP.
type HistorySource interface {
	RecentMatches(ctx context.Context, roomID string, limit int) ([]models.MatchSummary, error)
}

// HandSource serves the per-hand archive. Only the SQL archive keeps one.
type HandSource interface {
	Hands(ctx context.Context, roomID string) ([]models.HandRecord, error)
}

// HealthChecker is a backend /health reports on.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Gateway bundles the pieces the HTTP and WebSocket endpoints need.
type Gateway struct {
	Hub        *Hub
	Handler    *CommandHandler
	Rooms      *engine.RoomManager
	History    HistorySource // nil when no archive is configured
	Checks     map[string]HealthChecker
	HTTPLimit  *middleware.RateLimiter
	Production bool
	Log        zerolog.Logger
}

// NewRouter builds the gin engine: health, room listing, history and /ws.
func (g *Gateway) NewRouter() *gin.Engine {
	if g.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOriginFunc:  func(origin string) bool { return true },
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Accept", "Origin"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", g.handleHealth)

	api := r.Group("/api")
	if g.HTTPLimit != nil {
		api.Use(g.HTTPLimit.Gin())
	}
	api.GET("/rooms", g.handleListRooms)
	api.GET("/rooms/:roomId", g.handleGetRoom)
	api.GET("/history/:roomId", g.handleHistory)
	api.GET("/history/:roomId/hands", g.handleHands)

	r.GET("/ws", g.ServeWS)
	return r
}

func (g *Gateway) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	failed := gin.H{}
	for name, check := range g.Checks {
		if err := check.HealthCheck(ctx); err != nil {
			g.Log.Warn().Err(err).Str("backend", name).Msg("health check failed")
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "failed": failed})
		return
	}
	c.String(http.StatusOK, "ok")
}

func (g *Gateway) handleListRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": g.Rooms.ListRooms()})
}

func (g *Gateway) handleGetRoom(c *gin.Context) {
	room, err := g.Rooms.Get(c.Param("roomId"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, room.Summary())
}

func (g *Gateway) handleHistory(c *gin.Context) {
	if g.History == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "match history is not enabled"})
		return
	}
	roomID := c.Param("roomId")
	if err := validation.ValidateRoomID(roomID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}

	matches, err := g.History.RecentMatches(c.Request.Context(), roomID, limit)
	if err != nil {
		g.Log.Error().Err(err).Str("room", roomID).Msg("failed to load match history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"roomId": roomID, "matches": matches})
}

func (g *Gateway) handleHands(c *gin.Context) {
	hands, ok := g.History.(HandSource)
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "hand archive is not enabled"})
		return
	}
	roomID := c.Param("roomId")
	if err := validation.ValidateRoomID(roomID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	records, err := hands.Hands(c.Request.Context(), roomID)
	if err != nil {
		g.Log.Error().Err(err).Str("room", roomID).Msg("failed to load hand archive")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"roomId": roomID, "hands": records})
}

// ServeWS upgrades the request and runs the connection's pumps. The
// optional name query parameter becomes the default display name.
func (g *Gateway) ServeWS(c *gin.Context) {
	name := c.Query("name")
	if name != "" {
		clean, err := validation.DisplayName(name)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		name = clean
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		g.Log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := newWSConn(conn)
	connID := g.Hub.Register(client, name)
	g.Log.Info().Str("conn", connID).Str("remote", c.ClientIP()).Msg("websocket connected")

	go client.writePump()
	go g.readPump(connID, client)
}

func (g *Gateway) readPump(connID string, client *wsConn) {
	defer func() {
		g.Handler.Disconnect(connID)
		_ = client.Close()
	}()

	client.conn.SetReadLimit(maxMessageSize)
	_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				g.Log.Debug().Err(err).Str("conn", connID).Msg("websocket read error")
			}
			return
		}

		var cmd models.Command
		var response models.Response
		if err := json.Unmarshal(message, &cmd); err != nil {
			response = models.Response{Success: false, Error: "invalid JSON: " + err.Error()}
		} else {
			response = g.Handler.Handle(connID, cmd)
		}

		data, err := json.Marshal(response)
		if err != nil {
			g.Log.Error().Err(err).Msg("failed to encode response")
			continue
		}
		client.Send(data)
	}
}

// wsConn is the hub's view of a gorilla connection.
type wsConn struct {
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newWSConn(conn *websocket.Conn) *wsConn {
	return &wsConn{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
}

func (c *wsConn) Send(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *wsConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

func (c *wsConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Close()
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(writeWait))
			return
		}
	}
}
