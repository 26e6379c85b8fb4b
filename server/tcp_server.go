package server

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"holdem-room/models"
)

// TCPServer speaks newline-delimited JSON: one Command per line in, one
// Response or Event per line out. Useful for bots and scripted clients.
type TCPServer struct {
	address  string
	listener net.Listener
	handler  *CommandHandler
	hub      *Hub
	log      zerolog.Logger
	mu       sync.Mutex
	conns    map[*tcpConn]struct{}
	stopChan chan struct{}
	stopOnce sync.Once
}

func NewTCPServer(address string, hub *Hub, handler *CommandHandler, logger zerolog.Logger) *TCPServer {
	return &TCPServer{
		address:  address,
		handler:  handler,
		hub:      hub,
		log:      logger,
		conns:    make(map[*tcpConn]struct{}),
		stopChan: make(chan struct{}),
	}
}

// Start listens on the configured address and serves until Stop.
func (s *TCPServer) Start() error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return s.Serve(listener)
}

// Serve accepts connections on listener until Stop.
func (s *TCPServer) Serve(listener net.Listener) error {
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()
	s.log.Info().Str("addr", listener.Addr().String()).Msg("TCP server listening")

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-s.stopChan:
				return nil
			default:
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				time.Sleep(50 * time.Millisecond)
				continue
			}
			return fmt.Errorf("accept: %w", err)
		}

		s.log.Info().Str("remote", conn.RemoteAddr().String()).Msg("client connected")
		go s.handleConnection(conn)
	}
}

func (s *TCPServer) handleConnection(conn net.Conn) {
	client := newTCPConn(conn)
	s.mu.Lock()
	s.conns[client] = struct{}{}
	s.mu.Unlock()

	connID := s.hub.Register(client, "")
	go client.writeLoop(s.log)

	defer func() {
		s.handler.Disconnect(connID)
		_ = client.Close()
		s.mu.Lock()
		delete(s.conns, client)
		s.mu.Unlock()
		s.log.Info().Str("conn", connID).Msg("client disconnected")
	}()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var response models.Response
		var cmd models.Command
		if err := json.Unmarshal(line, &cmd); err != nil {
			response = models.Response{
				Success: false,
				Error:   fmt.Sprintf("invalid JSON: %v", err),
			}
		} else {
			response = s.handler.Handle(connID, cmd)
		}
		s.sendResponse(client, response)
	}

	if err := scanner.Err(); err != nil {
		s.log.Debug().Err(err).Str("conn", connID).Msg("scanner error")
	}
}

func (s *TCPServer) sendResponse(client *tcpConn, response models.Response) {
	data, err := json.Marshal(response)
	if err != nil {
		s.log.Error().Err(err).Msg("error marshaling response")
		return
	}
	client.Send(data)
}

// Stop closes the listener and every open connection.
func (s *TCPServer) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.listener != nil {
			_ = s.listener.Close()
		}
		for client := range s.conns {
			_ = client.Close()
		}
	})
}

// tcpConn serializes writes through a buffered queue so hub emits never
// block on a slow socket.
type tcpConn struct {
	conn      net.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newTCPConn(conn net.Conn) *tcpConn {
	return &tcpConn{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
}

func (c *tcpConn) Send(data []byte) bool {
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

func (c *tcpConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

func (c *tcpConn) writeLoop(logger zerolog.Logger) {
	for {
		select {
		case data := <-c.send:
			// data may be shared with other connections; never append in place
			line := make([]byte, len(data)+1)
			copy(line, data)
			line[len(data)] = '\n'
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if _, err := c.conn.Write(line); err != nil {
				logger.Debug().Err(err).Msg("error writing line")
				_ = c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}
