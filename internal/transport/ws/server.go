// Package ws provides the websocket chat transport.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/xiaot623/clompanion/internal/config"
	"github.com/xiaot623/clompanion/internal/domain"
	"github.com/xiaot623/clompanion/internal/service"
)

const sendBufferSize = 16

// Server handles websocket connections.
type Server struct {
	cfg      *config.Config
	service  *service.Service
	upgrader websocket.Upgrader
}

// NewServer creates a new websocket server. Unset timeouts fall back to defaults.
func NewServer(cfg *config.Config, svc *service.Service) *Server {
	wsCfg := *cfg
	if wsCfg.PingInterval <= 0 {
		wsCfg.PingInterval = 30 * time.Second
	}
	if wsCfg.WriteTimeout <= 0 {
		wsCfg.WriteTimeout = 10 * time.Second
	}
	if wsCfg.ReadTimeout <= 0 {
		wsCfg.ReadTimeout = 60 * time.Second
	}
	if wsCfg.MaxMessageSize <= 0 {
		wsCfg.MaxMessageSize = 65536
	}

	return &Server{
		cfg:     &wsCfg,
		service: svc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// RegisterRoutes registers the websocket endpoint.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws", s.HandleWebSocket)
}

// connection is one client socket. Only readPump sends on send.
type connection struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

// HandleWebSocket upgrades the request and serves chat frames until the client leaves.
func (s *Server) HandleWebSocket(c echo.Context) error {
	ws, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Printf("Failed to upgrade WebSocket: %v", err)
		return err
	}

	conn := &connection{
		conn: ws,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}
	ws.SetReadLimit(s.cfg.MaxMessageSize)

	go s.writePump(conn)
	go s.readPump(conn)

	return nil
}

// readPump handles frames one at a time, so turns on a connection never overlap.
func (s *Server) readPump(conn *connection) {
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		close(conn.send)
	}()

	conn.conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	conn.conn.SetPongHandler(func(string) error {
		conn.conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		return nil
	})

	for {
		_, message, err := conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}

		if !s.handleMessage(ctx, conn, message) {
			return
		}
		conn.conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	}
}

// writePump owns all writes on the socket, including pings.
func (s *Server) writePump(conn *connection) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		close(conn.done)
		conn.conn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.send:
			conn.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if !ok {
				conn.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := conn.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("Failed to write message: %v", err)
				return
			}

		case <-ticker.C:
			conn.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := conn.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage dispatches one frame. It returns false once the writer is gone.
func (s *Server) handleMessage(ctx context.Context, conn *connection, data []byte) bool {
	var frame ChatFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return s.sendError(conn, "", ErrorCodeInvalidMessage, "invalid JSON message")
	}

	switch frame.Type {
	case TypeChat:
		return s.handleChat(ctx, conn, &frame)
	default:
		return s.sendError(conn, frame.RequestID, ErrorCodeInvalidMessage, "unknown message type: "+frame.Type)
	}
}

func (s *Server) handleChat(ctx context.Context, conn *connection, frame *ChatFrame) bool {
	reply, err := s.service.HandleMessage(ctx, service.ChatRequest{
		Message:   frame.Message,
		SessionID: frame.SessionID,
	})
	if err != nil {
		code, msg := classify(err)
		return s.sendError(conn, frame.RequestID, code, msg)
	}

	return s.sendJSON(conn, ReplyFrame{
		Type:      TypeReply,
		RequestID: frame.RequestID,
		SessionID: reply.SessionID,
		Response:  reply.Response,
		MessageID: reply.MessageID,
		Ts:        time.Now().UnixMilli(),
	})
}

// classify maps a service error onto an error code and a client-safe message.
func classify(err error) (string, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return ErrorCodeInvalidInput, strings.TrimPrefix(err.Error(), domain.ErrInvalidInput.Error()+": ")
	case errors.Is(err, domain.ErrSessionNotFound):
		return ErrorCodeNotFound, "session not found"
	case errors.Is(err, domain.ErrUpstream):
		log.Printf("ERROR: websocket chat turn: %v", err)
		return ErrorCodeUpstream, "failed to generate a response"
	default:
		log.Printf("ERROR: websocket chat turn: %v", err)
		return ErrorCodeInternal, "internal server error"
	}
}

func (s *Server) sendError(conn *connection, requestID, code, msg string) bool {
	return s.sendJSON(conn, ErrorFrame{
		Type:      TypeError,
		RequestID: requestID,
		Code:      code,
		Error:     msg,
	})
}

func (s *Server) sendJSON(conn *connection, v interface{}) bool {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("Failed to marshal frame: %v", err)
		return true
	}

	select {
	case conn.send <- data:
		return true
	case <-conn.done:
		return false
	}
}
