package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 64 * 1024
)

// Socket message types.
const (
	MsgCanvas = "canvas"
	MsgApply  = "apply"
	MsgReport = "report"
	MsgError  = "error"
)

// SocketMessage is one frame on the canvas WebSocket. Clients send apply
// frames; the server sends canvas, report and error frames.
type SocketMessage struct {
	Type     string          `json:"type"`
	Commands []any           `json:"commands,omitempty"`
	Canvas   json.RawMessage `json:"canvas,omitempty"`
	Report   *ApplyResponse  `json:"report,omitempty"`
	Message  string          `json:"message,omitempty"`
}

func (m SocketMessage) encode() []byte {
	data, _ := json.Marshal(m)
	return data
}

type socketClient struct {
	sessionID string
	conn      *websocket.Conn
	send      chan []byte
	logger    *slog.Logger
}

func (s *Server) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return s.origin == "" || s.origin == "*" || origin == "" || origin == s.origin
		},
	}
}

// canvasSocket handles GET /api/canvas/ws. It pushes the session's canvas on
// connect and after every change, and applies command batches sent by the client.
func (s *Server) canvasSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		sessionID = sessionFrom(r)
	}

	conn, err := s.upgrader().Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied.
		s.logger.Warn("websocket upgrade failed", "session_id", sessionID, "err", err)
		return
	}

	c := &socketClient{
		sessionID: sessionID,
		conn:      conn,
		send:      make(chan []byte, 16),
		logger:    s.logger,
	}
	updates, unsubscribe := s.streams.Subscribe(sessionID)
	s.logger.Info("websocket client connected", "session_id", sessionID)

	go c.writePump(updates)

	ctx := r.Context()
	if cc, err := s.editor.Context(ctx, sessionID); err == nil {
		b, _ := json.Marshal(cc)
		c.push(SocketMessage{Type: MsgCanvas, Canvas: b})
	} else {
		c.push(SocketMessage{Type: MsgError, Message: "failed to read canvas: " + err.Error()})
	}

	c.readPump(ctx, s.editor)
	unsubscribe()
	s.logger.Info("websocket client disconnected", "session_id", sessionID)
}

// readPump applies incoming batches until the connection fails.
func (c *socketClient) readPump(ctx context.Context, editor Editor) {
	defer c.conn.Close()

	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read failed", "session_id", c.sessionID, "err", err)
			}
			return
		}

		var msg SocketMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.push(SocketMessage{Type: MsgError, Message: "invalid message format"})
			continue
		}

		switch msg.Type {
		case MsgApply:
			res, err := editor.Apply(ctx, c.sessionID, msg.Commands)
			if err != nil {
				c.push(SocketMessage{Type: MsgError, Message: "failed to apply commands: " + err.Error()})
				continue
			}
			report := newApplyResponse(res.Report, res.Elements)
			c.push(SocketMessage{Type: MsgReport, Report: &report})
		default:
			c.push(SocketMessage{Type: MsgError, Message: "unknown message type: " + msg.Type})
		}
	}
}

// writePump is the connection's only writer. It exits when updates is
// closed or a write fails.
func (c *socketClient) writePump(updates <-chan string) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case canvas, ok := <-updates:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			msg := SocketMessage{Type: MsgCanvas, Canvas: json.RawMessage(canvas)}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg.encode()); err != nil {
				return
			}
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *socketClient) push(msg SocketMessage) {
	select {
	case c.send <- msg.encode():
	default:
		c.logger.Warn("websocket client too slow, dropping message", "session_id", c.sessionID, "type", msg.Type)
	}
}
