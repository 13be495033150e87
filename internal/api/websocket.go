package api

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"askflow/backend/internal/model"
)

const (
	wsWriteWait       = 10 * time.Second
	wsMaxPayloadBytes = 64 << 10
)

// wsFrame is the envelope of every server-to-client WebSocket message.
type wsFrame struct {
	Event model.EventType `json:"event"`
	Data  any             `json:"data"`
}

// wsClientFrame is a client-to-server message sent after the exchange request.
type wsClientFrame struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
}

// WebSocketSink writes exchange events as JSON text frames. gorilla/websocket
// allows one concurrent writer, so every write holds mu.
type WebSocketSink struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func NewWebSocketSink(conn *websocket.Conn) *WebSocketSink {
	return &WebSocketSink{conn: conn}
}

func (s *WebSocketSink) Emit(ev model.Event) error {
	msg, err := json.Marshal(wsFrame{Event: ev.Type, Data: ev.Data})
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return s.conn.WriteMessage(websocket.TextMessage, msg)
}

// KeepAlive sends a ping control frame.
func (s *WebSocketSink) KeepAlive() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait))
}

// Close sends a normal closure frame.
func (s *WebSocketSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(wsWriteWait))
}
