package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var ErrConnClosed = errors.New("websocket connection closed")

// Conn serializes writes to one client. gorilla/websocket allows a single concurrent writer,
// while frames come from the read loop, the ping loop and background fan-out.
type Conn struct {
	ws     *websocket.Conn
	mu     sync.Mutex
	closed bool
}

func newConn(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws}
}

// Send writes {"type":msgType,"data":data} as one text frame.
func (c *Conn) Send(msgType string, data any) error {
	payload, err := json.Marshal(struct {
		Type string `json:"type"`
		Data any    `json:"data"`
	}{Type: msgType, Data: data})
	if err != nil {
		return fmt.Errorf("marshal %s frame: %w", msgType, err)
	}
	return c.writeMessage(websocket.TextMessage, payload)
}

// sendError writes {"type":"error","error":msg}.
func (c *Conn) sendError(msg string) error {
	payload, err := json.Marshal(map[string]any{"type": "error", "error": msg})
	if err != nil {
		return err
	}
	return c.writeMessage(websocket.TextMessage, payload)
}

// writeJSON marshals v and writes it as is.
func (c *Conn) writeJSON(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.writeMessage(websocket.TextMessage, payload)
}

// writeMessage sets a short write deadline and writes a message.
func (c *Conn) writeMessage(mt int, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnClosed
	}
	_ = c.ws.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return c.ws.WriteMessage(mt, payload)
}

// ping sends a ping control frame.
func (c *Conn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnClosed
	}
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctrlTimeout))
}

// writeClose sends a close control frame with the given code and reason. Later writes fail
// with ErrConnClosed.
func (c *Conn) writeClose(code int, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	_ = c.ws.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(wsCloseAckWindow),
	)
}
