package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"dalnoboi/internal/general/logger"
	"dalnoboi/internal/general/ticket"
	"dalnoboi/internal/ports"

	"github.com/gorilla/websocket"
)

const (
	wsWriteTimeout   = 5 * time.Second
	wsCloseAckWindow = 2 * time.Second
	ctrlTimeout      = 5 * time.Second

	authWait     = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
	eventTimeout = 10 * time.Second
	maxFrameSize = 1 << 20
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// MapSocket carries map session events over a WebSocket authenticated by a session ticket.
type MapSocket struct {
	logger   *logger.Logger
	tickets  *ticket.Manager
	sessions ports.MapSessions
}

func NewMapSocket(logger *logger.Logger, tickets *ticket.Manager, sessions ports.MapSessions) *MapSocket {
	return &MapSocket{logger: logger, tickets: tickets, sessions: sessions}
}

// envelope is the inbound frame: {"type":"...","data":{...}}.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ConnectMap handles GET /ws/map/{session_id}. The first frame must be
// {"type":"auth","ticket":"..."} for that session; every later frame is a session event.
func (s *MapSocket) ConnectMap(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")
	ctx := s.logger.WithSessionID(r.Context(), sessionID)

	// 1) Upgrade HTTP -> WS
	raw, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error(ctx, "websocket_upgrade_failed", "Failed to upgrade to WebSocket", err, nil)
		return
	}
	defer raw.Close()
	conn := newConn(raw)

	// 2) Auth frame within the deadline
	raw.SetReadLimit(maxFrameSize)
	if err := raw.SetReadDeadline(time.Now().Add(authWait)); err != nil {
		s.logger.Error(ctx, "ws_set_deadline_failed", "Failed to set initial read deadline", err, nil)
		s.sendAuthError(conn, "internal server error")
		return
	}

	mt, first, err := raw.ReadMessage()
	if err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
			s.logger.Error(ctx, "ws_auth_timeout", "Client disconnected before authentication", err, nil)
		} else {
			s.logger.Error(ctx, "ws_auth_read_failed", "Failed to read auth message", err, nil)
		}
		s.sendAuthError(conn, "authentication timeout: please send auth message within 10 seconds")
		return
	}
	if mt != websocket.TextMessage {
		s.logger.Error(ctx, "ws_auth_invalid_format", "Auth message must be text format", nil, nil)
		s.sendAuthError(conn, "auth message must be in text format")
		return
	}

	claims, err := ticket.ValidateWSAuth(first, s.tickets, sessionID)
	if err != nil {
		s.logger.Error(ctx, "ws_auth_failed", "Invalid auth message or ticket", err, nil)
		if errors.Is(err, ticket.ErrSessionMismatch) {
			s.sendAuthError(conn, "ticket does not match session")
		} else {
			s.sendAuthError(conn, "authentication failed: invalid ticket")
		}
		return
	}
	driverID := claims.DriverID()

	// 3) Attach to the session
	session, err := s.sessions.Attach(ctx, sessionID, driverID, conn)
	if err != nil {
		s.logger.Error(ctx, "ws_attach_failed", "Failed to attach to map session", err, map[string]any{"driver_id": driverID})
		switch {
		case errors.Is(err, ports.ErrSessionNotFound):
			s.sendAuthError(conn, "session not found")
		case errors.Is(err, ports.ErrSessionBusy):
			s.sendAuthError(conn, "session already connected")
		default:
			s.sendAuthError(conn, "internal server error")
		}
		return
	}
	defer session.Detach()

	if err := s.sendAuthSuccess(conn, sessionID, driverID); err != nil {
		s.logger.Error(ctx, "ws_auth_success_failed", "Failed to send auth success message", err, nil)
		return
	}
	s.logger.Info(ctx, "ws_connected", "Map WebSocket connected", map[string]any{"driver_id": driverID})

	// 4) Keepalive
	_ = raw.SetReadDeadline(time.Now().Add(pongWait))
	raw.SetPongHandler(func(string) error {
		return raw.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go s.keepalive(ctx, conn, pingInterval, done)

	// 5) Read loop: one event at a time
	for {
		_ = raw.SetReadDeadline(time.Now().Add(pongWait))
		_, payload, err := raw.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				s.logger.Error(ctx, "ws_unexpected_close", "Map connection closed unexpectedly", err, map[string]any{"driver_id": driverID})
				conn.writeClose(websocket.CloseInternalServerErr, "internal error")
			} else {
				s.logger.Info(ctx, "ws_connection_closed", "Map connection closed", map[string]any{"driver_id": driverID})
				conn.writeClose(websocket.CloseNormalClosure, "bye")
			}
			return
		}

		var msg envelope
		if err := json.Unmarshal(payload, &msg); err != nil || msg.Type == "" {
			_ = conn.sendError("bad json")
			continue
		}

		s.dispatch(ctx, conn, session, msg)
	}
}

// keepalive pings the client until done is closed or a ping fails.
// A failed ping closes the socket so the read loop unblocks.
func (s *MapSocket) keepalive(ctx context.Context, conn *Conn, every time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.ping(); err != nil {
				_ = conn.ws.Close()
				if !errors.Is(err, ErrConnClosed) {
					s.logger.Error(ctx, "ws_ping_failed", "Failed to send ping", err, nil)
				}
				return
			}
		}
	}
}

func (s *MapSocket) dispatch(ctx context.Context, conn *Conn, session ports.MapSession, msg envelope) {
	evCtx, cancel := context.WithTimeout(ctx, eventTimeout)
	defer cancel()

	if err := session.Handle(evCtx, msg.Type, msg.Data); err != nil {
		s.logger.Debug(ctx, "ws_event_rejected", "Map event rejected", map[string]any{
			"event": msg.Type,
			"error": err.Error(),
		})
		_ = conn.sendError(err.Error())
	}
}

// sendAuthError sends an authentication error message to the client.
func (s *MapSocket) sendAuthError(conn *Conn, message string) {
	_ = conn.writeJSON(map[string]any{
		"type":    "auth_error",
		"error":   message,
		"success": false,
	})
	conn.writeClose(websocket.ClosePolicyViolation, "unauthorized")
}

// sendAuthSuccess confirms the ticket and session binding.
func (s *MapSocket) sendAuthSuccess(conn *Conn, sessionID, driverID string) error {
	return conn.writeJSON(map[string]any{
		"type":       "auth_success",
		"message":    "Authentication successful",
		"success":    true,
		"session_id": sessionID,
		"driver_id":  driverID,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}
