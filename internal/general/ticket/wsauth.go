package ticket

import (
	"encoding/json"
	"errors"
	"strings"
)

var ErrBadAuthMsg = errors.New("invalid auth message")

// AuthMessage is the first frame a client sends on the map socket:
// { "type":"auth", "ticket":"<jwt>" }. A "Bearer " prefix is tolerated.
type AuthMessage struct {
	Type   string `json:"type"`
	Ticket string `json:"ticket"`
}

// ValidateWSAuth parses the auth frame and checks the ticket belongs to sessionID.
func ValidateWSAuth(frame []byte, mgr *Manager, sessionID string) (*Claims, error) {
	var msg AuthMessage
	if err := json.Unmarshal(frame, &msg); err != nil {
		return nil, ErrBadAuthMsg
	}
	if strings.ToLower(strings.TrimSpace(msg.Type)) != "auth" {
		return nil, ErrBadAuthMsg
	}

	raw := strings.TrimSpace(msg.Ticket)
	if len(raw) > 7 && strings.EqualFold(raw[:7], "Bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}
	if raw == "" {
		return nil, ErrBadAuthMsg
	}

	claims, err := mgr.ParseAndValidate(raw)
	if err != nil {
		return nil, err
	}
	if claims.SessionID != sessionID {
		return nil, ErrSessionMismatch
	}
	return claims, nil
}
