package ports

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	ErrSessionNotFound = errors.New("map session not found")
	ErrSessionBusy     = errors.New("map session already has a client attached")
)

// FrameSender delivers one typed frame to the connected client.
type FrameSender interface {
	Send(msgType string, data any) error
}

// MapSession is one driver's live map. Events are processed one at a time.
type MapSession interface {
	ID() string
	// Handle applies one inbound event. A returned error is reported to the client and the
	// session keeps running.
	Handle(ctx context.Context, msgType string, data json.RawMessage) error
	// Detach releases the client connection; the session survives until it idles out.
	Detach()
}

// MapSessions attaches clients to sessions created through the HTTP API.
type MapSessions interface {
	Attach(ctx context.Context, sessionID, driverID string, out FrameSender) (MapSession, error)
}
