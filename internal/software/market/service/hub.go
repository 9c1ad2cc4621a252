package service

import (
	"fmt"
	"sync"
	"time"

	"dalnoboi/internal/domain/cargo"
	"dalnoboi/internal/ports"
)

// Hub is the registry of live map sessions and the orders they booked.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	orders   map[string]string // order id -> session id
}

func NewHub() *Hub {
	return &Hub{
		sessions: make(map[string]*Session),
		orders:   make(map[string]string),
	}
}

func (h *Hub) Add(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[s.ID()] = s
}

func (h *Hub) Get(id string) (*Session, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ports.ErrSessionNotFound, id)
	}
	return s, nil
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// TrackOrder routes future status updates of orderID to sessionID.
func (h *Hub) TrackOrder(orderID, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.orders[orderID] = sessionID
}

// TrackedOrders counts orders whose status updates are routed to a session.
func (h *Hub) TrackedOrders() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.orders)
}

// SessionForOrder finds the session that booked orderID.
func (h *Hub) SessionForOrder(orderID string) (*Session, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	sid, ok := h.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("%w: order %s", ports.ErrSessionNotFound, orderID)
	}
	s, ok := h.sessions[sid]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ports.ErrSessionNotFound, sid)
	}
	return s, nil
}

// Broadcast hands every session its own copy of offers. Failed pushes are returned per session.
func (h *Hub) Broadcast(offers []cargo.Offer) map[string]error {
	failed := make(map[string]error)
	for _, s := range h.snapshot() {
		if err := s.SetOffers(cloneOffers(offers)); err != nil {
			failed[s.ID()] = err
		}
	}
	return failed
}

// SweepIdle removes sessions that have had no client for longer than idle.
func (h *Hub) SweepIdle(now time.Time, idle time.Duration) int {
	var stale []string
	for _, s := range h.snapshot() {
		if since, detached := s.idleSince(); detached && now.Sub(since) > idle {
			stale = append(stale, s.ID())
		}
	}
	if len(stale) == 0 {
		return 0
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	gone := make(map[string]bool, len(stale))
	for _, id := range stale {
		delete(h.sessions, id)
		gone[id] = true
	}
	for orderID, sid := range h.orders {
		if gone[sid] {
			delete(h.orders, orderID)
		}
	}
	return len(stale)
}

func (h *Hub) snapshot() []*Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		out = append(out, s)
	}
	return out
}
