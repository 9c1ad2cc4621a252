package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"dalnoboi/internal/domain/order"
	"dalnoboi/internal/ports"
)

// MockActions keeps bookings, favorites and reports in memory. A cargo can be booked once.
type MockActions struct {
	mu        sync.Mutex
	now       func() time.Time
	newID     func() string
	booked    map[int64]string
	previews  map[string]order.Preview
	favorites map[string]map[int64]bool
	reports   []ports.ReportRequest
}

func NewMockActions() *MockActions {
	return &MockActions{
		now:       time.Now,
		newID:     NewOrderID,
		booked:    make(map[int64]string),
		previews:  make(map[string]order.Preview),
		favorites: make(map[string]map[int64]bool),
	}
}

func (m *MockActions) Book(_ context.Context, req ports.BookingRequest) (order.Preview, error) {
	if err := validateRequest(req); err != nil {
		return order.Preview{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if orderID, ok := m.booked[req.LoadID]; ok {
		return order.Preview{}, fmt.Errorf("%w: cargo %d already booked as %s", ports.ErrActionFailed, req.LoadID, orderID)
	}

	p := BuildPreview(m.newID(), req.LoadID, req.UserID, m.now())
	m.booked[req.LoadID] = p.OrderID
	m.previews[p.OrderID] = p
	return p, nil
}

func (m *MockActions) ToggleFavorite(_ context.Context, req ports.FavoriteRequest) error {
	if err := validateRequest(req); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.favorites[req.UserID]
	if !ok {
		set = make(map[int64]bool)
		m.favorites[req.UserID] = set
	}
	if req.Favorite {
		set[req.LoadID] = true
	} else {
		delete(set, req.LoadID)
	}
	return nil
}

func (m *MockActions) Report(_ context.Context, req ports.ReportRequest) error {
	if err := validateRequest(req); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, req)
	return nil
}

func (m *MockActions) OrderPreview(_ context.Context, orderID string) (order.Preview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.previews[orderID]
	if !ok {
		return order.Preview{}, fmt.Errorf("%w: %s", ports.ErrOrderUnknown, orderID)
	}
	return p, nil
}

// IsFavorite reports the stored favorite flag.
func (m *MockActions) IsFavorite(userID string, loadID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.favorites[userID][loadID]
}

// Reports returns the complaints received so far.
func (m *MockActions) Reports() []ports.ReportRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ports.ReportRequest(nil), m.reports...)
}
