package ports

import (
	"context"
	"errors"
	"time"

	"dalnoboi/internal/domain/cargo"
	"dalnoboi/internal/domain/geo"
	"dalnoboi/internal/domain/order"
	"dalnoboi/internal/filter"
)

var (
	ErrActionFailed = errors.New("action failed")
	ErrOrderUnknown = errors.New("order not found")
)

// Report reasons accepted from the complaint form.
const (
	ReasonLowRate = "low_rate"
	ReasonSpam    = "spam"
	ReasonError   = "error"
	ReasonOther   = "other"
)

// BookingRequest asks to reserve a cargo for a driver.
type BookingRequest struct {
	UserID string `json:"user_id" validate:"required"`
	LoadID int64  `json:"load_id" validate:"gt=0"`
}

// ReportRequest is a complaint about a listing.
type ReportRequest struct {
	UserID  string `json:"user_id" validate:"required"`
	LoadID  int64  `json:"load_id" validate:"gt=0"`
	Reason  string `json:"reason" validate:"oneof=low_rate spam error other"`
	Comment string `json:"comment" validate:"max=1000"`
}

// FavoriteRequest adds or removes a cargo from the driver's favorites.
type FavoriteRequest struct {
	UserID   string `json:"user_id" validate:"required"`
	LoadID   int64  `json:"load_id" validate:"gt=0"`
	Favorite bool   `json:"favorite"`
}

// Actions are the booking-flow side effects. Failures are reported to the user as
// notifications; nothing is committed optimistically.
type Actions interface {
	Book(ctx context.Context, req BookingRequest) (order.Preview, error)
	ToggleFavorite(ctx context.Context, req FavoriteRequest) error
	Report(ctx context.Context, req ReportRequest) error
	OrderPreview(ctx context.Context, orderID string) (order.Preview, error)
}

// OrderUpdate is an order status change pushed by the shipper side.
type OrderUpdate struct {
	OrderID  string        `json:"order_id"`
	CargoID  int64         `json:"cargo_id"`
	DriverID string        `json:"driver_id"`
	Preview  order.Preview `json:"preview"`
}

// SearchRequest is a stateless filter query measured from Origin. A nil Criteria means defaults.
type SearchRequest struct {
	Origin   geo.Point        `json:"origin"`
	Criteria *filter.Criteria `json:"criteria,omitempty"`
}

// SessionTicket is returned when a map session is created. The ticket authenticates the
// WebSocket that attaches to the session.
type SessionTicket struct {
	SessionID string    `json:"session_id"`
	DriverID  string    `json:"driver_id"`
	Ticket    string    `json:"ticket"`
	ExpiresAt time.Time `json:"expires_at"`
}

// MarketService is the map-service surface used by the HTTP handlers and the socket.
type MarketService interface {
	MapSessions
	Offers(ctx context.Context) ([]cargo.Offer, error)
	OffersInBounds(ctx context.Context, b geo.Bounds) ([]cargo.Offer, error)
	Search(ctx context.Context, req SearchRequest) (filter.Result, error)
	Nearby(ctx context.Context, cargoID int64, radiusKM float64) ([]filter.NearbyItem, error)
	CreateSession(ctx context.Context) (SessionTicket, error)
	DeliverOrderUpdate(ctx context.Context, u OrderUpdate) error
	Overview(ctx context.Context) (OverviewResult, error)
	ActiveSessions(ctx context.Context, page, pageSize string) (ActiveSessionsResult, error)
}

// OverviewResult is the operator dashboard snapshot.
type OverviewResult struct {
	Timestamp time.Time `json:"timestamp"`
	Catalog   struct {
		Total                int       `json:"total"`
		Available            int       `json:"available"`
		Urgent               int       `json:"urgent"`
		WithoutRoute         int       `json:"without_route"`
		AverageProfitability float64   `json:"average_profitability"`
		LoadedAt             time.Time `json:"loaded_at"`
	} `json:"catalog"`
	Sessions struct {
		Active        int `json:"active"`
		Attached      int `json:"attached"`
		Located       int `json:"located"`
		Bookings      int `json:"bookings"`
		TrackedOrders int `json:"tracked_orders"`
	} `json:"sessions"`
	Hotspots []Hotspot `json:"hotspots"`
}

// Hotspot is a loading city ranked by the number of offers leaving it.
type Hotspot struct {
	City     string     `json:"city"`
	Offers   int        `json:"offers"`
	Location *geo.Point `json:"location,omitempty"`
}

// ActiveSessionsResult is one page of live map sessions, most recently used first.
type ActiveSessionsResult struct {
	Sessions   []SessionRow `json:"sessions"`
	TotalCount int          `json:"total_count"`
	Page       int          `json:"page"`
	PageSize   int          `json:"page_size"`
}

// SessionRow summarizes one map session.
type SessionRow struct {
	SessionID     string    `json:"session_id"`
	DriverID      string    `json:"driver_id"`
	Attached      bool      `json:"attached"`
	LastSeen      time.Time `json:"last_seen"`
	Map           string    `json:"map"`
	Location      string    `json:"location"`
	Foreground    string    `json:"foreground"`
	Visible       int       `json:"visible"`
	ActiveFilters int       `json:"active_filters"`
	Bookings      int       `json:"bookings"`
}
