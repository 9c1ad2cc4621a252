package contracts

import "time"

// Envelope adds tracing headers to every message.
type Envelope struct {
	CorrelationID string    `json:"correlation_id,omitempty"`
	Producer      string    `json:"producer,omitempty"`
	SentAt        time.Time `json:"sent_at,omitempty"`
}

type GeoPoint struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address,omitempty"`
}

// BookingCommand asks the shipper side to reserve a cargo.
// Routing key: "cargo.booking.{load_id}" on ExchangeCargoTopic.
type BookingCommand struct {
	OrderID string `json:"order_id"`
	LoadID  int64  `json:"load_id"`
	UserID  string `json:"user_id"`
	Envelope
}

// FavoriteCommand records a favorite toggle.
// Routing key: "cargo.favorite.{load_id}" on ExchangeCargoTopic.
type FavoriteCommand struct {
	LoadID   int64  `json:"load_id"`
	UserID   string `json:"user_id"`
	Favorite bool   `json:"favorite"`
	Envelope
}

// ReportCommand is a complaint about a listing.
// Routing key: "cargo.report.{reason}" on ExchangeCargoTopic.
type ReportCommand struct {
	LoadID  int64  `json:"load_id"`
	UserID  string `json:"user_id"`
	Reason  string `json:"reason"`
	Comment string `json:"comment,omitempty"`
	Envelope
}

// QueueInfo is the loading queue as reported by the warehouse.
type QueueInfo struct {
	Position       int `json:"position"`
	Total          int `json:"total"`
	AvgPerTruckMin int `json:"avg_per_truck_min"`
}

// OrderStatusMessage is published by the shipper side when an order changes.
// Routing key: "order.status.{status}" on ExchangeOrderTopic.
type OrderStatusMessage struct {
	OrderID   string     `json:"order_id"`
	CargoID   int64      `json:"cargo_id"`
	DriverID  string     `json:"driver_id"`
	Status    string     `json:"status"` // ready | waiting
	Queue     *QueueInfo `json:"queue,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
	Envelope
}
