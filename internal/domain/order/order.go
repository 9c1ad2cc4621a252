package order

import (
	"errors"
	"strings"
	"time"

	"dalnoboi/internal/domain/geo"
)

// Status is the readiness of the loading point after a booking.
type Status string

const (
	StatusReady   Status = "ready"   // cargo ready, driver shows a QR code at the gate
	StatusWaiting Status = "waiting" // driver waits in the queue
)

var ErrInvalidStatus = errors.New("invalid order status")

// ParseStatus normalizes and validates an order status.
func ParseStatus(in string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(in)))
	if s.Valid() {
		return s, nil
	}
	return "", ErrInvalidStatus
}

// Valid reports whether s is a known order status.
func (s Status) Valid() bool {
	return s == StatusReady || s == StatusWaiting
}

func (s Status) String() string { return string(s) }

// Queue describes the loading queue at the shipper's warehouse.
type Queue struct {
	Position       int `json:"position"`
	Total          int `json:"total"`
	AvgPerTruckMin int `json:"avg_per_truck_min"`
}

// WaitingMinutes estimates time until the driver's turn.
func (q Queue) WaitingMinutes() int {
	if q.Position <= 0 || q.AvgPerTruckMin <= 0 {
		return 0
	}
	return q.Position * q.AvgPerTruckMin
}

// Media is a photo or video attached by the shipper.
type Media struct {
	Type   string `json:"type"` // image | video
	URL    string `json:"url"`
	Title  string `json:"title,omitempty"`
	Poster string `json:"poster,omitempty"`
}

// Place is a named location near the loading point.
type Place struct {
	Coords  geo.Point `json:"coords"`
	Title   string    `json:"title,omitempty"`
	Address string    `json:"address,omitempty"`
	Note    string    `json:"note,omitempty"`
}

// Preview is what the action panel shows after a successful booking.
type Preview struct {
	OrderID            string    `json:"order_id"`
	CargoID            int64     `json:"cargo_id"`
	DriverID           string    `json:"driver_id"`
	CommentFromShipper string    `json:"comment_from_shipper"`
	LoadingLocation    Place     `json:"loading_location"`
	Media              []Media   `json:"media"`
	Status             Status    `json:"status"`
	Queue              Queue     `json:"queue"`
	Parking            *Place    `json:"parking,omitempty"`
	WaitingMinutes     int       `json:"waiting_minutes"`
	CreatedAt          time.Time `json:"created_at"`
}

// Finalize fills derived fields before the preview is shown.
func (p *Preview) Finalize() {
	if p.Status == StatusReady {
		p.Queue = Queue{}
	}
	p.WaitingMinutes = p.Queue.WaitingMinutes()
	if p.Media == nil {
		p.Media = []Media{}
	}
}
