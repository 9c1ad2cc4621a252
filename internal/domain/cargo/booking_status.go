package cargo

import (
	"errors"
	"strings"
)

// BookingStatus tracks an offer through the booking lifecycle.
type BookingStatus string

const (
	BookingAvailable BookingStatus = "available"
	BookingReserved  BookingStatus = "reserved"
	BookingArrived   BookingStatus = "arrived"
	BookingLoading   BookingStatus = "loading"
	BookingLoaded    BookingStatus = "loaded"
	BookingInTransit BookingStatus = "in_transit"
	BookingDelivered BookingStatus = "delivered"
)

var ErrInvalidBookingStatus = errors.New("invalid booking status")

// ParseBookingStatus normalizes (lowercases+trims) and validates a booking status string.
func ParseBookingStatus(in string) (BookingStatus, error) {
	s := BookingStatus(strings.ToLower(strings.TrimSpace(in)))
	if s.Valid() {
		return s, nil
	}
	return "", ErrInvalidBookingStatus
}

// Valid reports whether status is a known booking status.
func (status BookingStatus) Valid() bool {
	switch status {
	case BookingAvailable, BookingReserved, BookingArrived, BookingLoading, BookingLoaded, BookingInTransit, BookingDelivered:
		return true
	default:
		return false
	}
}

func (status BookingStatus) String() string { return string(status) }

// CanTransitionTo reports whether the status may advance to next.
func (status BookingStatus) CanTransitionTo(next BookingStatus) bool {
	switch status {
	case BookingAvailable:
		return next == BookingReserved
	case BookingReserved:
		return next == BookingArrived || next == BookingAvailable
	case BookingArrived:
		return next == BookingLoading
	case BookingLoading:
		return next == BookingLoaded
	case BookingLoaded:
		return next == BookingInTransit
	case BookingInTransit:
		return next == BookingDelivered
	default:
		return false
	}
}

// Terminal reports whether the booking is finished.
func (status BookingStatus) Terminal() bool {
	return status == BookingDelivered
}
