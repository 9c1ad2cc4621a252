package geo

import (
	"errors"

	"github.com/paulmach/orb"
)

// Bounds is a lat/lng bounding box. West may exceed East only for boxes crossing the antimeridian,
// which the catalog does not use.
type Bounds struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

var ErrInvalidBounds = errors.New("bounds: south must be <= north and west <= east")

// Validate checks the box orientation.
func (b Bounds) Validate() error {
	if b.South > b.North || b.West > b.East {
		return ErrInvalidBounds
	}
	if err := (Point{Lat: b.North, Lng: b.East}).Validate(); err != nil {
		return err
	}
	return (Point{Lat: b.South, Lng: b.West}).Validate()
}

// Contains reports whether p lies inside the box (edges inclusive).
func (b Bounds) Contains(p Point) bool {
	return p.Lat >= b.South && p.Lat <= b.North && p.Lng >= b.West && p.Lng <= b.East
}

// Orb returns the box as an orb.Bound.
func (b Bounds) Orb() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.West, b.South},
		Max: orb.Point{b.East, b.North},
	}
}
