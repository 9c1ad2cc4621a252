package mapsync

import (
	"errors"
	"time"

	"dalnoboi/internal/domain/geo"

	"github.com/paulmach/orb/geojson"
)

// ErrGeolocationUnsupported is returned by a Locator that has no position source.
var ErrGeolocationUnsupported = errors.New("geolocation is not supported")

// Camera is the rendered viewport.
type Camera struct {
	Center geo.Point `json:"center"`
	Zoom   float64   `json:"zoom"`
}

// Status summarizes the session for badges and banners.
type Status struct {
	Map               MapState      `json:"map"`
	MapError          string        `json:"map_error,omitempty"`
	Location          LocationState `json:"location"`
	LocationError     GeoErrorCode  `json:"location_error,omitempty"`
	Message           string        `json:"message,omitempty"`
	Retryable         bool          `json:"retryable,omitempty"`
	SearchOrigin      geo.Point     `json:"search_origin"`
	AccuracyM         float64       `json:"accuracy_m,omitempty"`
	ActiveFilters     int           `json:"active_filters"`
	Visible           int           `json:"visible"`
	Total             int           `json:"total"`
	LoadingRadiusKM   float64       `json:"loading_radius_km"`
	UnloadingRadiusKM float64       `json:"unloading_radius_km"`
}

// Surface is the map renderer. Every push replaces the previous state of its layer.
type Surface interface {
	SetMarkers(fc *geojson.FeatureCollection) error
	SetRadiusCircles(fc *geojson.FeatureCollection) error
	ClearRadiusCircles() error
	SetUserMarker(p geo.Point) error
	ClearUserMarker() error
	EaseTo(cam Camera) error
	FlyTo(cam Camera) error
	SetStatus(st Status) error
}

// Locator asks the client for its current position. The answer arrives later through
// Synchronizer.LocationResolved or Synchronizer.LocationFailed.
type Locator interface {
	RequestPosition(timeout, maximumAge time.Duration) error
}
