package service

import (
	"errors"
	"time"

	"dalnoboi/internal/domain/geo"
	"dalnoboi/internal/mapsync"
	"dalnoboi/internal/ports"

	"github.com/paulmach/orb/geojson"
)

// Outbound frame types.
const (
	FrameMarkers            = "markers"
	FrameRadiusCircles      = "radius_circles"
	FrameUserMarker         = "user_marker"
	FrameCamera             = "camera"
	FrameStatus             = "status"
	FrameOverlay            = "overlay"
	FrameNotification       = "notification"
	FrameGeolocationRequest = "geolocation_request"
)

var errNoClient = errors.New("no client attached")

// CameraFrame moves the client's viewport.
type CameraFrame struct {
	mapsync.Camera
	Animation string `json:"animation"` // ease | fly
}

// GeolocationRequestFrame asks the client for one position fix.
type GeolocationRequestFrame struct {
	TimeoutMS          int64 `json:"timeout_ms"`
	MaximumAgeMS       int64 `json:"maximum_age_ms"`
	EnableHighAccuracy bool  `json:"enable_high_accuracy"`
}

// frameSurface renders the map and asks for positions through the attached client.
// Calls happen under the owning session's lock. With no client attached, pushes are dropped.
type frameSurface struct {
	out ports.FrameSender
}

func (f *frameSurface) send(msgType string, data any) error {
	if f.out == nil {
		return nil
	}
	return f.out.Send(msgType, data)
}

func (f *frameSurface) SetMarkers(fc *geojson.FeatureCollection) error {
	return f.send(FrameMarkers, fc)
}

func (f *frameSurface) SetRadiusCircles(fc *geojson.FeatureCollection) error {
	return f.send(FrameRadiusCircles, fc)
}

func (f *frameSurface) ClearRadiusCircles() error {
	return f.send(FrameRadiusCircles, nil)
}

func (f *frameSurface) SetUserMarker(p geo.Point) error {
	return f.send(FrameUserMarker, p)
}

func (f *frameSurface) ClearUserMarker() error {
	return f.send(FrameUserMarker, nil)
}

func (f *frameSurface) EaseTo(cam mapsync.Camera) error {
	return f.send(FrameCamera, CameraFrame{Camera: cam, Animation: "ease"})
}

func (f *frameSurface) FlyTo(cam mapsync.Camera) error {
	return f.send(FrameCamera, CameraFrame{Camera: cam, Animation: "fly"})
}

func (f *frameSurface) SetStatus(st mapsync.Status) error {
	return f.send(FrameStatus, st)
}

func (f *frameSurface) RequestPosition(timeout, maximumAge time.Duration) error {
	if f.out == nil {
		return errNoClient
	}
	return f.out.Send(FrameGeolocationRequest, GeolocationRequestFrame{
		TimeoutMS:          timeout.Milliseconds(),
		MaximumAgeMS:       maximumAge.Milliseconds(),
		EnableHighAccuracy: true,
	})
}
