package service

import (
	"dalnoboi/internal/domain/geo"
	"dalnoboi/internal/filter"
)

// Inbound event payloads. Events without a payload (locate_me, reset_filters, outside_click,
// show_nearby, close_panel, book) ignore their data.

type mapErrorEvent struct {
	Reason string `json:"reason" validate:"max=500"`
}

type cameraEvent struct {
	Center geo.Point `json:"center"`
	Zoom   float64   `json:"zoom" validate:"gte=0,lte=24"`
}

type geolocationResultEvent struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Accuracy float64 `json:"accuracy" validate:"gte=0"`
}

func (e geolocationResultEvent) point() geo.Point {
	return geo.Point{Lat: e.Lat, Lng: e.Lng}
}

type geolocationErrorEvent struct {
	Code string `json:"code" validate:"required"`
}

type radiusEvent struct {
	Kind filter.RadiusKind `json:"kind" validate:"oneof=loading unloading"`
	KM   float64           `json:"km" validate:"gt=0"`
}

type toggleTagEvent struct {
	Dimension string `json:"dimension" validate:"oneof=cargo_type body_type loading_type"`
	Value     string `json:"value" validate:"required"`
}

type markerClickEvent struct {
	ID int64   `json:"id" validate:"gt=0"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

type clusterClickEvent struct {
	ClusterID int64 `json:"cluster_id"`
}

type cargoEvent struct {
	ID int64 `json:"id" validate:"gt=0"`
}

type reportEvent struct {
	ID      int64  `json:"id" validate:"gt=0"`
	Reason  string `json:"reason" validate:"oneof=low_rate spam error other"`
	Comment string `json:"comment" validate:"max=1000"`
}

type togglePanelEvent struct {
	Panel string `json:"panel" validate:"oneof=filters settings"`
}
