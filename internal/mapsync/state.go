package mapsync

import (
	"errors"
	"strings"
)

// LocationState tracks the user's real-world position, independent of the camera.
type LocationState string

const (
	NoLocation    LocationState = "no_location"
	Locating      LocationState = "locating"
	Located       LocationState = "located"
	LocationError LocationState = "location_error"
)

func (s LocationState) String() string { return string(s) }

// MapState tracks whether the rendering surface can accept pushes.
type MapState string

const (
	MapLoading     MapState = "loading"
	MapReady       MapState = "ready"
	MapUnavailable MapState = "unavailable"
)

func (s MapState) String() string { return string(s) }

// GeoErrorCode is the failure reported by the geolocation provider.
type GeoErrorCode string

const (
	GeoPermissionDenied    GeoErrorCode = "permission_denied"
	GeoPositionUnavailable GeoErrorCode = "position_unavailable"
	GeoTimeout             GeoErrorCode = "timeout"
	GeoUnsupported         GeoErrorCode = "unsupported"
	GeoOther               GeoErrorCode = "other"
)

var ErrInvalidGeoErrorCode = errors.New("invalid geolocation error code")

// ParseGeoErrorCode normalizes a provider error code.
func ParseGeoErrorCode(in string) (GeoErrorCode, error) {
	c := GeoErrorCode(strings.ToLower(strings.TrimSpace(in)))
	switch c {
	case GeoPermissionDenied, GeoPositionUnavailable, GeoTimeout, GeoUnsupported, GeoOther:
		return c, nil
	default:
		return "", ErrInvalidGeoErrorCode
	}
}

// Message returns the user-facing text for the error.
func (c GeoErrorCode) Message() string {
	switch c {
	case GeoUnsupported:
		return "Геолокация не поддерживается вашим браузером"
	case GeoPermissionDenied:
		return "Доступ к геолокации запрещен. Разрешите доступ в настройках браузера."
	case GeoPositionUnavailable:
		return "Информация о местоположении недоступна. Проверьте подключение к интернету."
	case GeoTimeout:
		return "Превышено время ожидания определения местоположения. Попробуйте еще раз."
	default:
		return "Не удалось определить местоположение"
	}
}

// Retryable reports whether asking again may succeed.
func (c GeoErrorCode) Retryable() bool {
	return c != GeoUnsupported
}
