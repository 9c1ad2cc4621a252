package filter

import "math"

// Radius slider bounds in kilometers.
const (
	DefaultLoadingRadiusKM = 100
	MinLoadingRadiusKM     = 10
	MaxLoadingRadiusKM     = 400
	LoadingRadiusStepKM    = 10

	DefaultUnloadingRadiusKM = 3000
	MinUnloadingRadiusKM     = 500
	MaxUnloadingRadiusKM     = 5000
	UnloadingRadiusStepKM    = 500
)

// RadiusKind selects which radius a value applies to.
type RadiusKind string

const (
	RadiusLoading   RadiusKind = "loading"
	RadiusUnloading RadiusKind = "unloading"
)

// Valid reports whether k names a known radius.
func (k RadiusKind) Valid() bool {
	return k == RadiusLoading || k == RadiusUnloading
}

// SnapRadius clamps km to the slider bounds of kind and rounds to its step.
func SnapRadius(kind RadiusKind, km float64) float64 {
	lo, hi, step := float64(MinLoadingRadiusKM), float64(MaxLoadingRadiusKM), float64(LoadingRadiusStepKM)
	if kind == RadiusUnloading {
		lo, hi, step = MinUnloadingRadiusKM, MaxUnloadingRadiusKM, UnloadingRadiusStepKM
	}
	if math.IsNaN(km) {
		return lo
	}

	v := math.Round(km/step) * step
	return math.Max(lo, math.Min(hi, v))
}

// WithRadius returns c with the given radius snapped and applied.
func (c Criteria) WithRadius(kind RadiusKind, km float64) Criteria {
	v := SnapRadius(kind, km)
	if kind == RadiusUnloading {
		c.UnloadingRadiusKM = v
	} else {
		c.LoadingRadiusKM = v
	}
	return c
}
