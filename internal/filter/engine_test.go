package filter

import (
	"encoding/json"
	"math"
	"testing"

	"dalnoboi/internal/domain/cargo"
	"dalnoboi/internal/domain/geo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var moscow = geo.Point{Lat: 55.7558, Lng: 37.6176}

// southOf returns a point km kilometers due south of p along its meridian.
func southOf(p geo.Point, km float64) *geo.Point {
	return &geo.Point{Lat: p.Lat - km/geo.EarthRadiusKM*180/math.Pi, Lng: p.Lng}
}

func offer(id int64, dest *geo.Point) cargo.Offer {
	origin := moscow
	return cargo.Offer{
		ID:                id,
		Title:             "груз",
		Origin:            &origin,
		Destination:       dest,
		Weight:            "20 тонн",
		Price:             "180 000 ₽",
		Distance:          "1520 км",
		Volume:            "80 м³",
		Type:              cargo.TypeFood,
		BodyType:          cargo.BodyTented,
		LoadingType:       cargo.LoadingSide,
		LoadingDate:       "2025-01-20",
		BookingStatus:     cargo.BookingAvailable,
		ProfitabilityRate: 15,
	}
}

func ids(r Result) []int64 {
	out := make([]int64, 0, len(r.Offers))
	for _, o := range r.Offers {
		out = append(out, o.ID)
	}
	return out
}

func TestApplyRadiusScenario(t *testing.T) {
	c := Defaults()
	c.LoadingRadiusKM = 100
	c.UnloadingRadiusKM = 3000

	far := offer(1, southOf(moscow, 3500))
	near := offer(2, southOf(moscow, 2000))

	res := Apply([]cargo.Offer{far, near}, moscow, c)
	assert.Equal(t, []int64{2}, ids(res))
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 0, res.ActiveCount)
}

func TestApplyLoadingRadius(t *testing.T) {
	c := Defaults()
	o := offer(1, southOf(moscow, 500))
	o.Origin = southOf(moscow, 150)

	assert.Empty(t, Apply([]cargo.Offer{o}, moscow, c).Offers)

	c.LoadingRadiusKM = 200
	assert.Len(t, Apply([]cargo.Offer{o}, moscow, c).Offers, 1)
}

func TestApplyRejectsMissingCoordinates(t *testing.T) {
	noDest := offer(1, nil)
	noOrigin := offer(2, southOf(moscow, 10))
	noOrigin.Origin = nil

	c := Defaults()
	c.LoadingRadiusKM = 1e9
	c.UnloadingRadiusKM = 1e9
	assert.Empty(t, Apply([]cargo.Offer{noDest, noOrigin}, moscow, c).Offers)
}

func TestApplyKeepsOrderAndIsIdempotent(t *testing.T) {
	offers := []cargo.Offer{
		offer(5, southOf(moscow, 100)),
		offer(3, southOf(moscow, 200)),
		offer(9, southOf(moscow, 300)),
	}
	c := Defaults()

	first := Apply(offers, moscow, c)
	second := Apply(offers, moscow, c)
	assert.Equal(t, []int64{5, 3, 9}, ids(first))
	assert.Equal(t, first, second)
}

func TestApplyAttributeFilters(t *testing.T) {
	base := southOf(moscow, 100)
	food := offer(1, base)

	construction := offer(2, base)
	construction.Type = cargo.TypeConstruction
	construction.BodyType = cargo.BodyRefrigerator
	construction.LoadingType = cargo.LoadingRear
	construction.ProfitabilityRate = 85
	construction.Weight = "5 тонн"
	construction.Volume = "20 м³"
	construction.Distance = "580 км"
	construction.LoadingDate = "2025-02-10"
	construction.Urgent = true

	undated := offer(3, base)
	undated.LoadingDate = ""

	reserved := offer(4, base)
	reserved.BookingStatus = cargo.BookingReserved

	all := []cargo.Offer{food, construction, undated, reserved}

	cases := []struct {
		name   string
		mutate func(*Criteria)
		want   []int64
		active int
	}{
		{"defaults hide reserved", func(c *Criteria) {}, []int64{1, 2, 3}, 0},
		{"available off shows all", func(c *Criteria) { c.AvailableOnly = false }, []int64{1, 2, 3, 4}, 1},
		{"cargo type", func(c *Criteria) { c.CargoTypes = []cargo.Type{cargo.TypeConstruction} }, []int64{2}, 1},
		{"body type", func(c *Criteria) { c.BodyTypes = []cargo.BodyType{cargo.BodyTented} }, []int64{1, 3}, 1},
		{"loading type", func(c *Criteria) { c.LoadingTypes = []cargo.LoadingType{cargo.LoadingRear} }, []int64{2}, 1},
		{"profitability", func(c *Criteria) { c.Profitability = Range{Min: 80, Max: 100} }, []int64{2}, 1},
		{"weight", func(c *Criteria) { c.Weight = Range{Min: 0, Max: 10} }, []int64{2}, 1},
		{"volume", func(c *Criteria) { c.Volume = Range{Min: 50, Max: 200} }, []int64{1, 3}, 1},
		{"distance", func(c *Criteria) { c.Distance = Range{Min: 0, Max: 1000} }, []int64{2}, 1},
		{"date from", func(c *Criteria) { c.LoadingDate = DateRange{From: "2025-02-01"} }, []int64{2}, 1},
		{"date to inclusive", func(c *Criteria) { c.LoadingDate = DateRange{To: "2025-01-20"} }, []int64{1}, 1},
		{"urgent", func(c *Criteria) { c.UrgentOnly = true }, []int64{2}, 1},
		{"combined", func(c *Criteria) {
			c.UrgentOnly = true
			c.CargoTypes = []cargo.Type{cargo.TypeFood}
		}, []int64{}, 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Defaults()
			tc.mutate(&c)
			require.NoError(t, c.Validate())

			res := Apply(all, moscow, c)
			assert.Equal(t, tc.want, ids(res))
			assert.Equal(t, tc.active, res.ActiveCount)
		})
	}
}

func TestDefaultRangesDoNotExclude(t *testing.T) {
	// 2850 km lies outside the default distance slider but the default range is a no-op.
	o := offer(1, southOf(moscow, 100))
	o.Distance = "2850 км"
	o.Weight = "60 тонн"

	res := Apply([]cargo.Offer{o}, moscow, Defaults())
	assert.Len(t, res.Offers, 1)
}

func TestCriteriaDecodesOntoDefaults(t *testing.T) {
	var c Criteria
	require.NoError(t, json.Unmarshal([]byte(`{"urgent_only":true,"weight":{"max":20}}`), &c))

	assert.True(t, c.UrgentOnly)
	assert.True(t, c.AvailableOnly)
	assert.Equal(t, Range{Min: 0, Max: 20}, c.Weight)
	assert.Equal(t, FullVolume, c.Volume)
	assert.Equal(t, DefaultLoadingRadiusKM, c.LoadingRadiusKM)
	assert.Equal(t, 2, c.ActiveCount())
	assert.NoError(t, c.Validate())

	require.NoError(t, json.Unmarshal([]byte(`{"available_only":false}`), &c))
	assert.False(t, c.AvailableOnly)
	assert.False(t, c.UrgentOnly, "each decode starts from defaults")
}

func TestActiveCountIgnoresRadii(t *testing.T) {
	c := Defaults().WithRadius(RadiusLoading, 300).WithRadius(RadiusUnloading, 1000)
	assert.Equal(t, 0, c.ActiveCount())
}

func TestValidate(t *testing.T) {
	require.NoError(t, Defaults().Validate())

	cases := []struct {
		name   string
		mutate func(*Criteria)
	}{
		{"zero loading radius", func(c *Criteria) { c.LoadingRadiusKM = 0 }},
		{"negative unloading radius", func(c *Criteria) { c.UnloadingRadiusKM = -5 }},
		{"inverted weight", func(c *Criteria) { c.Weight = Range{Min: 30, Max: 10} }},
		{"nan volume", func(c *Criteria) { c.Volume = Range{Min: math.NaN(), Max: 10} }},
		{"inverted dates", func(c *Criteria) { c.LoadingDate = DateRange{From: "2025-03-01", To: "2025-02-01"} }},
		{"malformed date", func(c *Criteria) { c.LoadingDate = DateRange{From: "01.02.2025"} }},
		{"unknown cargo type", func(c *Criteria) { c.CargoTypes = []cargo.Type{"spaceships"} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Defaults()
			tc.mutate(&c)
			assert.ErrorIs(t, c.Validate(), ErrInvalidCriteria)
		})
	}
}

func TestToggleAndReset(t *testing.T) {
	c := Defaults().ToggleCargoType(cargo.TypeFood).ToggleBodyType(cargo.BodyFlatbed)
	assert.Equal(t, []cargo.Type{cargo.TypeFood}, c.CargoTypes)
	assert.Equal(t, 2, c.ActiveCount())

	c = c.ToggleCargoType(cargo.TypeFood)
	assert.Empty(t, c.CargoTypes)

	c = c.WithRadius(RadiusLoading, 250).Reset()
	assert.Equal(t, 0, c.ActiveCount())
	assert.Equal(t, 250.0, c.LoadingRadiusKM)
}

func TestToggleDoesNotAliasInput(t *testing.T) {
	base := Defaults().ToggleLoadingType(cargo.LoadingRear)
	next := base.ToggleLoadingType(cargo.LoadingTop)
	assert.Len(t, base.LoadingTypes, 1)
	assert.Len(t, next.LoadingTypes, 2)
}

func TestSnapRadius(t *testing.T) {
	assert.Equal(t, 10.0, SnapRadius(RadiusLoading, 1))
	assert.Equal(t, 400.0, SnapRadius(RadiusLoading, 1000))
	assert.Equal(t, 130.0, SnapRadius(RadiusLoading, 127))
	assert.Equal(t, 500.0, SnapRadius(RadiusUnloading, 0))
	assert.Equal(t, 3500.0, SnapRadius(RadiusUnloading, 3400))
	assert.Equal(t, 5000.0, SnapRadius(RadiusUnloading, 9000))
}

func TestNearby(t *testing.T) {
	unloading := moscow
	a := offer(1, southOf(moscow, 10))
	a.Origin = southOf(moscow, 300)
	b := offer(2, southOf(moscow, 10))
	b.Origin = southOf(moscow, 50)
	c := offer(3, southOf(moscow, 10))
	c.Origin = southOf(moscow, 800)
	d := offer(4, nil)
	d.Origin = nil

	items := Nearby([]cargo.Offer{a, b, c, d}, unloading, NearbyRadiusKM)
	require.Len(t, items, 2)
	assert.Equal(t, int64(2), items[0].ID)
	assert.Equal(t, 50, items[0].DistanceKM)
	assert.Equal(t, int64(1), items[1].ID)
	assert.Equal(t, 300, items[1].DistanceKM)

	assert.Len(t, Nearby([]cargo.Offer{a, b, c}, unloading, 0), 2)
}
