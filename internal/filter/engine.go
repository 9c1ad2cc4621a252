package filter

import (
	"math"
	"slices"
	"sort"
	"time"

	"dalnoboi/internal/domain/cargo"
	"dalnoboi/internal/domain/geo"
)

// Result is the filtered view of a catalog.
type Result struct {
	Offers      []cargo.Offer `json:"offers"`
	ActiveCount int           `json:"active_count"`
	Total       int           `json:"total"`
}

// Apply runs every predicate over offers, measured from origin, keeping input order.
// It is a linear scan; the catalog sizes served here do not need a spatial index.
func Apply(offers []cargo.Offer, origin geo.Point, c Criteria) Result {
	from, hasFrom := parseDay(c.LoadingDate.From)
	to, hasTo := parseDay(c.LoadingDate.To)

	out := make([]cargo.Offer, 0, len(offers))
	for i := range offers {
		o := &offers[i]
		if !matches(o, origin, c, from, hasFrom, to, hasTo) {
			continue
		}
		out = append(out, *o)
	}

	return Result{Offers: out, ActiveCount: c.ActiveCount(), Total: len(offers)}
}

func matches(o *cargo.Offer, origin geo.Point, c Criteria, from time.Time, hasFrom bool, to time.Time, hasTo bool) bool {
	if !o.HasRoute() {
		return false
	}
	if geo.DistanceKM(origin, *o.Origin) > c.LoadingRadiusKM {
		return false
	}
	if geo.DistanceKM(origin, *o.Destination) > c.UnloadingRadiusKM {
		return false
	}

	if len(c.CargoTypes) > 0 && !slices.Contains(c.CargoTypes, o.Type) {
		return false
	}
	if len(c.BodyTypes) > 0 && !slices.Contains(c.BodyTypes, o.BodyType) {
		return false
	}
	if len(c.LoadingTypes) > 0 && !slices.Contains(c.LoadingTypes, o.LoadingType) {
		return false
	}

	if c.Profitability.narrowerThan(FullProfitability) && !c.Profitability.Contains(float64(o.ProfitabilityRate)) {
		return false
	}
	if c.Weight.narrowerThan(FullWeight) && !c.Weight.Contains(o.WeightT()) {
		return false
	}
	if c.Volume.narrowerThan(FullVolume) && !c.Volume.Contains(o.VolumeM3()) {
		return false
	}
	if c.Distance.narrowerThan(FullDistance) && !c.Distance.Contains(o.DistanceKM()) {
		return false
	}

	if hasFrom || hasTo {
		day, ok := o.LoadingDay()
		if !ok {
			return false
		}
		if hasFrom && day.Before(from) {
			return false
		}
		if hasTo && day.After(to) {
			return false
		}
	}

	if c.UrgentOnly && !o.Urgent {
		return false
	}
	if c.AvailableOnly && o.BookingStatus != cargo.BookingAvailable {
		return false
	}

	return true
}

func parseDay(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	d, err := time.Parse(cargo.DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// NearbyRadiusKM is the default reach of the nearby-cargo panel.
const NearbyRadiusKM = 500

// NearbyItem is an offer whose loading point is close to another offer's unloading point.
type NearbyItem struct {
	ID         int64      `json:"id"`
	Title      string     `json:"title"`
	From       string     `json:"from"`
	To         string     `json:"to"`
	Price      string     `json:"price"`
	DistanceKM int        `json:"distance_km"`
	Origin     *geo.Point `json:"from_coords,omitempty"`
}

// Nearby lists offers loading within maxKM of point, nearest first.
// Offers without a loading point are skipped.
func Nearby(offers []cargo.Offer, point geo.Point, maxKM float64) []NearbyItem {
	if maxKM <= 0 {
		maxKM = NearbyRadiusKM
	}

	items := make([]NearbyItem, 0)
	for i := range offers {
		o := &offers[i]
		if o.Origin == nil {
			continue
		}
		d := geo.DistanceKM(point, *o.Origin)
		if d > maxKM {
			continue
		}
		items = append(items, NearbyItem{
			ID:         o.ID,
			Title:      o.Title,
			From:       o.From,
			To:         o.To,
			Price:      o.Price,
			DistanceKM: int(math.Round(d)),
			Origin:     o.Origin,
		})
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].DistanceKM < items[j].DistanceKM })
	return items
}
