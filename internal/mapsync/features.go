package mapsync

import (
	"fmt"

	"dalnoboi/internal/cluster"
	"dalnoboi/internal/domain/cargo"
	"dalnoboi/internal/domain/geo"
	"dalnoboi/internal/domain/profit"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// MarkerPosition is where an offer is drawn: its unloading point.
func MarkerPosition(o *cargo.Offer) (geo.Point, bool) {
	if o.Destination == nil {
		return geo.Point{}, false
	}
	return *o.Destination, true
}

// OfferFeature renders a single offer marker.
func OfferFeature(o *cargo.Offer) *geojson.Feature {
	pos, _ := MarkerPosition(o)
	f := geojson.NewFeature(pos.Orb())
	f.ID = o.ID

	var perKm float64
	if d := o.DistanceKM(); d > 0 {
		perKm = o.PriceRub() / d
	}

	f.Properties = geojson.Properties{
		"id":                 o.ID,
		"title":              o.Title,
		"price":              o.Price,
		"urgent":             o.Urgent,
		"type":               string(o.Type),
		"city":               o.From,
		"weight":             o.Weight,
		"distance":           o.Distance,
		"profitabilityRate":  o.ProfitabilityRate,
		"profitabilityColor": profit.Color(o.ProfitabilityRate),
		"profitPerKm":        perKm,
		"bodyType":           string(o.BodyType),
		"loadingType":        string(o.LoadingType),
		"volume":             o.Volume,
		"loadingDate":        o.LoadingDate,
	}
	return f
}

// ClusterFeature renders a cluster badge.
func ClusterFeature(n cluster.Node) *geojson.Feature {
	f := geojson.NewFeature(n.Center.Orb())
	f.ID = n.ClusterID
	f.Properties = geojson.Properties{
		"cluster":                 true,
		"cluster_id":              n.ClusterID,
		"point_count":             n.Count,
		"point_count_abbreviated": abbreviate(n.Count),
	}
	return f
}

func abbreviate(n int) string {
	switch {
	case n >= 10000:
		return fmt.Sprintf("%dk", n/1000)
	case n >= 1000:
		return fmt.Sprintf("%.1fk", float64(n)/1000)
	default:
		return fmt.Sprintf("%d", n)
	}
}

// MarkerCollection renders clustered nodes, resolving leaves back to their offers.
func MarkerCollection(nodes []cluster.Node, byID map[int64]*cargo.Offer) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, n := range nodes {
		if n.IsCluster() {
			fc.Append(ClusterFeature(n))
			continue
		}
		if o, ok := byID[n.ItemID]; ok {
			fc.Append(OfferFeature(o))
		}
	}
	return fc
}

// RadiusCollection renders the loading and unloading circles around center.
func RadiusCollection(center geo.Point, loadingKM, unloadingKM float64) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	loading := geojson.NewFeature(orb.Polygon{geo.Circle(center, loadingKM, geo.DefaultCircleSteps)})
	loading.Properties = geojson.Properties{"kind": "loading", "radius_km": loadingKM}
	fc.Append(loading)

	unloading := geojson.NewFeature(orb.Polygon{geo.Circle(center, unloadingKM, geo.DefaultCircleSteps)})
	unloading.Properties = geojson.Properties{"kind": "unloading", "radius_km": unloadingKM}
	fc.Append(unloading)

	return fc
}
