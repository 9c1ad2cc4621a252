package mapsync

import (
	"errors"
	"math"
	"testing"
	"time"

	"dalnoboi/internal/domain/cargo"
	"dalnoboi/internal/domain/geo"
	"dalnoboi/internal/filter"

	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSurface struct {
	markers      []*geojson.FeatureCollection
	circles      []*geojson.FeatureCollection
	circlesClear int
	userMarker   *geo.Point
	userCleared  int
	eased        []Camera
	flown        []Camera
	statuses     []Status
	failMarkers  error
}

func (f *fakeSurface) SetMarkers(fc *geojson.FeatureCollection) error {
	if f.failMarkers != nil {
		return f.failMarkers
	}
	f.markers = append(f.markers, fc)
	return nil
}

func (f *fakeSurface) SetRadiusCircles(fc *geojson.FeatureCollection) error {
	f.circles = append(f.circles, fc)
	return nil
}

func (f *fakeSurface) ClearRadiusCircles() error {
	f.circlesClear++
	return nil
}

func (f *fakeSurface) SetUserMarker(p geo.Point) error {
	f.userMarker = &p
	return nil
}

func (f *fakeSurface) ClearUserMarker() error {
	f.userMarker = nil
	f.userCleared++
	return nil
}

func (f *fakeSurface) EaseTo(cam Camera) error {
	f.eased = append(f.eased, cam)
	return nil
}

func (f *fakeSurface) FlyTo(cam Camera) error {
	f.flown = append(f.flown, cam)
	return nil
}

func (f *fakeSurface) SetStatus(st Status) error {
	f.statuses = append(f.statuses, st)
	return nil
}

func (f *fakeSurface) lastMarkers() *geojson.FeatureCollection {
	if len(f.markers) == 0 {
		return nil
	}
	return f.markers[len(f.markers)-1]
}

func (f *fakeSurface) lastStatus() Status {
	return f.statuses[len(f.statuses)-1]
}

type fakeLocator struct {
	requests int
	err      error
}

func (l *fakeLocator) RequestPosition(timeout, maximumAge time.Duration) error {
	l.requests++
	return l.err
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

var moscow = geo.Point{Lat: 55.7558, Lng: 37.6176}

func southOf(p geo.Point, km float64) *geo.Point {
	return &geo.Point{Lat: p.Lat - km/geo.EarthRadiusKM*180/math.Pi, Lng: p.Lng}
}

func offerAt(id int64, origin, dest *geo.Point) cargo.Offer {
	o := cargo.Offer{
		ID: id, Title: "груз", Origin: origin, Destination: dest,
		Weight: "20 тонн", Price: "180 000 ₽", Distance: "1520 км", Volume: "80 м³",
		Type: cargo.TypeFood, BodyType: cargo.BodyTented, LoadingType: cargo.LoadingSide,
	}
	o.Annotate()
	return o
}

func newSync(t *testing.T) (*Synchronizer, *fakeSurface, *fakeLocator, *clock) {
	t.Helper()
	surf := &fakeSurface{}
	loc := &fakeLocator{}
	clk := &clock{t: time.Date(2025, 1, 20, 10, 0, 0, 0, time.UTC)}
	s := New(surf, loc, Options{Now: clk.now})
	return s, surf, loc, clk
}

func TestNothingPushedBeforeMapReady(t *testing.T) {
	s, surf, _, _ := newSync(t)
	require.NoError(t, s.SetOffers([]cargo.Offer{offerAt(1, &moscow, southOf(moscow, 100))}))
	require.NoError(t, s.MoveCamera(moscow, 7))

	assert.Empty(t, surf.markers)
	assert.Empty(t, surf.statuses)

	require.NoError(t, s.MapReady())
	require.NotNil(t, surf.lastMarkers())
	assert.Len(t, surf.lastMarkers().Features, 1)
	assert.Equal(t, MapReady, surf.lastStatus().Map)
}

func TestMapFailedBlocksRendering(t *testing.T) {
	s, surf, _, _ := newSync(t)
	require.NoError(t, s.MapReady())
	pushed := len(surf.markers)

	require.NoError(t, s.MapFailed("style load failed"))
	assert.Equal(t, MapUnavailable, surf.lastStatus().Map)
	assert.Equal(t, "style load failed", surf.lastStatus().MapError)

	require.NoError(t, s.SetOffers([]cargo.Offer{offerAt(1, &moscow, southOf(moscow, 100))}))
	assert.Len(t, surf.markers, pushed, "no partial rendering while unavailable")

	require.NoError(t, s.MapReady())
	assert.Len(t, surf.markers, pushed+1)
}

func TestSearchOriginFollowsCameraUntilLocated(t *testing.T) {
	s, surf, _, _ := newSync(t)
	require.NoError(t, s.MapReady())
	assert.Equal(t, moscow, s.SearchOrigin())

	spb := geo.Point{Lat: 59.9311, Lng: 30.3351}
	require.NoError(t, s.MoveCamera(spb, 8))
	assert.Equal(t, spb, s.SearchOrigin())
	assert.Equal(t, NoLocation, s.Location())

	// no circles or user marker without a location
	assert.Empty(t, surf.circles)
	assert.Nil(t, surf.userMarker)
	assert.Positive(t, surf.circlesClear)
}

func TestCameraPanDoesNotMoveOriginOnceLocated(t *testing.T) {
	s, surf, loc, _ := newSync(t)
	require.NoError(t, s.MapReady())

	require.NoError(t, s.LocateMe())
	assert.Equal(t, Locating, s.Location())
	assert.Equal(t, 1, loc.requests)

	user := geo.Point{Lat: 55.0, Lng: 37.0}
	require.NoError(t, s.LocationResolved(user, 30))
	assert.Equal(t, Located, s.Location())
	require.Len(t, surf.flown, 1)
	assert.Equal(t, Camera{Center: user, Zoom: LocateZoom}, surf.flown[0])

	require.NoError(t, s.MoveCamera(geo.Point{Lat: 43, Lng: 47}, 5))
	assert.Equal(t, user, s.SearchOrigin())
	assert.Equal(t, geo.Point{Lat: 43, Lng: 47}, s.Camera().Center)

	require.NotEmpty(t, surf.circles)
	assert.Len(t, surf.circles[len(surf.circles)-1].Features, 2)
	require.NotNil(t, surf.userMarker)
	assert.Equal(t, user, *surf.userMarker)
	assert.Equal(t, 30.0, surf.lastStatus().AccuracyM)
}

func TestLocateMeWhileLocatingIsNoop(t *testing.T) {
	s, _, loc, _ := newSync(t)
	require.NoError(t, s.LocateMe())
	require.NoError(t, s.LocateMe())
	require.NoError(t, s.LocateMe())
	assert.Equal(t, 1, loc.requests)
}

func TestLocateMeUsesFreshCache(t *testing.T) {
	s, surf, loc, clk := newSync(t)
	require.NoError(t, s.MapReady())
	require.NoError(t, s.LocateMe())
	require.NoError(t, s.LocationResolved(moscow, 10))

	require.NoError(t, s.MoveCamera(geo.Point{Lat: 50, Lng: 40}, 4))
	clk.t = clk.t.Add(2 * time.Minute)
	require.NoError(t, s.LocateMe())

	assert.Equal(t, 1, loc.requests, "cached fix must not prompt again")
	assert.Equal(t, Located, s.Location())
	assert.Equal(t, Camera{Center: moscow, Zoom: LocateZoom}, surf.flown[len(surf.flown)-1])

	clk.t = clk.t.Add(10 * time.Minute)
	require.NoError(t, s.LocateMe())
	assert.Equal(t, 2, loc.requests)
	assert.Equal(t, Locating, s.Location())
}

func TestStaleFixReleasesOriginOnRelocate(t *testing.T) {
	s, surf, loc, clk := newSync(t)
	require.NoError(t, s.SetOffers([]cargo.Offer{offerAt(1, &moscow, southOf(moscow, 100))}))
	require.NoError(t, s.MapReady())
	require.NoError(t, s.LocateMe())
	require.NoError(t, s.LocationResolved(moscow, 10))

	vladivostok := geo.Point{Lat: 43.1, Lng: 131.9}
	require.NoError(t, s.MoveCamera(vladivostok, 6))
	require.Equal(t, 1, surf.lastStatus().Visible)
	require.NotNil(t, surf.userMarker)
	cleared := surf.circlesClear

	clk.t = clk.t.Add(6 * time.Minute)
	require.NoError(t, s.LocateMe())

	assert.Equal(t, 2, loc.requests)
	assert.Equal(t, Locating, s.Location())
	assert.Equal(t, vladivostok, s.SearchOrigin())
	assert.Empty(t, s.Result().Offers)
	assert.Equal(t, 0, surf.lastStatus().Visible)
	assert.Equal(t, vladivostok, surf.lastStatus().SearchOrigin)
	assert.Nil(t, surf.userMarker)
	assert.Greater(t, surf.circlesClear, cleared)

	require.NoError(t, s.LocationResolved(moscow, 10))
	assert.Equal(t, moscow, s.SearchOrigin())
	assert.Len(t, s.Result().Offers, 1)
}

func TestLocationErrorsAndRetry(t *testing.T) {
	codes := []GeoErrorCode{GeoPermissionDenied, GeoPositionUnavailable, GeoTimeout, GeoOther}
	messages := map[string]bool{}

	for _, code := range codes {
		t.Run(string(code), func(t *testing.T) {
			s, surf, loc, _ := newSync(t)
			require.NoError(t, s.MapReady())
			require.NoError(t, s.LocateMe())
			require.NoError(t, s.LocationFailed(code))

			assert.Equal(t, LocationError, s.Location())
			st := surf.lastStatus()
			assert.Equal(t, code, st.LocationError)
			assert.Equal(t, code.Message(), st.Message)
			assert.True(t, st.Retryable)
			messages[st.Message] = true

			require.NoError(t, s.LocateMe())
			assert.Equal(t, Locating, s.Location())
			assert.Equal(t, 2, loc.requests)
		})
	}
	assert.Len(t, messages, len(codes), "each cause has its own message")
}

func TestLocatorUnsupported(t *testing.T) {
	s, surf, loc, _ := newSync(t)
	loc.err = ErrGeolocationUnsupported
	require.NoError(t, s.MapReady())
	require.NoError(t, s.LocateMe())

	assert.Equal(t, LocationError, s.Location())
	assert.Equal(t, GeoUnsupported, surf.lastStatus().LocationError)
	assert.False(t, surf.lastStatus().Retryable)
}

func TestLocatorTransportError(t *testing.T) {
	s, _, loc, _ := newSync(t)
	loc.err = errors.New("socket closed")
	err := s.LocateMe()
	require.Error(t, err)
	assert.Equal(t, LocationError, s.Location())
}

func TestLocationCallbacksWithoutRequest(t *testing.T) {
	s, _, _, _ := newSync(t)
	assert.ErrorIs(t, s.LocationResolved(moscow, 5), ErrNoPendingLocate)
	assert.ErrorIs(t, s.LocationFailed(GeoTimeout), ErrNoPendingLocate)
	assert.Equal(t, NoLocation, s.Location())
}

func TestLocationAppliedBeforeRecompute(t *testing.T) {
	s, _, _, _ := newSync(t)
	farAway := geo.Point{Lat: 43, Lng: 47}
	o := offerAt(1, &farAway, southOf(farAway, 100))
	require.NoError(t, s.SetOffers([]cargo.Offer{o}))
	assert.Empty(t, s.Result().Offers)

	require.NoError(t, s.LocateMe())
	require.NoError(t, s.LocationResolved(farAway, 5))
	assert.Len(t, s.Result().Offers, 1)
}

func TestCriteriaChangesRecompute(t *testing.T) {
	s, surf, _, _ := newSync(t)
	require.NoError(t, s.MapReady())
	o := offerAt(1, southOf(moscow, 150), southOf(moscow, 300))
	require.NoError(t, s.SetOffers([]cargo.Offer{o}))
	assert.Empty(t, s.Result().Offers)

	require.NoError(t, s.SetRadius(filter.RadiusLoading, 200))
	assert.Len(t, s.Result().Offers, 1)
	assert.Len(t, surf.lastMarkers().Features, 1)
	assert.Equal(t, 200.0, surf.lastStatus().LoadingRadiusKM)

	bad := s.Criteria()
	bad.Weight = filter.Range{Min: 10, Max: 1}
	assert.ErrorIs(t, s.SetCriteria(bad), filter.ErrInvalidCriteria)
	assert.Len(t, s.Result().Offers, 1, "rejected criteria leave state unchanged")

	c := s.Criteria()
	c.UrgentOnly = true
	require.NoError(t, s.SetCriteria(c))
	assert.Empty(t, s.Result().Offers)
	assert.Equal(t, 1, surf.lastStatus().ActiveFilters)

	require.NoError(t, s.ResetFilters())
	assert.Len(t, s.Result().Offers, 1)
	assert.Equal(t, 200.0, s.Criteria().LoadingRadiusKM)

	assert.ErrorIs(t, s.SetRadius("sideways", 10), filter.ErrInvalidCriteria)
}

func TestPushingSameStateIsIdempotent(t *testing.T) {
	s, surf, _, _ := newSync(t)
	require.NoError(t, s.SetOffers([]cargo.Offer{offerAt(1, &moscow, southOf(moscow, 100))}))
	require.NoError(t, s.MapReady())
	require.NoError(t, s.MapReady())

	require.Len(t, surf.markers, 2)
	a, err := surf.markers[0].MarshalJSON()
	require.NoError(t, err)
	b, err := surf.markers[1].MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
}

func TestMarkerFeatureProperties(t *testing.T) {
	s, surf, _, _ := newSync(t)
	dest := southOf(moscow, 100)
	o := offerAt(7, &moscow, dest)
	o.From = "Махачкала"
	require.NoError(t, s.SetOffers([]cargo.Offer{o}))
	require.NoError(t, s.MapReady())

	f := surf.lastMarkers().Features[0]
	assert.Equal(t, dest.Lng, f.Point().Lon())
	assert.Equal(t, dest.Lat, f.Point().Lat())
	assert.Equal(t, int64(7), f.Properties["id"])
	assert.Equal(t, "Махачкала", f.Properties["city"])
	assert.Equal(t, o.ProfitabilityRate, f.Properties["profitabilityRate"])
	assert.Equal(t, "hsl(18, 85%, 50%)", f.Properties["profitabilityColor"])
}

func TestClickClusterMovesCameraAndOrigin(t *testing.T) {
	s, surf, _, _ := newSync(t)
	a := offerAt(1, &moscow, &geo.Point{Lat: 55.70, Lng: 37.60})
	b := offerAt(2, &moscow, &geo.Point{Lat: 55.71, Lng: 37.61})
	north := offerAt(3, southOf(moscow, -8), southOf(moscow, 500))
	require.NoError(t, s.SetOffers([]cargo.Offer{a, b, north}))
	narrow := filter.Defaults()
	narrow.LoadingRadiusKM = 10
	require.NoError(t, s.SetCriteria(narrow))
	require.NoError(t, s.MapReady())
	require.Equal(t, 3, surf.lastStatus().Visible)

	var id int64
	for _, f := range surf.lastMarkers().Features {
		if f.Properties["cluster"] == true {
			id = f.Properties["cluster_id"].(int64)
		}
	}
	require.NotZero(t, id)

	require.NoError(t, s.ClickCluster(id))
	require.Len(t, surf.eased, 1)
	assert.Greater(t, surf.eased[0].Zoom, float64(DefaultZoom))
	assert.Equal(t, s.Camera(), surf.eased[0])

	// not located: the cluster center is the new origin and the result follows it
	assert.Equal(t, s.Camera().Center, s.SearchOrigin())
	assert.Equal(t, s.Camera().Center, surf.lastStatus().SearchOrigin)
	assert.Equal(t, 2, surf.lastStatus().Visible)
	assert.Equal(t, filter.Apply(s.Offers(), s.SearchOrigin(), s.Criteria()).Offers, s.Result().Offers)

	assert.Error(t, s.ClickCluster(123456))
}

func TestClickClusterKeepsLocatedOrigin(t *testing.T) {
	s, surf, _, _ := newSync(t)
	a := offerAt(1, &moscow, &geo.Point{Lat: 55.70, Lng: 37.60})
	b := offerAt(2, &moscow, &geo.Point{Lat: 55.71, Lng: 37.61})
	require.NoError(t, s.SetOffers([]cargo.Offer{a, b}))
	require.NoError(t, s.MapReady())
	require.NoError(t, s.LocateMe())
	require.NoError(t, s.LocationResolved(moscow, 10))

	id := surf.lastMarkers().Features[0].Properties["cluster_id"].(int64)
	require.NoError(t, s.ClickCluster(id))
	assert.Equal(t, moscow, s.SearchOrigin())
	assert.NotEqual(t, moscow, s.Camera().Center)
}

func TestVisibleOffer(t *testing.T) {
	s, _, _, _ := newSync(t)
	o := offerAt(3, &moscow, southOf(moscow, 100))
	hidden := offerAt(4, southOf(moscow, 900), southOf(moscow, 100))
	require.NoError(t, s.SetOffers([]cargo.Offer{o, hidden}))

	got, err := s.VisibleOffer(3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.ID)

	_, err = s.VisibleOffer(4)
	assert.ErrorIs(t, err, ErrUnknownOffer)

	_, err = s.Offer(4)
	assert.NoError(t, err)
}

func TestUpdateOffer(t *testing.T) {
	s, _, _, _ := newSync(t)
	o := offerAt(3, &moscow, southOf(moscow, 100))
	require.NoError(t, s.SetOffers([]cargo.Offer{o}))

	o.BookingStatus = cargo.BookingReserved
	require.NoError(t, s.UpdateOffer(o))
	assert.Empty(t, s.Result().Offers, "reserved offers drop out under available-only")

	assert.ErrorIs(t, s.UpdateOffer(offerAt(99, nil, nil)), ErrUnknownOffer)
}

func TestSetMarkersErrorSurfaces(t *testing.T) {
	s, surf, _, _ := newSync(t)
	surf.failMarkers = errors.New("boom")
	assert.Error(t, s.MapReady())
}

func TestParseGeoErrorCode(t *testing.T) {
	c, err := ParseGeoErrorCode("TIMEOUT")
	require.NoError(t, err)
	assert.Equal(t, GeoTimeout, c)
	_, err = ParseGeoErrorCode("bogus")
	assert.ErrorIs(t, err, ErrInvalidGeoErrorCode)
}

func TestMapDetachedDefersRendering(t *testing.T) {
	s, surf, loc, _ := newSync(t)
	require.NoError(t, s.MapReady())
	require.NoError(t, s.LocateMe())
	pushed := len(surf.markers)

	s.MapDetached()
	assert.Equal(t, MapLoading, s.MapState())
	assert.Equal(t, NoLocation, s.Location(), "the pending request died with the connection")

	require.NoError(t, s.SetOffers(nil))
	assert.Len(t, surf.markers, pushed)

	require.NoError(t, s.LocateMe())
	assert.Equal(t, 2, loc.requests)
}
