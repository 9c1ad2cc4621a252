package mapsync

import (
	"errors"
	"fmt"
	"time"

	"dalnoboi/internal/cluster"
	"dalnoboi/internal/domain/cargo"
	"dalnoboi/internal/domain/geo"
	"dalnoboi/internal/filter"
)

const (
	DefaultZoom       = 6
	LocateZoom        = 10
	DefaultStaleAfter = 5 * time.Minute
	DefaultLocateWait = 15 * time.Second
)

// DefaultCenter is the initial camera center (Moscow).
var DefaultCenter = geo.Point{Lat: 55.7558, Lng: 37.6176}

var (
	ErrNoPendingLocate    = errors.New("no geolocation request in flight")
	ErrUnknownOffer       = errors.New("offer is not visible")
	ErrInvalidCameraInput = errors.New("invalid camera position")
)

// Options configures a Synchronizer. Zero values take defaults.
type Options struct {
	Camera     Camera
	Criteria   *filter.Criteria
	StaleAfter time.Duration
	LocateWait time.Duration
	Cluster    cluster.Options
	Now        func() time.Time
}

// Synchronizer keeps one rendering surface consistent with the filtered catalog, the camera
// and the user's location. It is not safe for concurrent use; callers serialize events.
type Synchronizer struct {
	surface Surface
	locator Locator
	now     func() time.Time

	staleAfter time.Duration
	locateWait time.Duration
	clusterOpt cluster.Options

	mapState MapState
	mapError string

	location  LocationState
	userLoc   *geo.Point
	accuracy  float64
	locatedAt time.Time
	geoErr    GeoErrorCode

	camera   Camera
	criteria filter.Criteria
	offers   []cargo.Offer

	result filter.Result
	byID   map[int64]*cargo.Offer
	index  *cluster.Index
}

// New creates a synchronizer in the NO_LOCATION state. Nothing is pushed until MapReady.
func New(surface Surface, locator Locator, opts Options) *Synchronizer {
	s := &Synchronizer{
		surface:    surface,
		locator:    locator,
		now:        opts.Now,
		staleAfter: opts.StaleAfter,
		locateWait: opts.LocateWait,
		clusterOpt: opts.Cluster,
		mapState:   MapLoading,
		location:   NoLocation,
		camera:     opts.Camera,
		criteria:   filter.Defaults(),
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.staleAfter <= 0 {
		s.staleAfter = DefaultStaleAfter
	}
	if s.locateWait <= 0 {
		s.locateWait = DefaultLocateWait
	}
	if s.camera == (Camera{}) {
		s.camera = Camera{Center: DefaultCenter, Zoom: DefaultZoom}
	}
	if opts.Criteria != nil {
		s.criteria = *opts.Criteria
	}
	s.recompute()
	return s
}

// ----- read side -----

// SearchOrigin is the user's location when LOCATED, otherwise the camera center.
func (s *Synchronizer) SearchOrigin() geo.Point {
	if s.location == Located && s.userLoc != nil {
		return *s.userLoc
	}
	return s.camera.Center
}

func (s *Synchronizer) Camera() Camera { return s.camera }

func (s *Synchronizer) Location() LocationState { return s.location }

func (s *Synchronizer) MapState() MapState { return s.mapState }

func (s *Synchronizer) Criteria() filter.Criteria { return s.criteria }

func (s *Synchronizer) Result() filter.Result { return s.result }

func (s *Synchronizer) Offers() []cargo.Offer { return s.offers }

func (s *Synchronizer) LastGeoError() GeoErrorCode { return s.geoErr }

// UserLocation returns the cached position, if any.
func (s *Synchronizer) UserLocation() (geo.Point, bool) {
	if s.userLoc == nil {
		return geo.Point{}, false
	}
	return *s.userLoc, true
}

// VisibleOffer looks an offer up among the currently filtered set.
func (s *Synchronizer) VisibleOffer(id int64) (cargo.Offer, error) {
	o, ok := s.byID[id]
	if !ok {
		return cargo.Offer{}, fmt.Errorf("%w: %d", ErrUnknownOffer, id)
	}
	return *o, nil
}

// Offer looks an offer up in the whole catalog.
func (s *Synchronizer) Offer(id int64) (cargo.Offer, error) {
	for i := range s.offers {
		if s.offers[i].ID == id {
			return s.offers[i], nil
		}
	}
	return cargo.Offer{}, fmt.Errorf("%w: %d", ErrUnknownOffer, id)
}

// Status reports the current session summary.
func (s *Synchronizer) Status() Status {
	st := Status{
		Map:               s.mapState,
		MapError:          s.mapError,
		Location:          s.location,
		SearchOrigin:      s.SearchOrigin(),
		ActiveFilters:     s.result.ActiveCount,
		Visible:           len(s.result.Offers),
		Total:             s.result.Total,
		LoadingRadiusKM:   s.criteria.LoadingRadiusKM,
		UnloadingRadiusKM: s.criteria.UnloadingRadiusKM,
	}
	if s.location == Located {
		st.AccuracyM = s.accuracy
	}
	if s.location == LocationError {
		st.LocationError = s.geoErr
		st.Message = s.geoErr.Message()
		st.Retryable = s.geoErr.Retryable()
	}
	return st
}

// ----- map lifecycle -----

// MapReady marks the surface loaded and pushes the full state. A surface that failed
// earlier may report ready again after the client reloads it.
func (s *Synchronizer) MapReady() error {
	s.mapState = MapReady
	s.mapError = ""
	return s.render()
}

// MapFailed switches to the blocking unavailable state. Only the status is pushed.
func (s *Synchronizer) MapFailed(reason string) error {
	s.mapState = MapUnavailable
	s.mapError = reason
	return s.surface.SetStatus(s.Status())
}

// MapDetached forgets the surface after its connection drops. Rendering resumes on the
// next MapReady from a reconnected client.
func (s *Synchronizer) MapDetached() {
	s.mapState = MapLoading
	s.mapError = ""
	if s.location == Locating {
		s.location = NoLocation
	}
}

// ----- camera -----

// MoveCamera records a user pan or zoom. Once LOCATED the search origin stays put.
func (s *Synchronizer) MoveCamera(center geo.Point, zoom float64) error {
	if err := center.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCameraInput, err)
	}
	if zoom < 0 || zoom > 24 {
		return fmt.Errorf("%w: zoom %v", ErrInvalidCameraInput, zoom)
	}

	s.camera = Camera{Center: center, Zoom: zoom}
	if s.location != Located {
		s.recompute()
	}
	return s.render()
}

// ----- geolocation -----

// LocateMe starts a single geolocation request. While a request is in flight it is a no-op.
// A fresh cached position only recenters the camera.
func (s *Synchronizer) LocateMe() error {
	switch s.location {
	case Locating:
		return nil
	case Located:
		if s.userLoc != nil && s.now().Sub(s.locatedAt) < s.staleAfter {
			return s.flyTo(*s.userLoc)
		}
	}

	if s.locator == nil {
		return s.LocationFailed(GeoUnsupported)
	}

	wasLocated := s.location == Located
	s.location = Locating
	if err := s.locator.RequestPosition(s.locateWait, s.staleAfter); err != nil {
		if errors.Is(err, ErrGeolocationUnsupported) {
			return s.LocationFailed(GeoUnsupported)
		}
		s.location = LocationError
		s.geoErr = GeoOther
		s.userLoc = nil
		s.recompute()
		if rerr := s.render(); rerr != nil {
			return rerr
		}
		return fmt.Errorf("request position: %w", err)
	}

	// a stale fix no longer anchors the search: back to the camera center, circles hidden
	if wasLocated && s.location == Locating {
		s.recompute()
		return s.render()
	}
	return s.pushStatus()
}

// LocationResolved applies a successful position fix.
func (s *Synchronizer) LocationResolved(p geo.Point, accuracyMeters float64) error {
	if s.location != Locating {
		return ErrNoPendingLocate
	}
	if err := p.Validate(); err != nil {
		return s.LocationFailed(GeoPositionUnavailable)
	}

	s.location = Located
	s.userLoc = &p
	s.accuracy = accuracyMeters
	s.locatedAt = s.now()
	s.geoErr = ""
	s.recompute()

	if err := s.flyTo(p); err != nil {
		return err
	}
	return s.render()
}

// LocationFailed applies a geolocation error. Unsupported is accepted in any state.
func (s *Synchronizer) LocationFailed(code GeoErrorCode) error {
	if s.location != Locating && code != GeoUnsupported {
		return ErrNoPendingLocate
	}

	s.location = LocationError
	s.geoErr = code
	s.userLoc = nil
	s.recompute()
	return s.render()
}

func (s *Synchronizer) flyTo(p geo.Point) error {
	s.camera = Camera{Center: p, Zoom: LocateZoom}
	if s.mapState != MapReady {
		return nil
	}
	return s.surface.FlyTo(s.camera)
}

// ----- filtering -----

// SetOffers replaces the catalog.
func (s *Synchronizer) SetOffers(offers []cargo.Offer) error {
	s.offers = offers
	s.recompute()
	return s.render()
}

// SetCriteria validates and applies new filter criteria.
func (s *Synchronizer) SetCriteria(c filter.Criteria) error {
	if err := c.Validate(); err != nil {
		return err
	}
	s.criteria = c
	s.recompute()
	return s.render()
}

// SetRadius snaps and applies one radius.
func (s *Synchronizer) SetRadius(kind filter.RadiusKind, km float64) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: unknown radius %q", filter.ErrInvalidCriteria, kind)
	}
	return s.SetCriteria(s.criteria.WithRadius(kind, km))
}

// ResetFilters restores attribute filters to defaults, keeping the radii.
func (s *Synchronizer) ResetFilters() error {
	return s.SetCriteria(s.criteria.Reset())
}

// UpdateOffer replaces one offer in the catalog, e.g. after a booking or favorite change.
func (s *Synchronizer) UpdateOffer(o cargo.Offer) error {
	for i := range s.offers {
		if s.offers[i].ID == o.ID {
			s.offers[i] = o
			s.recompute()
			return s.render()
		}
	}
	return fmt.Errorf("%w: %d", ErrUnknownOffer, o.ID)
}

// ----- clusters -----

// ClickCluster eases the camera into a cluster. Overlays are not touched.
// Until LOCATED the cluster center becomes the search origin.
func (s *Synchronizer) ClickCluster(clusterID int64) error {
	zoom, err := s.index.ExpansionZoom(clusterID)
	if err != nil {
		return err
	}

	node, err := s.index.Node(clusterID)
	if err != nil {
		return err
	}

	s.camera = Camera{Center: node.Center, Zoom: float64(zoom)}
	if s.location != Located {
		s.recompute()
	}
	if s.mapState != MapReady {
		return nil
	}
	if err := s.surface.EaseTo(s.camera); err != nil {
		return err
	}
	return s.render()
}

// ----- internals -----

func (s *Synchronizer) recompute() {
	s.result = filter.Apply(s.offers, s.SearchOrigin(), s.criteria)

	s.byID = make(map[int64]*cargo.Offer, len(s.result.Offers))
	items := make([]cluster.Item, 0, len(s.result.Offers))
	for i := range s.result.Offers {
		o := &s.result.Offers[i]
		s.byID[o.ID] = o
		if pos, ok := MarkerPosition(o); ok {
			items = append(items, cluster.Item{ID: o.ID, Pos: pos})
		}
	}
	s.index = cluster.New(items, s.clusterOpt)
}

// render pushes every layer. It is idempotent and deferred until the map is ready.
func (s *Synchronizer) render() error {
	if s.mapState != MapReady {
		return nil
	}

	nodes := s.index.Clusters(s.camera.Zoom)
	if err := s.surface.SetMarkers(MarkerCollection(nodes, s.byID)); err != nil {
		return fmt.Errorf("push markers: %w", err)
	}

	if s.location == Located && s.userLoc != nil {
		circles := RadiusCollection(*s.userLoc, s.criteria.LoadingRadiusKM, s.criteria.UnloadingRadiusKM)
		if err := s.surface.SetRadiusCircles(circles); err != nil {
			return fmt.Errorf("push radius circles: %w", err)
		}
		if err := s.surface.SetUserMarker(*s.userLoc); err != nil {
			return fmt.Errorf("push user marker: %w", err)
		}
	} else {
		if err := s.surface.ClearRadiusCircles(); err != nil {
			return fmt.Errorf("clear radius circles: %w", err)
		}
		if err := s.surface.ClearUserMarker(); err != nil {
			return fmt.Errorf("clear user marker: %w", err)
		}
	}

	return s.surface.SetStatus(s.Status())
}

func (s *Synchronizer) pushStatus() error {
	if s.mapState != MapReady {
		return nil
	}
	return s.surface.SetStatus(s.Status())
}
