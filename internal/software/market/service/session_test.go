package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"dalnoboi/internal/domain/cargo"
	"dalnoboi/internal/domain/order"
	"dalnoboi/internal/general/logger"
	"dalnoboi/internal/mapsync"
	"dalnoboi/internal/overlay"
	"dalnoboi/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frame struct {
	Type string
	Data any
}

// recordingSender captures outbound frames.
type recordingSender struct {
	mu     sync.Mutex
	frames []frame
}

func (r *recordingSender) Send(msgType string, data any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, frame{Type: msgType, Data: data})
	return nil
}

func (r *recordingSender) ofType(msgType string) []frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []frame
	for _, f := range r.frames {
		if f.Type == msgType {
			out = append(out, f)
		}
	}
	return out
}

func (r *recordingSender) last(t *testing.T, msgType string) any {
	t.Helper()
	fs := r.ofType(msgType)
	require.NotEmpty(t, fs, "no %s frame", msgType)
	return fs[len(fs)-1].Data
}

func (r *recordingSender) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = nil
}

// failingActions rejects every call.
type failingActions struct{}

func (failingActions) Book(context.Context, ports.BookingRequest) (order.Preview, error) {
	return order.Preview{}, ports.ErrActionFailed
}
func (failingActions) ToggleFavorite(context.Context, ports.FavoriteRequest) error {
	return ports.ErrActionFailed
}
func (failingActions) Report(context.Context, ports.ReportRequest) error {
	return ports.ErrActionFailed
}
func (failingActions) OrderPreview(context.Context, string) (order.Preview, error) {
	return order.Preview{}, ports.ErrOrderUnknown
}

func testLogger() *logger.Logger { return logger.NewWithWriter("test", io.Discard) }

func raw(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

// newTestSession returns an attached, map-ready session centered on Makhachkala, where
// seed cargos 1, 3, 4, 5, 6 and 8 are visible.
func newTestSession(t *testing.T, actions ports.Actions) (*Session, *recordingSender) {
	t.Helper()
	s := newSession("sess-1", "DRV-1", testLogger(), actions, SessionOptions{})
	require.NoError(t, s.SetOffers(offersFromRecords(SeedRecords())))

	out := &recordingSender{}
	require.NoError(t, s.Attach(out))

	ctx := context.Background()
	require.NoError(t, s.Handle(ctx, "map_ready", nil))
	require.NoError(t, s.Handle(ctx, "camera_moved", raw(t, map[string]any{
		"center": map[string]float64{"lat": 42.9849, "lng": 47.5047},
		"zoom":   8,
	})))
	out.reset()
	return s, out
}

func click(t *testing.T, s *Session, id int64) error {
	return s.Handle(context.Background(), "marker_click", raw(t, map[string]any{"id": id, "x": 10, "y": 20}))
}

func TestSessionPushesNothingBeforeMapReady(t *testing.T) {
	s := newSession("sess-1", "DRV-1", testLogger(), NewMockActions(), SessionOptions{})
	out := &recordingSender{}
	require.NoError(t, s.Attach(out))
	require.NoError(t, s.SetOffers(offersFromRecords(SeedRecords())))
	assert.Empty(t, out.ofType(FrameMarkers))

	require.NoError(t, s.Handle(context.Background(), "map_ready", nil))
	assert.Len(t, out.ofType(FrameMarkers), 1)
	assert.Len(t, out.ofType(FrameOverlay), 1)
	st := out.last(t, FrameStatus).(mapsync.Status)
	assert.Equal(t, mapsync.MapReady, st.Map)
}

func TestSessionAttachIsExclusive(t *testing.T) {
	s := newSession("sess-1", "DRV-1", testLogger(), NewMockActions(), SessionOptions{})
	require.NoError(t, s.Attach(&recordingSender{}))
	assert.ErrorIs(t, s.Attach(&recordingSender{}), ports.ErrSessionBusy)

	s.Detach()
	assert.NoError(t, s.Attach(&recordingSender{}))
}

func TestSessionDetachDefersRenderingUntilMapReady(t *testing.T) {
	s, _ := newTestSession(t, NewMockActions())
	s.Detach()

	out := &recordingSender{}
	require.NoError(t, s.Attach(out))
	require.NoError(t, s.SetOffers(offersFromRecords(SeedRecords())))
	assert.Empty(t, out.ofType(FrameMarkers))
	assert.Equal(t, mapsync.MapLoading, s.Status().Map)
}

func TestSessionTooltipDetailBookFlow(t *testing.T) {
	actions := NewMockActions()
	s, out := newTestSession(t, actions)
	ctx := context.Background()

	var booked string
	s.onBooked = func(orderID string) { booked = orderID }

	require.NoError(t, click(t, s, 1))
	ov := out.last(t, FrameOverlay).(OverlayFrame)
	assert.Equal(t, "tooltip", ov.Foreground)
	require.NotNil(t, ov.Offer)
	assert.Equal(t, int64(1), ov.Offer.ID)

	require.NoError(t, click(t, s, 1))
	ov = out.last(t, FrameOverlay).(OverlayFrame)
	assert.Equal(t, overlay.PrimaryDetail, ov.Primary)
	assert.Equal(t, ov.Offer.ProfitabilityRate, ov.Offer.Score.Rate)

	require.NoError(t, s.Handle(ctx, "book", nil))
	ov = out.last(t, FrameOverlay).(OverlayFrame)
	assert.Equal(t, overlay.PrimaryAction, ov.Primary)
	require.NotNil(t, ov.Order)
	assert.Equal(t, order.StatusWaiting, ov.Order.Status)
	assert.Equal(t, 75, ov.Order.WaitingMinutes)
	assert.Equal(t, ov.Order.OrderID, booked)

	n := out.last(t, FrameNotification).(Notification)
	assert.Equal(t, Notification{Level: "success", Message: msgBooked}, n)

	o, err := s.mapSync.Offer(1)
	require.NoError(t, err)
	assert.Equal(t, cargo.BookingReserved, o.BookingStatus)

	// booked offers drop out of the available-only view
	_, err = s.mapSync.VisibleOffer(1)
	assert.ErrorIs(t, err, mapsync.ErrUnknownOffer)

	// a second booking needs the detail panel again
	assert.ErrorIs(t, s.Handle(ctx, "book", nil), overlay.ErrInvalidTransition)

	require.NoError(t, s.Handle(ctx, "close_panel", nil))
	assert.Equal(t, "idle", s.Overlay().Foreground)
}

func TestSessionBookingFailureIsNotCommitted(t *testing.T) {
	s, out := newTestSession(t, failingActions{})
	ctx := context.Background()

	require.NoError(t, click(t, s, 8))
	require.NoError(t, click(t, s, 8))
	require.NoError(t, s.Handle(ctx, "book", nil))

	n := out.last(t, FrameNotification).(Notification)
	assert.Equal(t, Notification{Level: "error", Message: msgBookFailed}, n)
	assert.Equal(t, overlay.PrimaryDetail, s.Overlay().Primary)

	o, err := s.mapSync.Offer(8)
	require.NoError(t, err)
	assert.Equal(t, cargo.BookingAvailable, o.BookingStatus)
}

func TestSessionMarkerClickNeedsVisibleOffer(t *testing.T) {
	s, out := newTestSession(t, NewMockActions())

	// cargo 2 loads in Derbent, outside the 100 km loading radius
	err := click(t, s, 2)
	assert.ErrorIs(t, err, mapsync.ErrUnknownOffer)
	assert.Empty(t, out.ofType(FrameOverlay))
}

func TestSessionFavoriteToggle(t *testing.T) {
	actions := NewMockActions()
	s, out := newTestSession(t, actions)
	ctx := context.Background()

	require.NoError(t, s.Handle(ctx, "toggle_favorite", raw(t, map[string]any{"id": 3})))
	assert.Equal(t, msgFavoriteAdded, out.last(t, FrameNotification).(Notification).Message)
	assert.True(t, actions.IsFavorite("DRV-1", 3))

	// favorites survive a catalog refresh
	require.NoError(t, s.SetOffers(offersFromRecords(SeedRecords())))
	o, err := s.mapSync.Offer(3)
	require.NoError(t, err)
	assert.True(t, o.Favorite)

	require.NoError(t, s.Handle(ctx, "toggle_favorite", raw(t, map[string]any{"id": 3})))
	assert.Equal(t, msgFavoriteRemoved, out.last(t, FrameNotification).(Notification).Message)
	assert.False(t, actions.IsFavorite("DRV-1", 3))
}

func TestSessionFavoriteFailureKeepsFlag(t *testing.T) {
	s, out := newTestSession(t, failingActions{})

	require.NoError(t, s.Handle(context.Background(), "toggle_favorite", raw(t, map[string]any{"id": 3})))
	assert.Equal(t, Notification{Level: "error", Message: msgFavoriteFailed}, out.last(t, FrameNotification).(Notification))
	o, _ := s.mapSync.Offer(3)
	assert.False(t, o.Favorite)
}

func TestSessionReport(t *testing.T) {
	actions := NewMockActions()
	s, out := newTestSession(t, actions)
	ctx := context.Background()

	err := s.Handle(ctx, "report", raw(t, map[string]any{"id": 5, "reason": "boring"}))
	assert.ErrorIs(t, err, ErrBadEvent)

	require.NoError(t, s.Handle(ctx, "report", raw(t, map[string]any{"id": 5, "reason": "spam", "comment": "дубль"})))
	assert.Equal(t, msgReported, out.last(t, FrameNotification).(Notification).Message)
	require.Len(t, actions.Reports(), 1)
	assert.Equal(t, "DRV-1", actions.Reports()[0].UserID)
}

func TestSessionNearbyPanel(t *testing.T) {
	s := newSession("sess-1", "DRV-1", testLogger(), NewMockActions(), SessionOptions{})
	records := []cargo.Record{
		{ID: 1, OriginCity: "A", Origin: pt(55.0, 37.0), DestinationCity: "B", Destination: pt(56.0, 38.0), WeightT: 10, PriceRub: 100000, DistanceKM: 500, CargoType: "Продукты"},
		{ID: 2, OriginCity: "B", Origin: pt(56.1, 38.1), DestinationCity: "C", Destination: pt(57.0, 39.0), WeightT: 10, PriceRub: 100000, DistanceKM: 500, CargoType: "Продукты"},
		{ID: 3, OriginCity: "Far", Origin: pt(43.0, 131.9), DestinationCity: "D", Destination: pt(44.0, 132.0), WeightT: 10, PriceRub: 100000, DistanceKM: 500, CargoType: "Продукты"},
	}
	require.NoError(t, s.SetOffers(offersFromRecords(records)))
	out := &recordingSender{}
	require.NoError(t, s.Attach(out))
	ctx := context.Background()
	require.NoError(t, s.Handle(ctx, "map_ready", nil))
	require.NoError(t, s.Handle(ctx, "camera_moved", raw(t, map[string]any{
		"center": map[string]float64{"lat": 55.0, "lng": 37.0}, "zoom": 7,
	})))

	require.NoError(t, click(t, s, 1))
	require.NoError(t, s.Handle(ctx, "show_nearby", nil))

	ov := out.last(t, FrameOverlay).(OverlayFrame)
	assert.Equal(t, overlay.PrimaryNearby, ov.Primary)
	require.Len(t, ov.Nearby, 1)
	assert.Equal(t, int64(2), ov.Nearby[0].ID)

	// details of a nearby cargo open even when it is filtered off the map
	require.NoError(t, s.Handle(ctx, "show_details", raw(t, map[string]any{"id": 2})))
	assert.Equal(t, int64(2), s.Overlay().SelectedCargo)
}

func TestSessionGeolocationRoundTrip(t *testing.T) {
	s, out := newTestSession(t, NewMockActions())
	ctx := context.Background()

	require.NoError(t, s.Handle(ctx, "locate_me", nil))
	req := out.last(t, FrameGeolocationRequest).(GeolocationRequestFrame)
	assert.True(t, req.EnableHighAccuracy)
	assert.Equal(t, int64(15000), req.TimeoutMS)

	require.NoError(t, s.Handle(ctx, "geolocation_result", raw(t, map[string]any{
		"lat": 42.98, "lng": 47.50, "accuracy": 25,
	})))
	st := s.Status()
	assert.Equal(t, mapsync.Located, st.Location)
	assert.Equal(t, 25.0, st.AccuracyM)
	assert.NotEmpty(t, out.ofType(FrameUserMarker))
	cam := out.last(t, FrameCamera).(CameraFrame)
	assert.Equal(t, "fly", cam.Animation)
}

func TestSessionGeolocationErrorCodes(t *testing.T) {
	s, _ := newTestSession(t, NewMockActions())
	ctx := context.Background()

	require.NoError(t, s.Handle(ctx, "locate_me", nil))
	require.NoError(t, s.Handle(ctx, "geolocation_error", raw(t, map[string]any{"code": "permission_denied"})))
	st := s.Status()
	assert.Equal(t, mapsync.LocationError, st.Location)
	assert.Equal(t, mapsync.GeoPermissionDenied, st.LocationError)

	// a reply with no request in flight is rejected
	err := s.Handle(ctx, "geolocation_error", raw(t, map[string]any{"code": "timeout"}))
	assert.ErrorIs(t, err, mapsync.ErrNoPendingLocate)
}

func TestSessionFilterEvents(t *testing.T) {
	s, out := newTestSession(t, NewMockActions())
	ctx := context.Background()

	require.NoError(t, s.Handle(ctx, "toggle_tag", raw(t, map[string]any{"dimension": "cargo_type", "value": "food"})))
	assert.Equal(t, 1, out.last(t, FrameStatus).(mapsync.Status).ActiveFilters)

	require.NoError(t, s.Handle(ctx, "set_radius", raw(t, map[string]any{"kind": "loading", "km": 333})))
	assert.Equal(t, 330.0, s.Status().LoadingRadiusKM)

	require.NoError(t, s.Handle(ctx, "reset_filters", nil))
	assert.Equal(t, 0, s.Status().ActiveFilters)
	assert.Equal(t, 330.0, s.Status().LoadingRadiusKM)

	err := s.Handle(ctx, "toggle_tag", raw(t, map[string]any{"dimension": "cargo_type", "value": "rockets"}))
	assert.ErrorIs(t, err, cargo.ErrInvalidType)

	err = s.Handle(ctx, "set_criteria", raw(t, map[string]any{"loading_radius_km": -1}))
	assert.Error(t, err)
}

func TestSessionPanelsAndOutsideClick(t *testing.T) {
	s, out := newTestSession(t, NewMockActions())
	ctx := context.Background()

	require.NoError(t, s.Handle(ctx, "toggle_panel", raw(t, map[string]any{"panel": "filters"})))
	assert.True(t, out.last(t, FrameOverlay).(OverlayFrame).FilterPanel)

	require.NoError(t, click(t, s, 5))
	require.NoError(t, s.Handle(ctx, "outside_click", nil))
	assert.Equal(t, "idle", s.Overlay().Foreground)

	assert.ErrorIs(t, s.Handle(ctx, "close_panel", nil), overlay.ErrInvalidTransition)
	assert.ErrorIs(t, s.Handle(ctx, "toggle_panel", raw(t, map[string]any{"panel": "chat"})), ErrBadEvent)
}

func TestSessionRejectsUnknownEvent(t *testing.T) {
	s, _ := newTestSession(t, NewMockActions())
	err := s.Handle(context.Background(), "teleport", nil)
	assert.True(t, errors.Is(err, ErrUnknownEvent))
}

func TestSessionMapErrorBlocksRendering(t *testing.T) {
	s := newSession("sess-1", "DRV-1", testLogger(), NewMockActions(), SessionOptions{Now: func() time.Time { return time.Unix(0, 0) }})
	out := &recordingSender{}
	require.NoError(t, s.Attach(out))

	require.NoError(t, s.Handle(context.Background(), "map_error", raw(t, map[string]any{"reason": "webgl"})))
	st := out.last(t, FrameStatus).(mapsync.Status)
	assert.Equal(t, mapsync.MapUnavailable, st.Map)
	assert.Equal(t, "webgl", st.MapError)

	require.NoError(t, s.SetOffers(offersFromRecords(SeedRecords())))
	assert.Empty(t, out.ofType(FrameMarkers))
}

func TestSessionAppliesOrderUpdates(t *testing.T) {
	s, out := newTestSession(t, NewMockActions())
	ctx := context.Background()

	require.NoError(t, click(t, s, 1))
	require.NoError(t, click(t, s, 1))
	require.NoError(t, s.Handle(ctx, "book", nil))

	p := *s.Overlay().Order
	p.Status = order.StatusReady
	p.Finalize()
	require.NoError(t, s.ApplyOrderUpdate(p))

	ov := out.last(t, FrameOverlay).(OverlayFrame)
	assert.Equal(t, order.StatusReady, ov.Order.Status)
	assert.Equal(t, 0, ov.Order.WaitingMinutes)

	other := p
	other.OrderID = "ORD-OTHER"
	assert.ErrorIs(t, s.ApplyOrderUpdate(other), overlay.ErrInvalidTransition)
}
