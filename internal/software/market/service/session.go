package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"dalnoboi/internal/domain/cargo"
	"dalnoboi/internal/domain/order"
	"dalnoboi/internal/domain/profit"
	"dalnoboi/internal/filter"
	"dalnoboi/internal/general/logger"
	"dalnoboi/internal/mapsync"
	"dalnoboi/internal/overlay"
	"dalnoboi/internal/ports"
)

var ErrUnknownEvent = errors.New("unknown event type")

// Notification texts shown as toasts.
const (
	msgBooked          = "Груз забронирован"
	msgBookFailed      = "Не удалось забронировать груз"
	msgFavoriteAdded   = "Добавлено в избранное"
	msgFavoriteRemoved = "Удалено из избранного"
	msgFavoriteFailed  = "Не удалось обновить избранное"
	msgReported        = "Жалоба отправлена"
	msgReportFailed    = "Не удалось отправить жалобу"
)

// Notification is a transient toast.
type Notification struct {
	Level   string `json:"level"` // success | error
	Message string `json:"message"`
}

// OfferDetail is an offer with its profitability breakdown.
type OfferDetail struct {
	cargo.Offer
	Score profit.Score `json:"score"`
}

// OverlayFrame is the overlay state plus the data its panels display.
type OverlayFrame struct {
	overlay.View
	Offer  *OfferDetail        `json:"offer,omitempty"`
	Nearby []filter.NearbyItem `json:"nearby,omitempty"`
}

// SessionOptions configures new map sessions.
type SessionOptions struct {
	StaleAfter     time.Duration
	LocateWait     time.Duration
	NearbyRadiusKM float64
	Now            func() time.Time
}

// Session is one driver's live map: the synchronizer, the overlay machine and the
// booking-flow actions, driven by events from the attached client one at a time.
type Session struct {
	id       string
	driverID string
	logger   *logger.Logger
	actions  ports.Actions
	nearbyKM float64
	now      func() time.Time
	onBooked func(orderID string)

	mu        sync.Mutex
	surface   *frameSurface
	mapSync   *mapsync.Synchronizer
	overlay   *overlay.Machine
	attached  bool
	lastSeen  time.Time
	favorites map[int64]bool
	bookings  map[int64]cargo.BookingStatus
}

func newSession(id, driverID string, logger *logger.Logger, actions ports.Actions, opts SessionOptions) *Session {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	nearby := opts.NearbyRadiusKM
	if nearby <= 0 {
		nearby = filter.NearbyRadiusKM
	}

	surface := &frameSurface{}
	return &Session{
		id:       id,
		driverID: driverID,
		logger:   logger,
		actions:  actions,
		nearbyKM: nearby,
		now:      now,
		surface:  surface,
		mapSync: mapsync.New(surface, surface, mapsync.Options{
			StaleAfter: opts.StaleAfter,
			LocateWait: opts.LocateWait,
			Now:        now,
		}),
		overlay:   overlay.New(),
		lastSeen:  now(),
		favorites: make(map[int64]bool),
		bookings:  make(map[int64]cargo.BookingStatus),
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) DriverID() string { return s.driverID }

// Attach binds a client. Only one client may be attached at a time.
func (s *Session) Attach(out ports.FrameSender) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attached {
		return ports.ErrSessionBusy
	}
	s.surface.out = out
	s.attached = true
	s.lastSeen = s.now()
	return nil
}

// Detach releases the client. Rendering resumes after the next map_ready.
func (s *Session) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.surface.out = nil
	s.attached = false
	s.lastSeen = s.now()
	s.mapSync.MapDetached()
}

// idleSince reports when the session was last used, and false while a client is attached.
func (s *Session) idleSince() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen, !s.attached
}

// SetOffers replaces the catalog, keeping this driver's favorites and bookings.
func (s *Session) SetOffers(offers []cargo.Offer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range offers {
		if fav, ok := s.favorites[offers[i].ID]; ok {
			offers[i].Favorite = fav
		}
		if st, ok := s.bookings[offers[i].ID]; ok {
			offers[i].BookingStatus = st
		}
	}
	return s.mapSync.SetOffers(offers)
}

// ApplyOrderUpdate refreshes the action panel when the shipper changes the order.
func (s *Session) ApplyOrderUpdate(p order.Preview) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.overlay.UpdateOrder(p); err != nil {
		return err
	}
	return s.sendOverlay()
}

// Status returns the synchronizer summary.
func (s *Session) Status() mapsync.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mapSync.Status()
}

// Overlay returns the overlay view.
func (s *Session) Overlay() overlay.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overlay.View()
}

// Row summarizes the session for the operator dashboard.
func (s *Session) Row() ports.SessionRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.mapSync.Status()
	return ports.SessionRow{
		SessionID:     s.id,
		DriverID:      s.driverID,
		Attached:      s.attached,
		LastSeen:      s.lastSeen.UTC(),
		Map:           st.Map.String(),
		Location:      st.Location.String(),
		Foreground:    s.overlay.Foreground(),
		Visible:       st.Visible,
		ActiveFilters: st.ActiveFilters,
		Bookings:      len(s.bookings),
	}
}

// Handle applies one inbound event.
func (s *Session) Handle(ctx context.Context, msgType string, data json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = s.now()

	switch msgType {
	case "map_ready":
		if err := s.mapSync.MapReady(); err != nil {
			return err
		}
		return s.sendOverlay()
	case "map_error":
		ev, err := decodeEvent[mapErrorEvent](data)
		if err != nil {
			return err
		}
		s.logger.Error(ctx, "map_surface_failed", "Client map failed to load", nil, map[string]any{"reason": ev.Reason})
		return s.mapSync.MapFailed(ev.Reason)
	case "camera_moved":
		ev, err := decodeEvent[cameraEvent](data)
		if err != nil {
			return err
		}
		return s.mapSync.MoveCamera(ev.Center, ev.Zoom)
	case "locate_me":
		return s.mapSync.LocateMe()
	case "geolocation_result":
		ev, err := decodeEvent[geolocationResultEvent](data)
		if err != nil {
			return err
		}
		return s.mapSync.LocationResolved(ev.point(), ev.Accuracy)
	case "geolocation_error":
		ev, err := decodeEvent[geolocationErrorEvent](data)
		if err != nil {
			return err
		}
		code, err := mapsync.ParseGeoErrorCode(ev.Code)
		if err != nil {
			code = mapsync.GeoOther
		}
		return s.mapSync.LocationFailed(code)
	case "set_criteria":
		c := filter.Defaults()
		if err := json.Unmarshal(data, &c); err != nil {
			return fmt.Errorf("%w: %v", ErrBadEvent, err)
		}
		return s.mapSync.SetCriteria(c)
	case "reset_filters":
		return s.mapSync.ResetFilters()
	case "set_radius":
		ev, err := decodeEvent[radiusEvent](data)
		if err != nil {
			return err
		}
		return s.mapSync.SetRadius(ev.Kind, ev.KM)
	case "toggle_tag":
		return s.toggleTag(data)
	case "marker_click":
		return s.markerClick(data)
	case "cluster_click":
		ev, err := decodeEvent[clusterClickEvent](data)
		if err != nil {
			return err
		}
		return s.mapSync.ClickCluster(ev.ClusterID)
	case "outside_click":
		s.overlay.OutsideClick()
		return s.sendOverlay()
	case "show_details":
		ev, err := decodeEvent[cargoEvent](data)
		if err != nil {
			return err
		}
		if _, err := s.mapSync.Offer(ev.ID); err != nil {
			return err
		}
		if err := s.overlay.ShowDetails(ev.ID); err != nil {
			return err
		}
		return s.sendOverlay()
	case "show_nearby":
		if err := s.overlay.ShowNearby(); err != nil {
			return err
		}
		return s.sendOverlay()
	case "close_panel":
		if err := s.overlay.Close(); err != nil {
			return err
		}
		return s.sendOverlay()
	case "toggle_panel":
		ev, err := decodeEvent[togglePanelEvent](data)
		if err != nil {
			return err
		}
		if ev.Panel == "filters" {
			s.overlay.ToggleFilterPanel()
		} else {
			s.overlay.ToggleSettingsPanel()
		}
		return s.sendOverlay()
	case "book":
		return s.book(ctx)
	case "toggle_favorite":
		ev, err := decodeEvent[cargoEvent](data)
		if err != nil {
			return err
		}
		return s.toggleFavorite(ctx, ev.ID)
	case "report":
		ev, err := decodeEvent[reportEvent](data)
		if err != nil {
			return err
		}
		return s.report(ctx, ev)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, msgType)
	}
}

func (s *Session) toggleTag(data json.RawMessage) error {
	ev, err := decodeEvent[toggleTagEvent](data)
	if err != nil {
		return err
	}

	c := s.mapSync.Criteria()
	switch ev.Dimension {
	case "cargo_type":
		t, err := cargo.ParseType(ev.Value)
		if err != nil {
			return err
		}
		c = c.ToggleCargoType(t)
	case "body_type":
		b, err := cargo.ParseBodyType(ev.Value)
		if err != nil {
			return err
		}
		c = c.ToggleBodyType(b)
	case "loading_type":
		l, err := cargo.ParseLoadingType(ev.Value)
		if err != nil {
			return err
		}
		c = c.ToggleLoadingType(l)
	}
	return s.mapSync.SetCriteria(c)
}

func (s *Session) markerClick(data json.RawMessage) error {
	ev, err := decodeEvent[markerClickEvent](data)
	if err != nil {
		return err
	}
	if _, err := s.mapSync.VisibleOffer(ev.ID); err != nil {
		return err
	}
	if err := s.overlay.ClickMarker(ev.ID, overlay.Pixel{X: ev.X, Y: ev.Y}); err != nil {
		return err
	}
	return s.sendOverlay()
}

// book reserves the cargo in the detail panel. The offer changes only after the backend
// accepts the booking.
func (s *Session) book(ctx context.Context) error {
	if s.overlay.Primary() != overlay.PrimaryDetail {
		return fmt.Errorf("%w: booking needs the detail panel", overlay.ErrInvalidTransition)
	}
	id := s.overlay.Selected()
	offer, err := s.mapSync.Offer(id)
	if err != nil {
		return err
	}
	if !offer.BookingStatus.CanTransitionTo(cargo.BookingReserved) {
		return s.notify("error", msgBookFailed)
	}

	preview, err := s.actions.Book(ctx, ports.BookingRequest{UserID: s.driverID, LoadID: id})
	if err != nil {
		s.logger.Error(ctx, "booking_failed", "Booking was not accepted", err, map[string]any{"cargo_id": id})
		return s.notify("error", msgBookFailed)
	}

	offer.BookingStatus = cargo.BookingReserved
	s.bookings[id] = cargo.BookingReserved
	if err := s.mapSync.UpdateOffer(offer); err != nil {
		return err
	}
	if err := s.overlay.BookingSucceeded(preview); err != nil {
		return err
	}
	if s.onBooked != nil {
		s.onBooked(preview.OrderID)
	}
	s.logger.Info(ctx, "cargo_booked", "Cargo booked", map[string]any{"cargo_id": id, "order_id": preview.OrderID})

	if err := s.sendOverlay(); err != nil {
		return err
	}
	return s.notify("success", msgBooked)
}

func (s *Session) toggleFavorite(ctx context.Context, id int64) error {
	offer, err := s.mapSync.Offer(id)
	if err != nil {
		return err
	}

	want := !offer.Favorite
	req := ports.FavoriteRequest{UserID: s.driverID, LoadID: id, Favorite: want}
	if err := s.actions.ToggleFavorite(ctx, req); err != nil {
		s.logger.Error(ctx, "favorite_failed", "Favorite change was not accepted", err, map[string]any{"cargo_id": id})
		return s.notify("error", msgFavoriteFailed)
	}

	offer.Favorite = want
	s.favorites[id] = want
	if err := s.mapSync.UpdateOffer(offer); err != nil {
		return err
	}
	if s.overlay.Selected() == id || s.overlay.Hovered() == id {
		if err := s.sendOverlay(); err != nil {
			return err
		}
	}
	if want {
		return s.notify("success", msgFavoriteAdded)
	}
	return s.notify("success", msgFavoriteRemoved)
}

func (s *Session) report(ctx context.Context, ev reportEvent) error {
	if _, err := s.mapSync.Offer(ev.ID); err != nil {
		return err
	}

	req := ports.ReportRequest{UserID: s.driverID, LoadID: ev.ID, Reason: ev.Reason, Comment: ev.Comment}
	if err := s.actions.Report(ctx, req); err != nil {
		s.logger.Error(ctx, "report_failed", "Complaint was not accepted", err, map[string]any{"cargo_id": ev.ID})
		return s.notify("error", msgReportFailed)
	}
	return s.notify("success", msgReported)
}

// overlayFrame assembles the overlay view with the offer it refers to.
func (s *Session) overlayFrame() OverlayFrame {
	frame := OverlayFrame{View: s.overlay.View()}

	id := frame.SelectedCargo
	if frame.Primary == overlay.PrimaryNone {
		id = s.overlay.Hovered()
	}
	if id == 0 {
		return frame
	}
	offer, err := s.mapSync.Offer(id)
	if err != nil {
		return frame
	}
	frame.Offer = &OfferDetail{Offer: offer, Score: offer.Score()}

	if frame.Primary == overlay.PrimaryNearby {
		frame.Nearby = []filter.NearbyItem{}
		if offer.Destination != nil {
			others := make([]cargo.Offer, 0, len(s.mapSync.Offers()))
			for _, o := range s.mapSync.Offers() {
				if o.ID != id {
					others = append(others, o)
				}
			}
			frame.Nearby = filter.Nearby(others, *offer.Destination, s.nearbyKM)
		}
	}
	return frame
}

func (s *Session) sendOverlay() error {
	return s.surface.send(FrameOverlay, s.overlayFrame())
}

func (s *Session) notify(level, message string) error {
	return s.surface.send(FrameNotification, Notification{Level: level, Message: message})
}
