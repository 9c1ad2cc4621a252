package service

import (
	"context"
	"errors"
	"fmt"

	"dalnoboi/internal/domain/cargo"
	"dalnoboi/internal/domain/geo"
	"dalnoboi/internal/filter"
	"dalnoboi/internal/general/logger"
	"dalnoboi/internal/general/ticket"
	"dalnoboi/internal/overlay"
	"dalnoboi/internal/ports"

	"github.com/google/uuid"
)

// marketService owns the catalog, the live map sessions and the booking backend.
type marketService struct {
	logger  *logger.Logger
	catalog *Catalog
	hub     *Hub
	actions ports.Actions
	tickets *ticket.Manager
	opts    SessionOptions
}

// NewMarketService wires the service and subscribes live sessions to catalog reloads.
func NewMarketService(
	logger *logger.Logger,
	catalog *Catalog,
	hub *Hub,
	actions ports.Actions,
	tickets *ticket.Manager,
	opts SessionOptions,
) ports.MarketService {
	svc := &marketService{
		logger:  logger,
		catalog: catalog,
		hub:     hub,
		actions: actions,
		tickets: tickets,
		opts:    opts,
	}
	catalog.Subscribe(svc.fanOut)
	return svc
}

func (service *marketService) fanOut(offers []cargo.Offer) {
	for sid, err := range service.hub.Broadcast(offers) {
		ctx := service.logger.WithSessionID(context.Background(), sid)
		service.logger.Error(ctx, "session_refresh_failed", "Failed to push refreshed catalog", err, nil)
	}
}

// offers returns the cached catalog, loading it on first use.
func (service *marketService) offers(ctx context.Context) ([]cargo.Offer, error) {
	if service.catalog.LoadedAt().IsZero() {
		return service.catalog.Load(ctx)
	}
	return service.catalog.Offers(), nil
}

func (service *marketService) Offers(ctx context.Context) ([]cargo.Offer, error) {
	return service.offers(ctx)
}

func (service *marketService) OffersInBounds(ctx context.Context, b geo.Bounds) ([]cargo.Offer, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	offers, err := service.catalog.Source().ListInBounds(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("list offers in bounds: %w", err)
	}
	for i := range offers {
		offers[i].Annotate()
	}
	return offers, nil
}

func (service *marketService) Search(ctx context.Context, req ports.SearchRequest) (filter.Result, error) {
	if err := req.Origin.Validate(); err != nil {
		return filter.Result{}, err
	}
	c := filter.Defaults()
	if req.Criteria != nil {
		c = *req.Criteria
	}
	if err := c.Validate(); err != nil {
		return filter.Result{}, err
	}

	offers, err := service.offers(ctx)
	if err != nil {
		return filter.Result{}, err
	}
	return filter.Apply(offers, req.Origin, c), nil
}

func (service *marketService) Nearby(ctx context.Context, cargoID int64, radiusKM float64) ([]filter.NearbyItem, error) {
	offers, err := service.offers(ctx)
	if err != nil {
		return nil, err
	}

	var target *cargo.Offer
	others := make([]cargo.Offer, 0, len(offers))
	for i := range offers {
		if offers[i].ID == cargoID {
			target = &offers[i]
			continue
		}
		others = append(others, offers[i])
	}
	if target == nil {
		return nil, fmt.Errorf("%w: %d", ports.ErrOfferNotFound, cargoID)
	}
	if target.Destination == nil {
		return []filter.NearbyItem{}, nil
	}
	if radiusKM <= 0 {
		radiusKM = service.opts.NearbyRadiusKM
	}
	return filter.Nearby(others, *target.Destination, radiusKM), nil
}

// CreateSession opens a map session for an anonymous driver and issues its ticket.
func (service *marketService) CreateSession(ctx context.Context) (ports.SessionTicket, error) {
	offers, err := service.offers(ctx)
	if err != nil {
		return ports.SessionTicket{}, err
	}

	sessionID := uuid.NewString()
	driverID := "DRV-" + uuid.NewString()
	raw, claims, err := service.tickets.Issue(sessionID, driverID)
	if err != nil {
		return ports.SessionTicket{}, err
	}

	session := newSession(sessionID, driverID, service.logger, service.actions, service.opts)
	session.onBooked = func(orderID string) { service.hub.TrackOrder(orderID, sessionID) }
	if err := session.SetOffers(offers); err != nil {
		return ports.SessionTicket{}, err
	}
	service.hub.Add(session)

	service.logger.Info(service.logger.WithSessionID(ctx, sessionID), "session_created", "Map session created",
		map[string]any{"driver_id": driverID, "offers": len(offers)})

	return ports.SessionTicket{
		SessionID: sessionID,
		DriverID:  driverID,
		Ticket:    raw,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Attach binds a client to the session named in its ticket.
func (service *marketService) Attach(ctx context.Context, sessionID, driverID string, out ports.FrameSender) (ports.MapSession, error) {
	session, err := service.hub.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if session.DriverID() != driverID {
		return nil, fmt.Errorf("%w: %s", ticket.ErrSessionMismatch, sessionID)
	}
	if err := session.Attach(out); err != nil {
		return nil, err
	}
	service.logger.Info(ctx, "session_attached", "Client attached to map session", map[string]any{"driver_id": driverID})
	return session, nil
}

// DeliverOrderUpdate pushes a shipper-side order change to the session that booked it.
func (service *marketService) DeliverOrderUpdate(ctx context.Context, u ports.OrderUpdate) error {
	session, err := service.hub.SessionForOrder(u.OrderID)
	if err != nil {
		return err
	}
	ctx = service.logger.WithSessionID(ctx, session.ID())
	if err := session.ApplyOrderUpdate(u.Preview); err != nil {
		if errors.Is(err, overlay.ErrInvalidTransition) {
			// the driver closed the action panel; the tracker already holds the new status
			service.logger.Debug(ctx, "order_panel_closed", "Order update for a closed action panel",
				map[string]any{"order_id": u.OrderID, "status": u.Preview.Status})
			return nil
		}
		return fmt.Errorf("apply order %s: %w", u.OrderID, err)
	}
	service.logger.Info(ctx, "order_update_delivered", "Order update pushed to session",
		map[string]any{"order_id": u.OrderID, "status": u.Preview.Status})
	return nil
}

// IsNotFound reports errors that map to 404.
func IsNotFound(err error) bool {
	return errors.Is(err, ports.ErrOfferNotFound) || errors.Is(err, ports.ErrSessionNotFound)
}
