package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"dalnoboi/internal/domain/order"
	"dalnoboi/internal/general/contracts"
	"dalnoboi/internal/general/logger"
	"dalnoboi/internal/ports"

	"github.com/google/uuid"
)

// Publisher sends one JSON message and waits for the broker confirm.
type Publisher interface {
	PublishJSON(ctx context.Context, exchange, routingKey string, v any) error
}

// MQActions forwards booking-flow commands to the shipper side over RabbitMQ. A command
// succeeds only when the broker confirms it. Order status changes come back through
// ApplyStatus.
type MQActions struct {
	pub    Publisher
	logger *logger.Logger
	now    func() time.Time
	newID  func() string

	mu       sync.Mutex
	previews map[string]order.Preview
}

func NewMQActions(pub Publisher, logger *logger.Logger) *MQActions {
	return &MQActions{
		pub:      pub,
		logger:   logger,
		now:      time.Now,
		newID:    NewOrderID,
		previews: make(map[string]order.Preview),
	}
}

func (a *MQActions) envelope() contracts.Envelope {
	return contracts.Envelope{
		CorrelationID: uuid.NewString(),
		Producer:      contracts.ProducerMapService,
		SentAt:        a.now().UTC(),
	}
}

func (a *MQActions) Book(ctx context.Context, req ports.BookingRequest) (order.Preview, error) {
	if err := validateRequest(req); err != nil {
		return order.Preview{}, err
	}

	orderID := a.newID()
	cmd := contracts.BookingCommand{
		OrderID:  orderID,
		LoadID:   req.LoadID,
		UserID:   req.UserID,
		Envelope: a.envelope(),
	}
	key := contracts.RouteBookingPrefix + strconv.FormatInt(req.LoadID, 10)
	if err := a.pub.PublishJSON(ctx, contracts.ExchangeCargoTopic, key, cmd); err != nil {
		return order.Preview{}, fmt.Errorf("%w: publish booking: %v", ports.ErrActionFailed, err)
	}

	p := BuildPreview(orderID, req.LoadID, req.UserID, a.now())
	a.mu.Lock()
	a.previews[orderID] = p
	a.mu.Unlock()

	a.logger.Info(ctx, "booking_published", "Booking command confirmed by broker", map[string]any{
		"order_id":       orderID,
		"load_id":        req.LoadID,
		"correlation_id": cmd.CorrelationID,
	})
	return p, nil
}

func (a *MQActions) ToggleFavorite(ctx context.Context, req ports.FavoriteRequest) error {
	if err := validateRequest(req); err != nil {
		return err
	}

	cmd := contracts.FavoriteCommand{
		LoadID:   req.LoadID,
		UserID:   req.UserID,
		Favorite: req.Favorite,
		Envelope: a.envelope(),
	}
	key := contracts.RouteFavoritePrefix + strconv.FormatInt(req.LoadID, 10)
	if err := a.pub.PublishJSON(ctx, contracts.ExchangeCargoTopic, key, cmd); err != nil {
		return fmt.Errorf("%w: publish favorite: %v", ports.ErrActionFailed, err)
	}
	return nil
}

func (a *MQActions) Report(ctx context.Context, req ports.ReportRequest) error {
	if err := validateRequest(req); err != nil {
		return err
	}

	cmd := contracts.ReportCommand{
		LoadID:   req.LoadID,
		UserID:   req.UserID,
		Reason:   req.Reason,
		Comment:  req.Comment,
		Envelope: a.envelope(),
	}
	if err := a.pub.PublishJSON(ctx, contracts.ExchangeCargoTopic, contracts.RouteReportPrefix+req.Reason, cmd); err != nil {
		return fmt.Errorf("%w: publish report: %v", ports.ErrActionFailed, err)
	}
	return nil
}

func (a *MQActions) OrderPreview(_ context.Context, orderID string) (order.Preview, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.previews[orderID]
	if !ok {
		return order.Preview{}, fmt.Errorf("%w: %s", ports.ErrOrderUnknown, orderID)
	}
	return p, nil
}

// ApplyStatus folds a shipper-side status change into the stored preview.
func (a *MQActions) ApplyStatus(_ context.Context, msg contracts.OrderStatusMessage) (ports.OrderUpdate, error) {
	status, err := order.ParseStatus(msg.Status)
	if err != nil {
		return ports.OrderUpdate{}, fmt.Errorf("order %s: %w", msg.OrderID, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.previews[msg.OrderID]
	if !ok {
		return ports.OrderUpdate{}, fmt.Errorf("%w: %s", ports.ErrOrderUnknown, msg.OrderID)
	}

	p.Status = status
	if msg.Queue != nil {
		p.Queue = order.Queue{
			Position:       msg.Queue.Position,
			Total:          msg.Queue.Total,
			AvgPerTruckMin: msg.Queue.AvgPerTruckMin,
		}
	}
	p.Finalize()
	a.previews[msg.OrderID] = p

	return ports.OrderUpdate{
		OrderID:  p.OrderID,
		CargoID:  p.CargoID,
		DriverID: p.DriverID,
		Preview:  p,
	}, nil
}
