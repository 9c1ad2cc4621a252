package service

import (
	"context"
	"encoding/json"
	"errors"

	"dalnoboi/internal/general/contracts"
	"dalnoboi/internal/general/logger"
	"dalnoboi/internal/general/rabbitmq"
	"dalnoboi/internal/ports"

	amqp "github.com/rabbitmq/amqp091-go"
)

const orderConsumerTag = "map-service-order-status"

// OrderTracker folds shipper-side status messages into known orders.
type OrderTracker interface {
	ApplyStatus(ctx context.Context, msg contracts.OrderStatusMessage) (ports.OrderUpdate, error)
}

// Consumer is the part of the RabbitMQ client the order consumer needs.
type Consumer interface {
	ConsumeWithRetry(ctx context.Context, queue, consumerTag string, prefetch int, handler rabbitmq.Handler) error
}

// OrderStatusConsumer relays order status changes from RabbitMQ to map sessions.
type OrderStatusConsumer struct {
	logger   *logger.Logger
	consumer Consumer
	tracker  OrderTracker
	market   ports.MarketService
	prefetch int
}

func NewOrderStatusConsumer(logger *logger.Logger, consumer Consumer, tracker OrderTracker, market ports.MarketService, prefetch int) *OrderStatusConsumer {
	if prefetch <= 0 {
		prefetch = 10
	}
	return &OrderStatusConsumer{
		logger:   logger,
		consumer: consumer,
		tracker:  tracker,
		market:   market,
		prefetch: prefetch,
	}
}

// Run consumes until ctx is done.
func (c *OrderStatusConsumer) Run(ctx context.Context) error {
	c.logger.Info(ctx, "order_consumer_started", "Consuming order status updates", map[string]any{
		"queue":    contracts.QueueOrderStatusMap,
		"prefetch": c.prefetch,
	})
	return c.consumer.ConsumeWithRetry(ctx, contracts.QueueOrderStatusMap, orderConsumerTag, c.prefetch, c.handle)
}

// handle acks updates for orders this instance does not know or whose session is gone.
func (c *OrderStatusConsumer) handle(ctx context.Context, d amqp.Delivery) error {
	var msg contracts.OrderStatusMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		c.logger.Error(ctx, "mq_message_parse_failed", "Failed to parse order status", err,
			map[string]any{"routing_key": d.RoutingKey})
		return err
	}

	update, err := c.tracker.ApplyStatus(ctx, msg)
	if errors.Is(err, ports.ErrOrderUnknown) {
		c.logger.Debug(ctx, "order_status_ignored", "Status for an order booked elsewhere", map[string]any{"order_id": msg.OrderID})
		return nil
	}
	if err != nil {
		c.logger.Error(ctx, "order_status_invalid", "Rejected order status", err, map[string]any{"order_id": msg.OrderID})
		return err
	}

	if err := c.market.DeliverOrderUpdate(ctx, update); err != nil {
		if errors.Is(err, ports.ErrSessionNotFound) {
			c.logger.Debug(ctx, "order_session_gone", "No live session for order", map[string]any{"order_id": msg.OrderID})
			return nil
		}
		c.logger.Error(ctx, "order_update_failed", "Failed to push order update", err, map[string]any{"order_id": msg.OrderID})
		return err
	}
	return nil
}
