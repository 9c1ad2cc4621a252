package rabbitmq

import (
	"fmt"

	"dalnoboi/internal/general/contracts"

	amqp "github.com/rabbitmq/amqp091-go"
)

type exchangeDecl struct {
	name string
	kind string
}

type bindingDecl struct {
	queue      string
	exchange   string
	routingKey string
}

var (
	topologyExchanges = []exchangeDecl{
		{contracts.ExchangeCargoTopic, amqp.ExchangeTopic},
		{contracts.ExchangeOrderTopic, amqp.ExchangeTopic},
	}

	topologyQueues = []string{
		contracts.QueueCargoBookings,
		contracts.QueueCargoFavorites,
		contracts.QueueCargoReports,
		contracts.QueueOrderStatusMap,
	}

	topologyBindings = []bindingDecl{
		{contracts.QueueCargoBookings, contracts.ExchangeCargoTopic, contracts.RouteBookingPrefix + "*"},
		{contracts.QueueCargoFavorites, contracts.ExchangeCargoTopic, contracts.RouteFavoritePrefix + "*"},
		{contracts.QueueCargoReports, contracts.ExchangeCargoTopic, contracts.RouteReportPrefix + "*"},
		{contracts.QueueOrderStatusMap, contracts.ExchangeOrderTopic, contracts.RouteOrderStatusPrefix + "*"},
	}
)

func declareTopology(ch *amqp.Channel) error {
	for _, ex := range topologyExchanges {
		if err := ch.ExchangeDeclare(ex.name, ex.kind, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex.name, err)
		}
	}

	for _, q := range topologyQueues {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", q, err)
		}
	}

	for _, b := range topologyBindings {
		if err := ch.QueueBind(b.queue, b.routingKey, b.exchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
		}
	}
	return nil
}
