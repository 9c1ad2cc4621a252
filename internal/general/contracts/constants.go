package contracts

// Exchanges
const (
	ExchangeCargoTopic = "cargo_topic"
	ExchangeOrderTopic = "order_topic"
)

// Queues
const (
	QueueCargoBookings  = "cargo_bookings"
	QueueCargoFavorites = "cargo_favorites"
	QueueCargoReports   = "cargo_reports"
	QueueOrderStatusMap = "order_status_map"
)

// Routing patterns
const (
	RouteBookingPrefix     = "cargo.booking."  // {load_id}
	RouteFavoritePrefix    = "cargo.favorite." // {load_id}
	RouteReportPrefix      = "cargo.report."   // {reason}
	RouteOrderStatusPrefix = "order.status."   // {status}
)

// Producer names carried in envelopes.
const ProducerMapService = "map-service"
