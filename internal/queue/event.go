// Package queue carries order events over RabbitMQ: the publisher used by
// the checkout flow and the background consumer that keeps the order log.
package queue

// OrderPlacedEvent is published after an order has been stored.  It holds
// enough for downstream consumers to log or notify without querying the
// database.
type OrderPlacedEvent struct {
	EventID       string           `json:"event_id"`
	OrderID       uint64           `json:"order_id"`
	UserID        uint64           `json:"user_id"`
	CafeID        uint64           `json:"cafe_id"`
	CafeName      string           `json:"cafe_name"`
	Items         []OrderEventItem `json:"items"`
	TotalCents    int64            `json:"total_cents"`
	PaymentMethod string           `json:"payment_method"`
	PlacedAt      string           `json:"placed_at"`
}

// OrderEventItem is one line of the event.
type OrderEventItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}
