package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher sends order events to a durable queue.  A connection is opened
// per publish; orders are rare enough that pooling is not needed.
type Publisher struct {
	URL   string
	Queue string
	Log   *zap.Logger
}

// NewPublisher returns a Publisher for queue on the broker at url.
func NewPublisher(url, queue string, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{URL: url, Queue: queue, Log: log}
}

// PublishOrderPlaced publishes ev as a persistent JSON message.  Errors are
// logged and returned so the caller can choose to ignore them.
func (p *Publisher) PublishOrderPlaced(ctx context.Context, ev OrderPlacedEvent) error {
	log := p.Log.With(zap.String("queue", p.Queue), zap.Uint64("order_id", ev.OrderID))

	conn, err := amqp.Dial(p.URL)
	if err != nil {
		log.Warn("rabbitmq dial failed", zap.Error(err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Warn("rabbitmq channel open failed", zap.Error(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := declare(ch, p.Queue); err != nil {
		log.Warn("rabbitmq queue declare failed", zap.Error(err))
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.EventID,
		Timestamp:    time.Now().UTC(),
		Type:         "order.placed",
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.Queue, false, false, pub); err != nil {
		log.Warn("rabbitmq publish failed", zap.Error(err))
		return err
	}
	log.Debug("order event published", zap.String("event_id", ev.EventID))
	return nil
}

// declare makes sure the durable queue exists.
func declare(ch *amqp.Channel, queue string) (amqp.Queue, error) {
	return ch.QueueDeclare(queue, true, false, false, false, nil)
}
