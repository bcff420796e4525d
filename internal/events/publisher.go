// Package events publishes booking domain events to RabbitMQ. Publishing is
// best effort: failures are logged and returned so callers may ignore them.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Routing keys, one durable queue each
const (
	BookingCreated = "booking.created"
	BookingUpdated = "booking.updated"
	BookingPaid    = "booking.paid"
)

// Publisher sends a JSON payload under a routing key
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload interface{}) error
}

// Noop discards every event. It is used when RABBITMQ_URL is not set.
type Noop struct{}

// Publish implements Publisher
func (Noop) Publish(context.Context, string, interface{}) error { return nil }

// dialer opens a broker channel; replaced in tests
type dialer func(url string) (channel, func(), error)

type channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPPublisher publishes persistent messages to the default exchange with
// the routing key as queue name
type AMQPPublisher struct {
	url    string
	dial   dialer
	logger *logrus.Logger
}

// NewAMQPPublisher creates a publisher for the broker at url
func NewAMQPPublisher(url string, logger *logrus.Logger) *AMQPPublisher {
	return &AMQPPublisher{url: url, dial: dialAMQP, logger: logger}
}

func dialAMQP(url string) (channel, func(), error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial failed: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("channel open failed: %w", err)
	}
	return ch, func() {
		_ = ch.Close()
		_ = conn.Close()
	}, nil
}

// Publish declares the durable queue named routingKey and sends payload to it
func (p *AMQPPublisher) Publish(ctx context.Context, routingKey string, payload interface{}) error {
	if err := p.publish(ctx, routingKey, payload); err != nil {
		p.logger.WithFields(logrus.Fields{
			"routing_key": routingKey,
			"error":       err.Error(),
		}).Warn("Failed to publish event")
		return err
	}
	return nil
}

func (p *AMQPPublisher) publish(ctx context.Context, routingKey string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event failed: %w", err)
	}

	ch, closeFn, err := p.dial(p.url)
	if err != nil {
		return err
	}
	defer closeFn()

	if _, err := ch.QueueDeclare(routingKey, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare failed: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", routingKey, false, false, msg); err != nil {
		return fmt.Errorf("publish failed: %w", err)
	}
	return nil
}
