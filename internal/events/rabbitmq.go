package events

import (
	"fmt"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// rabbitPublisher is a RabbitMQ-backed Publisher.
type rabbitPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *zap.Logger
}

// NewRabbitPublisher connects to RabbitMQ, declares the access-events queue
// and returns a Publisher bound to it.
func NewRabbitPublisher(url string, logger *zap.Logger) (Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	if _, err := ch.QueueDeclare(
		QueueAccessEvents,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", QueueAccessEvents, err)
	}

	return &rabbitPublisher{conn: conn, channel: ch, logger: logger}, nil
}

func (p *rabbitPublisher) Publish(event AccessEvent) error {
	body, err := event.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", event.ID, err)
	}

	err = p.channel.Publish(
		"",                // default exchange
		QueueAccessEvents, // routing key
		false,             // mandatory
		false,             // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    event.ID,
			Body:         body,
			DeliveryMode: amqp.Persistent,
		})
	if err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event.ID, err)
	}

	p.logger.Debug("Published access event",
		zap.String("event_id", event.ID),
		zap.String("type", event.Type),
		zap.String("vault_id", event.VaultID),
	)
	return nil
}

func (p *rabbitPublisher) Close() error {
	var lastErr error
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			lastErr = err
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
