// Package queue wraps the AMQP plumbing used to hand work between the HTTP API and the background
// consumers.
package queue

import (
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

func NewConsumer(logger *slog.Logger, url string, consumerPrefix string) (*Consumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %s", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %s", err)
	}

	return &Consumer{
		logger:         logger,
		conn:           conn,
		channel:        channel,
		consumerPrefix: consumerPrefix,
	}, nil
}

type Consumer struct {
	logger         *slog.Logger
	conn           *amqp.Connection
	channel        *amqp.Channel
	consumerPrefix string
}

// Consume declares queue as durable and delivers every message on it to handler. The handler owns
// acking, an unacked message is redelivered once the channel closes.
func (c *Consumer) Consume(queue string, handler func(d amqp.Delivery)) error {
	q, err := c.channel.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare queue %q: %s", queue, err)
	}

	deliveries, err := c.channel.Consume(q.Name, c.consumerPrefix+"-"+queue, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume queue %q: %s", queue, err)
	}

	go func() {
		for delivery := range deliveries {
			handler(delivery)
		}
		c.logger.Info("Stopped consuming", "queue", queue)
	}()

	return nil
}

func (c *Consumer) Close() error {
	if err := c.channel.Close(); err != nil {
		return fmt.Errorf("failed to close channel: %s", err)
	}
	if err := c.conn.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %s", err)
	}
	return nil
}
