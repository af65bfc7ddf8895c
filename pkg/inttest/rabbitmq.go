package inttest

import (
	"fmt"
	"testing"

	"github.com/orlangure/gnomock"
	"github.com/orlangure/gnomock/preset/rabbitmq"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
)

// SetupRabbitMQ creates a RabbitMQ container returning an AMQP client ready to send messages to it.
func SetupRabbitMQ(t *testing.T) *AMQPClient {
	t.Helper()

	container, err := gnomock.Start(
		rabbitmq.Preset(
			rabbitmq.WithUser("mail", "mail"),
		),
	)
	require.NoError(t, err, "failed to start RabbitMQ")
	t.Cleanup(func() { require.NoError(t, gnomock.Stop(container), "failed to stop RabbitMQ") })

	URI := fmt.Sprintf(
		"amqp://%s:%s@%s",
		"mail", "mail",
		container.DefaultAddress(),
	)
	conn, err := amqp.Dial(URI)
	require.NoErrorf(t, err, "failed to connect to RabbitMQ", URI)
	t.Cleanup(func() {
		require.NoErrorf(t, conn.Close(), "failed to close connection to RabbitMQ")
	})

	ch, err := conn.Channel()
	require.NoErrorf(t, err, "failed to open channel to RabbitMQ")
	t.Cleanup(func() {
		require.NoErrorf(t, ch.Close(), "failed to close channel to RabbitMQ")
	})

	return &AMQPClient{Channel: ch, URI: URI}
}

// AMQPClient allows making requests to RabbitMQ. It does so by opening a connection and channel to
// RabbitMQ via the low-level github.com/rabbitmq/amqp091-go library.
type AMQPClient struct {
	Channel *amqp.Channel
	URI     string
}
