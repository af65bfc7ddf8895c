package email

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/harryhq/mail-manager/internal/errdef"
	"github.com/harryhq/mail-manager/internal/middleware"
	"github.com/harryhq/mail-manager/pkg/metrics"
	"github.com/harryhq/mail-manager/pkg/model"
	amqp "github.com/rabbitmq/amqp091-go"
)

// SendQueue is the queue send requests are published to. Queueing a message publishes a request
// here, the consumer picks it up and performs the actual send.
const SendQueue = "mail-send"

// sendRequest is the payload of the messages on SendQueue.
type sendRequest struct {
	ID uint `json:"id"`
}

func NewConsumer(logger *slog.Logger, emailService sendService) Consumer {
	return Consumer{
		logger:       logger,
		emailService: emailService,
	}
}

// Consumer drains SendQueue and sends the email messages the requests point at.
type Consumer struct {
	logger       *slog.Logger
	emailService sendService
}

type sendService interface {
	FindById(ctx context.Context, id uint) (*model.EmailMessage, error)
	Send(ctx context.Context, message *model.EmailMessage) error
}

type queueConsumer interface {
	Consume(queue string, handler func(delivery amqp.Delivery)) error
}

// Start begins consuming send requests. The returned error only covers the consumer
// registration, a failure to send an individual message is recorded on the message itself.
func (c Consumer) Start(consumer queueConsumer) error {
	return consumer.Consume(SendQueue, c.handle)
}

func (c Consumer) handle(delivery amqp.Delivery) {
	start := time.Now()
	// deliveries do not originate from an HTTP request so they get their own request id
	ctx := middleware.NewContextWithRequestID(context.Background(), uuid.NewString())

	var request sendRequest
	err := json.Unmarshal(delivery.Body, &request)
	if err != nil {
		c.logger.ErrorContext(ctx, "Dropping malformed send request", "error", err)
		_ = delivery.Nack(false, false)
		return
	}

	message, err := c.emailService.FindById(ctx, request.ID)
	if err != nil {
		if errdef.IsNotFound(err) {
			c.logger.ErrorContext(ctx, "Dropping send request for unknown email message", "id", request.ID)
			_ = delivery.Ack(false)
			return
		}
		c.logger.ErrorContext(ctx, "Failed to find email message, requeueing send request", "id", request.ID, "error", err)
		_ = delivery.Nack(false, true)
		return
	}

	err = c.emailService.Send(ctx, message)
	if err != nil {
		if errdef.IsConflict(err) {
			// a redelivery for a message that already moved past ready
			c.logger.WarnContext(ctx, "Dropping send request for email message that is not ready", "id", message.ID, "status", message.Status)
			_ = delivery.Ack(false)
			return
		}
		c.logger.ErrorContext(ctx, "Failed to handle send request, requeueing", "id", request.ID, "error", err)
		_ = delivery.Nack(false, true)
		return
	}

	_ = delivery.Ack(false)
	metrics.ObserveQueueConsume(SendQueue, time.Since(start))
}
