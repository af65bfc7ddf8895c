package webhook

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

// ProcessQueue is the queue webhook processing requests are published to. Accepting a webhook
// publishes a request here, the consumer picks it up and processes the webhook.
const ProcessQueue = "webhook-process"

// processRequest is the payload of the messages on ProcessQueue.
type processRequest struct {
	ID uint `json:"id"`
}

func NewConsumer(logger *slog.Logger, webhookService processService) Consumer {
	return Consumer{
		logger:         logger,
		webhookService: webhookService,
	}
}

// Consumer drains ProcessQueue and processes the webhooks the requests point at.
type Consumer struct {
	logger         *slog.Logger
	webhookService processService
}

type processService interface {
	FindById(ctx context.Context, id uint) (*model.EmailMessageWebhook, error)
	Process(ctx context.Context, webhook *model.EmailMessageWebhook) error
}

type queueConsumer interface {
	Consume(queue string, handler func(delivery amqp.Delivery)) error
}

// Start begins consuming processing requests. The returned error only covers the consumer
// registration, a failure to process an individual webhook is recorded on the webhook itself.
func (c Consumer) Start(consumer queueConsumer) error {
	return consumer.Consume(ProcessQueue, c.handle)
}

func (c Consumer) handle(delivery amqp.Delivery) {
	start := time.Now()
	// deliveries do not originate from an HTTP request so they get their own request id
	ctx := middleware.NewContextWithRequestID(context.Background(), uuid.NewString())

	var request processRequest
	err := json.Unmarshal(delivery.Body, &request)
	if err != nil {
		c.logger.ErrorContext(ctx, "Dropping malformed processing request", "error", err)
		_ = delivery.Nack(false, false)
		return
	}

	webhook, err := c.webhookService.FindById(ctx, request.ID)
	if err != nil {
		if errdef.IsNotFound(err) {
			c.logger.ErrorContext(ctx, "Dropping processing request for unknown webhook", "id", request.ID)
			_ = delivery.Ack(false)
			return
		}
		c.logger.ErrorContext(ctx, "Failed to find webhook, requeueing processing request", "id", request.ID, "error", err)
		_ = delivery.Nack(false, true)
		return
	}

	err = c.webhookService.Process(ctx, webhook)
	if err != nil {
		if errdef.IsConflict(err) {
			// a redelivery for a webhook that was already picked up
			c.logger.WarnContext(ctx, "Dropping processing request for webhook that is not new", "id", webhook.ID, "status", webhook.Status)
			_ = delivery.Ack(false)
			return
		}
		c.logger.ErrorContext(ctx, "Failed to handle processing request, requeueing", "id", request.ID, "error", err)
		_ = delivery.Nack(false, true)
		return
	}

	_ = delivery.Ack(false)
	metrics.ObserveQueueConsume(ProcessQueue, time.Since(start))
}
