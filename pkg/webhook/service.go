package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/harryhq/mail-manager/internal/errdef"
	"github.com/harryhq/mail-manager/pkg/metrics"
	"github.com/harryhq/mail-manager/pkg/model"
)

//goland:noinspection GoExportedFuncWithUnexportedType
func NewService(logger *slog.Logger, repository *repository, publisher publisher, events events) *Service {
	return &Service{
		logger:     logger,
		repository: repository,
		publisher:  publisher,
		events:     events,
	}
}

type publisher interface {
	Publish(ctx context.Context, queue string, payload any) error
}

type events interface {
	Publish(ctx context.Context, event model.Event)
}

type Service struct {
	logger     *slog.Logger
	repository *repository
	publisher  publisher
	events     events
}

// CreateFromRequest persists a webhook exactly as posted by the delivery provider and queues it
// for processing. The body has to be a JSON object, nothing is persisted otherwise. Only the
// first value of each header is kept.
func (s Service) CreateFromRequest(ctx context.Context, body []byte, headers http.Header) (*model.EmailMessageWebhook, error) {
	var payload model.JSONMap
	err := json.Unmarshal(body, &payload)
	if err != nil || payload == nil {
		return nil, errdef.NewBadRequest("invalid payload")
	}

	headersProcessed := model.JSONMap{}
	for key, values := range headers {
		if len(values) > 0 {
			headersProcessed[key] = values[0]
		}
	}

	webhook := &model.EmailMessageWebhook{
		UUID:       uuid.New(),
		ReceivedAt: time.Now(),
		Body:       payload,
		Headers:    headersProcessed,
		Status:     model.EmailMessageWebhookStatusNew,
	}
	err = s.repository.create(ctx, webhook)
	if err != nil {
		return nil, fmt.Errorf("failed to create email message webhook: %s", err)
	}

	s.logger.InfoContext(ctx, "Email message webhook received", "id", webhook.ID)

	err = s.publisher.Publish(ctx, ProcessQueue, processRequest{ID: webhook.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to queue email message webhook %d: %s", webhook.ID, err)
	}

	return webhook, nil
}

// Process records the webhook's type, links it to the email message it belongs to and moves that
// message's status forward. A processing failure is recorded on the webhook itself with the
// status set to error and the Note carrying the reason, only a failure to persist the outcome is
// returned as an error.
func (s Service) Process(ctx context.Context, webhook *model.EmailMessageWebhook) error {
	if webhook.Status != model.EmailMessageWebhookStatusNew {
		return errdef.NewConflict("email message webhook %d is not status=new", webhook.ID)
	}

	webhook.Status = model.EmailMessageWebhookStatusPending
	err := s.repository.save(ctx, webhook)
	if err != nil {
		return fmt.Errorf("failed to save email message webhook %d: %s", webhook.ID, err)
	}

	err = s.process(ctx, webhook)
	if err != nil {
		webhook.Status = model.EmailMessageWebhookStatusError
		webhook.Note = err.Error()
		saveErr := s.repository.save(ctx, webhook)
		if saveErr != nil {
			return fmt.Errorf("failed to save email message webhook %d: %s", webhook.ID, saveErr)
		}
		s.logger.ErrorContext(ctx, "Failed to process email message webhook", "id", webhook.ID, "type", webhook.Type, "error", err)
		metrics.RecordWebhookProcessed(webhook.Type, "error")
		return nil
	}

	webhook.Status = model.EmailMessageWebhookStatusProcessed
	err = s.repository.save(ctx, webhook)
	if err != nil {
		return fmt.Errorf("failed to save email message webhook %d: %s", webhook.ID, err)
	}

	s.logger.DebugContext(ctx, "Email message webhook processed", "id", webhook.ID, "type", webhook.Type)
	metrics.RecordWebhookProcessed(webhook.Type, "processed")
	return nil
}

func (s Service) process(ctx context.Context, webhook *model.EmailMessageWebhook) error {
	if recordType, ok := webhook.Body["RecordType"].(string); ok {
		webhook.Type = recordType
		err := s.repository.save(ctx, webhook)
		if err != nil {
			return fmt.Errorf("failed to save email message webhook %d: %s", webhook.ID, err)
		}
	}

	messageId, ok := webhook.Body["MessageID"].(string)
	if !ok {
		return nil
	}

	message, err := s.repository.findMessageByMessageId(ctx, messageId)
	if err != nil {
		if errdef.IsNotFound(err) {
			return nil
		}
		return err
	}

	webhook.EmailMessageID = &message.ID

	newStatus, ok := model.WebhookTypeToEmailStatus[webhook.Type]
	if !ok {
		return nil
	}

	newest, err := s.isNewest(ctx, webhook, message)
	if err != nil {
		return err
	}
	if !newest {
		return nil
	}

	message.Status = newStatus
	err = s.repository.saveMessageStatus(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to save email message %d: %s", message.ID, err)
	}
	s.publishStatus(ctx, message)

	return nil
}

func (s Service) isNewest(ctx context.Context, webhook *model.EmailMessageWebhook, message *model.EmailMessage) (bool, error) {
	linked, err := s.repository.findLinked(ctx, message)
	if err != nil {
		return false, fmt.Errorf("failed to find webhooks of email message %d: %s", message.ID, err)
	}

	return isNewestOf(webhook, linked)
}

// isNewestOf reports whether the webhook carries a provider timestamp newer than every webhook
// in linked. A webhook arriving out of order must never regress the message status, a timestamp
// equal to the newest one does not count as newer either.
func isNewestOf(webhook *model.EmailMessageWebhook, linked []*model.EmailMessageWebhook) (bool, error) {
	ts, err := providerTimestamp(webhook)
	if err != nil {
		return false, err
	}

	for _, other := range linked {
		otherTs, err := providerTimestamp(other)
		if err != nil {
			// Linked webhooks without a comparable timestamp are skipped.
			continue
		}
		if !otherTs.Before(ts) {
			return false, nil
		}
	}

	return true, nil
}

// providerTimestamp returns the event time the provider put into the body, under the key that
// belongs to the webhook's type.
func providerTimestamp(webhook *model.EmailMessageWebhook) (time.Time, error) {
	key, ok := model.WebhookTypeToTimestamp[webhook.Type]
	if !ok {
		return time.Time{}, fmt.Errorf("no timestamp key for webhook type %q", webhook.Type)
	}

	value, ok := webhook.Body[key].(string)
	if !ok {
		return time.Time{}, fmt.Errorf("email message webhook %d has no %s timestamp", webhook.ID, key)
	}

	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %s of email message webhook %d: %s", key, webhook.ID, err)
	}

	return ts, nil
}

func (s Service) FindById(ctx context.Context, id uint) (*model.EmailMessageWebhook, error) {
	return s.repository.findById(ctx, id)
}

func (s Service) FindAll(ctx context.Context) ([]*model.EmailMessageWebhook, error) {
	return s.repository.findAll(ctx)
}

func (s Service) publishStatus(ctx context.Context, message *model.EmailMessage) {
	s.events.Publish(ctx, model.Event{
		Kind:    model.EmailMessageEventKind,
		UserID:  message.CreatedByID,
		OrgName: message.OrgName,
		Payload: model.JSONMap{"uuid": message.UUID.String(), "status": string(message.Status)},
	})
}
