package webhook

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/harryhq/mail-manager/internal/errdef"
	"github.com/harryhq/mail-manager/internal/handler"
	"github.com/harryhq/mail-manager/pkg/model"
)

func NewHandler(webhookService webhookService) Handler {
	return Handler{webhookService}
}

type Handler struct {
	webhookService webhookService
}

type webhookService interface {
	CreateFromRequest(ctx context.Context, body []byte, headers http.Header) (*model.EmailMessageWebhook, error)
	FindById(ctx context.Context, id uint) (*model.EmailMessageWebhook, error)
	FindAll(ctx context.Context) ([]*model.EmailMessageWebhook, error)
}

// CreateResponse is returned to the delivery provider when a webhook was accepted.
// swagger:model
type CreateResponse struct {
	UUID uuid.UUID `json:"uuid"`
}

func (h Handler) CreateFromRequest(c *gin.Context) {
	// swagger:route POST /webhooks/email createEmailMessageWebhook
	//
	// Receive delivery webhook
	//
	// Receive a delivery webhook posted by the email provider. The webhook is persisted as
	// received and processed asynchronously.
	//
	// Responses:
	//	201: CreateWebhookResponse
	//	400: Error
	ctx := c.Request.Context()

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		_ = c.Error(errdef.NewBadRequest("failed to read body: %s", err))
		return
	}

	webhook, err := h.webhookService.CreateFromRequest(ctx, body, c.Request.Header)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, CreateResponse{UUID: webhook.UUID})
}

func (h Handler) FindAll(c *gin.Context) {
	// swagger:route GET /webhooks listEmailMessageWebhooks
	//
	// List webhooks
	//
	// List all received delivery webhooks, administrators only
	//
	// Security:
	//	oauth2:
	//
	// Responses:
	//	200: EmailMessageWebhooks
	//	401: Error
	//	403: Error
	//	415: Error
	ctx := c.Request.Context()

	webhooks, err := h.webhookService.FindAll(ctx)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, webhooks)
}

func (h Handler) FindById(c *gin.Context) {
	// swagger:route GET /webhooks/{id} findEmailMessageWebhookById
	//
	// Find webhook
	//
	// Find a received delivery webhook by its id, administrators only
	//
	// Security:
	//	oauth2:
	//
	// Responses:
	//	200: EmailMessageWebhook
	//	401: Error
	//	403: Error
	//	404: Error
	//	415: Error
	ctx := c.Request.Context()

	id, ok := handler.GetPathParameter(c, "id")
	if !ok {
		return
	}

	webhook, err := h.webhookService.FindById(ctx, id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, webhook)
}
