package webhook

import (
	"github.com/harryhq/mail-manager/pkg/model"
)

// swagger:parameters createEmailMessageWebhook
type _ struct {
	// Webhook payload as posted by the delivery provider
	// in: body
	// required: true
	Body map[string]any
}

// swagger:parameters findEmailMessageWebhookById
type _ struct {
	// in: path
	// required: true
	ID uint `json:"id"`
}

// swagger:response CreateWebhookResponse
type _ struct {
	//in: body
	_ CreateResponse
}

// swagger:response EmailMessageWebhook
type _ struct {
	//in: body
	_ model.EmailMessageWebhook
}

// swagger:response EmailMessageWebhooks
type _ struct {
	// Webhook list response
	//in: body
	_ []model.EmailMessageWebhook
}
