package model

import (
	"time"

	"github.com/google/uuid"
)

// Webhook record types posted by the delivery provider.
const (
	WebhookTypeDelivery      = "Delivery"
	WebhookTypeOpen          = "Open"
	WebhookTypeBounce        = "Bounce"
	WebhookTypeSpamComplaint = "SpamComplaint"
)

// WebhookTypeToEmailStatus maps a webhook record type to the EmailMessage status it implies.
var WebhookTypeToEmailStatus = map[string]EmailMessageStatus{
	WebhookTypeDelivery:      EmailMessageStatusDelivered,
	WebhookTypeOpen:          EmailMessageStatusOpened,
	WebhookTypeBounce:        EmailMessageStatusBounced,
	WebhookTypeSpamComplaint: EmailMessageStatusSpam,
}

// WebhookTypeToTimestamp names the body key carrying the event time for each webhook type. The
// timestamps decide whether a webhook arrived out of order.
var WebhookTypeToTimestamp = map[string]string{
	WebhookTypeDelivery:      "DeliveredAt",
	WebhookTypeOpen:          "ReceivedAt",
	WebhookTypeBounce:        "BouncedAt",
	WebhookTypeSpamComplaint: "BouncedAt",
}

type EmailMessageWebhookStatus string

const (
	EmailMessageWebhookStatusNew       EmailMessageWebhookStatus = "new"
	EmailMessageWebhookStatusPending   EmailMessageWebhookStatus = "pending"
	EmailMessageWebhookStatusProcessed EmailMessageWebhookStatus = "processed"
	EmailMessageWebhookStatusError     EmailMessageWebhookStatus = "error"
)

// EmailMessageWebhook is a delivery event related to an outgoing EmailMessage, like a bounce or a
// spam complaint. The raw body and headers are always persisted as received.
// swagger:model
type EmailMessageWebhook struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	UUID       uuid.UUID `gorm:"type:uuid;unique" json:"uuid"`
	CreatedAt  time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	ReceivedAt time.Time `json:"receivedAt"`

	Body    JSONMap `gorm:"type:jsonb;not null" json:"body"`
	Headers JSONMap `gorm:"type:jsonb;not null" json:"headers"`
	Type    string  `json:"type"`

	EmailMessageID *uint         `json:"emailMessageId,omitempty"`
	EmailMessage   *EmailMessage `json:"-"`

	Note   string                    `json:"note"`
	Status EmailMessageWebhookStatus `gorm:"default:new" json:"status"`
}
