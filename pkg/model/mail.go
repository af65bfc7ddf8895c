package model

import (
	"time"

	"github.com/google/uuid"
)

// MaxSubjectLength is the upper bound on outbound subject lines. Longer subjects are truncated
// when a message is prepared.
const MaxSubjectLength = 78

type EmailMessageStatus string

const (
	EmailMessageStatusNew       EmailMessageStatus = "new"
	EmailMessageStatusReady     EmailMessageStatus = "ready"
	EmailMessageStatusPending   EmailMessageStatus = "pending"
	EmailMessageStatusSent      EmailMessageStatus = "sent"
	EmailMessageStatusDelivered EmailMessageStatus = "delivered"
	EmailMessageStatusOpened    EmailMessageStatus = "opened"
	EmailMessageStatusBounced   EmailMessageStatus = "bounced"
	EmailMessageStatusSpam      EmailMessageStatus = "spam"
	EmailMessageStatusCanceled  EmailMessageStatus = "canceled"
	EmailMessageStatusError     EmailMessageStatus = "error"
)

// EmailMessage keeps a record of every email sent
// swagger:model
type EmailMessage struct {
	ID        uint       `gorm:"primarykey" json:"id"`
	UUID      uuid.UUID  `gorm:"type:uuid;unique" json:"uuid"`
	CreatedAt time.Time  `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	SentAt    *time.Time `json:"sentAt,omitempty"`

	CreatedByID *uint   `json:"createdById,omitempty"`
	CreatedBy   *User   `json:"-"`
	OrgName     *string `gorm:"references:Name" json:"orgName,omitempty"`
	Org         *Org    `json:"-"`

	SenderName   string `json:"senderName"`
	SenderEmail  string `json:"senderEmail"`
	ToName       string `json:"toName"`
	ToEmail      string `json:"toEmail"`
	ReplyToName  string `json:"replyToName"`
	ReplyToEmail string `json:"replyToEmail"`

	Subject         string  `json:"subject"`
	TemplatePrefix  string  `json:"templatePrefix"`
	TemplateContext JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"templateContext"`

	// Message-ID header as per RFC 5322, set once the message is handed to the SMTP server
	MessageID *string `gorm:"unique" json:"messageId,omitempty"`

	Status       EmailMessageStatus       `gorm:"default:new" json:"status"`
	ErrorMessage string                   `json:"errorMessage"`
	Attachments  []EmailMessageAttachment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"attachments"`
}

// EmailMessageAttachment is a file attached to an EmailMessage. The content lives in the object
// store under ObjectKey, the original filename is kept so it can be reproduced when the message
// is sent.
// swagger:model
type EmailMessageAttachment struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	UUID           uuid.UUID `gorm:"type:uuid;unique" json:"uuid"`
	CreatedAt      time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	EmailMessageID uint      `json:"emailMessageId"`
	ObjectKey      string    `json:"-"`
	Filename       string    `json:"filename"`
	Mimetype       string    `json:"mimetype"`
}
