package email

import (
	"mime/multipart"

	"github.com/harryhq/mail-manager/pkg/model"
)

// swagger:parameters createEmailMessage
type _ struct {
	// Create email message request body parameter
	// in: body
	// required: true
	Body createEmailMessageRequest
}

// swagger:parameters findEmailMessageById queueEmailMessage duplicateEmailMessage attachFile
type _ struct {
	// in: path
	// required: true
	ID uint `json:"id"`
}

// swagger:parameters attachFile
type _ struct {
	// The file to attach
	// in: formData
	// required: true
	File *multipart.FileHeader `json:"file"`
}

// swagger:parameters downloadAttachment
type _ struct {
	// in: path
	// required: true
	ID uint `json:"id"`

	// in: path
	// required: true
	AttachmentID uint `json:"attachmentId"`
}

// swagger:parameters queueEmailMessage
type _ struct {
	// Cooldown override request body parameter, optional
	// in: body
	// required: false
	Body queueEmailMessageRequest
}

// swagger:response EmailMessage
type _ struct {
	//in: body
	_ model.EmailMessage
}

// swagger:response EmailMessages
type _ struct {
	// Email messages list response
	//in: body
	_ []model.EmailMessage
}

// swagger:response EmailMessageAttachment
type _ struct {
	//in: body
	_ model.EmailMessageAttachment
}

// swagger:response DownloadAttachmentResponse
type _ struct {
	//in: body
	_ []byte
}
