package email

import (
	"context"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/harryhq/mail-manager/internal/errdef"
	"github.com/harryhq/mail-manager/internal/handler"
	"github.com/harryhq/mail-manager/pkg/model"
)

func NewHandler(emailService emailService) Handler {
	return Handler{emailService}
}

type Handler struct {
	emailService emailService
}

type emailService interface {
	Create(ctx context.Context, message *model.EmailMessage) error
	FindById(ctx context.Context, id uint) (*model.EmailMessage, error)
	FindAll(ctx context.Context, user *model.User) ([]*model.EmailMessage, error)
	Attach(ctx context.Context, message *model.EmailMessage, filename string, mimetype string, file io.Reader) (*model.EmailMessageAttachment, error)
	FindAttachment(ctx context.Context, message *model.EmailMessage, attachmentId uint) (*model.EmailMessageAttachment, error)
	DownloadAttachment(ctx context.Context, attachment *model.EmailMessageAttachment, dst io.Writer, cb func(contentLength int64)) error
	DefaultCooldown() CooldownOptions
	Queue(ctx context.Context, message *model.EmailMessage, cooldown CooldownOptions) (bool, error)
	Duplicate(ctx context.Context, original *model.EmailMessage) (*model.EmailMessage, error)
}

type createEmailMessageRequest struct {
	OrgName         string        `json:"orgName"`
	SenderName      string        `json:"senderName"`
	SenderEmail     string        `json:"senderEmail" binding:"omitempty,email"`
	ToName          string        `json:"toName"`
	ToEmail         string        `json:"toEmail" binding:"required,email"`
	ReplyToName     string        `json:"replyToName"`
	ReplyToEmail    string        `json:"replyToEmail" binding:"omitempty,email"`
	Subject         string        `json:"subject"`
	TemplatePrefix  string        `json:"templatePrefix" binding:"required"`
	TemplateContext model.JSONMap `json:"templateContext"`
}

func (h Handler) Create(c *gin.Context) {
	// swagger:route POST /messages createEmailMessage
	//
	// Create email message
	//
	// Create an email message and prepare it for sending. The sender defaults to the site
	// sender and the subject is rendered from the template prefix unless given.
	//
	// Security:
	//	oauth2:
	//
	// Responses:
	//	201: EmailMessage
	//	400: Error
	//	401: Error
	//	403: Error
	//	415: Error
	ctx := c.Request.Context()
	user, err := handler.GetUserFromContext(ctx)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var request createEmailMessageRequest
	err = handler.DataBinder(c, &request)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if request.OrgName != "" && !user.IsMemberOf(request.OrgName) && !user.IsAdministrator() {
		_ = c.Error(errdef.NewForbidden("not a member of org %q", request.OrgName))
		return
	}

	message := &model.EmailMessage{
		CreatedByID:     &user.ID,
		SenderName:      request.SenderName,
		SenderEmail:     request.SenderEmail,
		ToName:          request.ToName,
		ToEmail:         request.ToEmail,
		ReplyToName:     request.ReplyToName,
		ReplyToEmail:    request.ReplyToEmail,
		Subject:         request.Subject,
		TemplatePrefix:  request.TemplatePrefix,
		TemplateContext: request.TemplateContext,
	}
	if request.OrgName != "" {
		message.OrgName = &request.OrgName
	}

	err = h.emailService.Create(ctx, message)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, message)
}

func (h Handler) FindAll(c *gin.Context) {
	// swagger:route GET /messages listEmailMessages
	//
	// List email messages
	//
	// List email messages. Administrators see all messages, other users see the messages they
	// created and the messages of the orgs they are a member of.
	//
	// Security:
	//	oauth2:
	//
	// Responses:
	//	200: EmailMessages
	//	401: Error
	//	415: Error
	ctx := c.Request.Context()
	user, err := handler.GetUserFromContext(ctx)
	if err != nil {
		_ = c.Error(err)
		return
	}

	messages, err := h.emailService.FindAll(ctx, user)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, messages)
}

func (h Handler) FindById(c *gin.Context) {
	// swagger:route GET /messages/{id} findEmailMessageById
	//
	// Find email message
	//
	// Find an email message by its id
	//
	// Security:
	//	oauth2:
	//
	// Responses:
	//	200: EmailMessage
	//	401: Error
	//	403: Error
	//	404: Error
	//	415: Error
	ctx := c.Request.Context()
	user, err := handler.GetUserFromContext(ctx)
	if err != nil {
		_ = c.Error(err)
		return
	}

	id, ok := handler.GetPathParameter(c, "id")
	if !ok {
		return
	}

	message, err := h.emailService.FindById(ctx, id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if !handler.CanReadEmailMessage(user, message) {
		_ = c.Error(errdef.NewForbidden("read access denied"))
		return
	}

	c.JSON(http.StatusOK, message)
}

func (h Handler) Attach(c *gin.Context) {
	// swagger:route POST /messages/{id}/attachments attachFile
	//
	// Attach file
	//
	// Attach a file to an email message. The filename extension has to match the content type
	// of the file part.
	//
	// Security:
	//	oauth2:
	//
	// Responses:
	//	201: EmailMessageAttachment
	//	400: Error
	//	401: Error
	//	403: Error
	//	404: Error
	//	409: Error
	//	415: Error
	ctx := c.Request.Context()
	user, err := handler.GetUserFromContext(ctx)
	if err != nil {
		_ = c.Error(err)
		return
	}

	id, ok := handler.GetPathParameter(c, "id")
	if !ok {
		return
	}

	message, err := h.emailService.FindById(ctx, id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if !handler.CanWriteEmailMessage(user, message) {
		_ = c.Error(errdef.NewForbidden("write access denied"))
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		_ = c.Error(errdef.NewBadRequest("failed to read file: %s", err))
		return
	}

	mimetype := file.Header.Get("Content-Type")
	if mediaType, _, err := mime.ParseMediaType(mimetype); err == nil {
		mimetype = mediaType
	}

	f, err := file.Open()
	if err != nil {
		_ = c.Error(err)
		return
	}
	defer func(f multipart.File) {
		err := f.Close()
		if err != nil {
			_ = c.Error(err)
		}
	}(f)

	attachment, err := h.emailService.Attach(ctx, message, file.Filename, mimetype, f)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, attachment)
}

func (h Handler) DownloadAttachment(c *gin.Context) {
	// swagger:route GET /messages/{id}/attachments/{attachmentId} downloadAttachment
	//
	// Download attachment
	//
	// Download an attachment of an email message
	//
	// Security:
	//	oauth2:
	//
	// Responses:
	//	200: DownloadAttachmentResponse
	//	401: Error
	//	403: Error
	//	404: Error
	//	415: Error
	ctx := c.Request.Context()
	user, err := handler.GetUserFromContext(ctx)
	if err != nil {
		_ = c.Error(err)
		return
	}

	id, ok := handler.GetPathParameter(c, "id")
	if !ok {
		return
	}

	attachmentId, ok := handler.GetPathParameter(c, "attachmentId")
	if !ok {
		return
	}

	message, err := h.emailService.FindById(ctx, id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if !handler.CanReadEmailMessage(user, message) {
		_ = c.Error(errdef.NewForbidden("read access denied"))
		return
	}

	attachment, err := h.emailService.FindAttachment(ctx, message, attachmentId)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+strconv.Quote(attachment.Filename))
	c.Header("Content-Type", attachment.Mimetype)

	err = h.emailService.DownloadAttachment(ctx, attachment, c.Writer, func(contentLength int64) {
		c.Header("Content-Length", strconv.FormatInt(contentLength, 10))
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
}

type queueEmailMessageRequest struct {
	PeriodSeconds *int     `json:"periodSeconds" binding:"omitempty,gte=0"`
	Allowed       *int     `json:"allowed" binding:"omitempty,gte=0"`
	Scopes        []string `json:"scopes" binding:"omitempty,dive,oneOf=createdBy templatePrefix to"`
}

// QueueResponse reports whether the message was queued or canceled by the cooldown.
// swagger:model
type QueueResponse struct {
	Queued bool `json:"queued"`
}

func (h Handler) Queue(c *gin.Context) {
	// swagger:route POST /messages/{id}/queue queueEmailMessage
	//
	// Queue email message
	//
	// Queue an email message for sending. The body can override the cooldown which suppresses
	// sending similar messages in short succession, an empty body uses the configured cooldown.
	//
	// Security:
	//	oauth2:
	//
	// Responses:
	//	200: QueueResponse
	//	400: Error
	//	401: Error
	//	403: Error
	//	404: Error
	//	409: Error
	//	415: Error
	ctx := c.Request.Context()
	user, err := handler.GetUserFromContext(ctx)
	if err != nil {
		_ = c.Error(err)
		return
	}

	id, ok := handler.GetPathParameter(c, "id")
	if !ok {
		return
	}

	message, err := h.emailService.FindById(ctx, id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if !handler.CanWriteEmailMessage(user, message) {
		_ = c.Error(errdef.NewForbidden("write access denied"))
		return
	}

	cooldown := h.emailService.DefaultCooldown()
	if c.Request.ContentLength > 0 {
		var request queueEmailMessageRequest
		err := handler.DataBinder(c, &request)
		if err != nil {
			_ = c.Error(err)
			return
		}
		if request.PeriodSeconds != nil {
			cooldown.Period = time.Duration(*request.PeriodSeconds) * time.Second
		}
		if request.Allowed != nil {
			cooldown.Allowed = *request.Allowed
		}
		if request.Scopes != nil {
			cooldown.Scopes = request.Scopes
		}
	}

	queued, err := h.emailService.Queue(ctx, message, cooldown)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, QueueResponse{Queued: queued})
}

func (h Handler) Duplicate(c *gin.Context) {
	// swagger:route POST /messages/{id}/duplicate duplicateEmailMessage
	//
	// Duplicate email message
	//
	// Duplicate an email message. The copy starts a fresh delivery in status ready, attachments
	// are copied along.
	//
	// Security:
	//	oauth2:
	//
	// Responses:
	//	201: EmailMessage
	//	400: Error
	//	401: Error
	//	403: Error
	//	404: Error
	//	415: Error
	ctx := c.Request.Context()
	user, err := handler.GetUserFromContext(ctx)
	if err != nil {
		_ = c.Error(err)
		return
	}

	id, ok := handler.GetPathParameter(c, "id")
	if !ok {
		return
	}

	message, err := h.emailService.FindById(ctx, id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if !handler.CanWriteEmailMessage(user, message) {
		_ = c.Error(errdef.NewForbidden("write access denied"))
		return
	}

	duplicate, err := h.emailService.Duplicate(ctx, message)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, duplicate)
}
