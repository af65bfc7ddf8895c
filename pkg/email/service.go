package email

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"maps"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-mail/mail"
	"github.com/google/uuid"
	"github.com/harryhq/mail-manager/internal/errdef"
	"github.com/harryhq/mail-manager/pkg/config"
	"github.com/harryhq/mail-manager/pkg/metrics"
	"github.com/harryhq/mail-manager/pkg/model"
)

// Cooldown scopes narrowing which previously sent messages count towards the send cooldown.
const (
	CooldownScopeCreatedBy      = "createdBy"
	CooldownScopeTemplatePrefix = "templatePrefix"
	CooldownScopeTo             = "to"
)

//goland:noinspection GoExportedFuncWithUnexportedType
func NewService(
	logger *slog.Logger,
	cfg config.Config,
	repository *repository,
	settings settingService,
	renderer Renderer,
	dialer dialer,
	publisher publisher,
	objectStorage objectStorage,
	events events,
) *Service {
	return &Service{
		logger:           logger,
		hostname:         cfg.Hostname,
		bucket:           cfg.S3.Bucket,
		attachmentPrefix: cfg.S3.AttachmentPrefix,
		site:             cfg.Site,
		cooldownPeriod:   time.Duration(cfg.Mail.CooldownPeriodSeconds) * time.Second,
		cooldownAllowed:  cfg.Mail.CooldownAllowed,
		repository:       repository,
		settings:         settings,
		renderer:         renderer,
		dialer:           dialer,
		publisher:        publisher,
		objectStorage:    objectStorage,
		events:           events,
	}
}

type settingService interface {
	GetBool(ctx context.Context, slug string) (bool, error)
}

type dialer interface {
	DialAndSend(m ...*mail.Message) error
}

type publisher interface {
	Publish(ctx context.Context, queue string, payload any) error
}

type objectStorage interface {
	Copy(ctx context.Context, bucket string, source string, destination string) error
	Upload(ctx context.Context, bucket string, key string, body io.Reader) error
	Download(ctx context.Context, bucket string, key string, dst io.Writer, cb func(contentLength int64)) error
}

type events interface {
	Publish(ctx context.Context, event model.Event)
}

type Service struct {
	logger           *slog.Logger
	hostname         string
	bucket           string
	attachmentPrefix string
	site             config.Site
	cooldownPeriod   time.Duration
	cooldownAllowed  int
	repository       *repository
	settings         settingService
	renderer         Renderer
	dialer           dialer
	publisher        publisher
	objectStorage    objectStorage
	events           events
}

// Create persists the message and prepares it for sending. The message is kept even if
// preparation fails so the failure can be inspected afterwards.
func (s Service) Create(ctx context.Context, message *model.EmailMessage) error {
	message.UUID = uuid.New()
	message.Status = model.EmailMessageStatusNew
	err := s.repository.create(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to create email message: %s", err)
	}

	return s.Prepare(ctx, message)
}

// Prepare fills in the sender defaults, normalizes the address fields and renders the subject,
// moving the message from new to ready. Site wide defaults are merged into the template context
// without overriding the keys the caller provided.
func (s Service) Prepare(ctx context.Context, message *model.EmailMessage) error {
	if message.Status != model.EmailMessageStatusNew {
		return errdef.NewConflict("email message %d is not status=new", message.ID)
	}

	message.SenderEmail = trimString(cmp.Or(message.SenderEmail, s.site.DefaultFromEmail))
	message.SenderName = trimString(cmp.Or(message.SenderName, s.site.DefaultFromName))
	message.ReplyToEmail = trimString(message.ReplyToEmail)
	message.ReplyToName = trimString(message.ReplyToName)
	message.ToName = trimString(message.ToName)
	message.ToEmail = trimString(message.ToEmail)
	err := s.repository.save(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to save email message %d: %s", message.ID, err)
	}

	if message.ReplyToName != "" && message.ReplyToEmail == "" {
		message.Status = model.EmailMessageStatusError
		message.ErrorMessage = "Reply to has a name but does not have an email"
		err := s.repository.save(ctx, message)
		if err != nil {
			return fmt.Errorf("failed to save email message %d: %s", message.ID, err)
		}
		s.publishStatus(ctx, message)
		return errdef.NewBadRequest("reply to has a name but does not have an email")
	}

	templateContext := model.JSONMap{
		"logo_url":               s.site.LogoURL,
		"logo_url_link":          s.site.LogoURLLink,
		"contact_email":          s.site.ContactEmail,
		"site_name":              s.site.Name,
		"company":                s.site.Company,
		"company_address":        s.site.CompanyAddress,
		"company_city_state_zip": s.site.CompanyCityStateZip,
	}
	maps.Copy(templateContext, message.TemplateContext)

	subject := message.Subject
	if subject == "" {
		subject, err = s.renderer.Subject(message.TemplatePrefix, templateContext)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return errdef.NewBadRequest("no subject template for prefix %q", message.TemplatePrefix)
			}
			return err
		}
	}
	subject = normalizeSubject(subject)
	templateContext["subject"] = subject

	message.TemplateContext = templateContext
	message.Subject = subject
	message.Status = model.EmailMessageStatusReady
	err = s.repository.save(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to save email message %d: %s", message.ID, err)
	}
	return nil
}

// Attach uploads the file to the object store and records it as an attachment of the message.
// The filename extension and the mimetype must agree. The stored object is named by the
// attachment UUID so equally named uploads never collide.
func (s Service) Attach(ctx context.Context, message *model.EmailMessage, filename string, mimetype string, file io.Reader) (*model.EmailMessageAttachment, error) {
	if message.Status != model.EmailMessageStatusReady {
		return nil, errdef.NewConflict("email message %d is not status=ready, was it prepared?", message.ID)
	}

	expected := mime.TypeByExtension(filepath.Ext(filename))
	if mediaType, _, err := mime.ParseMediaType(expected); err == nil {
		expected = mediaType
	}
	if expected != mimetype {
		return nil, errdef.NewBadRequest("filename %s does not match mimetype %s", filename, mimetype)
	}

	attachment := &model.EmailMessageAttachment{
		UUID:           uuid.New(),
		EmailMessageID: message.ID,
		Filename:       filename,
		Mimetype:       mimetype,
	}
	attachment.ObjectKey = s.objectKey(attachment.UUID, filepath.Ext(filename))

	err := s.objectStorage.Upload(ctx, s.bucket, attachment.ObjectKey, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload attachment %s: %s", filename, err)
	}
	err = s.repository.createAttachment(ctx, attachment)
	if err != nil {
		return nil, fmt.Errorf("failed to save attachment %s: %s", filename, err)
	}

	message.Attachments = append(message.Attachments, *attachment)
	return attachment, nil
}

func (s Service) objectKey(id uuid.UUID, ext string) string {
	return fmt.Sprintf("%s/%s%s", s.attachmentPrefix, id, ext)
}

// CooldownOptions bound how often similar messages are sent. A message is canceled instead of
// queued when Allowed or more messages matching all Scopes were sent within Period.
type CooldownOptions struct {
	Period  time.Duration
	Allowed int
	Scopes  []string
}

// DefaultCooldown returns the configured cooldown with all scopes active, so only messages by
// the same creator, with the same template prefix and to the same recipient count against the
// limit. Fewer scopes tighten the suppression, no scopes at all cancel the message if anything
// was sent within the period.
func (s Service) DefaultCooldown() CooldownOptions {
	return CooldownOptions{
		Period:  s.cooldownPeriod,
		Allowed: s.cooldownAllowed,
		Scopes:  []string{CooldownScopeCreatedBy, CooldownScopeTemplatePrefix, CooldownScopeTo},
	}
}

// Queue hands the message to the send queue, preparing it first if needed. It returns false if
// the message was canceled because similar messages were sent too recently.
func (s Service) Queue(ctx context.Context, message *model.EmailMessage, cooldown CooldownOptions) (bool, error) {
	if message.Status != model.EmailMessageStatusReady {
		err := s.Prepare(ctx, message)
		if err != nil {
			return false, err
		}
	}

	coolingDown, err := s.coolingDown(ctx, message, cooldown)
	if err != nil {
		return false, err
	}
	if coolingDown {
		message.Status = model.EmailMessageStatusCanceled
		message.ErrorMessage = "Cooling down"
		err := s.repository.save(ctx, message)
		if err != nil {
			return false, fmt.Errorf("failed to save email message %d: %s", message.ID, err)
		}
		s.logger.InfoContext(ctx, "Email message canceled", "id", message.ID, "reason", message.ErrorMessage)
		metrics.RecordEmailSent(string(model.EmailMessageStatusCanceled))
		s.publishStatus(ctx, message)
		return false, nil
	}

	err = s.publisher.Publish(ctx, SendQueue, sendRequest{ID: message.ID})
	if err != nil {
		return false, fmt.Errorf("failed to queue email message %d: %s", message.ID, err)
	}
	s.logger.InfoContext(ctx, "Email message queued", "id", message.ID)
	return true, nil
}

func (s Service) coolingDown(ctx context.Context, message *model.EmailMessage, cooldown CooldownOptions) (bool, error) {
	since := time.Now().Add(-cooldown.Period)
	count, err := s.repository.countSentSince(ctx, message, since, cooldown.Scopes)
	if err != nil {
		return false, fmt.Errorf("failed to count recently sent email messages: %s", err)
	}
	return count >= int64(cooldown.Allowed), nil
}

// Send renders and sends the message right away. It is normally called by the queue consumer,
// not directly. A failure to render or hand the message to the SMTP server is recorded on the
// message itself and is not returned as an error.
func (s Service) Send(ctx context.Context, message *model.EmailMessage) error {
	if message.Status != model.EmailMessageStatusReady {
		return errdef.NewConflict("email message %d is not status=ready, was it queued?", message.ID)
	}
	message.Status = model.EmailMessageStatusPending
	err := s.repository.save(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to save email message %d: %s", message.ID, err)
	}

	err = s.send(ctx, message)
	if err != nil {
		message.Status = model.EmailMessageStatusError
		message.ErrorMessage = err.Error()
		saveErr := s.repository.save(ctx, message)
		if saveErr != nil {
			return fmt.Errorf("failed to save email message %d: %s", message.ID, saveErr)
		}
		s.logger.ErrorContext(ctx, "Failed to send email message", "id", message.ID, "error", err)
		metrics.RecordEmailSent(string(model.EmailMessageStatusError))
		s.publishStatus(ctx, message)
		return nil
	}

	now := time.Now()
	message.Status = model.EmailMessageStatusSent
	message.SentAt = &now
	err = s.repository.save(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to save email message %d: %s", message.ID, err)
	}
	s.logger.InfoContext(ctx, "Email message sent", "id", message.ID, "messageId", message.MessageID)
	metrics.RecordEmailSent(string(model.EmailMessageStatusSent))
	s.publishStatus(ctx, message)
	return nil
}

func (s Service) send(ctx context.Context, message *model.EmailMessage) error {
	text, err := s.renderer.Text(message.TemplatePrefix, message.TemplateContext)
	if err != nil {
		return err
	}

	html, err := s.renderer.HTML(message.TemplatePrefix, message.TemplateContext)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		s.logger.WarnContext(ctx, "Template not found", "template", message.TemplatePrefix+"_message.html")
		html = ""
	}

	m := mail.NewMessage()
	m.SetAddressHeader("From", message.SenderEmail, message.SenderName)
	m.SetAddressHeader("To", message.ToEmail, message.ToName)
	if message.ReplyToEmail != "" {
		m.SetAddressHeader("Reply-To", message.ReplyToEmail, message.ReplyToName)
	}
	m.SetHeader("Subject", message.Subject)
	messageID := fmt.Sprintf("<%s@%s>", message.UUID, s.hostname)
	m.SetHeader("Message-ID", messageID)
	m.SetBody("text/plain", text)
	if html != "" {
		m.AddAlternative("text/html", html)
	}

	for _, attachment := range message.Attachments {
		m.Attach(attachment.Filename,
			mail.SetCopyFunc(func(w io.Writer) error {
				return s.objectStorage.Download(ctx, s.bucket, attachment.ObjectKey, w, func(contentLength int64) {})
			}),
			mail.SetHeader(map[string][]string{"Content-Type": {attachment.Mimetype}}),
		)
	}

	disabled, err := s.settings.GetBool(ctx, model.DisableOutboundEmailSetting)
	if err != nil {
		return fmt.Errorf("failed to read setting %s: %s", model.DisableOutboundEmailSetting, err)
	}
	if disabled {
		return fmt.Errorf("GlobalSetting %s is true", model.DisableOutboundEmailSetting)
	}

	err = s.dialer.DialAndSend(m)
	if err != nil {
		return fmt.Errorf("failed to send: %s", err)
	}

	message.MessageID = &messageID
	return nil
}

// Duplicate copies the message into a fresh one in status new and prepares it. The copy starts
// a new delivery, so the sent timestamp, the Message-ID and any recorded error are not carried
// over. Attachments are copied within the object store.
func (s Service) Duplicate(ctx context.Context, original *model.EmailMessage) (*model.EmailMessage, error) {
	duplicate := &model.EmailMessage{
		CreatedByID:     original.CreatedByID,
		OrgName:         original.OrgName,
		SenderName:      original.SenderName,
		SenderEmail:     original.SenderEmail,
		ToName:          original.ToName,
		ToEmail:         original.ToEmail,
		ReplyToName:     original.ReplyToName,
		ReplyToEmail:    original.ReplyToEmail,
		Subject:         original.Subject,
		TemplatePrefix:  original.TemplatePrefix,
		TemplateContext: maps.Clone(original.TemplateContext),
	}

	err := s.Create(ctx, duplicate)
	if err != nil {
		return nil, err
	}

	for _, attachment := range original.Attachments {
		copied := &model.EmailMessageAttachment{
			UUID:           uuid.New(),
			EmailMessageID: duplicate.ID,
			Filename:       attachment.Filename,
			Mimetype:       attachment.Mimetype,
		}
		copied.ObjectKey = s.objectKey(copied.UUID, filepath.Ext(attachment.ObjectKey))

		err := s.objectStorage.Copy(ctx, s.bucket, attachment.ObjectKey, copied.ObjectKey)
		if err != nil {
			return nil, fmt.Errorf("failed to copy attachment %s: %s", attachment.Filename, err)
		}
		err = s.repository.createAttachment(ctx, copied)
		if err != nil {
			return nil, fmt.Errorf("failed to save attachment %s: %s", attachment.Filename, err)
		}
		duplicate.Attachments = append(duplicate.Attachments, *copied)
	}

	return duplicate, nil
}

func (s Service) FindById(ctx context.Context, id uint) (*model.EmailMessage, error) {
	return s.repository.findById(ctx, id)
}

func (s Service) FindByUUID(ctx context.Context, id uuid.UUID) (*model.EmailMessage, error) {
	return s.repository.findByUUID(ctx, id)
}

func (s Service) FindAll(ctx context.Context, user *model.User) ([]*model.EmailMessage, error) {
	return s.repository.findAll(ctx, user)
}

func (s Service) FindAttachment(ctx context.Context, message *model.EmailMessage, attachmentId uint) (*model.EmailMessageAttachment, error) {
	return s.repository.findAttachment(ctx, message.ID, attachmentId)
}

// DownloadAttachment streams the attachment content into dst. cb is called with the content
// length before the first byte is written.
func (s Service) DownloadAttachment(ctx context.Context, attachment *model.EmailMessageAttachment, dst io.Writer, cb func(contentLength int64)) error {
	return s.objectStorage.Download(ctx, s.bucket, attachment.ObjectKey, dst, cb)
}

func (s Service) publishStatus(ctx context.Context, message *model.EmailMessage) {
	s.events.Publish(ctx, model.Event{
		Kind:    model.EmailMessageEventKind,
		UserID:  message.CreatedByID,
		OrgName: message.OrgName,
		Payload: model.JSONMap{"uuid": message.UUID.String(), "status": string(message.Status)},
	})
}

// normalizeSubject collapses the subject into a single line and truncates it to
// [model.MaxSubjectLength] runes, trailing ellipsis included.
func normalizeSubject(subject string) string {
	subject = trimString(subject)
	if runes := []rune(subject); len(runes) > model.MaxSubjectLength {
		subject = string(runes[:model.MaxSubjectLength-3]) + "..."
	}
	return subject
}

// trimString collapses a multi line value into a single line, dropping blank lines and
// surrounding whitespace. Header fields like the subject and address names must not contain
// line breaks.
func trimString(field string) string {
	lines := strings.Split(field, "\n")
	trimmed := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			trimmed = append(trimmed, line)
		}
	}
	return strings.Join(trimmed, " ")
}
