package email

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/harryhq/mail-manager/internal/errdef"
	"github.com/harryhq/mail-manager/pkg/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//goland:noinspection GoExportedFuncWithUnexportedType
func NewRepository(db *gorm.DB) *repository {
	return &repository{db: db}
}

type repository struct {
	db *gorm.DB
}

func (r repository) create(ctx context.Context, message *model.EmailMessage) error {
	return r.db.WithContext(ctx).Create(message).Error
}

// save persists the message itself. Attachment rows are owned by createAttachment so they are
// never touched when a status change is saved.
func (r repository) save(ctx context.Context, message *model.EmailMessage) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(message).Error
}

func (r repository) findById(ctx context.Context, id uint) (*model.EmailMessage, error) {
	var message *model.EmailMessage
	err := r.db.WithContext(ctx).
		Preload("Attachments").
		First(&message, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errdef.NewNotFound("failed to find email message with id %d", id)
		}
	}
	return message, err
}

func (r repository) findByUUID(ctx context.Context, id uuid.UUID) (*model.EmailMessage, error) {
	var message *model.EmailMessage
	err := r.db.WithContext(ctx).
		Preload("Attachments").
		Where("uuid = ?", id).
		First(&message).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errdef.NewNotFound("failed to find email message with uuid %s", id)
		}
	}
	return message, err
}

// findAll returns the messages the user may see, newest first. Administrators see every message,
// everyone else sees the messages they created and the messages of the orgs they are a member of.
func (r repository) findAll(ctx context.Context, user *model.User) ([]*model.EmailMessage, error) {
	db := r.db.WithContext(ctx).
		Preload("Attachments").
		Order("created_at desc")

	if !user.IsAdministrator() {
		orgs := make([]string, len(user.Orgs))
		for i, org := range user.Orgs {
			orgs[i] = org.Name
		}
		db = db.Where("created_by_id = ? or org_name in ?", user.ID, orgs)
	}

	var messages []*model.EmailMessage
	err := db.Find(&messages).Error
	return messages, err
}

// countSentSince counts messages sent after since, narrowed to the messages matching the given
// cooldown scopes. An empty scopes slice counts every sent message.
func (r repository) countSentSince(ctx context.Context, message *model.EmailMessage, since time.Time, scopes []string) (int64, error) {
	db := r.db.WithContext(ctx).
		Model(&model.EmailMessage{}).
		Where("sent_at > ?", since)

	for _, scope := range scopes {
		switch scope {
		case CooldownScopeCreatedBy:
			if message.CreatedByID != nil {
				db = db.Where("created_by_id = ?", *message.CreatedByID)
			} else {
				db = db.Where("created_by_id is null")
			}
		case CooldownScopeTemplatePrefix:
			db = db.Where("template_prefix = ?", message.TemplatePrefix)
		case CooldownScopeTo:
			db = db.Where("to_email = ?", message.ToEmail)
		}
	}

	var count int64
	err := db.Count(&count).Error
	return count, err
}

func (r repository) createAttachment(ctx context.Context, attachment *model.EmailMessageAttachment) error {
	return r.db.WithContext(ctx).Create(attachment).Error
}

func (r repository) findAttachment(ctx context.Context, messageId uint, attachmentId uint) (*model.EmailMessageAttachment, error) {
	var attachment *model.EmailMessageAttachment
	err := r.db.WithContext(ctx).
		Where("email_message_id = ?", messageId).
		First(&attachment, attachmentId).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errdef.NewNotFound("failed to find attachment with id %d on email message %d", attachmentId, messageId)
		}
	}
	return attachment, err
}
