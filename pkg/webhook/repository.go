package webhook

import (
	"context"
	"errors"

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

func (r repository) create(ctx context.Context, webhook *model.EmailMessageWebhook) error {
	return r.db.WithContext(ctx).Create(webhook).Error
}

func (r repository) save(ctx context.Context, webhook *model.EmailMessageWebhook) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(webhook).Error
}

func (r repository) findById(ctx context.Context, id uint) (*model.EmailMessageWebhook, error) {
	var webhook *model.EmailMessageWebhook
	err := r.db.WithContext(ctx).First(&webhook, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errdef.NewNotFound("failed to find email message webhook with id %d", id)
		}
	}
	return webhook, err
}

func (r repository) findAll(ctx context.Context) ([]*model.EmailMessageWebhook, error) {
	var webhooks []*model.EmailMessageWebhook
	err := r.db.WithContext(ctx).Order("created_at desc").Find(&webhooks).Error
	return webhooks, err
}

// findLinked returns the webhooks already linked to the message. A webhook being processed is
// only linked once processing finishes, so it never shows up in its own comparison set.
func (r repository) findLinked(ctx context.Context, message *model.EmailMessage) ([]*model.EmailMessageWebhook, error) {
	var webhooks []*model.EmailMessageWebhook
	err := r.db.WithContext(ctx).Where("email_message_id = ?", message.ID).Find(&webhooks).Error
	return webhooks, err
}

func (r repository) findMessageByMessageId(ctx context.Context, messageId string) (*model.EmailMessage, error) {
	var message *model.EmailMessage
	err := r.db.WithContext(ctx).Where("message_id = ?", messageId).First(&message).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errdef.NewNotFound("no email message with message id %q", messageId)
		}
	}
	return message, err
}

// saveMessageStatus writes only the status column of the message so fields owned by the send
// consumer are left alone.
func (r repository) saveMessageStatus(ctx context.Context, message *model.EmailMessage) error {
	return r.db.WithContext(ctx).Model(message).Update("status", message.Status).Error
}
