package event

import (
	"context"

	"github.com/harryhq/mail-manager/pkg/model"
	"gorm.io/gorm"
)

//goland:noinspection GoExportedFuncWithUnexportedType
func NewRepository(db *gorm.DB) *repository {
	return &repository{db}
}

type repository struct {
	db *gorm.DB
}

func (r repository) create(ctx context.Context, event *model.Event) error {
	// only use ctx for values (logging) and not cancellation signals on cud operations for now.
	// ctx cancellation can lead to rollbacks which we should decide individually.
	ctx = context.WithoutCancel(ctx)
	return r.db.WithContext(ctx).Create(event).Error
}
