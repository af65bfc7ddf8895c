package setting

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

func (r repository) upsert(ctx context.Context, setting *model.GlobalSetting) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{"type", "value", "updated_at"}),
		}).
		Create(setting).Error
}

func (r repository) find(ctx context.Context, slug string) (*model.GlobalSetting, error) {
	var setting *model.GlobalSetting
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&setting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errdef.NewNotFound("failed to find global setting %s", slug)
		}
	}
	return setting, err
}

func (r repository) findAll(ctx context.Context) ([]*model.GlobalSetting, error) {
	var settings []*model.GlobalSetting
	err := r.db.WithContext(ctx).Order("slug").Find(&settings).Error
	return settings, err
}
