package setting

import (
	"context"
	"fmt"
	"strconv"

	"github.com/harryhq/mail-manager/internal/errdef"
	"github.com/harryhq/mail-manager/pkg/model"
)

//goland:noinspection GoExportedFuncWithUnexportedType
func NewService(repository *repository) *Service {
	return &Service{repository: repository}
}

type Service struct {
	repository *repository
}

// Set stores the setting under slug, overwriting any previous value.
func (s Service) Set(ctx context.Context, slug string, settingType model.GlobalSettingType, value string) (*model.GlobalSetting, error) {
	err := validate(settingType, value)
	if err != nil {
		return nil, err
	}

	setting := &model.GlobalSetting{
		Slug:  slug,
		Type:  settingType,
		Value: value,
	}
	err = s.repository.upsert(ctx, setting)
	if err != nil {
		return nil, fmt.Errorf("failed to save global setting %s: %s", slug, err)
	}

	return setting, nil
}

func validate(settingType model.GlobalSettingType, value string) error {
	switch settingType {
	case model.GlobalSettingTypeBool:
		if _, err := strconv.ParseBool(value); err != nil {
			return errdef.NewBadRequest("value %q is not a bool", value)
		}
	case model.GlobalSettingTypeInt:
		if _, err := strconv.Atoi(value); err != nil {
			return errdef.NewBadRequest("value %q is not an int", value)
		}
	case model.GlobalSettingTypeStr:
	default:
		return errdef.NewBadRequest("unknown setting type %q", settingType)
	}
	return nil
}

func (s Service) Get(ctx context.Context, slug string) (*model.GlobalSetting, error) {
	return s.repository.find(ctx, slug)
}

func (s Service) FindAll(ctx context.Context) ([]*model.GlobalSetting, error) {
	return s.repository.findAll(ctx)
}

// GetBool returns the value of the boolean setting stored under slug. A setting that was never
// set is false, a setting of a different type is an error.
func (s Service) GetBool(ctx context.Context, slug string) (bool, error) {
	setting, err := s.repository.find(ctx, slug)
	if err != nil {
		if errdef.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}

	if setting.Type != model.GlobalSettingTypeBool {
		return false, fmt.Errorf("global setting %s is not a bool, it is a %s", slug, setting.Type)
	}

	value, err := strconv.ParseBool(setting.Value)
	if err != nil {
		return false, fmt.Errorf("failed to parse global setting %s: %s", slug, err)
	}
	return value, nil
}
