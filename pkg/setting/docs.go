package setting

import (
	"github.com/harryhq/mail-manager/pkg/model"
)

// swagger:parameters setGlobalSetting
type _ struct {
	// in: path
	// required: true
	Slug string `json:"slug"`

	// Set global setting request body parameter
	// in: body
	// required: true
	Body setSettingRequest
}

// swagger:response GlobalSetting
type _ struct {
	//in: body
	_ model.GlobalSetting
}

// swagger:response GlobalSettings
type _ struct {
	// Global settings list response
	//in: body
	_ []model.GlobalSetting
}
