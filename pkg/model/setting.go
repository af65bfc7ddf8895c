package model

import "time"

// DisableOutboundEmailSetting is the kill switch which, when set to true, fails every send
// attempt instead of handing messages to the SMTP server.
const DisableOutboundEmailSetting = "disable_outbound_email"

type GlobalSettingType string

const (
	GlobalSettingTypeBool GlobalSettingType = "bool"
	GlobalSettingTypeInt  GlobalSettingType = "int"
	GlobalSettingTypeStr  GlobalSettingType = "str"
)

// GlobalSetting is a typed runtime switch administrators can flip without a deploy
// swagger:model
type GlobalSetting struct {
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
	Slug      string            `gorm:"primarykey" json:"slug"`
	Type      GlobalSettingType `json:"type"`
	Value     string            `json:"value"`
}
