package model

import "time"

const AdministratorOrgName = "administrators"

// Org domain object defining an organization
// swagger:model
type Org struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Name      string    `gorm:"primarykey; unique;" json:"name"`
	Slug      string    `gorm:"uniqueIndex" json:"slug"`
	Hostname  string    `gorm:"unique;" json:"hostname"`
	Users     []User    `gorm:"many2many:user_orgs;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"users"`
}
