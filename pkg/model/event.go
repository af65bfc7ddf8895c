package model

import "time"

// EmailMessageEventKind is the kind of the events published when an email message changes
// status, no matter whether the change came from sending or from a provider webhook.
const EmailMessageEventKind = "email-message"

// Event is a persisted record of something that happened to a resource, like an email message
// changing status. Events are also pushed to subscribed clients over SSE.
type Event struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Kind      string    `json:"kind"`
	UserID    *uint     `json:"userId,omitempty"`
	User      *User     `json:"-"`
	OrgName   *string   `json:"orgName,omitempty"`
	Org       *Org      `gorm:"foreignKey:OrgName;references:Name" json:"-"`
	Payload   JSONMap   `gorm:"type:jsonb;not null;default:'{}'" json:"payload"`
}
