package model

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// User domain object defining a user
// swagger:model
type User struct {
	ID               uint           `gorm:"primarykey" json:"id"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
	Email            string         `gorm:"index;unique" json:"email"`
	EmailToken       uuid.UUID      `gorm:"type:uuid" json:"-"`
	Validated        bool           `json:"validated"`
	Password         string         `json:"-"`
	PasswordToken    sql.NullString `gorm:"index" json:"-"`
	PasswordTokenTTL uint           `json:"-"`
	Orgs             []Org          `gorm:"many2many:user_orgs;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"orgs"`
	AdminOrgs        []Org          `gorm:"many2many:user_orgs_admin;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"adminOrgs"`
}

func (u *User) IsMemberOf(org string) bool {
	return u.contains(org, u.Orgs)
}

func (u *User) IsAdminOf(org string) bool {
	return u.contains(org, u.AdminOrgs)
}

func (u *User) contains(org string, orgs []Org) bool {
	for _, o := range orgs {
		if org == o.Name {
			return true
		}
	}
	return false
}

func (u *User) IsAdministrator() bool {
	return u.IsMemberOf(AdministratorOrgName)
}

// LogValue only exposes the user ID so sensitive details like the password hash never end up in
// logs.
func (u *User) LogValue() slog.Value {
	return slog.Uint64Value(uint64(u.ID))
}

type userContextKey int

var userKey userContextKey

// NewContextWithUser returns a new [context.Context] that carries the user.
func NewContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// GetUserFromContext returns the user stored in the ctx, if any. It had to have been put there
// using [NewContextWithUser].
func GetUserFromContext(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(userKey).(*User)
	return user, ok
}
