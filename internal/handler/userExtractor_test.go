package handler

import (
	"context"
	"testing"

	"github.com/harryhq/mail-manager/pkg/model"
	"github.com/stretchr/testify/assert"
)

func TestGetUserFromContext(t *testing.T) {
	id := uint(1000)
	email := "some@thing.dk"
	orgName := "whoami"
	orgHostname := "whoami.org"
	orgs := []model.Org{
		{
			Name:     orgName,
			Hostname: orgHostname,
		},
		{
			Name:     "play",
			Hostname: "play.org",
		},
	}
	adminOrgs := []model.Org{
		{
			Name:     orgName,
			Hostname: orgHostname,
		},
	}
	user := &model.User{
		ID:        id,
		Email:     email,
		Orgs:      orgs,
		AdminOrgs: adminOrgs,
	}

	ctx := model.NewContextWithUser(context.Background(), user)

	u, err := GetUserFromContext(ctx)
	assert.NoError(t, err)

	assert.Equal(t, id, u.ID)
	assert.Equal(t, email, u.Email)
	assert.Equal(t, 2, len(u.Orgs))
	assert.Equal(t, 1, len(u.AdminOrgs))
	assert.Equal(t, orgName, u.AdminOrgs[0].Name)
	assert.Equal(t, orgHostname, u.AdminOrgs[0].Hostname)
}

func TestGetUserFromContext_NoUser(t *testing.T) {
	u, err := GetUserFromContext(context.Background())
	assert.Nil(t, u)
	assert.EqualError(t, err, "user not found on context")
}
