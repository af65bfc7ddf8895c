package org_test

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/harryhq/mail-manager/pkg/email"
	"github.com/harryhq/mail-manager/pkg/inttest"
	"github.com/harryhq/mail-manager/pkg/model"
	"github.com/harryhq/mail-manager/pkg/org"
	"github.com/harryhq/mail-manager/pkg/user"
	"github.com/stretchr/testify/require"
)

type testAuthorizationMiddleware struct{}

func (t testAuthorizationMiddleware) RequireAdministrator(c *gin.Context) {
	c.Next()
}

func TestOrgHandler(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db := inttest.SetupDB(t)
	userService := user.NewService("", 900, user.NewRepository(db), &noopMailService{})
	orgService := org.NewService(org.NewRepository(db), userService)

	err := user.CreateAdminUser(ctx, "admin@mail.test", "adminadminadmin1", userService, orgService)
	require.NoError(t, err, "failed to create admin user and org")

	var admin *model.User
	{
		u, err := userService.FindOrCreate(ctx, "admin@mail.test", "adminadminadmin1")
		require.NoError(t, err)
		// findById preloads the orgs so IsAdministrator works
		admin, err = userService.FindById(ctx, u.ID)
		require.NoError(t, err)
	}

	client := inttest.SetupHTTPServer(t, func(engine *gin.Engine) {
		handler := org.NewHandler(orgService)
		authenticator := func(c *gin.Context) {
			c.Request = c.Request.WithContext(model.NewContextWithUser(c.Request.Context(), admin))
		}
		org.Routes(engine, authenticator, testAuthorizationMiddleware{}, handler)
	})

	var userId string
	var member *model.User
	{
		member, err = userService.FindOrCreate(ctx, "user@mail.test", "oneoneoneoneone1")
		require.NoError(t, err)
		userId = strconv.FormatUint(uint64(member.ID), 10)
	}

	var orgName string
	{
		org, err := orgService.Create(ctx, "marketing", "marketing.mail.test")
		require.NoError(t, err)
		orgName = org.Name
	}

	t.Run("CreateOrg", func(t *testing.T) {
		t.Parallel()

		requestBody := strings.NewReader(`{
			"name": "customer support",
			"hostname": "support.mail.test"
		}`)

		var org model.Org
		client.PostJSON(t, "/orgs", requestBody, &org)

		require.Equal(t, "customer support", org.Name)
		require.Equal(t, "customer-support", org.Slug)
		require.Equal(t, "support.mail.test", org.Hostname)

		t.Run("Duplicate", func(t *testing.T) {
			requestBody := strings.NewReader(`{
				"name": "customer support",
				"hostname": "support.mail.test"
			}`)

			response := client.Do(t, http.MethodPost, "/orgs", requestBody, http.StatusConflict, inttest.WithHeader("Content-Type", "application/json"))

			require.Contains(t, string(response), "org name/hostname already exists")
		})
	})

	t.Run("AddUserToOrg", func(t *testing.T) {
		t.Parallel()

		t.Run("AddUserToOrg", func(t *testing.T) {
			path := fmt.Sprintf("/orgs/%s/users/%s", orgName, userId)

			client.Do(t, http.MethodPost, path, nil, http.StatusCreated)

			u, err := userService.FindById(ctx, member.ID)
			require.NoError(t, err)
			require.True(t, u.IsMemberOf(orgName))
		})

		t.Run("AddUserToNonExistingOrg", func(t *testing.T) {
			path := fmt.Sprintf("/orgs/%s/users/%s", "non-existing-org", userId)

			response := client.Do(t, http.MethodPost, path, nil, http.StatusNotFound)

			require.Equal(t, "org \"non-existing-org\" doesn't exist", string(response))
		})

		t.Run("AddNonExistingUserToOrg", func(t *testing.T) {
			nonExistingUserId := uint(123)
			_, err := userService.FindById(ctx, nonExistingUserId)
			require.Error(t, err, "user already exists")
			path := fmt.Sprintf("/orgs/%s/users/%d", orgName, nonExistingUserId)

			response := client.Do(t, http.MethodPost, path, nil, http.StatusNotFound)

			require.Equal(t, "failed to find user with id 123", string(response))
		})
	})

	t.Run("FindOrg", func(t *testing.T) {
		t.Parallel()

		t.Run("FindOrg", func(t *testing.T) {
			path := fmt.Sprintf("/orgs/%s", orgName)

			var org model.Org
			client.GetJSON(t, path, &org)

			require.Equal(t, orgName, org.Name)
			require.Equal(t, "marketing.mail.test", org.Hostname)
		})

		t.Run("FindOrgFailed", func(t *testing.T) {
			path := fmt.Sprintf("/orgs/%s", "non-existing-org")

			response := client.Do(t, http.MethodGet, path, nil, http.StatusNotFound)

			require.Equal(t, "org \"non-existing-org\" doesn't exist", string(response))
		})
	})

	t.Run("ListOrgs", func(t *testing.T) {
		t.Parallel()

		var orgs []model.Org
		client.GetJSON(t, "/orgs", &orgs)

		names := make([]string, len(orgs))
		for i, org := range orgs {
			names[i] = org.Name
		}
		require.Contains(t, names, model.AdministratorOrgName)
		require.Contains(t, names, orgName)
	})
}

type noopMailService struct{}

func (f *noopMailService) Create(ctx context.Context, message *model.EmailMessage) error {
	return nil
}

func (f *noopMailService) Queue(ctx context.Context, message *model.EmailMessage, cooldown email.CooldownOptions) (bool, error) {
	return true, nil
}

func (f *noopMailService) DefaultCooldown() email.CooldownOptions {
	return email.CooldownOptions{}
}
