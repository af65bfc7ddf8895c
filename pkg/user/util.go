package user

import (
	"context"
	"fmt"

	"github.com/harryhq/mail-manager/pkg/model"
)

type orgService interface {
	FindOrCreate(ctx context.Context, name string, hostname string) (*model.Org, error)
	AddUser(ctx context.Context, orgName string, userId uint) error
}

type userServiceUtil interface {
	FindOrCreate(ctx context.Context, email, password string) (*model.User, error)
	Save(ctx context.Context, user *model.User) error
}

// CreateAdminUser ensures the configured administrator account exists, is validated and is a
// member of the administrators org. It runs on every boot so a fresh database gets its first
// account.
func CreateAdminUser(ctx context.Context, email, password string, userService userServiceUtil, orgService orgService) error {
	u, err := userService.FindOrCreate(ctx, email, password)
	if err != nil {
		return fmt.Errorf("error creating admin user: %v", err)
	}

	u.Validated = true

	err = userService.Save(ctx, u)
	if err != nil {
		return fmt.Errorf("error saving admin user: %v", err)
	}

	o, err := orgService.FindOrCreate(ctx, model.AdministratorOrgName, "")
	if err != nil {
		return fmt.Errorf("error creating admin org: %v", err)
	}

	err = orgService.AddUser(ctx, o.Name, u.ID)
	if err != nil {
		return fmt.Errorf("error adding admin user to admin org: %v", err)
	}

	return nil
}
