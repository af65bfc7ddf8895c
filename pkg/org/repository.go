package org

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/harryhq/mail-manager/internal/errdef"
	"github.com/harryhq/mail-manager/pkg/model"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

//goland:noinspection GoExportedFuncWithUnexportedType
func NewRepository(db *gorm.DB) *repository {
	return &repository{
		db: db,
	}
}

func (r repository) find(ctx context.Context, name string) (*model.Org, error) {
	var org *model.Org
	err := r.db.
		WithContext(ctx).
		Where("orgs.name = ?", name).
		First(&org).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errdef.NewNotFound("org %q doesn't exist", name)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to find org: %v", err)
	}

	return org, nil
}

// findAll returns the orgs the user may see. Administrators see every org, everyone else sees
// the orgs they are a member or admin of.
func (r repository) findAll(ctx context.Context, user *model.User) ([]model.Org, error) {
	if user.IsAdministrator() {
		var orgs []model.Org
		err := r.db.WithContext(ctx).Order("name").Find(&orgs).Error
		return orgs, err
	}

	return findAllFromUser(user), nil
}

func findAllFromUser(user *model.User) []model.Org {
	var allOrgs []model.Org
	allOrgs = append(allOrgs, user.Orgs...)
	allOrgs = append(allOrgs, user.AdminOrgs...)

	orgsByName := make(map[string]model.Org)
	for _, org := range allOrgs {
		orgsByName[org.Name] = org
	}

	orgs := maps.Values(orgsByName)
	slices.SortFunc(orgs, func(a, b model.Org) int {
		return strings.Compare(a.Name, b.Name)
	})
	return orgs
}

func (r repository) create(ctx context.Context, org *model.Org) error {
	// only use ctx for values (logging) and not cancellation signals on cud operations for now. ctx
	// cancellation can lead to rollbacks which we should decide individually.
	ctx = context.WithoutCancel(ctx)

	err := r.db.WithContext(ctx).Create(&org).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errdef.NewDuplicated("org name/hostname already exists: %s", err)
	}

	return err
}

func (r repository) findOrCreate(ctx context.Context, org *model.Org) (*model.Org, error) {
	// only use ctx for values (logging) and not cancellation signals on cud operations for now. ctx
	// cancellation can lead to rollbacks which we should decide individually.
	ctx = context.WithoutCancel(ctx)

	var o *model.Org
	err := r.db.
		WithContext(ctx).
		Where(model.Org{Name: org.Name}).
		Attrs(model.Org{Slug: org.Slug, Hostname: org.Hostname}).
		FirstOrCreate(&o).Error
	return o, err
}

func (r repository) addUser(ctx context.Context, org *model.Org, user *model.User) error {
	// only use ctx for values (logging) and not cancellation signals on cud operations for now. ctx
	// cancellation can lead to rollbacks which we should decide individually.
	ctx = context.WithoutCancel(ctx)

	return r.db.WithContext(ctx).Model(&org).Association("Users").Append([]*model.User{user})
}
