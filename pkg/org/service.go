package org

import (
	"context"

	"github.com/gosimple/slug"
	"github.com/harryhq/mail-manager/pkg/model"
)

//goland:noinspection GoExportedFuncWithUnexportedType
func NewService(repository *repository, userService userService) *Service {
	return &Service{
		repository:  repository,
		userService: userService,
	}
}

type userService interface {
	FindById(ctx context.Context, id uint) (*model.User, error)
}

type Service struct {
	repository  *repository
	userService userService
}

func (s Service) Create(ctx context.Context, name string, hostname string) (*model.Org, error) {
	org := &model.Org{
		Name:     name,
		Slug:     slug.Make(name),
		Hostname: hostname,
	}

	err := s.repository.create(ctx, org)
	if err != nil {
		return nil, err
	}

	return org, nil
}

func (s Service) FindOrCreate(ctx context.Context, name string, hostname string) (*model.Org, error) {
	org := &model.Org{
		Name:     name,
		Slug:     slug.Make(name),
		Hostname: hostname,
	}

	return s.repository.findOrCreate(ctx, org)
}

func (s Service) Find(ctx context.Context, name string) (*model.Org, error) {
	return s.repository.find(ctx, name)
}

func (s Service) FindAll(ctx context.Context, user *model.User) ([]model.Org, error) {
	return s.repository.findAll(ctx, user)
}

func (s Service) AddUser(ctx context.Context, orgName string, userId uint) error {
	org, err := s.repository.find(ctx, orgName)
	if err != nil {
		return err
	}

	user, err := s.userService.FindById(ctx, userId)
	if err != nil {
		return err
	}

	return s.repository.addUser(ctx, org, user)
}
