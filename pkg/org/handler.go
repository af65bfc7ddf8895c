package org

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/harryhq/mail-manager/internal/handler"
	"github.com/harryhq/mail-manager/pkg/model"
)

func NewHandler(orgService orgService) Handler {
	return Handler{orgService}
}

type Handler struct {
	orgService orgService
}

type orgService interface {
	Create(ctx context.Context, name string, hostname string) (*model.Org, error)
	Find(ctx context.Context, name string) (*model.Org, error)
	FindAll(ctx context.Context, user *model.User) ([]model.Org, error)
	AddUser(ctx context.Context, orgName string, userId uint) error
}

type createOrgRequest struct {
	Name     string `json:"name" binding:"required"`
	Hostname string `json:"hostname" binding:"required"`
}

func (h Handler) Create(c *gin.Context) {
	// swagger:route POST /orgs createOrg
	//
	// Create org
	//
	// Create an org, administrators only
	//
	// Security:
	//	oauth2:
	//
	// Responses:
	//	201: Org
	//	400: Error
	//	401: Error
	//	403: Error
	//	415: Error
	var request createOrgRequest
	err := handler.DataBinder(c, &request)
	if err != nil {
		_ = c.Error(err)
		return
	}

	org, err := h.orgService.Create(c.Request.Context(), request.Name, request.Hostname)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, org)
}

func (h Handler) Find(c *gin.Context) {
	// swagger:route GET /orgs/{name} findOrgByName
	//
	// Find org
	//
	// Find an org by its name
	//
	// Security:
	//	oauth2:
	//
	// Responses:
	//	200: Org
	//	401: Error
	//	404: Error
	//	415: Error
	org, err := h.orgService.Find(c.Request.Context(), c.Param("name"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, org)
}

func (h Handler) FindAll(c *gin.Context) {
	// swagger:route GET /orgs listOrgs
	//
	// List orgs
	//
	// List orgs. Administrators see all orgs, other users see the orgs they are a member or
	// admin of.
	//
	// Security:
	//	oauth2:
	//
	// Responses:
	//	200: Orgs
	//	401: Error
	//	415: Error
	ctx := c.Request.Context()
	user, err := handler.GetUserFromContext(ctx)
	if err != nil {
		_ = c.Error(err)
		return
	}

	orgs, err := h.orgService.FindAll(ctx, user)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, orgs)
}

func (h Handler) AddUser(c *gin.Context) {
	// swagger:route POST /orgs/{name}/users/{userId} addUserToOrg
	//
	// Add user to org
	//
	// Add a user to an org, administrators only
	//
	// Security:
	//	oauth2:
	//
	// Responses:
	//	201:
	//	400: Error
	//	401: Error
	//	403: Error
	//	404: Error
	//	415: Error
	name := c.Param("name")

	userId, ok := handler.GetPathParameter(c, "userId")
	if !ok {
		return
	}

	err := h.orgService.AddUser(c.Request.Context(), name, userId)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.Status(http.StatusCreated)
}
