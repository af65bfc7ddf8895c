package org

import (
	"github.com/harryhq/mail-manager/pkg/model"
)

// swagger:parameters createOrg
type _ struct {
	// Create org request body parameter
	// in: body
	// required: true
	Body createOrgRequest
}

// swagger:parameters findOrgByName
type _ struct {
	// in: path
	// required: true
	Name string `json:"name"`
}

// swagger:parameters addUserToOrg
type _ struct {
	// in: path
	// required: true
	Name string `json:"name"`

	// in: path
	// required: true
	UserID uint `json:"userId"`
}

// swagger:response Org
type _ struct {
	//in: body
	_ model.Org
}

// swagger:response Orgs
type _ struct {
	// Orgs list response
	//in: body
	_ []model.Org
}
