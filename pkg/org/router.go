package org

import (
	"github.com/gin-gonic/gin"
)

type AuthorizationMiddleware interface {
	RequireAdministrator(c *gin.Context)
}

func Routes(r *gin.Engine, authenticator gin.HandlerFunc, authorizationMiddleware AuthorizationMiddleware, handler Handler) {
	authenticatedRouter := r.Group("")
	authenticatedRouter.Use(authenticator)
	authenticatedRouter.GET("/orgs", handler.FindAll)
	authenticatedRouter.GET("/orgs/:name", handler.Find)

	administratorRestrictedRouter := authenticatedRouter.Group("")
	administratorRestrictedRouter.Use(authorizationMiddleware.RequireAdministrator)
	administratorRestrictedRouter.POST("/orgs", handler.Create)
	administratorRestrictedRouter.POST("/orgs/:name/users/:userId", handler.AddUser)
}
