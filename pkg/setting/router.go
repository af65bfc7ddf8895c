package setting

import (
	"github.com/gin-gonic/gin"
)

type AuthorizationMiddleware interface {
	RequireAdministrator(c *gin.Context)
}

func Routes(r *gin.Engine, authenticator gin.HandlerFunc, authorizationMiddleware AuthorizationMiddleware, handler Handler) {
	administratorRestrictedRouter := r.Group("")
	administratorRestrictedRouter.Use(authenticator, authorizationMiddleware.RequireAdministrator)
	administratorRestrictedRouter.GET("/settings", handler.FindAll)
	administratorRestrictedRouter.PUT("/settings/:slug", handler.Set)
}
