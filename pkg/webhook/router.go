package webhook

import (
	"github.com/gin-gonic/gin"
)

type AuthorizationMiddleware interface {
	RequireAdministrator(c *gin.Context)
}

func Routes(r *gin.Engine, authenticator gin.HandlerFunc, authorizationMiddleware AuthorizationMiddleware, handler Handler) {
	// the provider posts without credentials
	r.POST("/webhooks/email", handler.CreateFromRequest)

	administratorRestrictedRouter := r.Group("")
	administratorRestrictedRouter.Use(authenticator, authorizationMiddleware.RequireAdministrator)
	administratorRestrictedRouter.GET("/webhooks", handler.FindAll)
	administratorRestrictedRouter.GET("/webhooks/:id", handler.FindById)
}
