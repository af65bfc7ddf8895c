package event

import (
	"github.com/gin-gonic/gin"
	"github.com/harryhq/mail-manager/internal/middleware"
)

func Routes(r *gin.Engine, authenticationMiddleware middleware.AuthenticationMiddleware, handler Handler) {
	tokenAuthenticationRouter := r.Group("")
	tokenAuthenticationRouter.Use(authenticationMiddleware.TokenAuthentication)
	tokenAuthenticationRouter.GET("/subscribe", handler.Subscribe)
}
