package email

import (
	"github.com/gin-gonic/gin"
)

func Routes(r *gin.Engine, authenticator gin.HandlerFunc, handler Handler) {
	tokenAuthenticationRouter := r.Group("")
	tokenAuthenticationRouter.Use(authenticator)
	tokenAuthenticationRouter.POST("/messages", handler.Create)
	tokenAuthenticationRouter.GET("/messages", handler.FindAll)
	tokenAuthenticationRouter.GET("/messages/:id", handler.FindById)
	tokenAuthenticationRouter.POST("/messages/:id/attachments", handler.Attach)
	tokenAuthenticationRouter.GET("/messages/:id/attachments/:attachmentId", handler.DownloadAttachment)
	tokenAuthenticationRouter.POST("/messages/:id/queue", handler.Queue)
	tokenAuthenticationRouter.POST("/messages/:id/duplicate", handler.Duplicate)
}
