package handler

import (
	"github.com/harryhq/mail-manager/internal/errdef"

	"github.com/gin-gonic/gin"
)

// DataBinder binds the request body into req. Routes only accept JSON, except for attachment
// uploads which use multipart forms.
func DataBinder(c *gin.Context, req any) error {
	contentType := c.ContentType()
	if contentType != "application/json" && contentType != "multipart/form-data" {
		return errdef.NewUnsupportedMediaType("%s only accepts content of type application/json or multipart/form-data", c.FullPath())
	}

	if err := c.ShouldBind(req); err != nil {
		return errdef.NewBadRequest("failed to bind request data: %v", err)
	}

	return nil
}
