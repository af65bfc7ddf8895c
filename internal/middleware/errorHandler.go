package middleware

import (
	"net/http"

	"github.com/harryhq/mail-manager/internal/errdef"
	"github.com/gin-gonic/gin"
)

// ErrorHandler writes the last error recorded on the context as a plain text response. Errors
// created through errdef map to their HTTP status, anything else becomes a 500 carrying the
// request id so users can report it.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		err := c.Errors.Last()
		if err == nil {
			return
		}
		if c.Writer.Status() != http.StatusOK {
			_, _ = c.Writer.WriteString(err.Error())
			return
		}

		switch {
		case errdef.IsBadRequest(err):
			c.String(http.StatusBadRequest, err.Error())
		case errdef.IsUnauthorized(err):
			c.String(http.StatusUnauthorized, err.Error())
		case errdef.IsForbidden(err):
			c.String(http.StatusForbidden, err.Error())
		case errdef.IsNotFound(err):
			c.String(http.StatusNotFound, err.Error())
		case errdef.IsConflict(err), errdef.IsDuplicated(err):
			c.String(http.StatusConflict, err.Error())
		case errdef.IsUnsupportedMediaType(err):
			c.String(http.StatusUnsupportedMediaType, err.Error())
		default:
			id := GetRequestID(c.Request.Context())
			c.String(http.StatusInternalServerError, "something went wrong. We'll look into it if you send us the id %q :)", id)
		}
	}
}
