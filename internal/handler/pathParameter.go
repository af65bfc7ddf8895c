package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/harryhq/mail-manager/internal/errdef"
)

// GetPathParameter reads the named numeric path parameter. On failure it records a bad request
// error for the error handler and returns false, the caller just returns.
func GetPathParameter(c *gin.Context, parameter string) (uint, bool) {
	value := c.Param(parameter)
	id, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		_ = c.Error(errdef.NewBadRequest("failed to parse %q: %s", parameter, err))
		c.Abort()
		return 0, false
	}
	return uint(id), true
}
