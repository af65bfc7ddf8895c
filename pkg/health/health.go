package health

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type status struct {
	Status string `json:"status"`
}

// Health reports whether the service is up.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, status{Status: "up"})
}
