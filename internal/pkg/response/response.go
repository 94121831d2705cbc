package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// The API surface uses plain JSON bodies, not an envelope: handlers return the
// payload directly on success and {"error": "..."} on failure.

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

func Error(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}
