package httpservice

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// corsMiddleware allows any origin, the methods the service routes
// (GET, POST, OPTIONS) and the common request headers (Content-Type,
// Authorization, Accept), suitable for browser-based clients calling
// the API directly.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, Accept")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
