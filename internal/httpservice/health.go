package httpservice

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Service) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
