package httpservice

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flowllm/flowllm/internal/flowerr"
)

// writeError maps a flowerr.Kind to an HTTP status, logging the
// failure before sending a JSON {"message": ...} body.
func writeError(c *gin.Context, err error) {
	status := statusForKind(flowerr.KindOf(err))
	slog.Error("httpservice: flow invocation failed",
		"path", c.Request.URL.Path,
		"status", status,
		"error", err.Error())
	c.JSON(status, gin.H{"message": err.Error()})
}

func statusForKind(kind flowerr.Kind) int {
	switch kind {
	case flowerr.KindInputValidation:
		return http.StatusBadRequest
	case flowerr.KindUnknownFlow, flowerr.KindUnknownOp, flowerr.KindUnknownResource:
		return http.StatusNotFound
	case flowerr.KindTimeout:
		return http.StatusGatewayTimeout
	case flowerr.KindCancelled:
		return 499 // client closed request, nginx convention
	default:
		return http.StatusInternalServerError
	}
}
