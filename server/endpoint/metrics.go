package endpoint

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Metrics exposes a Prometheus handler as a Gin route.
func Metrics(handler http.Handler) gin.HandlerFunc {
	return gin.WrapH(handler)
}
