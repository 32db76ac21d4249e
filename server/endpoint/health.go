package endpoint

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/william251082/fileupload/component"
)

// HealthChecker returns the health of registered components.
type HealthChecker func(ctx context.Context) []component.Health

// Health reports the worst component status: 503 when any component is
// unhealthy, 200 otherwise.
func Health(serviceName string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := component.StatusHealthy
		var components []component.Health

		if checker != nil {
			components = checker(c.Request.Context())
			for _, ch := range components {
				switch {
				case ch.Status == component.StatusUnhealthy:
					status = component.StatusUnhealthy
				case ch.Status == component.StatusDegraded && status != component.StatusUnhealthy:
					status = component.StatusDegraded
				}
			}
		}

		code := http.StatusOK
		if status == component.StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":     status,
			"service":    serviceName,
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"components": components,
		})
	}
}
