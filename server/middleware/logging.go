package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/william251082/fileupload/logger"
)

const slowRequest = 2 * time.Second

// RequestLogger logs one line per request at a level chosen by status:
// error for 5xx, warn for 4xx, debug otherwise. Probe paths are skipped.
func RequestLogger(log *logger.Logger) Middleware {
	log = log.WithComponent("http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isProbePath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)
			duration := time.Since(start)

			fields := map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      sw.status,
				"bytes":       sw.written,
				"duration_ms": duration.Milliseconds(),
			}
			if duration > slowRequest {
				fields["slow"] = true
			}
			logByStatus(log.WithContext(r.Context()), fields, sw.status)
		})
	}
}

func isProbePath(path string) bool {
	switch strings.TrimSuffix(path, "/") {
	case "/health", "/metrics":
		return true
	}
	return false
}

func logByStatus(log *logger.Logger, fields map[string]interface{}, status int) {
	switch {
	case status >= 500:
		log.Error("Request completed", fields)
	case status >= 400:
		log.Warn("Request completed", fields)
	default:
		log.Debug("Request completed", fields)
	}
}
