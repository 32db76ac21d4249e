package middleware

import (
	"net/http"

	"github.com/william251082/fileupload/util"
)

const defaultMaxBodySize = 10 << 20

// BodySizeLimit caps request bodies at maxSize ("10MB", "512KB").
// Reads past the cap fail with *http.MaxBytesError.
func BodySizeLimit(maxSize string) Middleware {
	size := util.ParseSize(maxSize, defaultMaxBodySize)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil && r.Body != http.NoBody {
				r.Body = http.MaxBytesReader(w, r.Body, size)
			}
			next.ServeHTTP(w, r)
		})
	}
}
