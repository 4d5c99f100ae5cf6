package middleware

import (
	"net/http"

	"github.com/dmarkov/product_catalog/internal/pkg/logger"
)

// APIKey returns a placeholder guard that reads the X-API-Key header and
// permits every request. Real key validation is out of scope; the middleware
// only keeps the header contract in place for clients.
func APIKey(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key := r.Header.Get("X-API-Key"); key != "" {
				log.Debugf("Request presented API key for %s %s", r.Method, r.URL.Path)
			}

			next.ServeHTTP(w, r)
		})
	}
}
