package api

import (
	"net/http"
	"strings"

	"github.com/gluk-w/ocr-gateway/internal/config"
)

// AdminAuth middleware validates the shared admin secret.
func AdminAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if config.Cfg.AdminSecret == "" {
			writeError(w, http.StatusServiceUnavailable, "Admin secret not configured")
			return
		}

		auth := r.Header.Get("Authorization")
		token := strings.TrimPrefix(auth, "Bearer ")
		if token == "" || token == auth {
			writeError(w, http.StatusUnauthorized, "Missing admin token")
			return
		}

		if token != config.Cfg.AdminSecret {
			writeError(w, http.StatusForbidden, "Invalid admin token")
			return
		}

		next.ServeHTTP(w, r)
	})
}
