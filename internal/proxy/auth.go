package proxy

import (
	"log"
	"net/http"
)

// AuthMiddleware validates the X-API-Key header against the key registry and
// injects the matching record into the request context. The registry is
// immutable, so there is no cache to invalidate and no lock to take.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("X-API-Key")
		if key == "" {
			log.Printf("Missing API key from %s", r.RemoteAddr)
			writeError(w, http.StatusUnauthorized, "Missing API key. Include X-API-Key header.")
			return
		}

		rec, ok := h.registry.Lookup(key)
		if !ok {
			log.Printf("Invalid API key attempt from %s", r.RemoteAddr)
			writeError(w, http.StatusForbidden, "Invalid API key")
			return
		}

		next.ServeHTTP(w, r.WithContext(withRecord(r.Context(), rec)))
	})
}
