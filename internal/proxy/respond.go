package proxy

import (
	"encoding/json"
	"net/http"
)

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]interface{}{
		"success": false,
		"error":   msg,
	})
}

// NotFound replaces chi's default plain-text 404 with the JSON envelope.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, "Endpoint not found")
}

func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

// writeQuotaError is like writeError but includes the usage block so clients
// can self-diagnose without a separate /usage call.
func writeQuotaError(w http.ResponseWriter, code int, msg string, used, limit int) {
	writeJSON(w, code, map[string]interface{}{
		"success": false,
		"error":   msg,
		"usage": map[string]interface{}{
			"requests_used": used,
			"daily_limit":   limit,
		},
	})
}
