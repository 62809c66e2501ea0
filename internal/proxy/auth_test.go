package proxy

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gluk-w/ocr-gateway/internal/keys"
	"github.com/gluk-w/ocr-gateway/internal/ratelimit"
)

func newTestHandler(t *testing.T, upstreamURL string) *Handler {
	t.Helper()

	registry, err := keys.NewRegistry([]keys.Record{
		{Key: "pro-key", Owner: "ios_app", Tier: keys.TierPro, DailyLimit: 1000},
		{Key: "tiny-key", Owner: "scenario_a", Tier: keys.TierFree, DailyLimit: 2},
		{Key: "hundred-key", Owner: "scenario_e", Tier: keys.TierFree, DailyLimit: 100},
	})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	return New(registry, ratelimit.NewMemoryStore(), upstreamURL,
		2*time.Second, 2*time.Second, time.Second)
}

func TestAuthMiddleware(t *testing.T) {
	h := newTestHandler(t, "http://localhost:0")

	tests := []struct {
		name       string
		key        string
		wantStatus int
		wantError  string
	}{
		{
			name:       "valid key",
			key:        "pro-key",
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing key",
			key:        "",
			wantStatus: http.StatusUnauthorized,
			wantError:  "Missing API key. Include X-API-Key header.",
		},
		{
			name:       "invalid key",
			key:        "wrong-key",
			wantStatus: http.StatusForbidden,
			wantError:  "Invalid API key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := h.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				rec, ok := RecordFromContext(r.Context())
				if !ok {
					t.Error("Record missing from context after auth")
				}
				if rec.Key != tt.key {
					t.Errorf("Context record key = %s, want %s", rec.Key, tt.key)
				}
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest("POST", "/api/v1/ocr", nil)
			if tt.key != "" {
				req.Header.Set("X-API-Key", tt.key)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantError != "" {
				var body struct {
					Success bool   `json:"success"`
					Error   string `json:"error"`
				}
				if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
					t.Fatalf("Invalid error body: %v", err)
				}
				if body.Success {
					t.Error("success should be false in error envelope")
				}
				if body.Error != tt.wantError {
					t.Errorf("Error = %q, want %q", body.Error, tt.wantError)
				}
			}
		})
	}
}
