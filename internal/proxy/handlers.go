package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/gluk-w/ocr-gateway/internal/database"
	"github.com/gluk-w/ocr-gateway/internal/keys"
	"github.com/gluk-w/ocr-gateway/internal/ratelimit"
)

const maxRequestBody = 16 << 20 // 16 MiB

// Handler proxies OCR requests to the internal inference server after
// authentication, quota reservation and validation.
type Handler struct {
	registry      *keys.Registry
	store         ratelimit.Store
	upstream      string
	client        *http.Client
	singleTimeout time.Duration
	batchTimeout  time.Duration
	healthTimeout time.Duration
}

func New(registry *keys.Registry, store ratelimit.Store, upstreamURL string, single, batch, health time.Duration) *Handler {
	return &Handler{
		registry:      registry,
		store:         store,
		upstream:      upstreamURL,
		client:        &http.Client{},
		singleTimeout: single,
		batchTimeout:  batch,
		healthTimeout: health,
	}
}

// MaxBodySize caps request bodies; oversized reads surface as 413.
func MaxBodySize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
		next.ServeHTTP(w, r)
	})
}

// OCR handles single-image requests. Quota is reserved before validation,
// mirroring the admission policy: one unit is consumed per accepted request
// and never refunded if the downstream call fails.
func (h *Handler) OCR(w http.ResponseWriter, r *http.Request) {
	rec, ok := RecordFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	started := time.Now()

	body, ok := readBody(w, r)
	if !ok {
		return
	}

	dec, err := h.store.CheckAndReserve(r.Context(), rec.Key, rec.DailyLimit, 1, time.Now())
	if err != nil {
		log.Printf("Rate limit store error for %s: %v", rec.Owner, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if !dec.Allowed {
		log.Printf("Rate limit exceeded for %s", rec.Owner)
		h.audit(rec, "/api/v1/ocr", 1, http.StatusTooManyRequests, started)
		writeQuotaError(w, http.StatusTooManyRequests, "Rate limit exceeded", dec.Used, dec.Limit)
		return
	}

	if reason := validateOCRRequest(body); reason != "" {
		log.Printf("Invalid request from %s: %s", rec.Owner, reason)
		writeError(w, http.StatusBadRequest, reason)
		return
	}

	log.Printf("OCR request from %s (tier: %s)", rec.Owner, rec.Tier)
	h.relay(w, r, rec, relayParams{
		path:       "/ocr",
		body:       body,
		timeout:    h.singleTimeout,
		timeoutMsg: "OCR request timed out",
		endpoint:   "/api/v1/ocr",
		images:     1,
		started:    started,
		usage:      dec,
	})
}

// BatchOCR handles multi-image requests. Validation runs first so the image
// count is known, then the whole batch cost is reserved in one atomic check:
// a batch is admitted in full or not at all.
func (h *Handler) BatchOCR(w http.ResponseWriter, r *http.Request) {
	rec, ok := RecordFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	started := time.Now()

	body, ok := readBody(w, r)
	if !ok {
		return
	}

	count, reason := validateBatchRequest(body)
	if reason != "" {
		writeError(w, http.StatusBadRequest, reason)
		return
	}

	dec, err := h.store.CheckAndReserve(r.Context(), rec.Key, rec.DailyLimit, count, time.Now())
	if err != nil {
		log.Printf("Rate limit store error for %s: %v", rec.Owner, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if !dec.Allowed {
		log.Printf("Insufficient quota for %s", rec.Owner)
		h.audit(rec, "/api/v1/ocr/batch", count, http.StatusTooManyRequests, started)
		msg := fmt.Sprintf("Insufficient quota. Batch requires %d requests, but only %d remaining.",
			count, dec.Limit-dec.Used)
		writeQuotaError(w, http.StatusTooManyRequests, msg, dec.Used, dec.Limit)
		return
	}

	log.Printf("Batch OCR request from %s: %d images", rec.Owner, count)
	h.relay(w, r, rec, relayParams{
		path:       "/ocr/batch",
		body:       body,
		timeout:    h.batchTimeout,
		timeoutMsg: "Batch OCR request timed out",
		endpoint:   "/api/v1/ocr/batch",
		images:     count,
		started:    started,
		usage:      dec,
	})
}

// Usage reports current consumption for the authenticated key without
// touching rate-limit state.
func (h *Handler) Usage(w http.ResponseWriter, r *http.Request) {
	rec, ok := RecordFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	used, err := h.store.Usage(r.Context(), rec.Key, time.Now())
	if err != nil {
		log.Printf("Rate limit store error for %s: %v", rec.Owner, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"usage": map[string]interface{}{
			"user":               rec.Owner,
			"tier":               rec.Tier,
			"requests_used":      used,
			"daily_limit":        rec.DailyLimit,
			"requests_remaining": rec.DailyLimit - used,
		},
	})
}

// Health reports gateway health plus a best-effort probe of the upstream OCR
// server. An unreachable upstream never fails the gateway's own health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	backendStatus := "unknown"

	ctx, cancel := context.WithTimeout(r.Context(), h.healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.upstream+"/health", nil)
	if err == nil {
		resp, err := h.client.Do(req)
		if err != nil {
			backendStatus = "error"
		} else {
			func() {
				defer resp.Body.Close()
				if resp.StatusCode != http.StatusOK {
					backendStatus = "error"
					return
				}
				var status struct {
					Status string `json:"status"`
				}
				if json.NewDecoder(resp.Body).Decode(&status) == nil && status.Status != "" {
					backendStatus = status.Status
				} else {
					backendStatus = "error"
				}
			}()
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"service":     "OCR Gateway API",
		"version":     "1.0.0",
		"ocr_backend": backendStatus,
	})
}

type relayParams struct {
	path       string
	body       []byte
	timeout    time.Duration
	timeoutMsg string
	endpoint   string
	images     int
	started    time.Time
	usage      ratelimit.Decision
}

// relay forwards the validated body unchanged to the upstream OCR server and
// sends its response back with the usage block injected. Upstream failure
// details are logged with the key owner but never leaked to the client.
func (h *Handler) relay(w http.ResponseWriter, r *http.Request, rec keys.Record, p relayParams) {
	ctx, cancel := context.WithTimeout(r.Context(), p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.upstream+p.path, bytes.NewReader(p.body))
	if err != nil {
		log.Printf("Upstream request for %s: %v", rec.Owner, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			log.Printf("OCR timeout for %s on %s", rec.Owner, p.endpoint)
			h.audit(rec, p.endpoint, p.images, http.StatusGatewayTimeout, p.started)
			writeError(w, http.StatusGatewayTimeout, p.timeoutMsg)
			return
		}
		log.Printf("OCR error for %s on %s: %v", rec.Owner, p.endpoint, err)
		h.audit(rec, p.endpoint, p.images, http.StatusInternalServerError, p.started)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("Failed to read upstream response for %s: %v", rec.Owner, err)
		h.audit(rec, p.endpoint, p.images, http.StatusInternalServerError, p.started)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	var result map[string]interface{}
	if err := json.Unmarshal(respBody, &result); err != nil {
		log.Printf("Invalid upstream response for %s: %v", rec.Owner, err)
		h.audit(rec, p.endpoint, p.images, http.StatusInternalServerError, p.started)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if success, _ := result["success"].(bool); success {
		result["usage"] = map[string]interface{}{
			"requests_used": p.usage.Used,
			"daily_limit":   p.usage.Limit,
			"tier":          rec.Tier,
		}
	}

	log.Printf("OCR completed for %s: status=%d", rec.Owner, resp.StatusCode)
	h.audit(rec, p.endpoint, p.images, resp.StatusCode, p.started)
	writeJSON(w, resp.StatusCode, result)
}

func (h *Handler) audit(rec keys.Record, endpoint string, images, status int, started time.Time) {
	if database.DB == nil {
		return
	}
	record := database.RequestRecord{
		Owner:      rec.Owner,
		Tier:       string(rec.Tier),
		Endpoint:   endpoint,
		Images:     images,
		StatusCode: status,
		DurationMs: time.Since(started).Milliseconds(),
	}
	if err := database.DB.Create(&record).Error; err != nil {
		log.Printf("Failed to record request: %v", err)
	}
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request too large. Maximum 16MB.")
		} else {
			writeError(w, http.StatusBadRequest, "Failed to read request body")
		}
		return nil, false
	}
	return body, true
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
