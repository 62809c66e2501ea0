package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gluk-w/ocr-gateway/internal/api"
	"github.com/gluk-w/ocr-gateway/internal/config"
	"github.com/gluk-w/ocr-gateway/internal/database"
	"github.com/gluk-w/ocr-gateway/internal/keys"
	"github.com/gluk-w/ocr-gateway/internal/proxy"
	"github.com/gluk-w/ocr-gateway/internal/ratelimit"
	"github.com/gluk-w/ocr-gateway/internal/upstream"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

func main() {
	config.Load()

	if err := database.Init(); err != nil {
		log.Fatalf("Database init: %v", err)
	}
	defer database.Close()

	registry, err := keys.Load(config.Cfg.APIKeysPath)
	if err != nil {
		log.Fatalf("Key registry: %v", err)
	}
	if config.Cfg.APIKeysPath == "" {
		log.Println("No API keys file configured, using built-in development keys")
	}
	log.Printf("Loaded %d API keys", registry.Len())

	if config.Cfg.OCRServerURL != "" {
		upstream.SetCustomURL(config.Cfg.OCRBackend, config.Cfg.OCRServerURL)
	}
	backend, ok := upstream.Get(config.Cfg.OCRBackend)
	if !ok {
		log.Fatalf("Unknown OCR backend %q", config.Cfg.OCRBackend)
	}

	var store ratelimit.Store
	switch config.Cfg.RateLimitBackend {
	case "redis":
		store, err = ratelimit.NewRedisStore(config.Cfg.RedisAddr, config.Cfg.RedisPassword, config.Cfg.RedisDB)
		if err != nil {
			log.Fatalf("Rate limit store: %v", err)
		}
	default:
		store = ratelimit.NewMemoryStore()
		log.Println("Using in-memory rate limiting: quotas reset on restart and are not shared across instances")
	}
	defer store.Close()

	h := proxy.New(registry, store, backend.BaseURL,
		config.Cfg.OCRTimeout, config.Cfg.BatchOCRTimeout, config.Cfg.HealthTimeout)

	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(proxy.MaxBodySize)
	r.NotFound(proxy.NotFound)
	r.MethodNotAllowed(proxy.MethodNotAllowed)

	// Health (no auth)
	r.Get("/health", h.Health)

	// Client-facing OCR routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(h.AuthMiddleware)
		r.Post("/ocr", h.OCR)
		r.Post("/ocr/batch", h.BatchOCR)
		r.Get("/usage", h.Usage)
	})

	// Operator-facing API
	r.Route("/admin", func(r chi.Router) {
		r.Use(api.AdminAuth)
		r.Get("/usage", api.GetUsage)
	})

	// Graceful shutdown
	srv := &http.Server{
		Addr:    config.Cfg.ListenAddr,
		Handler: r,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("OCR Gateway starting on %s (backend=%s at %s)",
			config.Cfg.ListenAddr, backend.Name, backend.BaseURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-sigCtx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Shutdown error: %v", err)
	}
	log.Println("OCR Gateway stopped")
}
