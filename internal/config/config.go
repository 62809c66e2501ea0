package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Settings struct {
	ListenAddr       string        `envconfig:"LISTEN_ADDR" default:":8000"`
	OCRBackend       string        `envconfig:"OCR_BACKEND" default:"deepseek"`
	OCRServerURL     string        `envconfig:"OCR_SERVER_URL" default:""`
	APIKeysPath      string        `envconfig:"API_KEYS_PATH" default:""`
	DatabasePath     string        `envconfig:"DATABASE_PATH" default:"/app/data/ocr-gateway.db"`
	AdminSecret      string        `envconfig:"ADMIN_SECRET" default:""`
	RateLimitBackend string        `envconfig:"RATE_LIMIT_BACKEND" default:"memory"`
	RedisAddr        string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisPassword    string        `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB          int           `envconfig:"REDIS_DB" default:"0"`
	OCRTimeout       time.Duration `envconfig:"OCR_TIMEOUT" default:"120s"`
	BatchOCRTimeout  time.Duration `envconfig:"BATCH_OCR_TIMEOUT" default:"300s"`
	HealthTimeout    time.Duration `envconfig:"HEALTH_TIMEOUT" default:"5s"`
}

var Cfg Settings

func Load() {
	if err := envconfig.Process("OCR_GATEWAY", &Cfg); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
}
