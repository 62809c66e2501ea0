package database

import "time"

// RequestRecord is one audited gateway request. Denied and failed requests
// are recorded too, with the status code the client saw, so operators can
// tell quota pressure apart from upstream failures.
type RequestRecord struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"`
	Owner      string    `gorm:"not null;index"`
	Tier       string    `gorm:"not null"`
	Endpoint   string    `gorm:"not null;index"`
	Images     int       `gorm:"not null;default:0"`
	StatusCode int       `gorm:"not null;default:0"`
	DurationMs int64     `gorm:"not null;default:0"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index"`
}
