package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gluk-w/ocr-gateway/internal/config"
)

// SetupTestDB initializes a test database.
func SetupTestDB(t *testing.T) func() {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "ocr-gateway-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	config.Cfg.DatabasePath = filepath.Join(tmpDir, "test.db")

	if err := Init(); err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("Failed to init database: %v", err)
	}

	return func() {
		Close()
		os.RemoveAll(tmpDir)
	}
}

func TestDatabaseInit(t *testing.T) {
	cleanup := SetupTestDB(t)
	defer cleanup()

	var count int64
	if err := DB.Model(&RequestRecord{}).Count(&count).Error; err != nil {
		t.Fatalf("request_records table missing: %v", err)
	}
	if count != 0 {
		t.Errorf("Fresh database should be empty, got %d records", count)
	}
}

func TestRequestRecordWriteAndQuery(t *testing.T) {
	cleanup := SetupTestDB(t)
	defer cleanup()

	records := []RequestRecord{
		{Owner: "ios_app", Tier: "pro", Endpoint: "/api/v1/ocr", Images: 1, StatusCode: 200, DurationMs: 843},
		{Owner: "ios_app", Tier: "pro", Endpoint: "/api/v1/ocr/batch", Images: 5, StatusCode: 200, DurationMs: 4210},
		{Owner: "test_user", Tier: "free", Endpoint: "/api/v1/ocr", Images: 1, StatusCode: 429, DurationMs: 1},
	}
	for _, rec := range records {
		if err := DB.Create(&rec).Error; err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	var count int64
	DB.Model(&RequestRecord{}).Where("owner = ?", "ios_app").Count(&count)
	if count != 2 {
		t.Errorf("ios_app records = %d, want 2", count)
	}

	var images int64
	DB.Model(&RequestRecord{}).Select("COALESCE(SUM(images),0)").Scan(&images)
	if images != 7 {
		t.Errorf("Total images = %d, want 7", images)
	}

	var denied RequestRecord
	if err := DB.Where("status_code = ?", 429).First(&denied).Error; err != nil {
		t.Fatalf("Denied record not found: %v", err)
	}
	if denied.Owner != "test_user" {
		t.Errorf("Denied owner = %s, want test_user", denied.Owner)
	}
}
