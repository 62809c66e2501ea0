package upstream

import "testing"

func TestGet(t *testing.T) {
	tests := []struct {
		name    string
		backend string
		wantOK  bool
		wantURL string
	}{
		{name: "deepseek", backend: "deepseek", wantOK: true, wantURL: "http://localhost:5003"},
		{name: "easyocr", backend: "easyocr", wantOK: true, wantURL: "http://localhost:5001"},
		{name: "case insensitive", backend: "PaddleOCR", wantOK: true, wantURL: "http://localhost:5000"},
		{name: "unknown", backend: "tesseract", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, ok := Get(tt.backend)
			if ok != tt.wantOK {
				t.Fatalf("Get(%q) ok = %v, want %v", tt.backend, ok, tt.wantOK)
			}
			if ok && b.BaseURL != tt.wantURL {
				t.Errorf("BaseURL = %s, want %s", b.BaseURL, tt.wantURL)
			}
		})
	}
}

func TestSetCustomURL(t *testing.T) {
	SetCustomURL("olmocr", "http://gpu-node:9000")
	defer SetCustomURL("olmocr", "")

	b, ok := Get("olmocr")
	if !ok {
		t.Fatal("olmocr should be registered")
	}
	if b.BaseURL != "http://gpu-node:9000" {
		t.Errorf("BaseURL = %s, want custom override", b.BaseURL)
	}

	// Empty override falls back to the default
	SetCustomURL("olmocr", "")
	b, _ = Get("olmocr")
	if b.BaseURL != "http://localhost:5002" {
		t.Errorf("BaseURL = %s, want default after clearing override", b.BaseURL)
	}
}
