package config

import (
	"testing"

	"golang.org/x/time/rate"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Port)
	}
	if cfg.UploadDir != "./uploads" {
		t.Errorf("Expected default upload dir ./uploads, got %s", cfg.UploadDir)
	}
	if cfg.MaxMessageSize <= 0 || cfg.MaxUploadSize <= 0 {
		t.Error("Expected positive size defaults")
	}
	if len(cfg.AllowedOrigins) == 0 {
		t.Error("Expected default allowed origins")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("RATE_LIMIT_WS", "7")
	t.Setenv("UPLOAD_DIR", "/tmp/files")
	t.Setenv("MAX_UPLOAD_SIZE", "1024")

	cfg := LoadFromEnv()

	if cfg.Port != "9000" {
		t.Errorf("Expected port 9000, got %s", cfg.Port)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("Unexpected origins: %v", cfg.AllowedOrigins)
	}
	if cfg.RateLimitWS != rate.Limit(7) {
		t.Errorf("Expected ws rate 7, got %v", cfg.RateLimitWS)
	}
	if cfg.UploadDir != "/tmp/files" {
		t.Errorf("Expected upload dir /tmp/files, got %s", cfg.UploadDir)
	}
	if cfg.MaxUploadSize != 1024 {
		t.Errorf("Expected max upload 1024, got %d", cfg.MaxUploadSize)
	}
}

func TestLoadFromEnv_IgnoresInvalid(t *testing.T) {
	t.Setenv("RATE_LIMIT_API", "not-a-number")
	t.Setenv("MAX_MESSAGE_SIZE", "-5")

	cfg := LoadFromEnv()
	def := DefaultConfig()

	if cfg.RateLimitAPI != def.RateLimitAPI {
		t.Errorf("Expected default api rate, got %v", cfg.RateLimitAPI)
	}
	if cfg.MaxMessageSize != def.MaxMessageSize {
		t.Errorf("Expected default message size, got %d", cfg.MaxMessageSize)
	}
}

func TestParseOrigins(t *testing.T) {
	got := parseOrigins(" https://a.example ,, https://b.example,")
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Errorf("Unexpected origins: %v", got)
	}
}
