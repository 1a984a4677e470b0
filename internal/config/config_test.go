package config

import (
	"strings"
	"testing"
	"time"
)

// clearEnv unsets every variable the loader reads so defaults apply.
func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"PORT", "READ_TIMEOUT", "READ_HEADER_TIMEOUT", "WRITE_TIMEOUT", "IDLE_TIMEOUT",
		"MAX_HEADER_BYTES", "MAX_UPLOAD_BYTES", "GIN_MODE", "LOG_LEVEL", "LOG_PRETTY",
		"SWAGGER_ENABLED", "SMTP_HOST", "SMTP_PORT", "SMTP_USERNAME", "SMTP_PASSWORD",
		"CONTACT_INBOX", "NOREPLY_FROM", "MAILBOX_VALIDATOR_KEY", "INSTA_TOKEN",
		"SQUARE_TOKEN", "SQUARE_LOCATION_ID", "SQUARE_BASE_URL", "CACHE_TTL",
		"INSTAGRAM_PAGE_SIZE", "DB_PATH", "UPLOAD_DIR", "RATE_RPS", "RATE_BURST",
		"CORS_ALLOWED_ORIGINS", "ENABLE_HSTS", "HSTS_MAX_AGE", "OTEL_ENABLED",
		"OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_INSECURE",
		"OTEL_SERVICE_NAME", "OTEL_TRACES_SAMPLER_ARG",
	}
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.CacheTTL != 10*time.Minute {
		t.Errorf("CacheTTL = %v, want 10m", cfg.CacheTTL)
	}
	if cfg.InstagramPageSize != 16 {
		t.Errorf("InstagramPageSize = %d, want 16", cfg.InstagramPageSize)
	}
	if cfg.Square.BaseURL != "https://connect.squareupsandbox.com" {
		t.Errorf("Square.BaseURL = %q", cfg.Square.BaseURL)
	}
	if cfg.SMTP.Port != 587 {
		t.Errorf("SMTP.Port = %d, want 587", cfg.SMTP.Port)
	}
	if cfg.UploadDir != "uploads" {
		t.Errorf("UploadDir = %q, want uploads", cfg.UploadDir)
	}
	if cfg.GinMode != "release" {
		t.Errorf("GinMode = %q, want release", cfg.GinMode)
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("INSTAGRAM_PAGE_SIZE", "8")
	t.Setenv("SQUARE_BASE_URL", "https://connect.squareup.com/")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("LOG_LEVEL", "WARNING")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.CacheTTL != 90*time.Second {
		t.Errorf("CacheTTL = %v, want 90s", cfg.CacheTTL)
	}
	if cfg.InstagramPageSize != 8 {
		t.Errorf("InstagramPageSize = %d, want 8", cfg.InstagramPageSize)
	}
	if strings.HasSuffix(cfg.Square.BaseURL, "/") {
		t.Errorf("Square.BaseURL not normalized: %q", cfg.Square.BaseURL)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 || cfg.CORS.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("CORS origins = %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn (normalized)", cfg.LogLevel)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"LOG_LEVEL":           "verbose",
		"CACHE_TTL":           "-1m",
		"INSTAGRAM_PAGE_SIZE": "0",
		"RATE_BURST":          "0",
		"SMTP_PORT":           "70000",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, val)
			if _, err := Load(); err == nil {
				t.Fatalf("Load() with %s=%s: expected error", key, val)
			}
		})
	}
}

func TestMustLoad_PanicsOnInvalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOG_LEVEL", "bogus")
	defer func() {
		if recover() == nil {
			t.Fatal("MustLoad did not panic")
		}
	}()
	MustLoad()
}
