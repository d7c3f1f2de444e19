package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("PORT", "")
	t.Setenv("GEMINI_MODEL", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port mismatch: got %q want %q", cfg.Port, "8080")
	}
	if cfg.GeminiModel != "gemini-2.5-flash-image" {
		t.Fatalf("GeminiModel mismatch: got %q", cfg.GeminiModel)
	}
	if cfg.RetryMaxAttempts != 4 {
		t.Fatalf("RetryMaxAttempts mismatch: got %d want 4", cfg.RetryMaxAttempts)
	}
	if cfg.RetryBaseDelay != 5*time.Second {
		t.Fatalf("RetryBaseDelay mismatch: got %v want 5s", cfg.RetryBaseDelay)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Fatalf("SessionTTL mismatch: got %v want 30m", cfg.SessionTTL)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Fatalf("AllowedOrigins mismatch: %#v", cfg.AllowedOrigins)
	}
}

func TestLoadConfigRequiresGeminiKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("LoadConfig accepted an empty GEMINI_API_KEY")
	}
}

func TestLoadConfigHonorsOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("RETRY_MAX_ATTEMPTS", "2")
	t.Setenv("RETRY_BASE_DELAY", "250ms")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "5")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com ")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.RetryMaxAttempts != 2 {
		t.Fatalf("RetryMaxAttempts mismatch: got %d want 2", cfg.RetryMaxAttempts)
	}
	if cfg.RetryBaseDelay != 250*time.Millisecond {
		t.Fatalf("RetryBaseDelay mismatch: got %v want 250ms", cfg.RetryBaseDelay)
	}
	if cfg.RateLimitPerMin != 5 {
		t.Fatalf("RateLimitPerMin mismatch: got %d want 5", cfg.RateLimitPerMin)
	}
	expected := []string{"https://a.example.com", "https://b.example.com"}
	if len(cfg.AllowedOrigins) != len(expected) {
		t.Fatalf("AllowedOrigins mismatch: got %#v want %#v", cfg.AllowedOrigins, expected)
	}
	for i, origin := range expected {
		if cfg.AllowedOrigins[i] != origin {
			t.Fatalf("AllowedOrigins[%d] = %q, want %q", i, cfg.AllowedOrigins[i], origin)
		}
	}
}

func TestGetEnvDurationIgnoresBadValues(t *testing.T) {
	t.Setenv("SOME_DURATION", "not-a-duration")

	if got := getEnvDuration("SOME_DURATION", time.Minute); got != time.Minute {
		t.Fatalf("getEnvDuration mismatch: got %v want %v", got, time.Minute)
	}
}
