package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadUsesDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("GEMINI_API_KEY", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.AIEnabled() {
		t.Fatal("expected AI to be disabled without a key")
	}
	if got := strings.Join(cfg.Gemini.Models, ","); got != "gemini-1.5-pro,gemini-1.5-flash,gemini-pro" {
		t.Fatalf("unexpected model cascade %q", got)
	}
	if cfg.Gemini.AttemptsPerModel != 2 || cfg.Gemini.Backoff != time.Second {
		t.Fatalf("unexpected retry policy %+v", cfg.Gemini)
	}
	if cfg.RateLimit.Requests != 20 || cfg.RateLimit.Window != time.Minute {
		t.Fatalf("unexpected rate limit %+v", cfg.RateLimit)
	}
	if len(cfg.TrustedProxies) != 0 {
		t.Fatalf("expected no trusted proxies by default, got %v", cfg.TrustedProxies)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("GEMINI_MODELS", " gemini-2.0-flash , ,gemini-pro")
	t.Setenv("ANALYSIS_DEADLINE", "5s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("LOG_FORMAT", "CONSOLE")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 127.0.0.1")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9090" {
		t.Fatalf("expected port 9090, got %s", cfg.Port)
	}
	if len(cfg.Gemini.Models) != 2 || cfg.Gemini.Models[0] != "gemini-2.0-flash" {
		t.Fatalf("unexpected models %v", cfg.Gemini.Models)
	}
	if cfg.Gemini.AnalysisDeadline != 5*time.Second {
		t.Fatalf("expected 5s deadline, got %s", cfg.Gemini.AnalysisDeadline)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Fatalf("unexpected origins %v", cfg.CORSOrigins)
	}
	if cfg.Log.Format != "console" {
		t.Fatalf("expected console format, got %s", cfg.Log.Format)
	}
	if len(cfg.TrustedProxies) != 2 || cfg.TrustedProxies[0] != "10.0.0.0/8" {
		t.Fatalf("unexpected trusted proxies %v", cfg.TrustedProxies)
	}
	if cfg.RateLimit.Window != 30*time.Second {
		t.Fatalf("expected 30s window, got %s", cfg.RateLimit.Window)
	}
}

func TestAIEnabledRequiresPlausibleKey(t *testing.T) {
	cfg := &Config{Gemini: GeminiConfig{APIKey: "short"}}
	if cfg.AIEnabled() {
		t.Fatal("expected short key to be rejected")
	}
	cfg.Gemini.APIKey = "0123456789"
	if cfg.AIEnabled() {
		t.Fatal("expected a 10 character key to be rejected")
	}
	cfg.Gemini.APIKey = "AIzaSyExampleKey"
	if !cfg.AIEnabled() {
		t.Fatal("expected key to enable AI")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"PORT":                "http",
		"LOG_LEVEL":           "chatty",
		"GENERATION_ATTEMPTS": "0",
		"TRACING_SAMPLE_RATE": "1.5",
		"GIN_MODE":            "prod",
		"RATE_LIMIT_REQUESTS": "0",
		"TRUSTED_PROXIES":     "not-an-ip",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			if err == nil {
				t.Fatalf("expected error for %s=%s", key, value)
			}
			if !strings.Contains(err.Error(), key) {
				t.Fatalf("expected error to name %s, got %v", key, err)
			}
		})
	}
}
