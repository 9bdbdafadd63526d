package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Port         string
	GinMode      string
	StaticDir    string
	MaxBodyBytes int64
	CORSOrigins  []string
	// TrustedProxies may set X-Forwarded-For; empty means the peer address is
	// always the client IP.
	TrustedProxies []string
	Log            LogConfig
	Gemini         GeminiConfig
	RateLimit      RateLimitConfig
	Tracing        TracingConfig
}

type LogConfig struct {
	Level  string
	Format string // json|console
	File   string
}

type GeminiConfig struct {
	APIKey             string
	BaseURL            string
	Models             []string
	RequestTimeout     time.Duration
	Backoff            time.Duration
	AttemptsPerModel   int
	AnalysisDeadline   time.Duration
	BreakerMaxFailures uint32
	BreakerCooldown    time.Duration
}

// RateLimitConfig allows Requests per client IP in each fixed Window.
type RateLimitConfig struct {
	Requests uint
	Window   time.Duration
}

type TracingConfig struct {
	Enabled    bool
	Endpoint   string
	SampleRate float64
}

// minAPIKeyLength guards against placeholder keys such as "changeme".
const minAPIKeyLength = 10

// AIEnabled reports whether a plausible generation API key is configured.
func (c *Config) AIEnabled() bool {
	return len(strings.TrimSpace(c.Gemini.APIKey)) > minAPIKeyLength
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("STATIC_DIR", "")
	v.SetDefault("MAX_BODY_BYTES", 15<<20)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("TRUSTED_PROXIES", "")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_FILE", "")

	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com")
	v.SetDefault("GEMINI_MODELS", "gemini-1.5-pro,gemini-1.5-flash,gemini-pro")
	v.SetDefault("GENERATION_TIMEOUT", "30s")
	v.SetDefault("GENERATION_BACKOFF", "1s")
	v.SetDefault("GENERATION_ATTEMPTS", 2)
	v.SetDefault("ANALYSIS_DEADLINE", "25s")
	v.SetDefault("BREAKER_MAX_FAILURES", 5)
	v.SetDefault("BREAKER_COOLDOWN", "30s")

	v.SetDefault("RATE_LIMIT_REQUESTS", 20)
	v.SetDefault("RATE_LIMIT_WINDOW", "1m")

	v.SetDefault("TRACING_ENABLED", false)
	v.SetDefault("TRACING_ENDPOINT", "localhost:4318")
	v.SetDefault("TRACING_SAMPLE_RATE", 1.0)
}

// Load reads .env (if present), an optional config.yaml and the environment,
// in increasing order of precedence, and validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		Port:           v.GetString("PORT"),
		GinMode:        v.GetString("GIN_MODE"),
		StaticDir:      v.GetString("STATIC_DIR"),
		MaxBodyBytes:   v.GetInt64("MAX_BODY_BYTES"),
		CORSOrigins:    splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		TrustedProxies: splitList(v.GetString("TRUSTED_PROXIES")),
		Log: LogConfig{
			Level:  strings.ToLower(v.GetString("LOG_LEVEL")),
			Format: strings.ToLower(v.GetString("LOG_FORMAT")),
			File:   v.GetString("LOG_FILE"),
		},
		Gemini: GeminiConfig{
			APIKey:             strings.TrimSpace(v.GetString("GEMINI_API_KEY")),
			BaseURL:            v.GetString("GEMINI_BASE_URL"),
			Models:             splitList(v.GetString("GEMINI_MODELS")),
			RequestTimeout:     v.GetDuration("GENERATION_TIMEOUT"),
			Backoff:            v.GetDuration("GENERATION_BACKOFF"),
			AttemptsPerModel:   v.GetInt("GENERATION_ATTEMPTS"),
			AnalysisDeadline:   v.GetDuration("ANALYSIS_DEADLINE"),
			BreakerMaxFailures: v.GetUint32("BREAKER_MAX_FAILURES"),
			BreakerCooldown:    v.GetDuration("BREAKER_COOLDOWN"),
		},
		RateLimit: RateLimitConfig{
			Requests: v.GetUint("RATE_LIMIT_REQUESTS"),
			Window:   v.GetDuration("RATE_LIMIT_WINDOW"),
		},
		Tracing: TracingConfig{
			Enabled:    v.GetBool("TRACING_ENABLED"),
			Endpoint:   v.GetString("TRACING_ENDPOINT"),
			SampleRate: v.GetFloat64("TRACING_SAMPLE_RATE"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("PORT must be a number between 1 and 65535, got %q", c.Port))
	}
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		problems = append(problems, fmt.Sprintf("GIN_MODE must be debug, release or test, got %q", c.GinMode))
	}
	if c.MaxBodyBytes <= 0 {
		problems = append(problems, "MAX_BODY_BYTES must be positive")
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		problems = append(problems, fmt.Sprintf("LOG_LEVEL %q is not a valid level", c.Log.Level))
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		problems = append(problems, fmt.Sprintf("LOG_FORMAT must be json or console, got %q", c.Log.Format))
	}
	if len(c.Gemini.Models) == 0 {
		problems = append(problems, "GEMINI_MODELS must list at least one model")
	}
	if c.Gemini.RequestTimeout <= 0 || c.Gemini.AnalysisDeadline <= 0 {
		problems = append(problems, "GENERATION_TIMEOUT and ANALYSIS_DEADLINE must be positive durations")
	}
	if c.Gemini.Backoff < 0 {
		problems = append(problems, "GENERATION_BACKOFF must not be negative")
	}
	if c.Gemini.AttemptsPerModel < 1 {
		problems = append(problems, "GENERATION_ATTEMPTS must be at least 1")
	}
	if c.Gemini.BreakerMaxFailures < 1 || c.Gemini.BreakerCooldown <= 0 {
		problems = append(problems, "BREAKER_MAX_FAILURES and BREAKER_COOLDOWN must be positive")
	}
	if c.RateLimit.Requests < 1 || c.RateLimit.Window <= 0 {
		problems = append(problems, "RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive")
	}
	for _, proxy := range c.TrustedProxies {
		if net.ParseIP(proxy) == nil {
			if _, _, err := net.ParseCIDR(proxy); err != nil {
				problems = append(problems, fmt.Sprintf("TRUSTED_PROXIES entry %q is not an IP or CIDR", proxy))
			}
		}
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		problems = append(problems, "TRACING_SAMPLE_RATE must be within [0, 1]")
	}
	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		problems = append(problems, "TRACING_ENDPOINT is required when TRACING_ENABLED=true")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
