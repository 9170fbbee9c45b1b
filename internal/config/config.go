package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "go-medscan/internal/errors"
)

// ErrMissingAPIKey is returned when the hosted model credential is not configured.
var ErrMissingAPIKey = apperrors.ErrMissingAPIKey

const (
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"
	SessionBackendAzure  = "azure"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	AnalysisTimeout    time.Duration
	MaxRequestBodySize int64
	MaxUploadSize      int64

	// Hosted model
	AnthropicAPIKey       string
	AnthropicModel        string
	AnthropicBaseURL      string
	AnalysisMaxInputChars int

	// OCR
	OCRLanguages   []string
	TessdataPrefix string
	OCRPreprocess  bool

	PreviewMaxDimension int

	// Session state
	SessionBackend      string
	SessionTTL          time.Duration
	SessionCookieSecure bool
	RedisAddr           string
	RedisPassword       string
	RedisDB             int
	AzureAccountName    string
	AzureAccountKey     string
	AzureContainer      string
	AzureServiceURL     string
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

func LoadFromEnv() (*Config, error) {
	// Set defaults
	cfg := &Config{
		Host:                  getEnvOrDefault("HOST", "0.0.0.0"),
		Port:                  getEnvOrDefault("PORT", "8080"),
		RequestTimeout:        parseDurationOrDefault("REQUEST_TIMEOUT", 60*time.Second),
		AnalysisTimeout:       parseDurationOrDefault("ANALYSIS_TIMEOUT", 30*time.Second),
		MaxRequestBodySize:    parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 10*1024*1024), // 10MB
		MaxUploadSize:         parseIntOrDefault("MAX_UPLOAD_SIZE", 5*1024*1024),        // 5MB
		AnthropicAPIKey:       strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")),
		AnthropicModel:        getEnvOrDefault("ANTHROPIC_MODEL", "claude-3-opus-20240229"),
		AnthropicBaseURL:      strings.TrimSpace(os.Getenv("ANTHROPIC_BASE_URL")),
		AnalysisMaxInputChars: int(parseIntOrDefault("ANALYSIS_MAX_INPUT_CHARS", 4000)),
		OCRLanguages:          parseListOrDefault("OCR_LANGUAGES", []string{"eng"}),
		TessdataPrefix:        strings.TrimSpace(os.Getenv("TESSDATA_PREFIX")),
		OCRPreprocess:         parseBoolOrDefault("OCR_PREPROCESS", true),
		PreviewMaxDimension:   int(parseIntOrDefault("PREVIEW_MAX_DIMENSION", 1600)),
		SessionBackend:        strings.ToLower(getEnvOrDefault("SESSION_BACKEND", SessionBackendMemory)),
		SessionTTL:            parseDurationOrDefault("SESSION_TTL", 24*time.Hour),
		SessionCookieSecure:   parseBoolOrDefault("SESSION_COOKIE_SECURE", false),
		RedisAddr:             getEnvOrDefault("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:               int(parseIntOrDefault("REDIS_DB", 0)),
		AzureAccountName:      os.Getenv("AZURE_STORAGE_ACCOUNT"),
		AzureAccountKey:       os.Getenv("AZURE_STORAGE_KEY"),
		AzureContainer:        getEnvOrDefault("AZURE_SESSION_CONTAINER", "medscan-sessions"),
		AzureServiceURL:       strings.TrimSpace(os.Getenv("AZURE_STORAGE_URL")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the loaded values. It is separate from LoadFromEnv so tests
// can build a Config by hand.
func (c *Config) Validate() error {
	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.AnthropicAPIKey == "" {
		return ErrMissingAPIKey
	}
	if c.MaxRequestBodySize <= 0 || c.MaxUploadSize <= 0 {
		return fmt.Errorf("size limits must be > 0 (got body=%d, upload=%d)", c.MaxRequestBodySize, c.MaxUploadSize)
	}
	if c.MaxUploadSize > c.MaxRequestBodySize {
		return fmt.Errorf("MAX_UPLOAD_SIZE (%d) must not exceed MAX_REQUEST_BODY_SIZE (%d)", c.MaxUploadSize, c.MaxRequestBodySize)
	}
	if c.RequestTimeout <= 0 || c.AnalysisTimeout <= 0 || c.SessionTTL <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, analysis=%s, session=%s)",
			c.RequestTimeout, c.AnalysisTimeout, c.SessionTTL)
	}
	if c.AnalysisMaxInputChars <= 0 {
		return fmt.Errorf("ANALYSIS_MAX_INPUT_CHARS must be > 0 (got %d)", c.AnalysisMaxInputChars)
	}
	switch c.SessionBackend {
	case SessionBackendMemory, SessionBackendRedis:
	case SessionBackendAzure:
		if c.AzureAccountName == "" || c.AzureAccountKey == "" {
			return fmt.Errorf("SESSION_BACKEND=azure requires AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY")
		}
	default:
		return fmt.Errorf("invalid SESSION_BACKEND: %q", c.SessionBackend)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

// parseListOrDefault splits on '+' or ',' (tesseract accepts "eng+deu").
func parseListOrDefault(key string, defaultValue []string) []string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parts := strings.FieldsFunc(value, func(r rune) bool { return r == '+' || r == ',' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
