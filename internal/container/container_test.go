package container

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"go-medscan/internal/config"
	apperrors "go-medscan/internal/errors"
	"go-medscan/pkg/models"
)

func testConfig() *config.Config {
	return &config.Config{
		Host:                  "127.0.0.1",
		Port:                  "8080",
		RequestTimeout:        5 * time.Second,
		AnalysisTimeout:       5 * time.Second,
		MaxRequestBodySize:    10 << 20,
		MaxUploadSize:         5 << 20,
		AnthropicAPIKey:       "test-key",
		AnalysisMaxInputChars: 4000,
		OCRLanguages:          []string{"eng"},
		PreviewMaxDimension:   800,
		SessionBackend:        config.SessionBackendMemory,
		SessionTTL:            time.Hour,
	}
}

func TestNewContainer(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, err := NewContainer(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	defer c.Close()

	if c.Config().Port != "8080" {
		t.Errorf("Expected config to be kept, got port %s", c.Config().Port)
	}

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 from /health, got %d", rec.Code)
	}
}

func TestNewContainer_HealthReportsEventCounters(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, err := NewContainer(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	defer c.Close()

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var resp models.HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if _, ok := resp.Events["uploads_received"]; !ok {
		t.Errorf("Expected event counters in health response, got %v", resp.Events)
	}
}

func TestNewContainer_MissingAPIKey(t *testing.T) {
	cfg := testConfig()
	cfg.AnthropicAPIKey = ""

	_, err := NewContainer(context.Background(), cfg)
	if !errors.Is(err, apperrors.ErrMissingAPIKey) {
		t.Fatalf("Expected ErrMissingAPIKey, got %v", err)
	}
}

func TestNewContainer_BadSessionBackend(t *testing.T) {
	cfg := testConfig()
	cfg.SessionBackend = "memcached"

	if _, err := NewContainer(context.Background(), cfg); err == nil {
		t.Fatal("Expected error for unknown session backend")
	}
}
