package transport

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"go-medscan/internal/config"
	apperrors "go-medscan/internal/errors"
	"go-medscan/internal/logger"
	"go-medscan/internal/preview"
	"go-medscan/internal/service"
	"go-medscan/internal/session"
	"go-medscan/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const version = "1.0.0"

//go:embed templates/*.html
var templatesFS embed.FS

// MetricsSource exposes event counters for the health endpoint
type MetricsSource interface {
	GetMetrics() map[string]interface{}
}

// Dependencies are the collaborators the HTTP layer needs
type Dependencies struct {
	Uploads  service.UploadService
	Sessions session.Store
	Metrics  MetricsSource
	Config   *config.Config
}

func NewHandler(deps Dependencies) http.Handler {
	r := gin.New()
	r.SetHTMLTemplate(loadTemplates())

	// Add middleware
	r.Use(
		gin.CustomRecovery(recoverPanic),
		requestLogger(),
		requestSizeLimiter(deps.Config.MaxRequestBodySize),
	)

	// Configure routes
	r.GET("/", homePage())
	r.POST("/", uploadReport(deps))
	r.GET("/analysis-slider/", analysisSlider(deps))
	r.GET("/health", healthCheck(deps.Metrics))

	api := r.Group("/api/v1")
	api.POST("/analyze", analyzeReport(deps))

	return r
}

func loadTemplates() *template.Template {
	return template.Must(template.New("").Funcs(template.FuncMap{
		"hexToBase64": preview.HexToBase64,
		"dataURI":     dataURI,
	}).ParseFS(templatesFS, "templates/*.html"))
}

// dataURI builds an inline image source. html/template rejects data: URLs
// given as plain strings.
func dataURI(format, b64 string) template.URL {
	if b64 == "" {
		return ""
	}
	switch format {
	case "jpeg", "png", "gif", "bmp":
	default:
		format = preview.DefaultFormat
	}
	return template.URL("data:image/" + format + ";base64," + b64)
}

func healthCheck(metrics MetricsSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := models.HealthResponse{
			Status:  "available",
			Version: version,
			Time:    time.Now().UTC().Format(time.RFC3339),
		}
		if metrics != nil {
			resp.Events = metrics.GetMetrics()
		}
		c.JSON(http.StatusOK, resp)
	}
}

// Middleware and helper functions
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.WithFields(logrus.Fields{
			"method":             c.Request.Method,
			"path":               c.Request.URL.Path,
			"status":             c.Writer.Status(),
			"ip":                 c.ClientIP(),
			"user_agent":         c.Request.UserAgent(),
			"processing_time_ms": time.Since(start).Milliseconds(),
		}).Info("Request handled")
	}
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// recoverPanic turns a handler panic into a JSON internal error.
func recoverPanic(c *gin.Context, recovered any) {
	err := apperrors.NewInternalError("handler panic", fmt.Errorf("%v", recovered))
	respondError(c, determineStatusCode(err), "request processing failed", err)
}

func determineStatusCode(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	default:
		return apperrors.GetStatusCode(err)
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	// Log the error with context
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	c.AbortWithStatusJSON(code, models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	})
}
