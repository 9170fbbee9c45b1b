package container

import (
	"context"
	"fmt"
	"net/http"

	"go-medscan/internal/config"
	"go-medscan/internal/factory"
	"go-medscan/internal/logger"
	"go-medscan/internal/observer"
	"go-medscan/internal/preview"
	"go-medscan/internal/quality"
	"go-medscan/internal/service"
	"go-medscan/internal/session"
	"go-medscan/internal/transport"
	"go-medscan/pkg/validation"
)

// Container holds all application dependencies
type Container struct {
	config   *config.Config
	sessions session.Store
	events   *observer.EventPublisher
	handler  http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	components := factory.NewComponentFactory(cfg)

	// Build dependency graph
	analyzer, err := components.AnalyzerFactory.CreateAnalyzer(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create analyzer: %w", err)
	}
	extractor := components.AnalyzerFactory.CreateExtractor()

	sessions, err := components.SessionStoreFactory.CreateStore(ctx, factory.StoreType(cfg.SessionBackend))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s session store: %w", cfg.SessionBackend, err)
	}

	events := observer.NewEventPublisher()
	metrics := observer.NewMetricsObserver()
	events.Subscribe(observer.NewLoggingObserver(logger.Component("events")))
	events.Subscribe(metrics)

	uploadService := service.NewUploadService(
		validation.NewUploadValidator(cfg.MaxUploadSize),
		extractor,
		analyzer,
		quality.NewInspector(),
		preview.NewEncoder(cfg.PreviewMaxDimension),
		events,
	)

	handler := transport.NewHandler(transport.Dependencies{
		Uploads:  uploadService,
		Sessions: sessions,
		Metrics:  metrics,
		Config:   cfg,
	})

	return &Container{
		config:   cfg,
		sessions: sessions,
		events:   events,
		handler:  handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Close flushes pending events and releases the session store
func (c *Container) Close() error {
	c.events.Wait()
	return c.sessions.Close()
}
