package factory

import (
	"context"
	"fmt"

	"go-medscan/internal/config"
	"go-medscan/internal/medical"
	"go-medscan/internal/ocr"
	"go-medscan/internal/session"
	"go-medscan/internal/storage"
)

// StoreType represents different session storage backends
type StoreType string

const (
	// MemoryStore keeps sessions in process
	MemoryStore StoreType = config.SessionBackendMemory
	// RedisStore keeps sessions in redis
	RedisStore StoreType = config.SessionBackendRedis
	// AzureStore keeps sessions in Azure blob storage
	AzureStore StoreType = config.SessionBackendAzure
)

// SessionStoreFactory creates session stores
type SessionStoreFactory interface {
	CreateStore(ctx context.Context, storeType StoreType) (session.Store, error)
}

// AnalyzerFactory creates the OCR and analysis engines
type AnalyzerFactory interface {
	CreateExtractor() ocr.Extractor
	CreateAnalyzer(ctx context.Context) (medical.Analyzer, error)
}

// sessionStoreFactory implements SessionStoreFactory
type sessionStoreFactory struct {
	cfg *config.Config
}

// NewSessionStoreFactory creates a new session store factory
func NewSessionStoreFactory(cfg *config.Config) SessionStoreFactory {
	return &sessionStoreFactory{cfg: cfg}
}

// CreateStore creates a session store based on the specified type
func (f *sessionStoreFactory) CreateStore(ctx context.Context, storeType StoreType) (session.Store, error) {
	switch storeType {
	case MemoryStore:
		return session.NewMemoryStore(f.cfg.SessionTTL), nil
	case RedisStore:
		return session.NewRedisStore(ctx, session.RedisOptions{
			Addr:     f.cfg.RedisAddr,
			Password: f.cfg.RedisPassword,
			DB:       f.cfg.RedisDB,
			TTL:      f.cfg.SessionTTL,
		})
	case AzureStore:
		if f.cfg.AzureAccountName == "" || f.cfg.AzureAccountKey == "" {
			return nil, fmt.Errorf("azure session store requires account name and key")
		}
		blobs, err := storage.NewAzureStorage(ctx, f.cfg.AzureAccountName, f.cfg.AzureAccountKey,
			f.cfg.AzureContainer, f.cfg.AzureServiceURL)
		if err != nil {
			return nil, err
		}
		return session.NewBlobStore(blobs, f.cfg.SessionTTL), nil
	default:
		return nil, fmt.Errorf("unsupported session store type: %s", storeType)
	}
}

// analyzerFactory implements AnalyzerFactory
type analyzerFactory struct {
	cfg *config.Config
}

// NewAnalyzerFactory creates a new analyzer factory
func NewAnalyzerFactory(cfg *config.Config) AnalyzerFactory {
	return &analyzerFactory{cfg: cfg}
}

// CreateExtractor creates the Tesseract extractor
func (f *analyzerFactory) CreateExtractor() ocr.Extractor {
	opts := ocr.DefaultOptions()
	if len(f.cfg.OCRLanguages) > 0 {
		opts.Languages = f.cfg.OCRLanguages
	}
	opts.TessdataPrefix = f.cfg.TessdataPrefix
	opts.Preprocess = f.cfg.OCRPreprocess
	return ocr.NewTesseractExtractor(opts)
}

// CreateAnalyzer creates the Claude-backed medical analyzer
func (f *analyzerFactory) CreateAnalyzer(ctx context.Context) (medical.Analyzer, error) {
	return medical.NewClaudeAnalyzer(ctx, medical.Config{
		APIKey:        f.cfg.AnthropicAPIKey,
		Model:         f.cfg.AnthropicModel,
		BaseURL:       f.cfg.AnthropicBaseURL,
		MaxInputChars: f.cfg.AnalysisMaxInputChars,
		Timeout:       f.cfg.AnalysisTimeout,
	})
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	SessionStoreFactory SessionStoreFactory
	AnalyzerFactory     AnalyzerFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory(cfg *config.Config) *ComponentFactory {
	return &ComponentFactory{
		SessionStoreFactory: NewSessionStoreFactory(cfg),
		AnalyzerFactory:     NewAnalyzerFactory(cfg),
	}
}
