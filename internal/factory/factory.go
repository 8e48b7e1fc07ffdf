package factory

import (
	"fmt"

	"github.com/anime-shed/photo-suitability/internal/analyzer"
	"github.com/anime-shed/photo-suitability/internal/config"
	"github.com/anime-shed/photo-suitability/internal/storage"
)

// StorageType represents different types of storage backends
type StorageType string

const (
	// HTTPStorage for http and https sources
	HTTPStorage StorageType = "http"
	// AzureStorage for Azure blob storage
	AzureStorage StorageType = "azure"
	// MinIOStorage for an S3 compatible MinIO bucket
	MinIOStorage StorageType = "minio"
)

// ErrStorageNotConfigured is returned for a known backend without credentials
var ErrStorageNotConfigured = fmt.Errorf("storage backend not configured")

// AnalyzerFactory creates assessment engines
type AnalyzerFactory interface {
	CreateEngine(profilePath string, workers int) (analyzer.Engine, error)
}

// StorageFactory creates storage implementations
type StorageFactory interface {
	CreateStorage(storageType StorageType) (storage.ImageFetcher, error)
}

type analyzerFactory struct{}

// NewAnalyzerFactory creates a new analyzer factory
func NewAnalyzerFactory() AnalyzerFactory {
	return &analyzerFactory{}
}

// CreateEngine builds an engine from the default config, overlaid with the
// YAML profile when profilePath is set. workers <= 0 keeps the configured count.
func (f *analyzerFactory) CreateEngine(profilePath string, workers int) (analyzer.Engine, error) {
	cfg := analyzer.DefaultConfig()
	if profilePath != "" {
		loaded, err := analyzer.LoadConfig(profilePath)
		if err != nil {
			return nil, fmt.Errorf("load analyzer profile: %w", err)
		}
		cfg = loaded
	}
	if workers > 0 {
		cfg.Workers = workers
	}
	return analyzer.NewEngine(cfg)
}

type storageFactory struct {
	cfg *config.Config
}

// NewStorageFactory creates a new storage factory
func NewStorageFactory(cfg *config.Config) StorageFactory {
	return &storageFactory{cfg: cfg}
}

// CreateStorage creates a storage implementation based on the specified type
func (f *storageFactory) CreateStorage(storageType StorageType) (storage.ImageFetcher, error) {
	maxBytes := f.cfg.MaxRequestBodySize

	switch storageType {
	case HTTPStorage:
		return storage.NewHTTPImageFetcher(maxBytes), nil
	case AzureStorage:
		if !f.cfg.Azure.Enabled() {
			return nil, fmt.Errorf("%w: %s", ErrStorageNotConfigured, storageType)
		}
		return storage.NewAzureBlobFetcher(f.cfg.Azure.AccountName, f.cfg.Azure.AccountKey, maxBytes)
	case MinIOStorage:
		if !f.cfg.MinIO.Enabled() {
			return nil, fmt.Errorf("%w: %s", ErrStorageNotConfigured, storageType)
		}
		m := f.cfg.MinIO
		return storage.NewMinIOFetcher(m.Endpoint, m.AccessKey, m.SecretKey, m.Bucket, m.UseSSL, maxBytes)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	AnalyzerFactory AnalyzerFactory
	StorageFactory  StorageFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory(cfg *config.Config) *ComponentFactory {
	return &ComponentFactory{
		AnalyzerFactory: NewAnalyzerFactory(),
		StorageFactory:  NewStorageFactory(cfg),
	}
}
