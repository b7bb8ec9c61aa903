package factory

import (
	"context"
	"fmt"

	"ct-scan-inspector/internal/config"
	"ct-scan-inspector/internal/provider"
	"ct-scan-inspector/internal/provider/gemini"
	"ct-scan-inspector/internal/storage"

	"github.com/sirupsen/logrus"
)

// StorageType represents different types of image sources
type StorageType string

const (
	// HTTPStorage downloads images over HTTP(S)
	HTTPStorage StorageType = "http"
	// AzureStorage reads blobs with shared key credentials
	AzureStorage StorageType = "azure"
	// LocalStorage reads files from disk
	LocalStorage StorageType = "local"
)

// ProviderType names a vision provider backend
type ProviderType string

const (
	// GeminiProvider uses the Google Gemini API
	GeminiProvider ProviderType = "gemini"
)

// StorageFactory creates image fetchers
type StorageFactory interface {
	CreateStorage(storageType StorageType) (storage.ImageFetcher, error)
}

// ProviderFactory creates vision providers
type ProviderFactory interface {
	CreateProvider(ctx context.Context, providerType ProviderType) (provider.Provider, error)
}

type storageFactory struct {
	cfg *config.Config
}

// NewStorageFactory creates a storage factory configured from cfg
func NewStorageFactory(cfg *config.Config) StorageFactory {
	return &storageFactory{cfg: cfg}
}

// CreateStorage creates a fetcher for storageType. AzureStorage requires
// account credentials in the configuration.
func (f *storageFactory) CreateStorage(storageType StorageType) (storage.ImageFetcher, error) {
	switch storageType {
	case HTTPStorage:
		return storage.NewHTTPImageFetcher(f.cfg.ImageFetchTimeout), nil
	case AzureStorage:
		if !f.cfg.AzureEnabled() {
			return nil, fmt.Errorf("azure storage requires AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY")
		}
		fetcher, err := storage.NewBlobImageFetcher(f.cfg.AzureStorageAccount, f.cfg.AzureStorageKey)
		if err != nil {
			return nil, err
		}
		return fetcher, nil
	case LocalStorage:
		return storage.NewFileImageFetcher(), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

type providerFactory struct {
	cfg *config.Config
	log *logrus.Logger
}

// NewProviderFactory creates a provider factory configured from cfg
func NewProviderFactory(cfg *config.Config, log *logrus.Logger) ProviderFactory {
	return &providerFactory{cfg: cfg, log: log}
}

func (f *providerFactory) CreateProvider(ctx context.Context, providerType ProviderType) (provider.Provider, error) {
	switch providerType {
	case GeminiProvider:
		engine, err := gemini.New(ctx, f.cfg.GeminiAPIKey, f.log)
		if err != nil {
			return nil, err
		}
		return engine, nil
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}
