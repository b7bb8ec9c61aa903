package container

import (
	"context"
	"fmt"
	"net/http"

	"ct-scan-inspector/internal/config"
	"ct-scan-inspector/internal/factory"
	"ct-scan-inspector/internal/observer"
	"ct-scan-inspector/internal/pipeline"
	"ct-scan-inspector/internal/provider"
	"ct-scan-inspector/internal/repository"
	"ct-scan-inspector/internal/service"
	"ct-scan-inspector/internal/storage"
	"ct-scan-inspector/internal/transport"
	"ct-scan-inspector/pkg/validation"

	"github.com/sirupsen/logrus"
)

// Container holds all application dependencies
type Container struct {
	config              *config.Config
	log                 *logrus.Logger
	provider            provider.Provider
	events              *observer.EventPublisher
	metrics             *observer.MetricsObserver
	pipeline            *pipeline.Pipeline
	imageRepository     repository.ImageRepository
	scanAnalysisService service.ScanAnalysisService
	handler             http.Handler
}

// NewContainer builds the dependency graph from cfg
func NewContainer(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*Container, error) {
	p, err := factory.NewProviderFactory(cfg, log).CreateProvider(ctx, factory.GeminiProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}
	return newContainer(cfg, log, p)
}

// newContainer wires everything around an existing provider
func newContainer(cfg *config.Config, log *logrus.Logger, p provider.Provider) (*Container, error) {
	events := observer.NewEventPublisher(log)
	metrics := observer.NewMetricsObserver()
	events.Subscribe(observer.NewLoggingObserver(log))
	events.Subscribe(metrics)

	storageFactory := factory.NewStorageFactory(cfg)
	httpFetcher, err := storageFactory.CreateStorage(factory.HTTPStorage)
	if err != nil {
		return nil, err
	}
	var blobFetcher storage.ImageFetcher
	if cfg.AzureEnabled() {
		if blobFetcher, err = storageFactory.CreateStorage(factory.AzureStorage); err != nil {
			return nil, fmt.Errorf("failed to create blob storage: %w", err)
		}
	}

	validator := validation.NewURLValidatorWithOptions([]string{"http", "https"}, cfg.AllowedImageHosts)
	imageRepository := repository.NewHTTPImageRepository(httpFetcher, blobFetcher, validator, events)
	analysisPipeline := pipeline.New(p, log, events)
	scanAnalysisService := service.NewScanAnalysisService(imageRepository, analysisPipeline, log)
	handler := transport.NewHandler(scanAnalysisService, metrics, cfg, log)

	return &Container{
		config:              cfg,
		log:                 log,
		provider:            p,
		events:              events,
		metrics:             metrics,
		pipeline:            analysisPipeline,
		imageRepository:     imageRepository,
		scanAnalysisService: scanAnalysisService,
		handler:             handler,
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

// Pipeline returns the analysis pipeline
func (c *Container) Pipeline() *pipeline.Pipeline {
	return c.pipeline
}

// Service returns the scan analysis service
func (c *Container) Service() service.ScanAnalysisService {
	return c.scanAnalysisService
}

// Metrics returns the metrics observer
func (c *Container) Metrics() *observer.MetricsObserver {
	return c.metrics
}

// Close releases the provider client
func (c *Container) Close() error {
	return c.provider.Close()
}
