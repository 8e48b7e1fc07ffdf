package container

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/anime-shed/photo-suitability/internal/analyzer"
	"github.com/anime-shed/photo-suitability/internal/cache"
	"github.com/anime-shed/photo-suitability/internal/config"
	"github.com/anime-shed/photo-suitability/internal/factory"
	"github.com/anime-shed/photo-suitability/internal/logger"
	"github.com/anime-shed/photo-suitability/internal/observer"
	"github.com/anime-shed/photo-suitability/internal/repository"
	"github.com/anime-shed/photo-suitability/internal/service"
	"github.com/anime-shed/photo-suitability/internal/storage"
	"github.com/anime-shed/photo-suitability/internal/transport"
	"github.com/anime-shed/photo-suitability/pkg/validation"
)

// Container holds all application dependencies
type Container struct {
	config            *config.Config
	engine            analyzer.Engine
	cache             cache.AssessmentCache
	natsConn          *nats.Conn
	events            *observer.EventPublisher
	metrics           *observer.MetricsObserver
	imageRepository   repository.ImageRepository
	assessmentService service.AssessmentService
	handler           http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	logger.SetLevel(cfg.LogLevel)
	components := factory.NewComponentFactory(cfg)

	engine, err := components.AnalyzerFactory.CreateEngine(cfg.AnalyzerProfile, cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	c := &Container{config: cfg, engine: engine}

	fetchers, err := buildFetchers(components.StorageFactory)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.imageRepository = repository.NewSourceRepository(validation.NewURLValidator(), fetchers)

	c.cache = buildCache(cfg.Redis)

	c.events = observer.NewEventPublisher()
	c.metrics = observer.NewMetricsObserver()
	c.events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	c.events.Subscribe(c.metrics)
	if cfg.NATS.Enabled() {
		nc, err := observer.Connect(cfg.NATS.URL)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.natsConn = nc
		c.events.Subscribe(observer.NewNATSObserver(nc, cfg.NATS.Subject, logger.Logger))
	}

	c.assessmentService = service.NewAssessmentService(engine, c.imageRepository, c.cache, c.events, service.Options{
		AnalysisTimeout:   cfg.AnalysisTimeout,
		ImageFetchTimeout: cfg.ImageFetchTimeout,
	})
	c.handler = transport.NewHandler(c.assessmentService, cfg)

	return c, nil
}

// buildFetchers creates a fetcher per configured backend keyed by URL scheme
func buildFetchers(f factory.StorageFactory) (map[string]storage.ImageFetcher, error) {
	fetchers := make(map[string]storage.ImageFetcher)
	for _, st := range []factory.StorageType{factory.HTTPStorage, factory.AzureStorage, factory.MinIOStorage} {
		fetcher, err := f.CreateStorage(st)
		if errors.Is(err, factory.ErrStorageNotConfigured) {
			logger.WithField("storage", st).Info("Storage backend disabled")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create %s storage: %w", st, err)
		}
		switch st {
		case factory.HTTPStorage:
			fetchers[validation.SchemeHTTP] = fetcher
			fetchers[validation.SchemeHTTPS] = fetcher
		case factory.AzureStorage:
			fetchers[validation.SchemeAzure] = fetcher
		case factory.MinIOStorage:
			fetchers[validation.SchemeMinio] = fetcher
		}
	}
	return fetchers, nil
}

// buildCache returns a Redis cache when configured and reachable, otherwise a no-op cache
func buildCache(cfg config.RedisConfig) cache.AssessmentCache {
	if !cfg.Enabled() {
		return cache.NoopCache{}
	}
	rc := cache.NewRedisCache(cfg.Addr, cfg.Password, cfg.DB, cfg.TTL)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		logger.WithError(err).WithField("addr", cfg.Addr).Warn("Redis unavailable, assessment cache disabled")
		rc.Close()
		return cache.NoopCache{}
	}
	return rc
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Metrics returns the in-process assessment counters
func (c *Container) Metrics() map[string]interface{} {
	return c.metrics.GetMetrics()
}

// Close flushes pending events and releases every client
func (c *Container) Close() error {
	var errs []error
	if c.events != nil {
		c.events.Wait()
	}
	if c.natsConn != nil {
		if err := c.natsConn.Drain(); err != nil {
			errs = append(errs, fmt.Errorf("drain nats: %w", err))
		}
	}
	if c.cache != nil {
		if err := c.cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close cache: %w", err))
		}
	}
	if c.engine != nil {
		if err := c.engine.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close engine: %w", err))
		}
	}
	return errors.Join(errs...)
}
