package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sjafferali/searcharr/internal/config"
	"github.com/sjafferali/searcharr/internal/database"
	"github.com/sjafferali/searcharr/internal/downloadclients"
	"github.com/sjafferali/searcharr/internal/indexers"
	"github.com/sjafferali/searcharr/internal/repositories"
	"github.com/sjafferali/searcharr/internal/search"
)

// Container holds all the application services and manages their lifecycle
type Container struct {
	// Configuration
	config *config.Config
	logger *logrus.Logger

	// Infrastructure
	db    *database.DB
	store indexers.StatusStore

	// Repositories
	jackettRepo  repositories.InstanceRepository
	prowlarrRepo repositories.InstanceRepository
	clientRepo   repositories.ClientRepository

	// Core services
	aggregator    *search.Aggregator
	dispatcher    *downloadclients.Dispatcher
	healthMonitor *indexers.HealthMonitor
	jackett       indexers.Adapter
	prowlarr      indexers.Adapter
	clientAdapter downloadclients.Adapter

	// WebSocket hub for status transitions
	statusHub *StatusHub

	// Lifecycle management
	stopChan chan struct{}
	wg       sync.WaitGroup
	mu       sync.RWMutex
}

// NewContainer creates a new service container
func NewContainer(db *database.DB, store indexers.StatusStore, cfg *config.Config) *Container {
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)

	if cfg.Log.Level == "debug" {
		logger.SetLevel(logrus.DebugLevel)
	}

	container := &Container{
		config:   cfg,
		logger:   logger,
		db:       db,
		store:    store,
		stopChan: make(chan struct{}),
	}

	container.initializeRepositories()
	container.initializeCoreServices()

	container.statusHub = NewStatusHub(logger)
	container.healthMonitor.SetBroadcaster(container.statusHub)

	return container
}

// Start starts all background services
func (c *Container) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.logger.Info("Starting service container")

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.statusHub.Start()
	}()

	c.healthMonitor.Start(context.Background())

	c.logger.Info("Service container started successfully")
}

// Stop gracefully stops all services
func (c *Container) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.logger.Info("Stopping service container")

	close(c.stopChan)

	c.healthMonitor.Stop()

	if c.statusHub != nil {
		c.statusHub.Stop()
	}

	c.wg.Wait()

	c.logger.Info("Service container stopped")
}

// GetAggregator returns the search aggregator
func (c *Container) GetAggregator() *search.Aggregator {
	return c.aggregator
}

// GetDispatcher returns the download dispatcher
func (c *Container) GetDispatcher() *downloadclients.Dispatcher {
	return c.dispatcher
}

// GetHealthMonitor returns the health monitor
func (c *Container) GetHealthMonitor() *indexers.HealthMonitor {
	return c.healthMonitor
}

// GetStatusHub returns the WebSocket status hub
func (c *Container) GetStatusHub() *StatusHub {
	return c.statusHub
}

// Repository getters
func (c *Container) GetJackettRepository() repositories.InstanceRepository {
	return c.jackettRepo
}

func (c *Container) GetProwlarrRepository() repositories.InstanceRepository {
	return c.prowlarrRepo
}

func (c *Container) GetClientRepository() repositories.ClientRepository {
	return c.clientRepo
}

// GetLogger returns the logger instance
func (c *Container) GetLogger() *logrus.Logger {
	return c.logger
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetDB returns the database handle
func (c *Container) GetDB() *database.DB {
	return c.db
}

// initializeRepositories creates all repository instances
func (c *Container) initializeRepositories() {
	c.jackettRepo = repositories.NewJackettInstanceRepository(c.db.DB)
	c.prowlarrRepo = repositories.NewProwlarrInstanceRepository(c.db.DB)
	c.clientRepo = repositories.NewClientRepository(c.db.DB)

	c.logger.Info("Repositories initialized")
}

// initializeCoreServices creates all core service instances
func (c *Container) initializeCoreServices() {
	searchTimeout := time.Duration(c.config.Search.TimeoutSeconds) * time.Second

	c.jackett = indexers.NewJackettClient(
		searchTimeout,
		c.config.Search.RateLimitRequests,
		c.config.Search.RateLimitWindow,
		c.logger,
	)
	c.prowlarr = indexers.NewProwlarrClient(
		searchTimeout,
		c.config.Search.RateLimitRequests,
		c.config.Search.RateLimitWindow,
		c.logger,
	)

	dispatchTimeout := time.Duration(c.config.Dispatch.TimeoutSeconds) * time.Second
	c.clientAdapter = downloadclients.NewQBittorrentAdapter(dispatchTimeout, c.logger)

	c.healthMonitor = indexers.NewHealthMonitor(
		c.jackettRepo, c.prowlarrRepo, c.clientRepo,
		c.jackett, c.prowlarr,
		c.clientAdapter,
		c.store,
		time.Duration(c.config.Health.CheckIntervalSeconds)*time.Second,
		time.Duration(c.config.Health.ProbeTimeoutSeconds)*time.Second,
		time.Duration(c.config.Health.StatusTTLSeconds)*time.Second,
		c.logger,
	)

	c.aggregator = search.NewAggregator(
		c.jackettRepo, c.prowlarrRepo,
		c.jackett, c.prowlarr,
		c.healthMonitor,
		searchTimeout,
		c.logger,
	)

	c.dispatcher = downloadclients.NewDispatcher(
		c.clientRepo,
		c.clientAdapter,
		c.healthMonitor,
		time.Duration(c.config.Dispatch.FreshnessSeconds)*time.Second,
		c.logger,
	)

	c.logger.Info("Core services initialized")
}

// HealthCheck performs a health check on the container's dependencies
func (c *Container) HealthCheck(ctx context.Context) map[string]interface{} {
	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"services":  map[string]interface{}{},
	}
	services := health["services"].(map[string]interface{})

	if err := c.db.Health(); err != nil {
		services["database"] = map[string]interface{}{
			"status": "unhealthy",
			"error":  err.Error(),
		}
		health["status"] = "degraded"
	} else {
		services["database"] = map[string]interface{}{
			"status": "healthy",
		}
	}

	// The status store is redis-backed only when configured so; the
	// in-memory store has nothing to check.
	if checker, ok := c.store.(interface{ Health() error }); ok {
		if err := checker.Health(); err != nil {
			services["status_store"] = map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			}
			health["status"] = "degraded"
		} else {
			services["status_store"] = map[string]interface{}{
				"status": "healthy",
			}
		}
	}

	return health
}
