package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/sjafferali/searcharr/internal/config"
	"github.com/sjafferali/searcharr/internal/database"
	"github.com/sjafferali/searcharr/internal/indexers"
	"github.com/sjafferali/searcharr/internal/redis"
	"github.com/sjafferali/searcharr/internal/server"
	"github.com/sjafferali/searcharr/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup logging
	setupLogging(cfg.Log.Level)

	logrus.Info("Starting Searcharr backend server...")

	// Initialize database
	db, err := database.Initialize(cfg.Database.Path)
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Statuses live in redis when one is configured, in process memory
	// otherwise. Both back the same TTL store interface.
	var store indexers.StatusStore
	if cfg.Redis.Enabled {
		redisClient, err := redis.Initialize(cfg.Redis, logrus.StandardLogger())
		if err != nil {
			logrus.Fatalf("Failed to initialize Redis: %v", err)
		}
		defer redisClient.Close()
		store = redisClient
	} else {
		logrus.Info("Redis disabled, using in-memory status store")
		store = indexers.NewMemoryStatusStore()
	}

	// Initialize services
	serviceContainer := services.NewContainer(db, store, cfg)

	// Initialize HTTP server
	httpServer := server.NewHTTPServer(cfg, serviceContainer)

	// Start services
	logrus.Info("Starting background services...")
	serviceContainer.Start()

	// Start HTTP server
	go func() {
		if err := httpServer.Start(); err != nil {
			logrus.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down Searcharr backend server...")

	// Graceful shutdown
	if err := httpServer.Shutdown(); err != nil {
		logrus.Errorf("Error during HTTP server shutdown: %v", err)
	}

	serviceContainer.Stop()
	logrus.Info("Searcharr backend server stopped")
}

func setupLogging(level string) {
	logrus.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})

	switch level {
	case "debug":
		logrus.SetLevel(logrus.DebugLevel)
	case "info":
		logrus.SetLevel(logrus.InfoLevel)
	case "warn":
		logrus.SetLevel(logrus.WarnLevel)
	case "error":
		logrus.SetLevel(logrus.ErrorLevel)
	default:
		logrus.SetLevel(logrus.InfoLevel)
	}

	logrus.Info("Logging initialized")
}
