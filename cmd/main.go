package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/fyerfyer/pdf-ocr-service/api"
	"github.com/fyerfyer/pdf-ocr-service/api/handler"
	"github.com/fyerfyer/pdf-ocr-service/api/middleware"
	"github.com/fyerfyer/pdf-ocr-service/config"
	"github.com/fyerfyer/pdf-ocr-service/internal/cache"
	"github.com/fyerfyer/pdf-ocr-service/internal/database"
	"github.com/fyerfyer/pdf-ocr-service/internal/ocr"
	"github.com/fyerfyer/pdf-ocr-service/internal/pipeline"
	"github.com/fyerfyer/pdf-ocr-service/internal/raster"
	"github.com/fyerfyer/pdf-ocr-service/internal/repository"
	"github.com/fyerfyer/pdf-ocr-service/pkg/storage"
	"github.com/fyerfyer/pdf-ocr-service/pkg/taskqueue"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	// .env is optional; environment variables override file settings
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	gin.SetMode(cfg.Server.Mode)

	logger := setupLogger(cfg.Logging)
	logger.Info("Starting PDF OCR service...")

	if err := database.Setup(&database.Config{
		Type: cfg.Database.Type,
		DSN:  cfg.Database.DSN,
	}, logger); err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	fileStorage, err := setupStorage(cfg.Storage)
	if err != nil {
		logger.Fatalf("Failed to initialize storage: %v", err)
	}

	ocrManager := ocr.NewManager(nil)
	defer ocrManager.Close()

	rasterEngine := raster.NewEngine()

	pipelineOptions := []pipeline.Option{
		pipeline.WithLogger(logger),
	}
	if cfg.Cache.Enable {
		resultCache, err := setupCache(cfg.Cache)
		if err != nil {
			logger.Fatalf("Failed to initialize cache: %v", err)
		}
		pipelineOptions = append(pipelineOptions,
			pipeline.WithCache(resultCache, time.Duration(cfg.Cache.TTL)*time.Second))
		logger.Infof("Result cache enabled (type=%s)", cfg.Cache.Type)
	}

	pipelineService := pipeline.NewService(rasterEngine, ocrManager, pipelineOptions...)

	ocrHandler := handler.NewOCRHandler(
		pipelineService,
		ocrManager,
		fileStorage,
		cfg.Server.MaxUploadSize,
	)

	var jobHandler *handler.JobHandler
	if cfg.Queue.Enable {
		queue, err := setupTaskQueue(cfg.Queue, logger)
		if err != nil {
			logger.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer queue.Close()

		jobHandler = handler.NewJobHandler(queue, repository.NewJobRepository())
		logger.Info("Async job API enabled")
	}

	r := api.SetupRouter(ocrHandler, jobHandler)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	go func() {
		logger.Infof("Server is running on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}

// setupLogger configures the shared logger, with file rotation when a
// log file is set.
func setupLogger(cfg config.LoggingConfig) *logrus.Logger {
	logger := middleware.GetLogger()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			Compress:   true,
		}
		logger.SetOutput(io.MultiWriter(os.Stdout, rotator))
	}

	return logger
}

// setupStorage creates the upload archive backend.
func setupStorage(cfg config.StorageConfig) (storage.Storage, error) {
	switch cfg.Type {
	case "minio":
		return storage.NewMinioStorage(storage.MinioConfig{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			UseSSL:    cfg.UseSSL,
			Bucket:    cfg.Bucket,
		})
	default:
		return storage.NewLocalStorage(storage.LocalConfig{
			Path: cfg.Path,
		})
	}
}

// setupCache creates the recognition result cache.
func setupCache(cfg config.CacheConfig) (cache.Cache, error) {
	cacheConfig := cache.DefaultConfig()
	cacheConfig.Type = cfg.Type
	if cfg.TTL > 0 {
		cacheConfig.DefaultTTL = time.Duration(cfg.TTL) * time.Second
	}

	if cfg.Type == "redis" {
		cacheConfig.RedisAddr = cfg.Address
		cacheConfig.RedisPassword = cfg.Password
		cacheConfig.RedisDB = cfg.DB
	}

	return cache.NewCache(cacheConfig)
}

// setupTaskQueue creates the async job queue.
func setupTaskQueue(cfg config.QueueConfig, logger *logrus.Logger) (taskqueue.Queue, error) {
	queueConfig := &taskqueue.Config{
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
		Concurrency:   cfg.Concurrency,
		RetryLimit:    cfg.RetryLimit,
		RetryDelay:    time.Duration(cfg.RetryDelay) * time.Second,
	}

	logger.WithFields(logrus.Fields{
		"type":        cfg.Type,
		"redis_addr":  cfg.RedisAddr,
		"concurrency": cfg.Concurrency,
		"retry_limit": cfg.RetryLimit,
	}).Info("Setting up task queue")

	return taskqueue.NewQueue(cfg.Type, queueConfig)
}
