package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/pdf-ocr-service/api/middleware"
	"github.com/fyerfyer/pdf-ocr-service/config"
	"github.com/fyerfyer/pdf-ocr-service/internal/cache"
	"github.com/fyerfyer/pdf-ocr-service/internal/database"
	"github.com/fyerfyer/pdf-ocr-service/internal/job"
	"github.com/fyerfyer/pdf-ocr-service/internal/ocr"
	"github.com/fyerfyer/pdf-ocr-service/internal/pipeline"
	"github.com/fyerfyer/pdf-ocr-service/internal/raster"
	"github.com/fyerfyer/pdf-ocr-service/internal/repository"
	"github.com/fyerfyer/pdf-ocr-service/pkg/taskqueue"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := middleware.GetLogger()
	if level, err := logrus.ParseLevel(cfg.Logging.Level); err == nil {
		logger.SetLevel(level)
	}
	logger.Info("Starting OCR worker...")

	if err := database.Setup(&database.Config{
		Type: cfg.Database.Type,
		DSN:  cfg.Database.DSN,
	}, logger); err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	queueConfig := &taskqueue.Config{
		RedisAddr:     cfg.Queue.RedisAddr,
		RedisPassword: cfg.Queue.RedisPassword,
		RedisDB:       cfg.Queue.RedisDB,
		Concurrency:   cfg.Queue.Concurrency,
		RetryLimit:    cfg.Queue.RetryLimit,
		RetryDelay:    time.Duration(cfg.Queue.RetryDelay) * time.Second,
	}

	queue, err := taskqueue.NewQueue(cfg.Queue.Type, queueConfig)
	if err != nil {
		logger.Fatalf("Failed to connect to task queue: %v", err)
	}
	defer queue.Close()

	redisQueue, ok := queue.(*taskqueue.RedisQueue)
	if !ok {
		logger.Fatalf("Worker requires a redis task queue, got %s", cfg.Queue.Type)
	}

	ocrManager := ocr.NewManager(nil)
	defer ocrManager.Close()

	pipelineOptions := []pipeline.Option{
		pipeline.WithLogger(logger),
	}
	if cfg.Cache.Enable {
		cacheConfig := cache.DefaultConfig()
		cacheConfig.Type = cfg.Cache.Type
		if cfg.Cache.TTL > 0 {
			cacheConfig.DefaultTTL = time.Duration(cfg.Cache.TTL) * time.Second
		}
		if cfg.Cache.Type == "redis" {
			cacheConfig.RedisAddr = cfg.Cache.Address
			cacheConfig.RedisPassword = cfg.Cache.Password
			cacheConfig.RedisDB = cfg.Cache.DB
		}

		resultCache, err := cache.NewCache(cacheConfig)
		if err != nil {
			logger.Fatalf("Failed to initialize cache: %v", err)
		}
		pipelineOptions = append(pipelineOptions,
			pipeline.WithCache(resultCache, time.Duration(cfg.Cache.TTL)*time.Second))
	}

	pipelineService := pipeline.NewService(raster.NewEngine(), ocrManager, pipelineOptions...)

	fetcher := job.NewFetcher(
		time.Duration(cfg.Fetch.TimeoutSeconds)*time.Second,
		cfg.Fetch.MaxBytes,
	)

	defaults := pipeline.Options{Lang: cfg.OCR.Lang, DPI: cfg.OCR.DPI}
	jobHandler := job.NewHandler(pipelineService, fetcher, defaults, logger)

	queueHandler := job.NewQueueHandler(
		jobHandler,
		queue,
		repository.NewJobRepository(),
		logger,
	)

	worker := taskqueue.NewRedisWorker(redisQueue, queueConfig)
	for _, taskType := range queueHandler.GetTaskTypes() {
		worker.RegisterHandler(taskType, queueHandler)
	}

	if err := worker.Start(); err != nil {
		logger.Fatalf("Failed to start worker: %v", err)
	}
	logger.Infof("Worker is running (concurrency=%d)", cfg.Queue.Concurrency)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker...")
	worker.Stop()
	logger.Info("Worker exited")
}
