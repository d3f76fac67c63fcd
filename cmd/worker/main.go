package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kmarlowe/frontier-engine/internal/config"
	"github.com/kmarlowe/frontier-engine/internal/logger"
	"github.com/kmarlowe/frontier-engine/internal/services"
	"github.com/kmarlowe/frontier-engine/internal/services/queue"
	"github.com/kmarlowe/frontier-engine/internal/worker"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg)

	log.Info("Starting Frontier Engine Worker",
		"environment", cfg.Environment,
		"redis_url", cfg.RedisURL,
		"poll_interval", cfg.WorkerPollInterval.String())

	queueClient, err := queue.NewClient(redisURL(cfg.RedisURL), log)
	if err != nil {
		log.Error("Failed to create queue client", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := queueClient.Close(); err != nil {
			log.Error("Error closing queue client", "error", err)
		}
	}()

	impactQueue := queue.NewImpactQueue(queueClient)
	log.Info("Queue service initialized successfully")

	storage := services.NewRedisService(cfg.RedisURL, cfg.SessionTTL, log)
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()

	if err := storage.Ping(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage service initialized successfully")

	processor := worker.NewImpactProcessor(storage, log)

	// Separate Redis client for session locking
	// (separate from queue client to avoid connection conflicts)
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisURL,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis client", "error", err)
		}
	}()

	w := worker.New(impactQueue, processor, redisClient, log, os.Getenv("WORKER_ID"), cfg.WorkerPollInterval)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := w.Start(); err != nil {
			log.Error("Worker error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("Worker started, waiting for jobs...")

	<-quit
	log.Info("Worker shutdown signal received")

	w.Stop()

	// Give the worker time to finish the current job
	time.Sleep(2 * time.Second)
	log.Info("Worker exited")
}

func redisURL(addr string) string {
	if strings.Contains(addr, "://") {
		return addr
	}
	return "redis://" + addr
}
