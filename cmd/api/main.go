package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/kmarlowe/frontier-engine/internal/config"
	"github.com/kmarlowe/frontier-engine/internal/handlers"
	"github.com/kmarlowe/frontier-engine/internal/logger"
	"github.com/kmarlowe/frontier-engine/internal/middleware"
	"github.com/kmarlowe/frontier-engine/internal/services"
	"github.com/kmarlowe/frontier-engine/internal/services/queue"
	"github.com/kmarlowe/frontier-engine/pkg/story"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg)

	log.Info("Starting Frontier Engine API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"story_data_path", cfg.StoryDataPath)

	stories, err := story.LoadDir(cfg.StoryDataPath)
	if err != nil {
		log.Error("Failed to load story library", "error", err, "path", cfg.StoryDataPath)
		os.Exit(1)
	}
	log.Info("Story library loaded", "count", len(stories))

	var storage services.Storage = services.NewRedisService(cfg.RedisURL, cfg.SessionTTL, log)
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()

	if err := storage.Ping(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	queueClient, err := queue.NewClient(redisURL(cfg.RedisURL), log)
	if err != nil {
		log.Error("Failed to create queue client", "error", err)
		os.Exit(1)
	}
	impactQueue := queue.NewImpactQueue(queueClient)

	narrator := services.NewScriptedNarrator()

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(storage, log)
	mux.Handle("/health", healthHandler)

	storyHandler := handlers.NewStoryHandler(stories, log)
	mux.Handle("/v1/stories", storyHandler)
	mux.Handle("/v1/stories/", storyHandler)

	sessionHandler := handlers.NewSessionHandler(stories, storage, narrator, impactQueue, log)
	mux.Handle("/v1/sessions", sessionHandler)
	mux.Handle("/v1/sessions/", sessionHandler)

	handler := middleware.Logger(mux)
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	if err := storage.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}
	if err := queueClient.Close(); err != nil {
		log.Error("Error closing queue client", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("Server exited")
}

// redisURL normalizes a bare host:port into a URL the queue client can
// parse.
func redisURL(addr string) string {
	if strings.Contains(addr, "://") {
		return addr
	}
	return "redis://" + addr
}
