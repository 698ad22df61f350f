package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/story-crew/internal/config"
	"github.com/jwebster45206/story-crew/internal/handlers"
	"github.com/jwebster45206/story-crew/internal/logger"
	"github.com/jwebster45206/story-crew/internal/metrics"
	"github.com/jwebster45206/story-crew/internal/middleware"
	"github.com/jwebster45206/story-crew/internal/services"
	"github.com/jwebster45206/story-crew/internal/services/events"
	redisstorage "github.com/jwebster45206/story-crew/internal/storage"
	"github.com/jwebster45206/story-crew/pkg/engine"
	"github.com/jwebster45206/story-crew/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Story Crew API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"llm_provider", cfg.LLMProvider,
		"model_name", cfg.ModelName,
		"max_turns", cfg.MaxTurns)

	// Initialize the model on startup
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	llmService, closeLLM, err := services.NewLLMService(ctx, cfg, log)
	if err != nil {
		logger.LogError(log, "Failed to initialize LLM provider", err)
		os.Exit(1)
	}

	m := metrics.New()
	opts := engine.Options{
		MaxTurns:     cfg.MaxTurns,
		HistoryLimit: cfg.HistoryLimit,
		Images:       cfg.EnableImages,
		StageTimeout: cfg.CollaboratorTimeout,
		Recorder:     m,
		Logger:       log,
	}

	var store storage.Storage = storage.NewMockStorage()
	var broadcaster *events.Broadcaster
	if cfg.RedisURL != "" {
		redisStore := redisstorage.NewRedisStorage(cfg.RedisURL, cfg.SessionTTL, log)
		if err := redisStore.WaitForConnection(ctx); err != nil {
			logger.LogError(log, "Failed to connect to storage", err)
			os.Exit(1)
		}
		store = redisStore
		broadcaster = events.NewBroadcaster(redisStore.Client(), log)
		opts.Publisher = broadcaster
		log.Info("Storage connection established successfully")
	} else {
		log.Warn("REDIS_URL not set, sessions are kept in memory only")
	}

	registry := services.NewRegistry(llmService, cfg.CollaboratorRetries, log)
	manager := engine.NewManager(registry, opts, store, log)

	mux := http.NewServeMux()
	mux.Handle("/health", handlers.NewHealthHandler(store, manager, cfg.LLMProvider, log))
	mux.Handle("/metrics", m.Handler())
	mux.Handle("/start", handlers.NewStartHandler(manager, log))
	mux.Handle("/command", handlers.NewCommandHandler(manager, log))
	mux.Handle("/v1/sessions/", handlers.NewSessionHandler(manager, log))
	if broadcaster != nil {
		mux.Handle("/v1/events/sessions/", handlers.NewEventsHandler(broadcaster, log))
	}

	handler := middleware.Chain(mux,
		middleware.RequestID(),
		middleware.Logger(log),
		middleware.Recover(log))
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: event streams and multi-stage pipelines run long.
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

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}
	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}
	if err := closeLLM(); err != nil {
		log.Error("Error closing LLM provider", "error", err)
	}

	log.Info("Server exited")
}
