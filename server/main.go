package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/artwork-critic/internal/config"
	"github.com/phambaophuc/artwork-critic/internal/http/handlers"
	"github.com/phambaophuc/artwork-critic/internal/http/routes"
	"github.com/phambaophuc/artwork-critic/internal/services/inference"
	"github.com/phambaophuc/artwork-critic/internal/services/processor"
	"github.com/phambaophuc/artwork-critic/internal/services/queue"
	"github.com/phambaophuc/artwork-critic/internal/services/relay"
	"github.com/phambaophuc/artwork-critic/internal/services/speech"
	"github.com/phambaophuc/artwork-critic/internal/services/storage"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize logger
	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	for _, warning := range cfg.Warnings() {
		logger.Warn(warning)
	}
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Initialize services
	imageProcessor := processor.NewImageProcessor(processor.Options{
		MaxFileSize:  cfg.Storage.MaxFileSize,
		MaxDimension: cfg.Storage.MaxImageDimension,
		Quality:      cfg.Storage.JPEGQuality,
		AllowedTypes: cfg.Storage.AllowedTypes,
	})

	storageService, err := storage.NewStorageService(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize storage service", zap.Error(err))
	}
	defer storageService.Close()

	deps := handlers.AIHandlerDeps{
		Images: imageProcessor,
		Store:  storageService,
	}

	client, err := inference.NewClient(inference.Config{
		BaseURL:        cfg.Inference.BaseURL,
		AccountID:      cfg.Inference.AccountID,
		APIToken:       cfg.Inference.APIToken,
		Model:          cfg.Inference.VisionModel,
		MaxTokens:      cfg.Inference.MaxTokens,
		Temperature:    cfg.Inference.Temperature,
		Stream:         cfg.Inference.Stream,
		RequestTimeout: cfg.Inference.RequestTimeout,
	}, logger)
	if err != nil {
		logger.Warn("Failed to initialize inference client", zap.Error(err))
		// AI endpoints answer 503 until credentials are configured
	} else {
		deps.Gateway = client
		deps.Runner = client
		deps.Relay = relay.New(client, relay.Options{
			Model:       client.Model(),
			Pacer:       relay.NewPacer(cfg.Relay.PacingDelay),
			ReadTimeout: cfg.Inference.ReadTimeout,
		}, logger)
	}

	synth, err := speech.NewElevenLabsClient(speech.Config{
		APIKey:       cfg.ElevenLabs.APIKey,
		BaseURL:      cfg.ElevenLabs.BaseURL,
		Model:        cfg.ElevenLabs.Model,
		OutputFormat: cfg.ElevenLabs.OutputFormat,
		Timeout:      cfg.ElevenLabs.Timeout,
	}, logger)
	if err != nil {
		logger.Warn("Failed to initialize speech client", zap.Error(err))
	} else {
		deps.Audio = speech.NewAudioService(synth, storageService, storageService, cfg.ElevenLabs.DefaultVoiceID, logger)
	}

	queueService, err := queue.NewQueueService(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue, logger)
	if err != nil {
		logger.Warn("Failed to initialize queue service", zap.Error(err))
		// Continue without analysis events
	} else {
		defer queueService.Close()
		deps.Events = queueService
		for i := 1; i <= cfg.RabbitMQ.Workers; i++ {
			if err := queueService.StartWorker(ctx, i); err != nil {
				logger.Warn("Failed to start queue worker", zap.Int("worker_id", i), zap.Error(err))
			}
		}
	}

	// Initialize handlers
	aiHandler := handlers.NewAIHandler(deps, logger, cfg)

	router := routes.NewRouter(aiHandler, logger, !cfg.IsDevelopment(), cfg.Storage.MaxRequestBytes())

	// WriteTimeout stays 0 by default: it would cut long analysis streams.
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Handler:      router.SetupRoutes(),
	}

	// Start server
	go func() {
		logger.Info("Starting server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	stop()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
