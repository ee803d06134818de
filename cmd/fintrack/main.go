package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fintrack/internal/amqp"
	"fintrack/internal/cache"
	"fintrack/internal/categorize"
	"fintrack/internal/config"
	apphttp "fintrack/internal/http"
	applog "fintrack/internal/log"
	"fintrack/internal/receipt"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentApp)
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	categorizer := categorize.NewService(repo, cfg.CacheSize, cfg.CacheTTL)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := categorizer.EnsureDefaultCategories(startupCtx); err != nil {
		logger.Error("Failed to seed default categories", "error", err)
		startupCancel()
		os.Exit(1)
	}
	if err := categorizer.Retrain(startupCtx); err != nil {
		logger.Error("Failed to train classifier", "error", err)
		startupCancel()
		os.Exit(1)
	}
	startupCancel()
	logger.Info("Classifier trained")

	cacheManager := cache.NewManager()
	cacheManager.Register(categorizer.Cache())
	cacheManager.StartCleanup(10 * time.Minute)
	defer cacheManager.Stop()

	extractor := receipt.NewTesseractExtractor(cfg.OCRBinary, cfg.OCRTimeout)
	scanner := receipt.NewScanner(extractor)

	// AMQP is optional. Without it the API still works, only the insights
	// worker falls back to its periodic refresh.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, transaction events disabled", "error", err)
			amqpClient = nil
		} else {
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	transactions := services.NewTransactionService(repo, categorizer, scanner, amqpClient)

	srv := apphttp.NewServer(":"+cfg.Port, transactions, repo, categorizer, cfg.UploadDir, cfg.MaxUploadBytes)
	srv.Handler = applog.Middleware(logger)(srv.Handler)

	// Configure server timeouts and limits
	srv.ReadTimeout = 30 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting fintrack server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
