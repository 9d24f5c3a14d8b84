package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andresuchdata/stockhealth/backend-go/internal/api"
	"github.com/andresuchdata/stockhealth/backend-go/internal/config"
	"github.com/andresuchdata/stockhealth/backend-go/internal/service"
	"github.com/andresuchdata/stockhealth/backend-go/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	logger.Setup(cfg.App.LogLevel, cfg.App.LogFormat, os.Stdout)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize services
	components, err := service.NewFromConfig(ctx, cfg, cfg.Inventory.Settings())
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize services")
	}

	// Classify whatever is already in the source directory
	if result, err := components.StockHealth.SyncDir(ctx, ""); err != nil {
		logger.Log.Warn().Err(err).Str("dir", cfg.App.SourceDir).Msg("Initial sync skipped")
	} else {
		logger.Log.Info().Int("items", result.Items).Str("version", result.Version).Msg("Initial snapshot loaded")
	}

	router := api.NewRouter(&api.Services{
		StockHealthService: components.StockHealth,
		DriveService:       components.Drive,
	}, api.RouterOptions{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		UploadDir:      cfg.App.UploadDir,
		MaxUploadBytes: cfg.Server.MaxUploadMB << 20,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	<-ctx.Done()
	logger.Log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
