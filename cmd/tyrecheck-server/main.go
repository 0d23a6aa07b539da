package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/jpbenga/tyrecheck/pkg/classifier"
	"github.com/jpbenga/tyrecheck/pkg/config"
	"github.com/jpbenga/tyrecheck/pkg/logging"
	"github.com/jpbenga/tyrecheck/pkg/relay"
	"github.com/jpbenga/tyrecheck/pkg/shutdown"
)

const version = "1.0.0"

func main() {
	// Local development convenience; a missing .env is fine
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	logger := logging.NewLogger(logging.LogLevel(cfg.LogLevel))
	logging.LogStartup(logger, version, cfg.Server.Port)

	logger.WithFields(logrus.Fields{
		"log_level":      cfg.LogLevel,
		"port":           cfg.Server.Port,
		"classifier_bin": cfg.Classifier.Bin,
		"static_dir":     cfg.Static.Dir,
		"normalize":      cfg.Upload.Normalize,
		"auth":           cfg.Auth.Type,
	}).Info("Configuration loaded")

	// Validate the classifier runtime at startup rather than on the
	// first upload
	cls := classifier.NewProcessClassifier(cfg, logger)
	if err := cls.ValidateConfig(); err != nil {
		logger.WithError(err).Fatal("Classifier validation failed")
	}

	// Create relay server
	server := relay.NewServer(cfg, cls, logger)

	// Setup graceful shutdown
	shutdownManager := shutdown.NewManager(logger)
	shutdownManager.RegisterCleanup("relay-server", func(ctx context.Context) error {
		return server.Shutdown(ctx)
	})

	// Start HTTP server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logging.LogShutdownInitiated(logger, sig.String())
	case err := <-serverErr:
		logger.WithError(err).Error("Server error occurred")
	}

	shutdownTimeout, err := cfg.ParseDuration(cfg.Server.ShutdownTimeout)
	if err != nil {
		shutdownTimeout = 30 * time.Second
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := shutdownManager.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Graceful shutdown failed")
		os.Exit(1)
	}

	logger.Info("TyreCheck relay stopped")
}
