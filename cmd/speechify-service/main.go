// main package for the speechify-service
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/book-expert/logger"
	"github.com/book-expert/speechify-service/internal/config"
	"github.com/book-expert/speechify-service/internal/objectstore"
	"github.com/book-expert/speechify-service/internal/speechify"
	"github.com/book-expert/speechify-service/internal/synthesis"
	"github.com/book-expert/speechify-service/internal/worker"
	"github.com/nats-io/nats.go"
)

var errNATSSettingsMissing = errors.New("nats url, subject and text_object_store_bucket are required")

func setupLogger(logPath string) (*logger.Logger, error) {
	log, err := logger.New(logPath, "speechify-service.log")
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return log, nil
}

func run() error {
	// 1. Create a temporary logger for the bootstrap process
	bootstrapLog, err := setupLogger(os.TempDir())
	if err != nil {
		// If bootstrap logger fails, we can only print to stderr
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return err
	}

	defer func() { _ = bootstrapLog.Close() }()

	bootstrapLog.Info("Bootstrap logger created.")

	// 2. Load configuration using the central configurator
	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	err = cfg.Validate()
	if err != nil {
		bootstrapLog.Error("Invalid configuration: %v", err)

		return fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.NATS.URL == "" || cfg.NATS.Subject == "" || cfg.NATS.TextObjectStoreBucket == "" {
		bootstrapLog.Error("Invalid configuration: %v", errNATSSettingsMissing)

		return errNATSSettingsMissing
	}

	bootstrapLog.Info("Configuration loaded successfully.")

	// 3. Initialize the final logger based on the loaded configuration
	finalLog, err := setupLogger(cfg.Paths.BaseLogsDir)
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return fmt.Errorf("failed to create final logger: %w", err)
	}

	defer func() {
		closeErr := finalLog.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing final logger: %v\n", closeErr)
		}
	}()

	if cfg.Storage.Bucket == "" {
		finalLog.Warn("No storage bucket configured; uploads will fail.")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Connect collaborators
	natsConnection, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATS.URL, err)
	}
	defer natsConnection.Close()

	jetstreamContext, err := natsConnection.JetStream()
	if err != nil {
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	textStore, err := objectstore.New(jetstreamContext, cfg.NATS.TextObjectStoreBucket)
	if err != nil {
		return fmt.Errorf("failed to open text object store: %w", err)
	}

	storage, closeStorage, err := objectstore.Open(ctx, cfg.Storage, jetstreamContext)
	if err != nil {
		return fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Backend, err)
	}

	defer func() {
		closeErr := closeStorage()
		if closeErr != nil {
			finalLog.Warn("Failed to close storage: %v", closeErr)
		}
	}()

	client, err := speechify.NewClient(cfg.Speechify.APIKey, cfg.Speechify.BaseURL, cfg.Timeout())
	if err != nil {
		return fmt.Errorf("failed to create Speechify client: %w", err)
	}

	pipeline := synthesis.New(client, storage, cfg.Storage.Bucket, finalLog)

	// 5. Serve until interrupted
	finalLog.System("Speechify-Service successfully initialized. Listening for jobs on subject: %s", cfg.NATS.Subject)

	return worker.NewNatsWorker(natsConnection, cfg.NATS.Subject, textStore, pipeline, finalLog).Run(ctx)
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}
