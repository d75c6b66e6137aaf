package main

import (
	"log"
	"log/slog"
	"os"
	"os/signal"

	"tonearm/src/features/config"
	"tonearm/src/features/deduping"
	"tonearm/src/features/hosting"
	"tonearm/src/features/importing"
	"tonearm/src/features/jobs"
	"tonearm/src/features/library"
	"tonearm/src/features/logging"
	"tonearm/src/features/metrics"
	"tonearm/src/features/scanning"
	"tonearm/src/infra/database"
	"tonearm/src/infra/tag"
)

func main() {
	// Load configuration
	cfgManager, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Setup default logger with slog
	logger := logging.SetupLogger(cfgManager)
	slog.SetDefault(logger)

	// Create the database store
	store, err := database.NewSqliteStore(cfgManager.Get().Database.Path)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer store.Close()

	// Create the job service
	jobService := jobs.NewService(&cfgManager.Get().Jobs)

	// Create the feature services
	libraryService := library.NewService(store, store, store)
	scanningService := scanning.NewService(store, store, cfgManager, jobService)
	importingService := importing.NewService(store, store, tag.NewReader(), cfgManager, jobService)
	dedupingService := deduping.NewService(store, store, cfgManager)

	// Register job tasks
	jobService.RegisterHandler("collection_scan", jobs.NewBaseTaskHandler(scanning.NewScanTask(scanningService)))
	jobService.RegisterHandler("directory_import", jobs.NewBaseTaskHandler(importing.NewDirectoryImportTask(importingService)))

	// Wire the metrics recorder into scan and import outcomes
	recorder := metrics.NewRecorder()
	scanningService.AddObserver(recorder)
	importingService.AddObserver(recorder)

	// Create the Telegram notifier if enabled
	if cfgManager.Get().Telegram.Enabled {
		notifier, err := hosting.NewTelegramNotifier(cfgManager)
		if err != nil {
			slog.Error("Failed to initialize Telegram notifier", "error", err)
		} else {
			jobService.RegisterNotifier(notifier)
			slog.Info("Telegram job notifications enabled")
		}
	}

	// Create and start the HTTP server
	server := hosting.NewServer(cfgManager, hosting.Services{
		Library:   libraryService,
		Scanning:  scanningService,
		Importing: importingService,
		Deduping:  dedupingService,
		Jobs:      jobService,
		Metrics:   recorder,
	})
	go func() {
		if err := server.Start(); err != nil {
			slog.Error("Server stopped", "error", err)
		}
	}()
	slog.Info("Server started. Press Ctrl+C to shut down.", "port", cfgManager.Get().Server.Port)

	// Wait for a shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	slog.Info("Shutting down server...")

	if err := server.Shutdown(); err != nil {
		log.Fatalf("failed to shutdown server: %v", err)
	}
	slog.Info("Server gracefully shut down.")
}
