package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DiegoDok7/hiperalia-ean-processing/config"
	"github.com/DiegoDok7/hiperalia-ean-processing/internal/app"
	httpDelivery "github.com/DiegoDok7/hiperalia-ean-processing/internal/delivery/http"
	"github.com/DiegoDok7/hiperalia-ean-processing/internal/domain"
	"github.com/DiegoDok7/hiperalia-ean-processing/internal/infrastructure/archivestore"
	"github.com/DiegoDok7/hiperalia-ean-processing/internal/logging"
	"github.com/DiegoDok7/hiperalia-ean-processing/internal/usecase"
)

const (
	version = "1.0.0"

	archiveSweepInterval = 5 * time.Minute
	shutdownTimeout      = 30 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("starting EAN processing server",
		"version", version,
		"environment", cfg.Server.Environment,
		"port", cfg.Server.Port)

	pipeline := app.NewPipeline(cfg, app.Options{Images: true})
	defer pipeline.Close()

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()

	var archives domain.ArchiveStore
	if !cfg.Batch.InlineArchive {
		store, err := archivestore.New(cfg.Archive.Dir, cfg.Archive.TTL)
		if err != nil {
			slog.Error("failed to create archive store", "dir", cfg.Archive.Dir, "error", err)
			os.Exit(1)
		}
		go store.Run(jobCtx, archiveSweepInterval)
		archives = store
	}

	batches := usecase.NewBatchOrchestrator(pipeline.Products, archives, usecase.BatchConfig{
		MaxItems:      cfg.Batch.MaxItems,
		InlineArchive: cfg.Batch.InlineArchive,
	})

	handler := httpDelivery.NewHandler(pipeline.Products, batches, archives, httpDelivery.HandlerConfig{
		Version:      version,
		Capabilities: pipeline.Capabilities,
	})
	router := httpDelivery.SetupRouter(cfg, handler)

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server listening", "addr", server.Addr, "capabilities", pipeline.Capabilities)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
