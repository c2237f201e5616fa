package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/docscaffold/internal/api"
	"github.com/dgallion1/docscaffold/internal/config"
	"github.com/dgallion1/docscaffold/internal/loader"
	"github.com/dgallion1/docscaffold/internal/pipeline"
	"github.com/dgallion1/docscaffold/internal/store"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := cfg.NewLogger(os.Stdout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Open the host document.
	tree, closeStore, err := store.New(cfg)
	if err != nil {
		log.Error("open store", "store", cfg.Store, "error", err)
		os.Exit(1)
	}

	if cfg.SeedFile != "" {
		doc, err := loader.LoadFile(cfg.SeedFile, loader.WithPDFFallback(cfg.PDFFallbackPdftotext))
		if err != nil {
			log.Error("load seed file", "path", cfg.SeedFile, "error", err)
			os.Exit(1)
		}
		res, err := loader.Merge(tree, doc)
		if err != nil {
			log.Error("seed document", "path", cfg.SeedFile, "error", err)
			os.Exit(1)
		}
		log.Info("seeded document", "path", cfg.SeedFile, "pages_created", res.PagesCreated, "nodes_added", res.NodesAdded)
	}

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, tree, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, tree, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()
		if err := closeStore(); err != nil {
			log.Error("close store", "error", err)
		}
	}()

	log.Info("starting docscaffold", "port", cfg.Port, "store", cfg.Store)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	<-stopped
}
