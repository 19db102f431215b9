package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"go.uber.org/zap"

	"wellness-backend/internal/config"
	"wellness-backend/internal/di"
	"wellness-backend/internal/infrastructure/observability"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := config.ParseEnvironment(os.Getenv("ENVIRONMENT"))
	loader := config.NewLoader(os.Getenv("CONFIG_DIR"), env)
	cfg, err := loader.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, cleanup, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer cleanup()
	logger := container.Logging.Logger

	if cfg.IsDevelopment() {
		if watcher, err := config.NewWatcher(loader, cfg, logger); err != nil {
			logger.Warn("Configuration hot reloading unavailable", zap.Error(err))
		} else {
			watcher.OnChange(func(next *config.Config) {
				container.Logging.Level.SetLevel(observability.ParseLevel(next.Logging.Level, string(next.Environment)))
			})
			defer watcher.Stop()
		}
	}

	if container.Refresher != nil {
		go container.Refresher.Run(ctx)
	}
	container.Store.StartCleanup(ctx, cfg.Cache.CleanupInterval)
	container.Registry.StartEviction(ctx, cfg.Cache.CleanupInterval)

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      container.Router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("Starting server",
			zap.String("address", srv.Addr),
			zap.String("environment", string(cfg.Environment)),
			zap.String("version", di.Version),
			zap.Strings("config_sources", cfg.LoadedFrom),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}
	logger.Info("Server stopped")
}
