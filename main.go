package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"writings/internal/api"
	"writings/internal/config"
	"writings/internal/logger"
	"writings/internal/web"
	"writings/internal/writings"

	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		logger.Log.Error("writings server stopped", zap.Error(err))
		_ = logger.Log.Sync()
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := logger.Initialize(cfg.LogLevel, cfg.LogFormat); err != nil {
		return err
	}
	defer func() { _ = logger.Log.Sync() }()

	client, err := api.New(cfg.APIOrigin)
	if err != nil {
		return err
	}

	handler, err := web.NewHandler(cfg, writings.NewService(client))
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: handler,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Log.Info("writings server listening",
			zap.String("addr", cfg.ListenAddr),
			zap.String("api_origin", cfg.APIOrigin),
		)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Log.Info("shutting down writings server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeoutDuration())
	defer cancel()

	return server.Shutdown(shutdownCtx)
}
