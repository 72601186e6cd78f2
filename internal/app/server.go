package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/GoArmGo/PhotoPrint/internal/config"
	"github.com/GoArmGo/PhotoPrint/internal/handler"
	"github.com/GoArmGo/PhotoPrint/internal/usecase"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 30 * time.Second

// newRouter собирает HTTP-роутер: middleware, служебные маршруты и API витрины.
func newRouter(
	cfg *config.Config,
	logger *slog.Logger,
	registry *prometheus.Registry,
	sessionUseCase usecase.SessionUseCase,
) chi.Router {
	printHandler := handler.NewPrintHandler(sessionUseCase, cfg.MaxUploadBytes, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(handler.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
		printHandler.RegisterRoutes(r)
	})
	return r
}

// runServer запускает HTTP сервер и блокируется до отмены ctx
func runServer(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	registry *prometheus.Registry,
	sessionUseCase usecase.SessionUseCase,
) error {
	serverAddr := fmt.Sprintf(":%s", cfg.ServerPort)
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           newRouter(cfg, logger, registry, sessionUseCase),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server started", "addr", serverAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("ошибка при запуске сервера: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping http server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	sessionUseCase.Shutdown(shutdownCtx)

	logger.Info("http server stopped")
	return nil
}
