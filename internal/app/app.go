package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/GoArmGo/PhotoPrint/internal/config"
	"github.com/GoArmGo/PhotoPrint/internal/core/ports"
	"github.com/GoArmGo/PhotoPrint/internal/usecase"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	ModeServer = "server"
	ModeWorker = "worker"
)

type App struct {
	Config         *config.Config
	logger         *slog.Logger
	registry       *prometheus.Registry
	sessionUseCase usecase.SessionUseCase
	noticeConsumer ports.NoticeConsumer
	closers        []func() error
}

// NewApp собирает приложение. noticeConsumer может быть nil, если очередь не настроена;
// closers вызываются при завершении в обратном порядке.
func NewApp(cfg *config.Config,
	logger *slog.Logger,
	registry *prometheus.Registry,
	sessionUseCase usecase.SessionUseCase,
	noticeConsumer ports.NoticeConsumer,
	closers ...func() error) *App {
	return &App{
		Config:         cfg,
		logger:         logger,
		registry:       registry,
		sessionUseCase: sessionUseCase,
		noticeConsumer: noticeConsumer,
		closers:        closers,
	}
}

// LoggerIns возвращает основной логгер приложения
func (a *App) LoggerIns() *slog.Logger {
	return a.logger
}

// Run запускает приложение в режиме server или worker и блокируется до SIGINT/SIGTERM.
func (a *App) Run(ctx context.Context, mode string) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.logger.Info("starting", "mode", mode)

	var err error
	switch mode {
	case ModeServer:
		err = runServer(ctx, a.Config, a.logger, a.registry, a.sessionUseCase)
	case ModeWorker:
		err = runWorker(ctx, a.logger, a.noticeConsumer)
	default:
		err = fmt.Errorf("неизвестный режим: %s (используйте 'server' или 'worker')", mode)
	}

	if closeErr := a.Shutdown(); closeErr != nil {
		a.logger.Error("shutdown finished with errors", "error", closeErr)
	}
	if err != nil {
		return err
	}

	a.logger.Info("stopped gracefully", "mode", mode)
	return nil
}

// Shutdown закрывает все ресурсы приложения
func (a *App) Shutdown() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
