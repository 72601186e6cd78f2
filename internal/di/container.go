package di

import (
	"context"
	"fmt"

	"github.com/GoArmGo/PhotoPrint/internal/adapter/storage/memory"
	"github.com/GoArmGo/PhotoPrint/internal/adapter/storage/minio"
	"github.com/GoArmGo/PhotoPrint/internal/adapter/unsplash"
	"github.com/GoArmGo/PhotoPrint/internal/app"
	"github.com/GoArmGo/PhotoPrint/internal/config"
	"github.com/GoArmGo/PhotoPrint/internal/core/ports"
	"github.com/GoArmGo/PhotoPrint/internal/domain"
	"github.com/GoArmGo/PhotoPrint/internal/logger"
	"github.com/GoArmGo/PhotoPrint/internal/metrics"
	"github.com/GoArmGo/PhotoPrint/internal/notify"
	"github.com/GoArmGo/PhotoPrint/internal/rabbitmq"
	"github.com/GoArmGo/PhotoPrint/internal/usecase"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// BuildApp инициализирует все зависимости и возвращает готовый объект App.
func BuildApp(ctx context.Context) (*app.App, error) {
	// 1. Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	slogger := logger.NewSlog(logger.SlogConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	slogger.Info("logger initialized", "level", cfg.LogLevel, "format", cfg.LogFormat)

	// 2. Метрики
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appMetrics := metrics.New(registry)

	// 3. Хранилище байтов загруженных фото
	var blobs ports.BlobStore
	switch cfg.BlobBackend {
	case config.BlobBackendMinio:
		minioClient, err := minio.NewMinioClient(ctx, cfg, slogger)
		if err != nil {
			return nil, err
		}
		blobs = minioClient
	default:
		blobs = memory.NewStore(slogger)
	}
	slogger.Info("blob store initialized", "backend", cfg.BlobBackend)

	// 4. Внешний источник фото (необязательный)
	var fetcher usecase.PhotoFetcher
	if cfg.ExternalPhotosEnabled() {
		fetcher = unsplash.NewUnsplashAPIClient(cfg.UnsplashAPIKey, slogger)
	} else {
		slogger.Info("UNSPLASH_API_KEY is empty, external photo import disabled")
	}

	// 5. Очередь уведомлений (необязательная)
	var (
		closers  []func() error
		consumer ports.NoticeConsumer
		notifier = notify.Multi(notify.NewLogNotifier(slogger))
	)
	if cfg.QueueEnabled() {
		rabbitMQClient, err := rabbitmq.NewClient(cfg, slogger)
		if err != nil {
			return nil, fmt.Errorf("инициализация RabbitMQ: %w", err)
		}
		closers = append(closers, rabbitMQClient.Close)
		consumer = rabbitMQClient
		notifier = notify.Multi(notify.NewLogNotifier(slogger), notify.NewQueueNotifier(rabbitMQClient, slogger))
	} else {
		slogger.Info("RABBITMQ_URL is empty, notices are only logged")
	}

	// 6. Бизнес-логика
	sessionUseCase := usecase.NewSessionUseCase(usecase.SessionDeps{
		Catalog:   domain.DefaultCatalog(cfg.Currency),
		Blobs:     blobs,
		MaxPhotos: cfg.MaxPhotos,
		Metrics:   appMetrics,
		Logger:    slogger,
	}, fetcher, notifier)

	application := app.NewApp(cfg, slogger, registry, sessionUseCase, consumer, closers...)

	slogger.Info("all dependencies initialized")
	return application, nil
}
