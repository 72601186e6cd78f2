package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/GoArmGo/PhotoPrint/internal/core/ports"
	"github.com/GoArmGo/PhotoPrint/internal/domain"
	"github.com/GoArmGo/PhotoPrint/internal/messaging/payloads"
)

var errNoQueue = errors.New("режим worker требует RABBITMQ_URL")

// runWorker запускает потребителя уведомлений и блокируется до отмены ctx
func runWorker(ctx context.Context, logger *slog.Logger, consumer ports.NoticeConsumer) error {
	if consumer == nil {
		return errNoQueue
	}

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	if err := consumer.StartConsumingNotices(workerCtx, handleNotice(logger)); err != nil {
		return fmt.Errorf("ошибка при запуске потребителя RabbitMQ: %w", err)
	}
	logger.Info("worker started, waiting for notices")

	<-workerCtx.Done()
	logger.Info("worker stopped")
	return nil
}

// handleNotice передаёт подтверждённые заказы на исполнение (пока только в лог),
// остальные уведомления пишет на уровне debug.
func handleNotice(logger *slog.Logger) func(context.Context, payloads.NoticePayload) error {
	return func(ctx context.Context, p payloads.NoticePayload) error {
		if p.Topic != domain.TopicOrderConfirmed {
			logger.DebugContext(ctx, "notice received",
				"session_id", p.SessionID,
				"topic", p.Topic,
				"kind", p.Kind,
				"message", p.Message,
			)
			return nil
		}

		if p.SessionID == "" || p.PhotoCount <= 0 {
			// Повтор не исправит такое сообщение, поэтому оно подтверждается
			logger.WarnContext(ctx, "incomplete order notice skipped",
				"session_id", p.SessionID,
				"photo_count", p.PhotoCount,
			)
			return nil
		}

		logger.InfoContext(ctx, "order handed off to fulfilment",
			"session_id", p.SessionID,
			"photo_count", p.PhotoCount,
			"total", p.Total,
			"confirmed_at", p.OccurredAt,
		)
		return nil
	}
}
