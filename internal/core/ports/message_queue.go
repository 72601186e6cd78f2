package ports

import (
	"context"

	"github.com/GoArmGo/PhotoPrint/internal/messaging/payloads"
)

// NoticePublisher определяет методы для публикации уведомлений в очередь
type NoticePublisher interface {
	PublishNotice(ctx context.Context, payload payloads.NoticePayload) error
}

// NoticeConsumer определяет методы для потребления уведомлений из очереди,
// используется воркером
type NoticeConsumer interface {
	// StartConsumingNotices начинает прослушивание очереди;
	// handler вызывается для каждого полученного сообщения
	StartConsumingNotices(ctx context.Context, handler func(context.Context, payloads.NoticePayload) error) error
}
