package ports

import (
	"context"

	"github.com/GoArmGo/PhotoPrint/internal/domain"
)

// Notifier — канал пользовательских уведомлений.
// Отправка без ответа: ошибки доставки не возвращаются вызывающему.
type Notifier interface {
	Notify(ctx context.Context, notice domain.Notice)
}
