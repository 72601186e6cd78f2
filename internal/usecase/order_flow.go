package usecase

import (
	"context"

	"github.com/GoArmGo/PhotoPrint/internal/core/ports"
	"github.com/GoArmGo/PhotoPrint/internal/domain"
	"github.com/shopspring/decimal"
)

// OrderState — состояние оформления заказа.
type OrderState int

const (
	OrderIdle OrderState = iota
	OrderAwaitingConfirmation
)

func (s OrderState) String() string {
	switch s {
	case OrderAwaitingConfirmation:
		return "awaiting_confirmation"
	default:
		return "idle"
	}
}

const (
	msgSelectSize     = "Please select sizes for at least one photo"
	msgOrderConfirmed = "Order Confirmed."
)

// ConfirmationSnapshot — данные, показанные в окне подтверждения заказа.
type ConfirmationSnapshot struct {
	PhotoCount int             `json:"photo_count"`
	Total      decimal.Decimal `json:"total"`
	Currency   string          `json:"currency"`
}

// OrderFlow: Idle -> AwaitingConfirmation -> (Completed) -> Idle.
type OrderFlow struct {
	confirmation domain.Dialog[ConfirmationSnapshot]
	currency     string
}

func NewOrderFlow(currency string) *OrderFlow {
	return &OrderFlow{currency: currency}
}

func (f *OrderFlow) State() OrderState {
	if f.confirmation.IsOpen() {
		return OrderAwaitingConfirmation
	}
	return OrderIdle
}

// Confirmation возвращает снимок открытого окна подтверждения.
func (f *OrderFlow) Confirmation() (ConfirmationSnapshot, bool) {
	return f.confirmation.Current()
}

// RequestPayment открывает подтверждение для непустого черновика.
// Для пустого черновика отправляет уведомление об ошибке и остаётся в Idle.
// Повторный вызов во время ожидания подтверждения перезаписывает снимок.
func (f *OrderFlow) RequestPayment(ctx context.Context, draft domain.OrderDraft, n ports.Notifier) bool {
	if draft.Empty() {
		n.Notify(ctx, domain.Notice{
			Topic:   domain.TopicPayment,
			Kind:    domain.NoticeError,
			Message: msgSelectSize,
		})
		return false
	}
	f.confirmation.OpenWith(ConfirmationSnapshot{
		PhotoCount: draft.Count(),
		Total:      draft.Total,
		Currency:   f.currency,
	})
	return true
}

// Refresh приводит открытый снимок к текущему черновику. Опустевший черновик закрывает
// подтверждение. В Idle ничего не делает. Возвращает true, если подтверждение закрыто.
func (f *OrderFlow) Refresh(draft domain.OrderDraft) bool {
	if !f.confirmation.IsOpen() {
		return false
	}
	if draft.Empty() {
		f.confirmation.Close()
		return true
	}
	f.confirmation.OpenWith(ConfirmationSnapshot{
		PhotoCount: draft.Count(),
		Total:      draft.Total,
		Currency:   f.currency,
	})
	return false
}

// Cancel закрывает подтверждение и отбрасывает снимок.
func (f *OrderFlow) Cancel() bool {
	if !f.confirmation.IsOpen() {
		return false
	}
	f.confirmation.Close()
	return true
}

// Confirm завершает заказ: отправляет уведомление об успехе и возвращает автомат в Idle.
// Вызывающий обязан после true полностью сбросить фото и выбор форматов.
func (f *OrderFlow) Confirm(ctx context.Context, n ports.Notifier) (ConfirmationSnapshot, bool) {
	snap, open := f.confirmation.Current()
	if !open {
		return ConfirmationSnapshot{}, false
	}
	f.confirmation.Close()

	n.Notify(ctx, domain.Notice{
		Topic:      domain.TopicOrderConfirmed,
		Kind:       domain.NoticeSuccess,
		Message:    msgOrderConfirmed,
		Detail:     "Your " + domain.Plural(snap.PhotoCount, "photo") + " will be delivered soon.",
		PhotoCount: snap.PhotoCount,
		Total:      snap.Total.StringFixed(2),
	})
	return snap, true
}
