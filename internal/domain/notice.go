package domain

import "fmt"

// NoticeKind — тип уведомления для пользователя.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Темы уведомлений, по ним воркер решает, что делать с сообщением.
const (
	TopicUpload         = "photos.upload"
	TopicRemove         = "photos.remove"
	TopicPayment        = "order.payment"
	TopicOrderConfirmed = "order.confirmed"
)

// Notice — рекомендательное уведомление пользователю (аналог toast).
// Detail несёт расширенное содержимое, PhotoCount и Total заполняются для заказов.
type Notice struct {
	SessionID  string     `json:"session_id,omitempty"`
	Topic      string     `json:"topic"`
	Kind       NoticeKind `json:"kind"`
	Message    string     `json:"message"`
	Detail     string     `json:"detail,omitempty"`
	PhotoCount int        `json:"photo_count,omitempty"`
	Total      string     `json:"total,omitempty"`
}

// Plural возвращает "1 photo" / "2 photos".
func Plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
