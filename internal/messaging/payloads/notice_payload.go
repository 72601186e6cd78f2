package payloads

import "time"

// NoticePayload представляет уведомление сессии, передаваемое через RabbitMQ.
type NoticePayload struct {
	SessionID  string    `json:"session_id"`
	Topic      string    `json:"topic"`
	Kind       string    `json:"kind"`
	Message    string    `json:"message"`
	Detail     string    `json:"detail,omitempty"`
	PhotoCount int       `json:"photo_count,omitempty"`
	Total      string    `json:"total,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
