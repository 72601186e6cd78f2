package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/GoArmGo/PhotoPrint/internal/core/ports"
	"github.com/GoArmGo/PhotoPrint/internal/domain"
	"github.com/GoArmGo/PhotoPrint/internal/messaging/payloads"
)

// Recorder собирает уведомления одного действия, чтобы вернуть их клиенту в ответе.
type Recorder struct {
	mu      sync.Mutex
	notices []domain.Notice
}

func NewRecorder() *Recorder {
	return &Recorder{notices: []domain.Notice{}}
}

func (r *Recorder) Notify(_ context.Context, notice domain.Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, notice)
}

// Notices возвращает копию собранных уведомлений.
func (r *Recorder) Notices() []domain.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]domain.Notice, len(r.notices))
	copy(cp, r.notices)
	return cp
}

type multi []ports.Notifier

// Multi рассылает уведомление всем получателям по порядку. nil-получатели пропускаются.
func Multi(notifiers ...ports.Notifier) ports.Notifier {
	out := make(multi, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

func (m multi) Notify(ctx context.Context, notice domain.Notice) {
	for _, n := range m {
		n.Notify(ctx, notice)
	}
}

type tagged struct {
	next      ports.Notifier
	sessionID string
}

// WithSession проставляет ID сессии в каждое уведомление.
func WithSession(next ports.Notifier, sessionID string) ports.Notifier {
	return tagged{next: next, sessionID: sessionID}
}

func (t tagged) Notify(ctx context.Context, notice domain.Notice) {
	notice.SessionID = t.sessionID
	t.next.Notify(ctx, notice)
}

// LogNotifier пишет уведомления в лог.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(ctx context.Context, notice domain.Notice) {
	level := slog.LevelInfo
	if notice.Kind == domain.NoticeError {
		level = slog.LevelWarn
	}
	l.logger.Log(ctx, level, "user notice",
		"session_id", notice.SessionID,
		"topic", notice.Topic,
		"kind", notice.Kind,
		"message", notice.Message,
	)
}

// QueueNotifier публикует уведомления в очередь. Ошибка публикации только логируется.
type QueueNotifier struct {
	publisher ports.NoticePublisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewQueueNotifier(publisher ports.NoticePublisher, logger *slog.Logger) *QueueNotifier {
	return &QueueNotifier{publisher: publisher, logger: logger, now: time.Now}
}

func (q *QueueNotifier) Notify(ctx context.Context, notice domain.Notice) {
	payload := ToPayload(notice, q.now())
	if err := q.publisher.PublishNotice(ctx, payload); err != nil {
		q.logger.Error("failed to publish notice",
			"session_id", notice.SessionID,
			"topic", notice.Topic,
			"error", err,
		)
	}
}

// ToPayload переводит уведомление в сообщение очереди.
func ToPayload(notice domain.Notice, at time.Time) payloads.NoticePayload {
	return payloads.NoticePayload{
		SessionID:  notice.SessionID,
		Topic:      notice.Topic,
		Kind:       string(notice.Kind),
		Message:    notice.Message,
		Detail:     notice.Detail,
		PhotoCount: notice.PhotoCount,
		Total:      notice.Total,
		OccurredAt: at.UTC(),
	}
}
