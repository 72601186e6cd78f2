package usecase

import (
	"context"
	"errors"
	"io"

	"github.com/GoArmGo/PhotoPrint/internal/domain"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrPhotoNotFound    = domain.ErrPhotoNotFound
	ErrUnknownSize      = errors.New("unknown print size")
	ErrExternalDisabled = errors.New("external photo import is not configured")
)

// PhotoFetcher определяет интерфейс для получения фото из внешних источников (например, Unsplash API)
// и маппинга их во внутреннюю доменную модель Photo
type PhotoFetcher interface {
	// FetchPhotoByIDFromExternal возвращает внешнее фото по его ID во внешнем источнике
	FetchPhotoByIDFromExternal(ctx context.Context, externalID string) (*domain.Photo, error)
}

// SessionView — снимок сессии для клиента.
type SessionView struct {
	ID           string                `json:"id"`
	Photos       []domain.Photo        `json:"photos"`
	MaxPhotos    int                   `json:"max_photos"`
	Selections   map[string]string     `json:"selections"`
	Draft        domain.OrderDraft     `json:"draft"`
	Currency     string                `json:"currency"`
	OrderState   string                `json:"order_state"`
	Confirmation *ConfirmationSnapshot `json:"confirmation,omitempty"`
	Preview      *domain.Photo         `json:"preview,omitempty"`
}

// Result — результат действия пользователя: новое состояние и уведомления,
// отправленные во время действия. Changed == false означает, что состояние не менялось.
type Result struct {
	Session SessionView     `json:"session"`
	Notices []domain.Notice `json:"notices"`
	Changed bool            `json:"changed"`
}

// PhotoContent — то, что нужно слою отрисовки: либо поток байтов локального фото,
// либо внешний URL (Body == nil).
type PhotoContent struct {
	Photo domain.Photo
	Body  io.ReadCloser
}

// SessionUseCase определяет интерфейс бизнес-логики витрины печати фото
type SessionUseCase interface {
	// Catalog возвращает фиксированный каталог форматов печати
	Catalog() domain.Catalog

	// CreateSession создаёт пустую сессию
	CreateSession(ctx context.Context) (SessionView, error)

	// GetSession возвращает текущее состояние сессии
	GetSession(ctx context.Context, sessionID string) (SessionView, error)

	// DeleteSession очищает и удаляет сессию, освобождая все дескрипторы
	DeleteSession(ctx context.Context, sessionID string) error

	// UploadPhotos проверяет, дедуплицирует и добавляет пачку файлов
	UploadPhotos(ctx context.Context, sessionID string, candidates []domain.Candidate, source UploadSource) (Result, error)

	// ImportExternalPhoto добавляет фото из внешнего источника по его ID
	ImportExternalPhoto(ctx context.Context, sessionID, externalID string) (Result, error)

	// ReplacePhotos переупорядочивает фото; фото, не указанные в photoIDs, удаляются
	ReplacePhotos(ctx context.Context, sessionID string, photoIDs []string) (Result, error)

	RenamePhoto(ctx context.Context, sessionID, photoID, name string) (Result, error)
	RemovePhoto(ctx context.Context, sessionID, photoID string) (Result, error)
	AssignSize(ctx context.Context, sessionID, photoID, sizeID string) (Result, error)

	// RequestPayment открывает подтверждение заказа для непустого черновика
	RequestPayment(ctx context.Context, sessionID string) (Result, error)
	ConfirmOrder(ctx context.Context, sessionID string) (Result, error)
	CancelOrder(ctx context.Context, sessionID string) (Result, error)

	OpenPreview(ctx context.Context, sessionID, photoID string) (Result, error)
	ClosePreview(ctx context.Context, sessionID string) (Result, error)

	// OpenPhotoContent открывает содержимое фото для отрисовки
	OpenPhotoContent(ctx context.Context, sessionID, photoID string) (PhotoContent, error)

	// Shutdown очищает все сессии
	Shutdown(ctx context.Context)
}
