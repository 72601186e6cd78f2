package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/GoArmGo/PhotoPrint/internal/core/ports"
	"github.com/GoArmGo/PhotoPrint/internal/domain"
	"github.com/GoArmGo/PhotoPrint/internal/metrics"
	"github.com/GoArmGo/PhotoPrint/internal/notify"
	"github.com/google/uuid"
)

// sessionEntry хранит сессию со своим мьютексом, действия одной сессии выполняются строго по очереди.
type sessionEntry struct {
	mu      sync.Mutex
	session *Session
}

// sessionUseCase implements SessionUseCase
type sessionUseCase struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry

	deps     SessionDeps
	fetcher  PhotoFetcher
	notifier ports.Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewSessionUseCase создает новый экземпляр SessionUseCase.
// При fetcher == nil импорт внешних фото отключён.
func NewSessionUseCase(
	deps SessionDeps,
	fetcher PhotoFetcher,
	notifier ports.Notifier,
) SessionUseCase {
	if notifier == nil {
		notifier = notify.Multi()
	}
	return &sessionUseCase{
		sessions: make(map[string]*sessionEntry),
		deps:     deps,
		fetcher:  fetcher,
		notifier: notifier,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
	}
}

func (uc *sessionUseCase) Catalog() domain.Catalog {
	return uc.deps.Catalog
}

// CreateSession создаёт пустую сессию с новым ID
func (uc *sessionUseCase) CreateSession(_ context.Context) (SessionView, error) {
	id := uuid.NewString()
	entry := &sessionEntry{session: NewSession(id, uc.deps)}

	uc.mu.Lock()
	uc.sessions[id] = entry
	uc.mu.Unlock()

	uc.metrics.SessionOpened()
	uc.logger.Info("session created", "session_id", id)
	return entry.session.View(), nil
}

func (uc *sessionUseCase) GetSession(ctx context.Context, sessionID string) (SessionView, error) {
	res, err := uc.withSession(ctx, sessionID, func(s *Session, _ ports.Notifier) (bool, error) {
		return false, nil
	})
	return res.Session, err
}

// DeleteSession сбрасывает сессию (освобождая дескрипторы) и удаляет её из реестра
func (uc *sessionUseCase) DeleteSession(ctx context.Context, sessionID string) error {
	uc.mu.Lock()
	entry, ok := uc.sessions[sessionID]
	if ok {
		delete(uc.sessions, sessionID)
	}
	uc.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	entry.mu.Lock()
	entry.session.Reset(ctx)
	entry.mu.Unlock()

	uc.metrics.SessionClosed()
	uc.logger.Info("session deleted", "session_id", sessionID)
	return nil
}

func (uc *sessionUseCase) UploadPhotos(ctx context.Context, sessionID string, candidates []domain.Candidate, source UploadSource) (Result, error) {
	return uc.withSession(ctx, sessionID, func(s *Session, n ports.Notifier) (bool, error) {
		added, err := s.Upload(ctx, candidates, source, n)
		if err != nil {
			// пачка уже отклонена, пользователь получил уведомление об ошибке
			uc.logger.Error("upload batch failed", "session_id", sessionID, "error", err)
			return false, nil
		}
		return added > 0, nil
	})
}

// ImportExternalPhoto получает фото из внешнего источника и добавляет его в сессию.
// Запрос во внешний API выполняется без блокировки сессии.
func (uc *sessionUseCase) ImportExternalPhoto(ctx context.Context, sessionID, externalID string) (Result, error) {
	if uc.fetcher == nil {
		return Result{}, ErrExternalDisabled
	}
	if _, err := uc.lookup(sessionID); err != nil {
		return Result{}, err
	}

	photo, err := uc.fetcher.FetchPhotoByIDFromExternal(ctx, externalID)
	if err != nil {
		return Result{}, fmt.Errorf("usecase: ошибка при получении внешнего фото %s: %w", externalID, err)
	}
	if photo == nil {
		return Result{}, fmt.Errorf("%w: внешнее фото %s", ErrPhotoNotFound, externalID)
	}

	return uc.withSession(ctx, sessionID, func(s *Session, n ports.Notifier) (bool, error) {
		return s.AddExternal(ctx, *photo, n), nil
	})
}

func (uc *sessionUseCase) ReplacePhotos(ctx context.Context, sessionID string, photoIDs []string) (Result, error) {
	return uc.withSession(ctx, sessionID, func(s *Session, n ports.Notifier) (bool, error) {
		return s.ReplacePhotos(ctx, photoIDs, n), nil
	})
}

func (uc *sessionUseCase) RenamePhoto(ctx context.Context, sessionID, photoID, name string) (Result, error) {
	return uc.withSession(ctx, sessionID, func(s *Session, _ ports.Notifier) (bool, error) {
		return s.Rename(photoID, name), nil
	})
}

func (uc *sessionUseCase) RemovePhoto(ctx context.Context, sessionID, photoID string) (Result, error) {
	return uc.withSession(ctx, sessionID, func(s *Session, n ports.Notifier) (bool, error) {
		return s.Remove(ctx, photoID, n), nil
	})
}

func (uc *sessionUseCase) AssignSize(ctx context.Context, sessionID, photoID, sizeID string) (Result, error) {
	return uc.withSession(ctx, sessionID, func(s *Session, _ ports.Notifier) (bool, error) {
		return s.AssignSize(photoID, sizeID)
	})
}

func (uc *sessionUseCase) RequestPayment(ctx context.Context, sessionID string) (Result, error) {
	return uc.withSession(ctx, sessionID, func(s *Session, n ports.Notifier) (bool, error) {
		return s.RequestPayment(ctx, n), nil
	})
}

func (uc *sessionUseCase) ConfirmOrder(ctx context.Context, sessionID string) (Result, error) {
	return uc.withSession(ctx, sessionID, func(s *Session, n ports.Notifier) (bool, error) {
		return s.ConfirmOrder(ctx, n), nil
	})
}

func (uc *sessionUseCase) CancelOrder(ctx context.Context, sessionID string) (Result, error) {
	return uc.withSession(ctx, sessionID, func(s *Session, _ ports.Notifier) (bool, error) {
		return s.CancelOrder(), nil
	})
}

func (uc *sessionUseCase) OpenPreview(ctx context.Context, sessionID, photoID string) (Result, error) {
	return uc.withSession(ctx, sessionID, func(s *Session, _ ports.Notifier) (bool, error) {
		return s.OpenPreview(photoID), nil
	})
}

func (uc *sessionUseCase) ClosePreview(ctx context.Context, sessionID string) (Result, error) {
	return uc.withSession(ctx, sessionID, func(s *Session, _ ports.Notifier) (bool, error) {
		return s.ClosePreview(), nil
	})
}

// OpenPhotoContent открывает содержимое фото. Поток открывается под блокировкой сессии,
// чтобы дескриптор не был освобождён между поиском фото и открытием.
func (uc *sessionUseCase) OpenPhotoContent(ctx context.Context, sessionID, photoID string) (PhotoContent, error) {
	entry, err := uc.lookup(sessionID)
	if err != nil {
		return PhotoContent{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	photo, ok := entry.session.Photo(photoID)
	if !ok {
		return PhotoContent{}, fmt.Errorf("%w: %s", ErrPhotoNotFound, photoID)
	}
	if photo.IsExternal {
		return PhotoContent{Photo: photo}, nil
	}

	body, err := uc.deps.Blobs.Open(ctx, photo.Handle)
	if err != nil {
		return PhotoContent{Photo: photo}, fmt.Errorf("usecase: ошибка открытия содержимого фото %s: %w", photoID, err)
	}
	return PhotoContent{Photo: photo, Body: body}, nil
}

// Shutdown сбрасывает все сессии, освобождая дескрипторы.
func (uc *sessionUseCase) Shutdown(ctx context.Context) {
	uc.mu.Lock()
	entries := uc.sessions
	uc.sessions = make(map[string]*sessionEntry)
	uc.mu.Unlock()

	for id, entry := range entries {
		entry.mu.Lock()
		entry.session.Reset(ctx)
		entry.mu.Unlock()
		uc.metrics.SessionClosed()
		uc.logger.Debug("session released on shutdown", "session_id", id)
	}
	uc.logger.Info("all sessions released", "count", len(entries))
}

func (uc *sessionUseCase) lookup(sessionID string) (*sessionEntry, error) {
	uc.mu.RLock()
	entry, ok := uc.sessions[sessionID]
	uc.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return entry, nil
}

// withSession выполняет действие под блокировкой сессии и собирает уведомления,
// которые одновременно уходят в общий канал уведомлений.
func (uc *sessionUseCase) withSession(ctx context.Context, sessionID string, fn func(*Session, ports.Notifier) (bool, error)) (Result, error) {
	entry, err := uc.lookup(sessionID)
	if err != nil {
		return Result{}, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	rec := notify.NewRecorder()
	n := notify.WithSession(notify.Multi(rec, uc.notifier), sessionID)

	changed, err := fn(entry.session, n)
	return Result{
		Session: entry.session.View(),
		Notices: rec.Notices(),
		Changed: changed,
	}, err
}
