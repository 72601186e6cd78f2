package store

import (
	"context"
	"log/slog"
	"strings"

	"github.com/GoArmGo/PhotoPrint/internal/core/ports"
	"github.com/GoArmGo/PhotoPrint/internal/domain"
)

// PhotoStore — коллекция фото одной сессии в порядке добавления.
// Единственный владелец локальных дескрипторов: только его методы их освобождают.
type PhotoStore struct {
	photos   []domain.Photo
	retired  map[string]struct{}
	releaser ports.HandleReleaser
	logger   *slog.Logger
}

// NewPhotoStore создаёт пустое хранилище.
func NewPhotoStore(releaser ports.HandleReleaser, logger *slog.Logger) *PhotoStore {
	return &PhotoStore{
		retired:  make(map[string]struct{}),
		releaser: releaser,
		logger:   logger,
	}
}

// Photos возвращает копию живого набора.
func (s *PhotoStore) Photos() []domain.Photo {
	cp := make([]domain.Photo, len(s.photos))
	copy(cp, s.photos)
	return cp
}

func (s *PhotoStore) Len() int {
	return len(s.photos)
}

// IDs возвращает множество ID живых фото.
func (s *PhotoStore) IDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(s.photos))
	for _, p := range s.photos {
		ids[p.ID] = struct{}{}
	}
	return ids
}

func (s *PhotoStore) Get(id string) (domain.Photo, bool) {
	if i := s.indexOf(id); i >= 0 {
		return s.photos[i], true
	}
	return domain.Photo{}, false
}

// Append добавляет фото в конец. Фото с уже живым или ранее удалённым ID пропускаются.
// Возвращает число принятых фото.
func (s *PhotoStore) Append(photos ...domain.Photo) int {
	live := s.IDs()
	added := 0
	for _, p := range photos {
		if !s.admissible(p, live) {
			continue
		}
		live[p.ID] = struct{}{}
		s.photos = append(s.photos, p)
		added++
	}
	return added
}

// ReplaceAll устанавливает новый живой набор. Дескрипторы фото, не попавших
// в новый набор, освобождаются, а их ID больше никогда не принимаются.
func (s *PhotoStore) ReplaceAll(ctx context.Context, photos []domain.Photo) {
	next := make([]domain.Photo, 0, len(photos))
	nextIDs := make(map[string]struct{}, len(photos))
	keptHandles := make(map[string]struct{}, len(photos))
	for _, p := range photos {
		if !s.admissible(p, nextIDs) {
			continue
		}
		nextIDs[p.ID] = struct{}{}
		if p.OwnsHandle() {
			keptHandles[p.Handle] = struct{}{}
		}
		next = append(next, p)
	}

	prev := s.photos
	s.photos = next

	for _, p := range prev {
		if _, ok := nextIDs[p.ID]; !ok {
			s.retired[p.ID] = struct{}{}
		}
		if !p.OwnsHandle() {
			continue
		}
		if _, ok := keptHandles[p.Handle]; ok {
			continue
		}
		s.release(ctx, p)
	}
}

// Remove удаляет фото и освобождает его дескриптор.
// Для неизвестного ID ничего не делает и возвращает false.
func (s *PhotoStore) Remove(ctx context.Context, id string) bool {
	i := s.indexOf(id)
	if i < 0 {
		s.logger.Debug("remove skipped, photo not found", "photo_id", id)
		return false
	}
	p := s.photos[i]
	s.photos = append(s.photos[:i:i], s.photos[i+1:]...)
	s.retired[p.ID] = struct{}{}
	if p.OwnsHandle() {
		s.release(ctx, p)
	}
	return true
}

// Rename задаёт новое имя. Пустое после обрезки пробелов имя молча отбрасывается.
func (s *PhotoStore) Rename(id, name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	i := s.indexOf(id)
	if i < 0 {
		s.logger.Debug("rename skipped, photo not found", "photo_id", id)
		return false
	}
	s.photos[i].Name = name
	return true
}

// Clear удаляет все фото, освобождая каждый дескриптор ровно один раз.
func (s *PhotoStore) Clear(ctx context.Context) {
	prev := s.photos
	s.photos = nil
	for _, p := range prev {
		s.retired[p.ID] = struct{}{}
		if p.OwnsHandle() {
			s.release(ctx, p)
		}
	}
}

func (s *PhotoStore) admissible(p domain.Photo, seen map[string]struct{}) bool {
	if p.ID == "" {
		return false
	}
	if _, ok := s.retired[p.ID]; ok {
		s.logger.Warn("photo id was retired, skipping", "photo_id", p.ID)
		return false
	}
	if _, ok := seen[p.ID]; ok {
		return false
	}
	return true
}

func (s *PhotoStore) indexOf(id string) int {
	for i, p := range s.photos {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// release освобождает дескриптор по принципу best-effort: ошибка только логируется.
func (s *PhotoStore) release(ctx context.Context, p domain.Photo) {
	if s.releaser == nil {
		return
	}
	if err := s.releaser.Release(ctx, p.Handle); err != nil {
		s.logger.Error("failed to release photo handle",
			"photo_id", p.ID,
			"handle", p.Handle,
			"error", err,
		)
		return
	}
	s.logger.Debug("photo handle released", "photo_id", p.ID, "handle", p.Handle)
}
