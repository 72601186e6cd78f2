package usecase

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/GoArmGo/PhotoPrint/internal/core/ports"
	"github.com/GoArmGo/PhotoPrint/internal/domain"
	"github.com/GoArmGo/PhotoPrint/internal/metrics"
	"github.com/GoArmGo/PhotoPrint/internal/store"
)

const (
	msgPhotoRemoved = "Photo removed"
	msgUploadFailed = "Upload failed, please try again"
)

// Session — состояние одной сессии заказа: фото, выбранные форматы, оформление и просмотр.
// Не потокобезопасен: вызовы сериализует sessionUseCase.
type Session struct {
	ID string

	photos     *store.PhotoStore
	selections *store.Selections
	flow       *OrderFlow
	viewer     Viewer

	catalog   domain.Catalog
	blobs     ports.BlobStore
	maxPhotos int
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// SessionDeps содержит общие зависимости всех сессий.
type SessionDeps struct {
	Catalog   domain.Catalog
	Blobs     ports.BlobStore
	MaxPhotos int
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// NewSession создаёт пустую сессию.
func NewSession(id string, deps SessionDeps) *Session {
	logger := deps.Logger.With("session_id", id)
	return &Session{
		ID:         id,
		photos:     store.NewPhotoStore(deps.Blobs, logger),
		selections: store.NewSelections(),
		flow:       NewOrderFlow(deps.Catalog.Currency()),
		catalog:    deps.Catalog,
		blobs:      deps.Blobs,
		maxPhotos:  deps.MaxPhotos,
		metrics:    deps.Metrics,
		logger:     logger,
	}
}

// Upload принимает пачку файлов. Пачка из drag-and-drop сначала фильтруется по image/*.
// Возвращает число добавленных фото.
func (s *Session) Upload(ctx context.Context, candidates []domain.Candidate, source UploadSource, n ports.Notifier) (int, error) {
	if source == SourceDrop {
		candidates = FilterImages(candidates)
	}

	res := Ingest(candidates, s.photos.Photos(), s.maxPhotos, domain.NewHandle)

	if res.Duplicates > 0 {
		s.metrics.DuplicatesSkipped(res.Duplicates)
		n.Notify(ctx, domain.Notice{
			Topic:   domain.TopicUpload,
			Kind:    domain.NoticeError,
			Message: fmt.Sprintf("%s skipped", pluralDuplicates(res.Duplicates)),
		})
	}

	if res.OverLimit {
		s.metrics.UploadRejected()
		s.logger.Info("upload batch rejected, photo limit exceeded",
			"candidates", len(candidates),
			"current", s.photos.Len(),
			"max", s.maxPhotos,
		)
		n.Notify(ctx, domain.Notice{
			Topic:   domain.TopicUpload,
			Kind:    domain.NoticeError,
			Message: fmt.Sprintf("You can only upload up to %d photos", s.maxPhotos),
		})
		return 0, nil
	}

	if err := s.stage(ctx, res); err != nil {
		n.Notify(ctx, domain.Notice{
			Topic:   domain.TopicUpload,
			Kind:    domain.NoticeError,
			Message: msgUploadFailed,
		})
		return 0, err
	}

	added := s.photos.Append(res.Accepted...)
	s.syncMembership()
	s.metrics.PhotosAccepted(added)

	if added > 0 {
		s.logger.Info("photos added", "count", added, "total", s.photos.Len())
		n.Notify(ctx, domain.Notice{
			Topic:   domain.TopicUpload,
			Kind:    domain.NoticeSuccess,
			Message: "Added " + domain.Plural(added, "photo"),
		})
	}
	return added, nil
}

// stage записывает байты принятых фото в хранилище. При ошибке уже записанные
// дескрипторы этой пачки освобождаются, и пачка отклоняется целиком.
func (s *Session) stage(ctx context.Context, res IngestResult) error {
	for i, p := range res.Accepted {
		c := res.Sources[i]
		if err := s.blobs.Put(ctx, p.Handle, bytes.NewReader(c.Content), c.Size, c.ContentType); err != nil {
			s.logger.Error("failed to stage photo", "name", c.Name, "error", err)
			// дескрипторы пачки ещё не переданы PhotoStore, поэтому освобождаются здесь
			for _, staged := range res.Accepted[:i] {
				if relErr := s.blobs.Release(ctx, staged.Handle); relErr != nil {
					s.logger.Error("failed to release staged handle", "handle", staged.Handle, "error", relErr)
				}
			}
			return fmt.Errorf("сохранение фото %q: %w", c.Name, err)
		}
	}
	return nil
}

// AddExternal добавляет фото с внешнего хостинга. Подчиняется тому же лимиту;
// повторное добавление того же внешнего URL считается дубликатом.
func (s *Session) AddExternal(ctx context.Context, p domain.Photo, n ports.Notifier) bool {
	for _, existing := range s.photos.Photos() {
		if existing.IsExternal && existing.DisplayURL == p.DisplayURL {
			s.metrics.DuplicatesSkipped(1)
			n.Notify(ctx, domain.Notice{
				Topic:   domain.TopicUpload,
				Kind:    domain.NoticeError,
				Message: fmt.Sprintf("%s skipped", pluralDuplicates(1)),
			})
			return false
		}
	}
	if s.photos.Len()+1 > s.maxPhotos {
		s.metrics.UploadRejected()
		n.Notify(ctx, domain.Notice{
			Topic:   domain.TopicUpload,
			Kind:    domain.NoticeError,
			Message: fmt.Sprintf("You can only upload up to %d photos", s.maxPhotos),
		})
		return false
	}

	p.IsExternal = true
	p.Handle = ""
	if s.photos.Append(p) == 0 {
		return false
	}
	s.syncMembership()
	s.metrics.PhotosAccepted(1)
	n.Notify(ctx, domain.Notice{
		Topic:   domain.TopicUpload,
		Kind:    domain.NoticeSuccess,
		Message: "Added " + domain.Plural(1, "photo"),
	})
	return true
}

// Remove удаляет фото; для неизвестного ID ничего не делает.
func (s *Session) Remove(ctx context.Context, photoID string, n ports.Notifier) bool {
	if !s.photos.Remove(ctx, photoID) {
		return false
	}
	s.syncMembership()
	s.metrics.PhotoRemoved()
	n.Notify(ctx, domain.Notice{
		Topic:   domain.TopicRemove,
		Kind:    domain.NoticeSuccess,
		Message: msgPhotoRemoved,
	})
	return true
}

// ReplacePhotos задаёт новый живой набор по списку ID в нужном порядке.
// Неизвестные и повторные ID пропускаются, фото вне списка удаляются.
func (s *Session) ReplacePhotos(ctx context.Context, photoIDs []string, n ports.Notifier) bool {
	current := s.photos.Photos()
	byID := make(map[string]domain.Photo, len(current))
	for _, p := range current {
		byID[p.ID] = p
	}

	next := make([]domain.Photo, 0, len(photoIDs))
	for _, id := range photoIDs {
		p, ok := byID[id]
		if !ok {
			continue
		}
		delete(byID, id)
		next = append(next, p)
	}

	if sameOrder(current, next) {
		return false
	}

	removed := len(current) - len(next)
	s.photos.ReplaceAll(ctx, next)
	s.syncMembership()

	if removed > 0 {
		for i := 0; i < removed; i++ {
			s.metrics.PhotoRemoved()
		}
		msg := msgPhotoRemoved
		if removed > 1 {
			msg = fmt.Sprintf("%d photos removed", removed)
		}
		n.Notify(ctx, domain.Notice{
			Topic:   domain.TopicRemove,
			Kind:    domain.NoticeSuccess,
			Message: msg,
		})
	}
	s.logger.Info("photos replaced", "count", len(next), "removed", removed)
	return true
}

func sameOrder(a, b []domain.Photo) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}

// Rename переименовывает фото; пустое имя и неизвестный ID молча игнорируются.
func (s *Session) Rename(photoID, name string) bool {
	if !s.photos.Rename(photoID, name) {
		return false
	}
	if cur, ok := s.viewer.Current(); ok && cur.ID == photoID {
		if p, ok := s.photos.Get(photoID); ok {
			s.viewer.Open(p)
		}
	}
	return true
}

// AssignSize выбирает формат печати для фото.
// Неизвестный формат возвращает ErrUnknownSize, неизвестное фото молча пропускается.
func (s *Session) AssignSize(photoID, sizeID string) (bool, error) {
	size, ok := s.catalog.Lookup(sizeID)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownSize, sizeID)
	}
	if _, ok := s.photos.Get(photoID); !ok {
		s.logger.Debug("size assignment skipped, photo not found", "photo_id", photoID)
		return false, nil
	}
	s.selections.Assign(photoID, size)
	s.refreshOrder()
	return true, nil
}

// Draft пересчитывает черновик заказа.
func (s *Session) Draft() domain.OrderDraft {
	return domain.ComputeDraft(s.photos.Photos(), s.selections.Snapshot())
}

func (s *Session) RequestPayment(ctx context.Context, n ports.Notifier) bool {
	return s.flow.RequestPayment(ctx, s.Draft(), n)
}

func (s *Session) CancelOrder() bool {
	return s.flow.Cancel()
}

// ConfirmOrder подтверждает заказ и полностью сбрасывает сессию.
// Снимок пересчитывается по текущему черновику; пустой черновик подтвердить нельзя.
func (s *Session) ConfirmOrder(ctx context.Context, n ports.Notifier) bool {
	if s.flow.State() != OrderAwaitingConfirmation {
		return false
	}
	if s.flow.Refresh(s.Draft()) {
		n.Notify(ctx, domain.Notice{
			Topic:   domain.TopicPayment,
			Kind:    domain.NoticeError,
			Message: msgSelectSize,
		})
		return false
	}
	snap, ok := s.flow.Confirm(ctx, n)
	if !ok {
		return false
	}
	s.metrics.OrderConfirmed(snap.Total)
	s.logger.Info("order confirmed",
		"photo_count", snap.PhotoCount,
		"total", snap.Total.StringFixed(2),
		"currency", snap.Currency,
	)
	s.Reset(ctx)
	return true
}

// OpenPreview открывает фото в окне просмотра.
func (s *Session) OpenPreview(photoID string) bool {
	p, ok := s.photos.Get(photoID)
	if !ok {
		return false
	}
	s.viewer.Open(p)
	return true
}

func (s *Session) ClosePreview() bool {
	_, open := s.viewer.Current()
	s.viewer.Close()
	return open
}

// Reset очищает сессию, освобождая все локальные дескрипторы.
func (s *Session) Reset(ctx context.Context) {
	s.photos.Clear(ctx)
	s.selections.Clear()
	s.flow.Cancel()
	s.viewer.Close()
}

// Photo возвращает живое фото по ID.
func (s *Session) Photo(photoID string) (domain.Photo, bool) {
	return s.photos.Get(photoID)
}

// syncMembership вызывается синхронно после любого изменения состава фото:
// выбор форматов не должен ссылаться на удалённые фото.
func (s *Session) syncMembership() {
	live := s.photos.IDs()
	if pruned := s.selections.Prune(live); pruned > 0 {
		s.logger.Debug("selections pruned", "count", pruned)
	}
	if cur, ok := s.viewer.Current(); ok {
		if _, alive := live[cur.ID]; !alive {
			s.viewer.Close()
		}
	}
	s.refreshOrder()
}

// refreshOrder держит открытое подтверждение в соответствии с черновиком.
func (s *Session) refreshOrder() {
	if s.flow.Refresh(s.Draft()) {
		s.logger.Info("order confirmation closed, draft became empty")
	}
}

// View собирает снимок состояния для ответа клиенту.
func (s *Session) View() SessionView {
	selections := make(map[string]string, s.selections.Len())
	for id, size := range s.selections.Snapshot() {
		selections[id] = size.ID
	}
	v := SessionView{
		ID:         s.ID,
		Photos:     s.photos.Photos(),
		MaxPhotos:  s.maxPhotos,
		Selections: selections,
		Draft:      s.Draft(),
		Currency:   s.catalog.Currency(),
		OrderState: s.flow.State().String(),
	}
	if snap, ok := s.flow.Confirmation(); ok {
		v.Confirmation = &snap
	}
	if p, ok := s.viewer.Current(); ok {
		v.Preview = &p
	}
	return v
}

func pluralDuplicates(n int) string {
	if n == 1 {
		return "1 duplicate photo"
	}
	return fmt.Sprintf("%d duplicate photos", n)
}
