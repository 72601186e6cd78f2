package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/GoArmGo/PhotoPrint/internal/domain"
	"github.com/GoArmGo/PhotoPrint/internal/usecase"
	"github.com/go-chi/chi/v5"
)

const (
	// maxJSONBody ограничивает тело JSON-запросов
	maxJSONBody = 1 << 20
	// часть multipart-формы сверх multipartMemory уходит во временные файлы
	multipartMemory = 8 << 20
)

// placeholderSVG отдаётся, когда байты фото прочитать не удалось.
const placeholderSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="300" height="200" viewBox="0 0 300 200">` +
	`<rect width="300" height="200" fill="#eeeeee"/>` +
	`<text x="150" y="105" font-family="sans-serif" font-size="16" fill="#999999" text-anchor="middle">Image unavailable</text>` +
	`</svg>`

// PrintHandler — обработчик HTTP-запросов витрины печати фото.
type PrintHandler struct {
	uc             usecase.SessionUseCase
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewPrintHandler создаёт новый экземпляр PrintHandler.
func NewPrintHandler(uc usecase.SessionUseCase, maxUploadBytes int64, logger *slog.Logger) *PrintHandler {
	return &PrintHandler{
		uc:             uc,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// RegisterRoutes вешает маршруты витрины на роутер.
func (h *PrintHandler) RegisterRoutes(r chi.Router) {
	r.Get("/catalog", h.GetCatalog)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.CreateSession)

		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Delete("/", h.DeleteSession)

			r.Post("/photos", h.UploadPhotos)
			r.Put("/photos", h.ReplacePhotos)
			r.Post("/photos/external", h.ImportExternalPhoto)
			r.Patch("/photos/{photoID}", h.RenamePhoto)
			r.Delete("/photos/{photoID}", h.RemovePhoto)
			r.Put("/photos/{photoID}/size", h.AssignSize)
			r.Get("/photos/{photoID}/content", h.GetPhotoContent)

			r.Get("/order", h.GetOrder)
			r.Post("/order/payment", h.RequestPayment)
			r.Post("/order/confirm", h.ConfirmOrder)
			r.Post("/order/cancel", h.CancelOrder)

			r.Post("/preview/{photoID}", h.OpenPreview)
			r.Delete("/preview", h.ClosePreview)
		})
	})
}

// respondWithJSON — отправляет JSON-ответ клиенту.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}, logger *slog.Logger) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		logger.Error("failed to marshal JSON response", "error", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err = w.Write(response); err != nil {
		logger.Error("failed to write HTTP response", "error", err)
	}
}

// respondWithError — отправляет JSON-ответ с ошибкой.
func respondWithError(w http.ResponseWriter, code int, message string, logger *slog.Logger) {
	respondWithJSON(w, code, map[string]string{"error": message}, logger)
}

// respondWithUseCaseError переводит ошибку бизнес-логики в HTTP-статус.
func (h *PrintHandler) respondWithUseCaseError(w http.ResponseWriter, r *http.Request, err error) {
	code, message := statusFor(err)
	if code >= http.StatusInternalServerError {
		h.logger.Error("request failed", "path", r.URL.Path, "error", err)
	} else {
		h.logger.Info("request rejected", "path", r.URL.Path, "status", code, "error", err)
	}
	respondWithError(w, code, message, h.logger)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, usecase.ErrSessionNotFound):
		return http.StatusNotFound, "Сессия не найдена"
	case errors.Is(err, usecase.ErrPhotoNotFound):
		return http.StatusNotFound, "Фото не найдено"
	case errors.Is(err, usecase.ErrUnknownSize):
		return http.StatusUnprocessableEntity, "Неизвестный формат печати"
	case errors.Is(err, usecase.ErrExternalDisabled):
		return http.StatusServiceUnavailable, "Импорт внешних фото не настроен"
	default:
		return http.StatusInternalServerError, "Внутренняя ошибка сервера"
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("некорректное тело запроса: %w", err)
	}
	return nil
}

// GetCatalog отдаёт фиксированный каталог форматов печати.
func (h *PrintHandler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	catalog := h.uc.Catalog()
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"currency": catalog.Currency(),
		"sizes":    catalog.Sizes(),
	}, h.logger)
}

// CreateSession — создаёт пустую сессию заказа.
func (h *PrintHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.uc.CreateSession(r.Context())
	if err != nil {
		h.respondWithUseCaseError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, view, h.logger)
}

func (h *PrintHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.uc.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondWithUseCaseError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, view, h.logger)
}

// DeleteSession — сбрасывает сессию и освобождает все её ресурсы.
func (h *PrintHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.uc.DeleteSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		h.respondWithUseCaseError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadPhotos — принимает multipart-форму с полями files и source (picker|drop).
func (h *PrintHandler) UploadPhotos(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondWithError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("Размер загрузки превышает %d байт", h.maxUploadBytes), h.logger)
			return
		}
		h.logger.Warn("invalid multipart form", "session_id", sessionID, "error", err)
		respondWithError(w, http.StatusBadRequest, "Ожидается multipart/form-data с полем files", h.logger)
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			h.logger.Warn("failed to remove multipart temp files", "error", err)
		}
	}()

	source := usecase.UploadSource(strings.ToLower(r.FormValue("source")))
	switch source {
	case "":
		source = usecase.SourcePicker
	case usecase.SourcePicker, usecase.SourceDrop:
	default:
		respondWithError(w, http.StatusBadRequest, "Параметр source должен быть picker или drop", h.logger)
		return
	}

	candidates, err := readCandidates(r.MultipartForm.File["files"])
	if err != nil {
		h.logger.Error("failed to read uploaded files", "session_id", sessionID, "error", err)
		respondWithError(w, http.StatusBadRequest, "Не удалось прочитать загруженные файлы", h.logger)
		return
	}

	h.logger.Info("processing upload", "session_id", sessionID, "files", len(candidates), "source", source)

	res, err := h.uc.UploadPhotos(r.Context(), sessionID, candidates, source)
	if err != nil {
		h.respondWithUseCaseError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, res, h.logger)
}

// readCandidates читает файлы формы целиком. Тип содержимого берётся из заголовка части,
// а если его нет, определяется по первым байтам.
func readCandidates(files []*multipart.FileHeader) ([]domain.Candidate, error) {
	candidates := make([]domain.Candidate, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("открытие %q: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("чтение %q: %w", fh.Filename, err)
		}

		contentType := fh.Header.Get("Content-Type")
		if contentType == "" || contentType == "application/octet-stream" {
			contentType = http.DetectContentType(data)
		}
		candidates = append(candidates, domain.Candidate{
			Name:        fh.Filename,
			Size:        int64(len(data)),
			ContentType: contentType,
			Content:     data,
		})
	}
	return candidates, nil
}

type importExternalRequest struct {
	UnsplashID string `json:"unsplash_id"`
}

// ImportExternalPhoto — добавляет в сессию фото из Unsplash.
func (h *PrintHandler) ImportExternalPhoto(w http.ResponseWriter, r *http.Request) {
	var req importExternalRequest
	if err := decodeJSON(w, r, &req); err != nil || strings.TrimSpace(req.UnsplashID) == "" {
		h.logger.Warn("missing required parameter", "param", "unsplash_id")
		respondWithError(w, http.StatusBadRequest, "Не указан unsplash_id", h.logger)
		return
	}

	res, err := h.uc.ImportExternalPhoto(r.Context(), chi.URLParam(r, "sessionID"), req.UnsplashID)
	if err != nil {
		h.respondWithUseCaseError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, res, h.logger)
}

type replacePhotosRequest struct {
	PhotoIDs *[]string `json:"photo_ids"`
}

// ReplacePhotos — задаёт порядок фото; фото, не указанные в photo_ids, удаляются.
func (h *PrintHandler) ReplacePhotos(w http.ResponseWriter, r *http.Request) {
	var req replacePhotosRequest
	if err := decodeJSON(w, r, &req); err != nil || req.PhotoIDs == nil {
		respondWithError(w, http.StatusBadRequest, "Не указан photo_ids", h.logger)
		return
	}
	res, err := h.uc.ReplacePhotos(r.Context(), chi.URLParam(r, "sessionID"), *req.PhotoIDs)
	if err != nil {
		h.respondWithUseCaseError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, res, h.logger)
}

type renameRequest struct {
	Name string `json:"name"`
}

func (h *PrintHandler) RenamePhoto(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Некорректное тело запроса", h.logger)
		return
	}
	res, err := h.uc.RenamePhoto(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "photoID"), req.Name)
	if err != nil {
		h.respondWithUseCaseError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, res, h.logger)
}

func (h *PrintHandler) RemovePhoto(w http.ResponseWriter, r *http.Request) {
	res, err := h.uc.RemovePhoto(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "photoID"))
	if err != nil {
		h.respondWithUseCaseError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, res, h.logger)
}

type assignSizeRequest struct {
	SizeID string `json:"size_id"`
}

func (h *PrintHandler) AssignSize(w http.ResponseWriter, r *http.Request) {
	var req assignSizeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Некорректное тело запроса", h.logger)
		return
	}
	res, err := h.uc.AssignSize(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "photoID"), req.SizeID)
	if err != nil {
		h.respondWithUseCaseError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, res, h.logger)
}

// GetPhotoContent отдаёт байты локального фото или редирект на внешний URL.
// Если содержимое недоступно, отдаётся заглушка.
func (h *PrintHandler) GetPhotoContent(w http.ResponseWriter, r *http.Request) {
	sessionID, photoID := chi.URLParam(r, "sessionID"), chi.URLParam(r, "photoID")

	content, err := h.uc.OpenPhotoContent(r.Context(), sessionID, photoID)
	switch {
	case errors.Is(err, usecase.ErrSessionNotFound), errors.Is(err, usecase.ErrPhotoNotFound):
		h.respondWithUseCaseError(w, r, err)
		return
	case err != nil:
		h.logger.Error("failed to open photo content", "session_id", sessionID, "photo_id", photoID, "error", err)
		writePlaceholder(w)
		return
	}

	if content.Body == nil {
		http.Redirect(w, r, content.Photo.DisplayURL, http.StatusFound)
		return
	}
	defer content.Body.Close()

	contentType := content.Photo.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-store")
	if _, err := io.Copy(w, content.Body); err != nil {
		h.logger.Error("failed to stream photo content", "session_id", sessionID, "photo_id", photoID, "error", err)
	}
}

func writePlaceholder(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, placeholderSVG)
}

type orderView struct {
	Draft        domain.OrderDraft             `json:"draft"`
	Currency     string                        `json:"currency"`
	OrderState   string                        `json:"order_state"`
	Confirmation *usecase.ConfirmationSnapshot `json:"confirmation,omitempty"`
}

// GetOrder отдаёт текущий черновик заказа и состояние оформления.
func (h *PrintHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	view, err := h.uc.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondWithUseCaseError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, orderView{
		Draft:        view.Draft,
		Currency:     view.Currency,
		OrderState:   view.OrderState,
		Confirmation: view.Confirmation,
	}, h.logger)
}

func (h *PrintHandler) RequestPayment(w http.ResponseWriter, r *http.Request) {
	h.sessionAction(w, r, h.uc.RequestPayment)
}

func (h *PrintHandler) ConfirmOrder(w http.ResponseWriter, r *http.Request) {
	h.sessionAction(w, r, h.uc.ConfirmOrder)
}

func (h *PrintHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	h.sessionAction(w, r, h.uc.CancelOrder)
}

func (h *PrintHandler) ClosePreview(w http.ResponseWriter, r *http.Request) {
	h.sessionAction(w, r, h.uc.ClosePreview)
}

func (h *PrintHandler) OpenPreview(w http.ResponseWriter, r *http.Request) {
	res, err := h.uc.OpenPreview(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "photoID"))
	if err != nil {
		h.respondWithUseCaseError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, res, h.logger)
}

// sessionAction выполняет действие без параметров, кроме ID сессии.
func (h *PrintHandler) sessionAction(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, sessionID string) (usecase.Result, error)) {
	res, err := action(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondWithUseCaseError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, res, h.logger)
}
