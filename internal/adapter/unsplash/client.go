// internal/adapter/unsplash/client.go
package unsplash

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/GoArmGo/PhotoPrint/internal/domain"
)

const (
	defaultBaseURL = "https://api.unsplash.com" // Базовый URL для Unsplash API
)

// ErrNotFound возвращается, когда Unsplash не знает фото с таким ID.
var ErrNotFound = fmt.Errorf("unsplash: %w", domain.ErrPhotoNotFound)

// UnsplashAPIClient представляет клиент для взаимодействия с Unsplash API.
type UnsplashAPIClient struct {
	httpClient *http.Client
	accessKey  string
	baseURL    string
	logger     *slog.Logger
}

// Option настраивает клиент.
type Option func(*UnsplashAPIClient)

// WithBaseURL подменяет адрес API.
func WithBaseURL(baseURL string) Option {
	return func(c *UnsplashAPIClient) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient подменяет HTTP-клиент.
func WithHTTPClient(client *http.Client) Option {
	return func(c *UnsplashAPIClient) {
		c.httpClient = client
	}
}

// NewUnsplashAPIClient создает новый экземпляр UnsplashAPIClient.
func NewUnsplashAPIClient(accessKey string, logger *slog.Logger, opts ...Option) *UnsplashAPIClient {
	c := &UnsplashAPIClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		accessKey:  accessKey,
		baseURL:    defaultBaseURL,
		logger:     logger.With("component", "unsplash"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchPhotoByIDFromExternal получает фото по ID в Unsplash и переводит его во внешнее фото сессии.
func (c *UnsplashAPIClient) FetchPhotoByIDFromExternal(ctx context.Context, id string) (*domain.Photo, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: пустой ID", ErrNotFound)
	}
	endpoint := fmt.Sprintf("%s/photos/%s", c.baseURL, url.PathEscape(id))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания HTTP-запроса: %w", err)
	}
	req.Header.Set("Authorization", "Client-ID "+c.accessKey)
	req.Header.Set("Accept-Version", "v1")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения HTTP-запроса к Unsplash: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("unsplash API вернул статус %d: %s", resp.StatusCode, readError(resp.Body))
	}

	var unsplashPhoto UnsplashPhotoResponse
	if err := json.NewDecoder(resp.Body).Decode(&unsplashPhoto); err != nil {
		return nil, fmt.Errorf("ошибка декодирования JSON ответа Unsplash: %w", err)
	}

	photo := mapUnsplashPhotoToDomain(&unsplashPhoto)
	if photo.DisplayURL == "" {
		return nil, fmt.Errorf("unsplash: у фото %s нет ссылки для отображения", id)
	}
	c.logger.Debug("external photo fetched", "unsplash_id", id, "author", unsplashPhoto.User.Name)
	return photo, nil
}

// mapUnsplashPhotoToDomain преобразует UnsplashPhotoResponse во внешнее фото с новым внутренним ID.
func mapUnsplashPhotoToDomain(unsplashPhoto *UnsplashPhotoResponse) *domain.Photo {
	name := strings.TrimSpace(unsplashPhoto.Description)
	if name == "" {
		name = strings.TrimSpace(unsplashPhoto.AltDescription)
	}
	if name == "" {
		name = "unsplash-" + unsplashPhoto.ID
	}

	displayURL := unsplashPhoto.URLs.Regular
	if displayURL == "" {
		displayURL = unsplashPhoto.URLs.Full
	}

	return &domain.Photo{
		ID:         domain.NewPhotoID(),
		DisplayURL: displayURL,
		Name:       name,
		IsExternal: true,
	}
}

func readError(body io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(body, 4096))
	var parsed UnsplashErrorResponse
	if err := json.Unmarshal(raw, &parsed); err == nil && len(parsed.Errors) > 0 {
		return strings.Join(parsed.Errors, "; ")
	}
	return string(raw)
}
