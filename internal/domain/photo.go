package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrPhotoNotFound: фото нет ни в сессии, ни во внешнем источнике.
var ErrPhotoNotFound = errors.New("photo not found")

// HandlePrefix — префикс локального ресурсного дескриптора загруженного файла.
const HandlePrefix = "blob:"

// Photo представляет фотографию, загруженную в сессию заказа.
// Handle заполнен только для локально загруженных файлов,
// для внешних фото DisplayURL указывает на внешний хостинг.
type Photo struct {
	ID          string `json:"id"`
	Handle      string `json:"-"`
	DisplayURL  string `json:"display_url"`
	Name        string `json:"name"`
	SizeLabel   string `json:"size"`
	IsExternal  bool   `json:"is_external"`
	ContentType string `json:"content_type,omitempty"`
}

// OwnsHandle сообщает, владеет ли фото локальным дескриптором, который нужно освободить.
func (p Photo) OwnsHandle() bool {
	return !p.IsExternal && p.Handle != ""
}

// DuplicateKey возвращает ключ для поиска дубликатов: имя без учёта регистра + размер.
func (p Photo) DuplicateKey() string {
	return DuplicateKey(p.Name, p.SizeLabel)
}

// DuplicateKey собирает ключ дубликата из имени и отформатированного размера.
func DuplicateKey(name, sizeLabel string) string {
	return strings.ToLower(name) + "-" + sizeLabel
}

// FormatSize переводит байты в мегабайты с двумя знаками после запятой, например "2.34 MB".
// Формат должен совпадать с SizeLabel уже загруженных фото, иначе дубликаты не найдутся.
func FormatSize(bytes int64) string {
	return fmt.Sprintf("%.2f MB", float64(bytes)/1024/1024)
}

// NewPhotoID генерирует новый непрозрачный идентификатор фото.
func NewPhotoID() string {
	return uuid.NewString()
}

// NewHandle генерирует новый локальный дескриптор ресурса.
func NewHandle() string {
	return HandlePrefix + uuid.NewString()
}
