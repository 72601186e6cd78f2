package domain

import "strings"

// Candidate — файл, пришедший из выбора файлов или drag-and-drop, ещё не принятый в сессию.
type Candidate struct {
	Name        string
	Size        int64
	ContentType string
	Content     []byte
}

// IsImage проверяет MIME-тип кандидата.
func (c Candidate) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(c.ContentType), "image/")
}

// DuplicateKey возвращает ключ дубликата в том же формате, что и у Photo.
func (c Candidate) DuplicateKey() string {
	return DuplicateKey(c.Name, FormatSize(c.Size))
}
