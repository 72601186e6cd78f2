package ports

import (
	"context"
	"io"
)

// HandleReleaser освобождает локальный ресурсный дескриптор фото.
// Вызывать его имеет право только PhotoStore.
type HandleReleaser interface {
	Release(ctx context.Context, handle string) error
}

// BlobStore определяет методы для хранения байтов локально загруженных фото (память, MinIO/S3)
type BlobStore interface {
	HandleReleaser

	// Put сохраняет содержимое файла под дескриптором handle.
	Put(ctx context.Context, handle string, r io.Reader, size int64, contentType string) error

	// Open открывает содержимое по дескриптору для отрисовки.
	Open(ctx context.Context, handle string) (io.ReadCloser, error)
}
