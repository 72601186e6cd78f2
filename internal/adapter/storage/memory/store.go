package memory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// ErrHandleNotFound возвращается для неизвестного или уже освобождённого дескриптора.
var ErrHandleNotFound = errors.New("handle not found")

type blob struct {
	data        []byte
	contentType string
}

// Store хранит байты загруженных фото в памяти процесса.
type Store struct {
	mu     sync.RWMutex
	blobs  map[string]blob
	logger *slog.Logger
}

func NewStore(logger *slog.Logger) *Store {
	return &Store{blobs: make(map[string]blob), logger: logger}
}

// Put сохраняет содержимое под дескриптором. Повторный Put того же дескриптора возвращает ошибку.
func (s *Store) Put(_ context.Context, handle string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("memory: чтение содержимого %s: %w", handle, err)
	}
	if size >= 0 && int64(len(data)) != size {
		s.logger.Warn("blob size mismatch", "handle", handle, "declared", size, "actual", len(data))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.blobs[handle]; exists {
		return fmt.Errorf("memory: дескриптор %s уже занят", handle)
	}
	s.blobs[handle] = blob{data: data, contentType: contentType}
	return nil
}

// Open возвращает копию содержимого, чтобы последующее освобождение не влияло на чтение.
func (s *Store) Open(_ context.Context, handle string) (io.ReadCloser, error) {
	s.mu.RLock()
	b, ok := s.blobs[handle]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("memory: %w: %s", ErrHandleNotFound, handle)
	}
	cp := make([]byte, len(b.data))
	copy(cp, b.data)
	return io.NopCloser(bytes.NewReader(cp)), nil
}

// Release освобождает дескриптор. Повторное освобождение возвращает ErrHandleNotFound.
func (s *Store) Release(_ context.Context, handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[handle]; !ok {
		return fmt.Errorf("memory: %w: %s", ErrHandleNotFound, handle)
	}
	delete(s.blobs, handle)
	return nil
}

// Len возвращает число живых дескрипторов.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
