package meta

import (
	"context"
	"sort"
	"sync"

	"github.com/sir_venger/upload_lite/internal/models"
)

// MemoryStore хранит метаданные только в оперативной памяти; удобно для тестов.
type MemoryStore struct {
	mu    sync.RWMutex
	files map[string]models.UploadFile
}

// NewMemoryStore создаёт пустое in-memory хранилище.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{files: map[string]models.UploadFile{}}
}

// Get возвращает метаданные файла по id или ошибку, если файл не найден.
func (s *MemoryStore) Get(_ context.Context, id string) (models.UploadFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.files[id]
	if !ok {
		return models.UploadFile{}, models.ErrNotFound
	}
	return f, nil
}

// Save записывает (или обновляет) метаданные файла целиком.
func (s *MemoryStore) Save(_ context.Context, f models.UploadFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[f.ID] = f
	return nil
}

// List возвращает все файлы в порядке добавления в очередь.
func (s *MemoryStore) List(_ context.Context) ([]models.UploadFile, error) {
	s.mu.RLock()
	out := make([]models.UploadFile, 0, len(s.files))
	for _, f := range s.files {
		out = append(out, f)
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Delete удаляет метаданные файла.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[id]; !ok {
		return models.ErrNotFound
	}
	delete(s.files, id)
	return nil
}
