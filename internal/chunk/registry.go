package chunk

import (
	"sync"

	"github.com/sir_venger/upload_lite/internal/models"
)

// Registry держит по одному обработчику на каждый файл, который сейчас загружается.
type Registry struct {
	mu       sync.Mutex
	factory  HandlerFactory
	handlers map[string]Handler
}

// NewRegistry создаёт реестр поверх фабрики.
func NewRegistry(factory HandlerFactory) *Registry {
	return &Registry{
		factory:  factory,
		handlers: make(map[string]Handler),
	}
}

// Acquire возвращает обработчик файла, создавая его при первом чанке.
func (r *Registry) Acquire(file models.UploadFile) Handler {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := r.handlers[file.ID]; ok {
		return h
	}
	h := r.factory.Create(file)
	r.handlers[file.ID] = h

	return h
}

// Release забывает обработчик после завершения или отмены загрузки.
func (r *Registry) Release(fileID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handlers, fileID)
}

// Len возвращает число файлов в работе.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.handlers)
}
