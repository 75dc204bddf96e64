// Package chunk отвечает за физическую запись чанков на диск: фабрика создаёт по
// обработчику на каждый загружаемый файл, обработчик дописывает присланные байты
// в файл назначения внутри каталога загрузок.
package chunk

import (
	"context"

	"github.com/sir_venger/upload_lite/internal/models"
)

type (
	// Handler принимает последовательные чанки одного файла.
	Handler interface {
		// Append дописывает чанк в файл назначения.
		Append(ctx context.Context, c models.Chunk) error
		// Path возвращает путь файла назначения.
		Path() string
	}

	// HandlerFactory создаёт обработчик под конкретный файл.
	HandlerFactory interface {
		Create(file models.UploadFile) Handler
	}
)

// ExistingPolicy определяет, что делать с уже существующим файлом назначения.
type ExistingPolicy int

const (
	// AppendExisting дописывает в существующий файл, в том числе после завершённой загрузки.
	AppendExisting ExistingPolicy = iota
	// TruncateOnFirstChunk обнуляет файл при получении чанка с индексом 0.
	TruncateOnFirstChunk
)

// ParseExistingPolicy разбирает значение из конфигурации.
func ParseExistingPolicy(s string) (ExistingPolicy, bool) {
	switch s {
	case "", "append":
		return AppendExisting, true
	case "truncate":
		return TruncateOnFirstChunk, true
	default:
		return AppendExisting, false
	}
}

func (p ExistingPolicy) String() string {
	if p == TruncateOnFirstChunk {
		return "truncate"
	}

	return "append"
}
