package chunk

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/sir_venger/upload_lite/internal/models"
)

const defaultFileMode os.FileMode = 0o644

// Option настраивает FileAppendingHandlerFactory.
type Option func(*FileAppendingHandlerFactory)

// WithExistingPolicy задаёт поведение для уже существующего файла назначения.
func WithExistingPolicy(p ExistingPolicy) Option {
	return func(f *FileAppendingHandlerFactory) {
		f.policy = p
	}
}

// WithOrderCheck включает проверку порядка чанков по индексу.
func WithOrderCheck(enabled bool) Option {
	return func(f *FileAppendingHandlerFactory) {
		f.orderCheck = enabled
	}
}

// WithFileMode задаёт права создаваемых файлов.
func WithFileMode(mode os.FileMode) Option {
	return func(f *FileAppendingHandlerFactory) {
		f.mode = mode
	}
}

// FileAppendingHandlerFactory создаёт обработчики, дописывающие чанки в файлы
// внутри uploadPath.
type FileAppendingHandlerFactory struct {
	fs         billy.Filesystem
	uploadPath string
	policy     ExistingPolicy
	orderCheck bool
	mode       os.FileMode
}

// NewFileAppendingHandlerFactory конструктор. Путь не проверяется: отсутствующий
// или недоступный каталог обнаружится при первой записи.
func NewFileAppendingHandlerFactory(fs billy.Filesystem, uploadPath string, opts ...Option) *FileAppendingHandlerFactory {
	f := &FileAppendingHandlerFactory{
		fs:         fs,
		uploadPath: uploadPath,
		mode:       defaultFileMode,
	}
	for _, opt := range opts {
		opt(f)
	}

	return f
}

var _ HandlerFactory = (*FileAppendingHandlerFactory)(nil)

// UploadPath возвращает каталог загрузок.
func (f *FileAppendingHandlerFactory) UploadPath() string {
	return f.uploadPath
}

// DestinationPath возвращает путь файла назначения для идентификатора.
func (f *FileAppendingHandlerFactory) DestinationPath(fileID string) string {
	return f.fs.Join(f.uploadPath, DestinationName(fileID))
}

// Create привязывает новый обработчик к файлу. Ожидаемый индекс берётся из
// NextChunk, чтобы обработчик, пересозданный посреди загрузки, продолжил с того же места.
func (f *FileAppendingHandlerFactory) Create(file models.UploadFile) Handler {
	return &FileAppendingHandler{
		fs:         f.fs,
		dir:        f.uploadPath,
		path:       f.DestinationPath(file.ID),
		policy:     f.policy,
		orderCheck: f.orderCheck,
		mode:       f.mode,
		next:       file.NextChunk,
	}
}

// FileAppendingHandler дописывает чанки одного файла в порядке поступления.
type FileAppendingHandler struct {
	mu         sync.Mutex
	fs         billy.Filesystem
	dir        string
	path       string
	policy     ExistingPolicy
	orderCheck bool
	mode       os.FileMode
	next       int
}

var _ Handler = (*FileAppendingHandler)(nil)

// Path возвращает путь файла назначения.
func (h *FileAppendingHandler) Path() string {
	return h.path
}

// Append открывает файл на дозапись, пишет байты чанка и закрывает файл на любом пути выхода.
func (h *FileAppendingHandler) Append(ctx context.Context, c models.Chunk) (err error) {
	if err = ctx.Err(); err != nil {
		return err
	}
	if err = c.Validate(); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.orderCheck {
		switch {
		case c.Index < h.next:
			return fmt.Errorf("%w: got %d, expected %d", models.ErrDuplicateChunk, c.Index, h.next)
		case c.Index > h.next:
			return fmt.Errorf("%w: got %d, expected %d", models.ErrChunkOutOfOrder, c.Index, h.next)
		}
	}

	// Каталог не создаём: billy сам создаёт родителей при O_CREATE, а каталог
	// загрузок обязан существовать заранее.
	info, err := h.fs.Stat(h.dir)
	if err != nil {
		return &IOError{Op: "stat", Path: h.dir, Err: err}
	}
	if !info.IsDir() {
		return &IOError{Op: "stat", Path: h.dir, Err: fmt.Errorf("not a directory")}
	}

	flag := os.O_WRONLY | os.O_CREATE | os.O_APPEND
	if h.policy == TruncateOnFirstChunk && c.Index == 0 {
		flag = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}

	f, err := h.fs.OpenFile(h.path, flag, h.mode)
	if err != nil {
		return &IOError{Op: "open", Path: h.path, Err: err}
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = &IOError{Op: "close", Path: h.path, Err: closeErr}
		}
	}()

	if _, err = f.Write(c.Data); err != nil {
		return &IOError{Op: "write", Path: h.path, Err: err}
	}

	h.next = c.Index + 1

	return nil
}
