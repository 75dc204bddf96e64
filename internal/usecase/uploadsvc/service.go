package uploadsvc

import (
	"context"
	"sync"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/sirupsen/logrus"

	"github.com/sir_venger/upload_lite/internal/chunk"
	"github.com/sir_venger/upload_lite/internal/manager"
	"github.com/sir_venger/upload_lite/internal/models"
)

type (
	// MetaStorage хранилище метаданных загружаемых файлов
	MetaStorage interface {
		Get(ctx context.Context, id string) (models.UploadFile, error)
		Save(ctx context.Context, f models.UploadFile) error
		List(ctx context.Context) ([]models.UploadFile, error)
		Delete(ctx context.Context, id string) error
	}

	// EventSink получает события жизненного цикла загрузки.
	EventSink interface {
		Dispatch(ctx context.Context, ev manager.Event) error
	}

	// Destinations знает, где лежит файл назначения по идентификатору.
	Destinations interface {
		DestinationPath(fileID string) string
	}

	// Service объединяет операции очереди загрузки и приёма чанков.
	Service interface {
		AddFiles(ctx context.Context, files []NewFile) ([]models.UploadFile, error)
		RemoveFile(ctx context.Context, id string) error
		Start(ctx context.Context) error
		Stop(ctx context.Context) error
		ReceiveChunk(ctx context.Context, req ChunkRequest) (models.UploadFile, error)
		Files(ctx context.Context, status models.Status) ([]models.UploadFile, error)
		UploadedFiles(ctx context.Context) ([]models.UploadFile, error)
	}
)

// NewFile — файл, который виджет поставил в очередь.
type NewFile struct {
	ID   string
	Name string
	Size int64
}

// ChunkRequest — один чанк в том виде, в котором его прислал виджет.
type ChunkRequest struct {
	FileID string
	Name   string
	Size   int64
	Index  int
	Total  int
	Data   []byte
}

type Deps struct {
	MetaStorage  MetaStorage
	Handlers     *chunk.Registry
	Events       EventSink
	FS           billy.Filesystem
	Destinations Destinations
	GCLockPath   string
	Log          *logrus.Entry
	Now          func() time.Time
}

type Uploads struct {
	Deps

	locksMu sync.Mutex
	locks   map[string]*fileLock
}

type fileLock struct {
	mu   sync.Mutex
	refs int
}

// New конструирует сервис загрузки с заданными зависимостями.
func New(deps Deps) *Uploads {
	if deps.Log == nil {
		deps.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	return &Uploads{
		Deps:  deps,
		locks: make(map[string]*fileLock),
	}
}

var _ Service = (*Uploads)(nil)

// lock сериализует операции над одним файлом: чтение метаданных, запись чанка и сохранение.
func (s *Uploads) lock(id string) func() {
	s.locksMu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &fileLock{}
		s.locks[id] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		s.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.locksMu.Unlock()
	}
}

// dispatch отправляет событие менеджеру; сбой доставки не ломает загрузку.
func (s *Uploads) dispatch(ctx context.Context, ev manager.Event) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Dispatch(ctx, ev); err != nil {
		s.Log.WithField("event", ev.Kind.String()).Warnf("dispatch event: %v", err)
	}
}

// queued считает файлы, которые ещё ждут чанков.
func (s *Uploads) queued(ctx context.Context) (int, error) {
	files, err := s.MetaStorage.List(ctx)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, f := range files {
		if f.Status.Pending() {
			n++
		}
	}

	return n, nil
}

// queuedOrUnknown — то же для событий, где неизвестное число допустимо:
// менеджер тогда не трогает доступность старта.
func (s *Uploads) queuedOrUnknown(ctx context.Context) int {
	n, err := s.queued(ctx)
	if err != nil {
		s.Log.Warnf("count queued files: %v", err)
		return manager.QueuedUnknown
	}

	return n
}
