package manager

import "github.com/sir_venger/upload_lite/internal/models"

// EventKind — тип события жизненного цикла загрузки.
type EventKind int

const (
	FilesAdded EventKind = iota
	FilesRemoved
	UploadStarted
	UploadStopped
	UploadProgress
	UploadComplete
)

func (k EventKind) String() string {
	switch k {
	case FilesAdded:
		return "files_added"
	case FilesRemoved:
		return "files_removed"
	case UploadStarted:
		return "upload_started"
	case UploadStopped:
		return "upload_stopped"
	case UploadProgress:
		return "upload_progress"
	case UploadComplete:
		return "upload_complete"
	default:
		return "unknown"
	}
}

// Event — единое сообщение, которое источник загрузки шлёт менеджеру.
// Files заполняется для FilesAdded/FilesRemoved, File — для UploadProgress.
// Queued — число файлов, оставшихся в очереди на момент события,
// QueuedUnknown, если его не удалось посчитать.
type Event struct {
	Kind   EventKind
	Files  []models.UploadFile
	File   models.UploadFile
	Queued int
}

// QueuedUnknown помечает событие, для которого размер очереди неизвестен.
const QueuedUnknown = -1
