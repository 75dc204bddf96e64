package uploadsvc

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/sir_venger/upload_lite/internal/manager"
	"github.com/sir_venger/upload_lite/internal/models"
)

// AddFiles ставит файлы в очередь. Если виджет не прислал идентификатор, он генерируется.
func (s *Uploads) AddFiles(ctx context.Context, files []NewFile) ([]models.UploadFile, error) {
	now := s.Now()
	added := make([]models.UploadFile, 0, len(files))

	for _, nf := range files {
		id := strings.TrimSpace(nf.ID)
		if id == "" {
			id = uuid.NewString()
		}

		f := models.UploadFile{
			ID:        id,
			Name:      strings.TrimSpace(nf.Name),
			Size:      nf.Size,
			Status:    models.StatusQueued,
			CreatedAt: now,
			UpdatedAt: now,
		}

		unlock := s.lock(id)
		err := s.MetaStorage.Save(ctx, f)
		unlock()
		if err != nil {
			return nil, err
		}
		added = append(added, f)
	}

	if len(added) > 0 {
		s.dispatch(ctx, manager.Event{Kind: manager.FilesAdded, Files: added, Queued: s.queuedOrUnknown(ctx)})
	}

	return added, nil
}

// RemoveFile убирает файл из очереди. Уже записанные байты не откатываются.
func (s *Uploads) RemoveFile(ctx context.Context, id string) error {
	unlock := s.lock(id)
	f, err := s.MetaStorage.Get(ctx, id)
	if err == nil {
		err = s.MetaStorage.Delete(ctx, id)
	}
	s.Handlers.Release(id)
	unlock()
	if err != nil {
		return err
	}

	s.Log.WithField("file_id", id).Info("file removed from queue")
	s.dispatch(ctx, manager.Event{Kind: manager.FilesRemoved, Files: []models.UploadFile{f}, Queued: s.queuedOrUnknown(ctx)})

	return nil
}

// Start сообщает менеджеру о старте загрузки. Приём чанков от этого не зависит.
func (s *Uploads) Start(ctx context.Context) error {
	s.dispatch(ctx, manager.Event{Kind: manager.UploadStarted, Queued: s.queuedOrUnknown(ctx)})
	return nil
}

// Stop сообщает менеджеру об остановке. Частично записанные файлы остаются как есть.
func (s *Uploads) Stop(ctx context.Context) error {
	s.dispatch(ctx, manager.Event{Kind: manager.UploadStopped, Queued: s.queuedOrUnknown(ctx)})
	return nil
}

// Files возвращает файлы с указанным статусом; пустой статус — все.
func (s *Uploads) Files(ctx context.Context, status models.Status) ([]models.UploadFile, error) {
	all, err := s.MetaStorage.List(ctx)
	if err != nil {
		return nil, err
	}
	if status == "" {
		return all, nil
	}

	out := make([]models.UploadFile, 0, len(all))
	for _, f := range all {
		if f.Status == status {
			out = append(out, f)
		}
	}

	return out, nil
}

// UploadedFiles возвращает полностью загруженные файлы.
func (s *Uploads) UploadedFiles(ctx context.Context) ([]models.UploadFile, error) {
	return s.Files(ctx, models.StatusDone)
}
