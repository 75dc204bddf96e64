package uploadsvc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/sir_venger/upload_lite/internal/manager"
	"github.com/sir_venger/upload_lite/internal/models"
)

// ReceiveChunk дописывает чанк в файл назначения и обновляет прогресс файла.
// Файл, о котором сервис ещё не знал, регистрируется по первому чанку.
func (s *Uploads) ReceiveChunk(ctx context.Context, req ChunkRequest) (models.UploadFile, error) {
	id := strings.TrimSpace(req.FileID)
	if id == "" {
		// Без идентификатора виджет адресует файл по имени.
		id = strings.TrimSpace(req.Name)
	}
	if id == "" {
		return models.UploadFile{}, fmt.Errorf("%w: file id and name are empty", models.ErrInvalidChunk)
	}

	c := models.Chunk{Index: req.Index, Total: req.Total, Data: req.Data}
	if err := c.Validate(); err != nil {
		return models.UploadFile{}, fmt.Errorf("%w: chunk %d of %d", err, req.Index, req.Total)
	}

	log := s.Log.WithField("file_id", id).WithField("chunk", req.Index)

	unlock := s.lock(id)
	file, registered, err := s.prepare(ctx, id, req)
	if err != nil {
		unlock()
		return models.UploadFile{}, err
	}

	h := s.Handlers.Acquire(file)
	if err = h.Append(ctx, c); err != nil {
		file, err = s.appendFailed(ctx, file, err, log)
		unlock()
		return file, err
	}

	file.Loaded += int64(len(req.Data))
	file.NextChunk = req.Index + 1
	file.UpdatedAt = s.Now()
	if c.IsLast() {
		file.Status = models.StatusDone
		s.Handlers.Release(id)
	}
	file.Percent = file.Progress()

	err = s.MetaStorage.Save(ctx, file)
	unlock()
	if err != nil {
		return models.UploadFile{}, err
	}

	if registered {
		s.dispatch(ctx, manager.Event{Kind: manager.FilesAdded, Files: []models.UploadFile{file}, Queued: s.queuedOrUnknown(ctx)})
	}
	s.dispatch(ctx, manager.Event{Kind: manager.UploadProgress, File: file})

	if file.Status == models.StatusDone {
		log.WithField("path", h.Path()).Infof("upload completed, %d bytes", file.Loaded)
		// Без точного числа оставшихся файлов завершение не объявляется.
		queued, err := s.queued(ctx)
		switch {
		case err != nil:
			log.Warnf("count queued files: %v", err)
		case queued == 0:
			s.dispatch(ctx, manager.Event{Kind: manager.UploadComplete, Queued: queued})
		}
	} else {
		log.Debugf("chunk stored, %d%%", file.Percent)
	}

	return file, nil
}

// prepare достаёт (или регистрирует) файл и переводит его в статус uploading.
func (s *Uploads) prepare(ctx context.Context, id string, req ChunkRequest) (models.UploadFile, bool, error) {
	now := s.Now()

	file, err := s.MetaStorage.Get(ctx, id)
	registered := false
	switch {
	case errors.Is(err, models.ErrNotFound):
		registered = true
		file = models.UploadFile{
			ID:        id,
			Name:      strings.TrimSpace(req.Name),
			Size:      req.Size,
			Status:    models.StatusQueued,
			CreatedAt: now,
		}
	case err != nil:
		return models.UploadFile{}, false, err
	}

	// Чанк 0 завершённого или сбойного файла начинает загрузку заново: старый
	// обработчик забывается, ожидаемый индекс снова 0.
	if req.Index == 0 && (file.Status == models.StatusDone || file.Status == models.StatusFailed) {
		s.Handlers.Release(id)
		file.Loaded = 0
		file.NextChunk = 0
		file.Percent = 0
	}

	if file.Name == "" {
		file.Name = strings.TrimSpace(req.Name)
	}
	if req.Size > 0 {
		file.Size = req.Size
	}
	file.Chunks = req.Total
	file.Status = models.StatusUploading
	file.UpdatedAt = now

	return file, registered, nil
}

// appendFailed вызывается под блокировкой файла и разбирает ошибку записи:
// дубликат принимается молча, нарушение порядка возвращается как есть,
// отказ ввода-вывода помечает файл сбойным.
func (s *Uploads) appendFailed(ctx context.Context, file models.UploadFile, err error, log *logrus.Entry) (models.UploadFile, error) {
	switch {
	case errors.Is(err, models.ErrDuplicateChunk):
		log.Debugf("duplicate chunk skipped: %v", err)
		stored, getErr := s.MetaStorage.Get(ctx, file.ID)
		if getErr != nil {
			return file, nil
		}
		return stored, nil

	case errors.Is(err, models.ErrChunkOutOfOrder), errors.Is(err, models.ErrInvalidChunk):
		log.Warnf("chunk rejected: %v", err)
		return models.UploadFile{}, err
	}

	log.Errorf("append chunk: %v", err)

	file.Status = models.StatusFailed
	file.UpdatedAt = s.Now()
	file.Percent = file.Progress()
	s.Handlers.Release(file.ID)
	if saveErr := s.MetaStorage.Save(ctx, file); saveErr != nil {
		log.Warnf("mark file failed: %v", saveErr)
	}

	return file, err
}
