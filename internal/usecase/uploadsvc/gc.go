package uploadsvc

import (
	"context"
	"errors"
	"io/fs"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/sir_venger/upload_lite/internal/models"
)

// SweepStale удаляет недогруженные файлы, которые не обновлялись дольше ttl,
// и помечает их сбойными. Возвращает число очищенных файлов.
func (s *Uploads) SweepStale(ctx context.Context, ttl time.Duration) (int, error) {
	if s.GCLockPath != "" {
		// Один каталог загрузок может обслуживать несколько процессов — чистит только один.
		lock := flock.New(s.GCLockPath)
		locked, err := lock.TryLock()
		if err != nil {
			return 0, err
		}
		if !locked {
			s.Log.Debug("gc skipped: lock is held by another process")
			return 0, nil
		}
		defer lock.Unlock()
	}

	files, err := s.MetaStorage.List(ctx)
	if err != nil {
		return 0, err
	}

	deadline := s.Now().Add(-ttl)
	swept := 0
	for _, f := range files {
		if ctx.Err() != nil {
			return swept, ctx.Err()
		}
		if !f.Status.Pending() || f.UpdatedAt.After(deadline) {
			continue
		}

		ok, err := s.sweepFile(ctx, f.ID, deadline)
		if err != nil {
			s.Log.WithField("file_id", f.ID).Warnf("gc: %v", err)
			continue
		}
		if ok {
			swept++
		}
	}

	if swept > 0 {
		s.Log.Infof("gc: swept %d stale uploads", swept)
	}

	return swept, nil
}

// sweepFile перепроверяет файл под блокировкой: пока шёл обход, мог прийти новый чанк.
func (s *Uploads) sweepFile(ctx context.Context, id string, deadline time.Time) (bool, error) {
	unlock := s.lock(id)
	defer unlock()

	f, err := s.MetaStorage.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if !f.Status.Pending() || f.UpdatedAt.After(deadline) {
		return false, nil
	}

	s.Handlers.Release(id)
	if s.FS != nil && s.Destinations != nil {
		path := s.Destinations.DestinationPath(id)
		if err := s.FS.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return false, err
		}
	}

	f.Status = models.StatusFailed
	f.Loaded = 0
	f.NextChunk = 0
	f.Percent = 0
	f.UpdatedAt = s.Now()

	return true, s.MetaStorage.Save(ctx, f)
}

// StartGC стартует периодическую очистку брошенных загрузок.
func (s *Uploads) StartGC(ctx context.Context, ttl time.Duration, every time.Duration) func() {
	if every <= 0 || ttl <= 0 {
		return func() {}
	}

	ticker := time.NewTicker(every)
	stop := make(chan struct{})
	var once sync.Once
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := s.SweepStale(ctx, ttl); err != nil {
					s.Log.Warnf("gc: %v", err)
				}
			case <-stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return func() {
		once.Do(func() {
			close(stop)
		})
	}
}
