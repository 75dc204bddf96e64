package uploadhttp

import (
	"errors"
	"io/fs"
	"net/http"
	"os"

	"github.com/go-chi/render"
	"github.com/go-git/go-billy/v5/util"

	"github.com/sir_venger/upload_lite/internal/models"
	"github.com/sir_venger/upload_lite/pkg/httperrors"
)

// healthStats — payload ответа /health.
type healthStats struct {
	OK         bool  `json:"ok"`
	TotalBytes int64 `json:"total_bytes"`
	Files      int   `json:"files"`
	InFlight   int   `json:"in_flight"`
	Queued     int   `json:"queued"`
}

// health возвращает агрегированную статистику по каталогу загрузок и очереди.
func (a *Server) health(w http.ResponseWriter, r *http.Request) {
	var stats healthStats

	// Служебный lock-файл GC в подсчёт не входит.
	err := util.Walk(a.fs, a.uploadDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || info.Name() == gcLockName {
			return nil
		}
		stats.Files++
		stats.TotalBytes += info.Size()

		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	files, err := a.Uploads.Files(r.Context(), "")
	if err != nil {
		httperrors.Write(w, err)
		return
	}
	for _, f := range files {
		switch f.Status {
		case models.StatusQueued:
			stats.Queued++
		case models.StatusUploading:
			stats.InFlight++
		}
	}

	stats.OK = true
	render.JSON(w, r, stats)
}
