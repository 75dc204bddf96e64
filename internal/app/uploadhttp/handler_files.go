package uploadhttp

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/sir_venger/upload_lite/internal/models"
	"github.com/sir_venger/upload_lite/internal/usecase/uploadsvc"
	"github.com/sir_venger/upload_lite/pkg/httperrors"
	"github.com/sir_venger/upload_lite/pkg/pluploadproto"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func requestValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// addFilesRequest — тело POST /files.
type addFilesRequest struct {
	Files []newFileDTO `json:"files" validate:"required,min=1,dive"`
}

type newFileDTO struct {
	ID   string `json:"id" validate:"omitempty,max=255"`
	Name string `json:"name" validate:"required,max=1024"`
	Size int64  `json:"size" validate:"gte=0"`
}

type filesResponse struct {
	Files []models.UploadFile `json:"files"`
}

// listFiles отдаёт очередь; ?status= фильтрует по статусу.
func (a *Server) listFiles(w http.ResponseWriter, r *http.Request) {
	status := models.Status(r.URL.Query().Get(pluploadproto.FieldStatus))
	switch status {
	case "", models.StatusQueued, models.StatusUploading, models.StatusDone, models.StatusFailed:
	default:
		http.Error(w, fmt.Sprintf("unknown status %q", status), http.StatusBadRequest)
		return
	}

	files, err := a.Uploads.Files(r.Context(), status)
	if err != nil {
		httperrors.Write(w, err)
		return
	}

	render.JSON(w, r, filesResponse{Files: files})
}

// addFiles ставит файлы в очередь загрузки.
func (a *Server) addFiles(w http.ResponseWriter, r *http.Request) {
	var body addFilesRequest
	if err := render.DecodeJSON(r.Body, &body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := requestValidator().Struct(body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	in := make([]uploadsvc.NewFile, 0, len(body.Files))
	for _, f := range body.Files {
		in = append(in, uploadsvc.NewFile{ID: f.ID, Name: f.Name, Size: f.Size})
	}

	added, err := a.Uploads.AddFiles(r.Context(), in)
	if err != nil {
		httperrors.Write(w, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, filesResponse{Files: added})
}

// deleteFile убирает файл из очереди.
func (a *Server) deleteFile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.Uploads.RemoveFile(r.Context(), id); err != nil {
		httperrors.Write(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
