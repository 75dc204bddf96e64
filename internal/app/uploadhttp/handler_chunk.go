package uploadhttp

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/sir_venger/upload_lite/internal/models"
	"github.com/sir_venger/upload_lite/pkg/httperrors"
)

// chunkResponse — ответ на принятый чанк.
type chunkResponse struct {
	File models.UploadFile `json:"file"`
	Done bool              `json:"done"`
}

// postChunk принимает очередной чанк и дописывает его в файл назначения.
func (a *Server) postChunk(w http.ResponseWriter, r *http.Request) {
	req, err := a.newChunkRequest(w, r)
	if err != nil {
		a.log.WithField("remote", r.RemoteAddr).Warnf("bad chunk request: %v", err)
		httperrors.Write(w, err)
		return
	}

	file, err := a.Uploads.ReceiveChunk(r.Context(), req)
	if err != nil {
		httperrors.Write(w, err)
		return
	}

	render.JSON(w, r, chunkResponse{File: file, Done: file.Status == models.StatusDone})
}
