package uploadhttp

import (
	"net/http"

	"github.com/sir_venger/upload_lite/pkg/httperrors"
)

func (a *Server) startUpload(w http.ResponseWriter, r *http.Request) {
	if err := a.Uploads.Start(r.Context()); err != nil {
		httperrors.Write(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (a *Server) stopUpload(w http.ResponseWriter, r *http.Request) {
	if err := a.Uploads.Stop(r.Context()); err != nil {
		httperrors.Write(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
