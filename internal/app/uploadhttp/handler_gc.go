package uploadhttp

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/sir_venger/upload_lite/pkg/httperrors"
)

type gcResponse struct {
	Swept int `json:"swept"`
}

// gcOnce вручную запускает очистку брошенных загрузок с TTL из конфигурации.
func (a *Server) gcOnce(w http.ResponseWriter, r *http.Request) {
	n, err := a.Uploads.SweepStale(r.Context(), a.gcTTL())
	if err != nil {
		httperrors.Write(w, err)
		return
	}

	render.JSON(w, r, gcResponse{Swept: n})
}
