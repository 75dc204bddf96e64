package uploadhttp

import (
	"net/http"

	"github.com/go-chi/render"
)

// managerState отдаёт снимок состояния менеджера: фазу, строки файлов и доступность кнопок.
func (a *Server) managerState(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, a.Manager.Snapshot())
}
