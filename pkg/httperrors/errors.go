package httperrors

import (
	"errors"
	"net/http"

	"github.com/sir_venger/upload_lite/internal/models"
)

// ErrTooLarge возвращается, когда чанк превышает допустимый размер.
var ErrTooLarge = errors.New("chunk too large")

// Status подбирает HTTP-код для ошибки.
func Status(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrChunkOutOfOrder), errors.Is(err, models.ErrDuplicateChunk):
		return http.StatusConflict
	case errors.Is(err, models.ErrInvalidChunk):
		return http.StatusBadRequest
	case errors.Is(err, ErrTooLarge), errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

func Write(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), Status(err))
}
