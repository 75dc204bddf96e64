package chunk

import (
	"fmt"

	"github.com/sir_venger/upload_lite/internal/models"
)

// IOError оборачивает любой отказ файловой системы при записи чанка.
// Нехватка места, отсутствие каталога и запрет записи не различаются.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("chunk %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Is позволяет проверять ошибку через errors.Is(err, models.ErrIO).
func (e *IOError) Is(target error) bool {
	return target == models.ErrIO
}
