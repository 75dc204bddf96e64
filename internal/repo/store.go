package meta

import (
	"context"
	"fmt"
	"strings"

	"github.com/sir_venger/upload_lite/internal/models"
	pgmeta "github.com/sir_venger/upload_lite/internal/repo/meta"
)

const memoryScheme = "memory://"

// Store — общий контракт хранилищ метаданных загрузок.
type Store interface {
	Get(ctx context.Context, id string) (models.UploadFile, error)
	Save(ctx context.Context, f models.UploadFile) error
	List(ctx context.Context) ([]models.UploadFile, error)
	Delete(ctx context.Context, id string) error
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*pgmeta.PGStore)(nil)
)

// Open выбирает реализацию по схеме DSN. Вторым значением возвращается функция закрытия.
func Open(ctx context.Context, dsn string) (Store, func(), error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case dsn == "":
		return nil, nil, fmt.Errorf("meta dsn is empty")
	case strings.HasPrefix(dsn, memoryScheme):
		return NewMemoryStore(), func() {}, nil
	}

	pg, err := pgmeta.NewPGStore(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}

	return pg, pg.Close, nil
}
