package meta

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/sir_venger/upload_lite/internal/models"
)

// Delete удаляет описание файла.
func (s *PGStore) Delete(ctx context.Context, id string) error {
	sqlStr, args, err := psql.
		Delete(uploadFilesTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	tag, err := s.pool.Exec(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("exec delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}
