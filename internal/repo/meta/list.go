package meta

import (
	"context"
	"fmt"

	"github.com/sir_venger/upload_lite/internal/models"
)

// List возвращает все файлы в порядке добавления в очередь.
func (s *PGStore) List(ctx context.Context) ([]models.UploadFile, error) {
	sqlStr, args, err := psql.
		Select(uploadFileColumns...).
		From(uploadFilesTable).
		OrderBy("created_at", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("query files: %w", err)
	}
	defer rows.Close()

	var out []models.UploadFile
	for rows.Next() {
		f, err := scanUploadFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file row: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}

	return out, nil
}
