package meta

import (
	"context"
	"fmt"
	"strings"

	"github.com/sir_venger/upload_lite/internal/models"
)

// Save записывает (или обновляет) описание файла.
func (s *PGStore) Save(ctx context.Context, f models.UploadFile) error {
	if strings.TrimSpace(f.ID) == "" {
		return fmt.Errorf("file id is empty")
	}

	sqlStr, args, err := psql.
		Insert(uploadFilesTable).
		Columns(uploadFileColumns...).
		Values(f.ID, f.Name, f.Size, f.Loaded, f.Percent, string(f.Status), f.Chunks, f.NextChunk, f.CreatedAt, f.UpdatedAt).
		Suffix(`
					ON CONFLICT (id) DO UPDATE
					SET name       = EXCLUDED.name,
						size       = EXCLUDED.size,
						loaded     = EXCLUDED.loaded,
						percent    = EXCLUDED.percent,
						status     = EXCLUDED.status,
						chunks     = EXCLUDED.chunks,
						next_chunk = EXCLUDED.next_chunk,
						updated_at = EXCLUDED.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert sql: %w", err)
	}

	// Выполнение UPSERT'а
	if _, err := s.pool.Exec(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("exec upsert: %w", err)
	}

	return nil
}
