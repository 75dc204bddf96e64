package meta

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/sir_venger/upload_lite/internal/models"
)

// Get возвращает описание файла по его идентификатору.
func (s *PGStore) Get(ctx context.Context, id string) (models.UploadFile, error) {
	if strings.TrimSpace(id) == "" {
		return models.UploadFile{}, fmt.Errorf("file id is empty")
	}

	sqlStr, args, err := psql.
		Select(uploadFileColumns...).
		From(uploadFilesTable).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return models.UploadFile{}, fmt.Errorf("build select: %w", err)
	}

	f, err := scanUploadFile(s.pool.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.UploadFile{}, models.ErrNotFound
		}
		return models.UploadFile{}, fmt.Errorf("scan file row: %w", err)
	}

	return f, nil
}

// scanUploadFile читает строку в порядке uploadFileColumns.
func scanUploadFile(row pgx.Row) (models.UploadFile, error) {
	var (
		f      models.UploadFile
		status string
	)
	err := row.Scan(
		&f.ID,
		&f.Name,
		&f.Size,
		&f.Loaded,
		&f.Percent,
		&status,
		&f.Chunks,
		&f.NextChunk,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	if err != nil {
		return models.UploadFile{}, err
	}
	f.Status = models.Status(status)

	return f, nil
}
