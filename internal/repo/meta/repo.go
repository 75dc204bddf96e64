package meta

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore сохраняет метаданные загрузок в Postgres.
type PGStore struct {
	pool *pgxpool.Pool
}

const uploadFilesTable = "upload_files"

var (
	psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	uploadFileColumns = []string{
		"id",
		"name",
		"size",
		"loaded",
		"percent",
		"status",
		"chunks",
		"next_chunk",
		"created_at",
		"updated_at",
	}
)

// NewPGStore создаёт пул подключений к Postgres. Таблица создаётся миграциями.
func NewPGStore(ctx context.Context, dsn string) (*PGStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("meta dsn is empty")
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}

	return &PGStore{
		pool: pool,
	}, nil
}

// Close освобождает подключения пула.
func (s *PGStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
