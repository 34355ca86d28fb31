package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/saturnino-fabrica-de-software/dermasim/internal/domain"
)

// PgxPool is the subset of *pgxpool.Pool used by repositories.
// pgxmock.PgxPoolIface satisfies it in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// GenerationRepositoryInterface defines operations for generation history access
type GenerationRepositoryInterface interface {
	Create(ctx context.Context, gen *domain.Generation) error
	ListRecent(ctx context.Context, limit int) ([]domain.Generation, error)
	CountByStatus(ctx context.Context) (map[domain.GenerationStatus]int, error)
}
