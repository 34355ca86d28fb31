package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/dermasim/internal/domain"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 200
)

// ErrGenerationExists is returned when a record with the same id was already stored
var ErrGenerationExists = errors.New("generation already recorded")

type GenerationRepository struct {
	pool PgxPool
}

func NewGenerationRepository(pool PgxPool) *GenerationRepository {
	return &GenerationRepository{pool: pool}
}

func (r *GenerationRepository) Create(ctx context.Context, gen *domain.Generation) error {
	query := `
		INSERT INTO generations (id, area, dosage, strength, guidance_scale, backend, status, error_code, input_width, input_height, latency_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		RETURNING created_at
	`

	if gen.ID == uuid.Nil {
		gen.ID = uuid.New()
	}

	var errorCode *string
	if gen.ErrorCode != "" {
		errorCode = &gen.ErrorCode
	}

	err := r.pool.QueryRow(ctx, query,
		gen.ID,
		gen.Area,
		gen.Dosage,
		gen.Strength,
		gen.GuidanceScale,
		gen.Backend,
		string(gen.Status),
		errorCode,
		gen.InputWidth,
		gen.InputHeight,
		gen.LatencyMs,
	).Scan(&gen.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrGenerationExists
		}
		return fmt.Errorf("create generation: %w", err)
	}

	return nil
}

// ListRecent returns the newest records first. A non-positive limit uses
// DefaultListLimit and larger ones are capped at MaxListLimit.
func (r *GenerationRepository) ListRecent(ctx context.Context, limit int) ([]domain.Generation, error) {
	query := `
		SELECT id, area, dosage, strength, guidance_scale, backend, status, error_code, input_width, input_height, latency_ms, created_at
		FROM generations
		ORDER BY created_at DESC
		LIMIT $1
	`

	limit = clampLimit(limit)

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list generations: %w", err)
	}
	defer rows.Close()

	generations := make([]domain.Generation, 0, limit)
	for rows.Next() {
		var gen domain.Generation
		var status string
		var errorCode *string

		if err := rows.Scan(
			&gen.ID,
			&gen.Area,
			&gen.Dosage,
			&gen.Strength,
			&gen.GuidanceScale,
			&gen.Backend,
			&status,
			&errorCode,
			&gen.InputWidth,
			&gen.InputHeight,
			&gen.LatencyMs,
			&gen.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan generation: %w", err)
		}

		gen.Status = domain.GenerationStatus(status)
		if errorCode != nil {
			gen.ErrorCode = *errorCode
		}
		generations = append(generations, gen)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate generations: %w", err)
	}

	return generations, nil
}

// CountByStatus returns how many generations ended in each status
func (r *GenerationRepository) CountByStatus(ctx context.Context) (map[domain.GenerationStatus]int, error) {
	query := `SELECT status, COUNT(*) FROM generations GROUP BY status`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count generations: %w", err)
	}
	defer rows.Close()

	counts := map[domain.GenerationStatus]int{
		domain.GenerationSucceeded: 0,
		domain.GenerationFailed:    0,
	}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan generation count: %w", err)
		}
		counts[domain.GenerationStatus(status)] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate generation counts: %w", err)
	}

	return counts, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
