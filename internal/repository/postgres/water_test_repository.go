package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"PoolProPlatform/internal/domain"
	"PoolProPlatform/internal/repository"
)

// WaterTestRepository реализация репозитория замеров воды для PostgreSQL
type WaterTestRepository struct {
	pool *pgxpool.Pool
}

// NewWaterTestRepository создает новый экземпляр WaterTestRepository
func NewWaterTestRepository(pool *pgxpool.Pool) repository.WaterTestRepository {
	return &WaterTestRepository{pool: pool}
}

// Create сохраняет новый замер воды в базе данных
func (r *WaterTestRepository) Create(ctx context.Context, test *domain.WaterTest) error {
	query := `INSERT INTO water_tests (id, pool_id, tested_at, fc, cc, ph, ta, ch, cya, salt, temp_f, symptoms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.pool.Exec(ctx, query,
		test.ID,
		test.PoolID,
		test.TestedAt,
		test.FC,
		test.CC,
		test.PH,
		test.TA,
		test.CH,
		test.CYA,
		test.Salt,
		test.TempF,
		test.Symptoms,
		test.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create water test: %w", err)
	}

	return nil
}

// ListByPool возвращает замеры бассейна, новые первыми
func (r *WaterTestRepository) ListByPool(ctx context.Context, poolID string, limit int) ([]*domain.WaterTest, error) {
	query := `SELECT id, pool_id, tested_at, fc, cc, ph, ta, ch, cya, salt, temp_f, symptoms, created_at
		FROM water_tests WHERE pool_id = $1 ORDER BY tested_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, poolID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list water tests: %w", err)
	}
	defer rows.Close()

	var tests []*domain.WaterTest
	for rows.Next() {
		var t domain.WaterTest
		if err := rows.Scan(
			&t.ID,
			&t.PoolID,
			&t.TestedAt,
			&t.FC,
			&t.CC,
			&t.PH,
			&t.TA,
			&t.CH,
			&t.CYA,
			&t.Salt,
			&t.TempF,
			&t.Symptoms,
			&t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan water test: %w", err)
		}
		tests = append(tests, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate water tests: %w", err)
	}

	return tests, nil
}

// FindLatestByPool возвращает последний замер бассейна
func (r *WaterTestRepository) FindLatestByPool(ctx context.Context, poolID string) (*domain.WaterTest, error) {
	query := `SELECT id, pool_id, tested_at, fc, cc, ph, ta, ch, cya, salt, temp_f, symptoms, created_at
		FROM water_tests WHERE pool_id = $1 ORDER BY tested_at DESC LIMIT 1`

	var t domain.WaterTest
	err := r.pool.QueryRow(ctx, query, poolID).Scan(
		&t.ID,
		&t.PoolID,
		&t.TestedAt,
		&t.FC,
		&t.CC,
		&t.PH,
		&t.TA,
		&t.CH,
		&t.CYA,
		&t.Salt,
		&t.TempF,
		&t.Symptoms,
		&t.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get latest water test: %w", err)
	}

	return &t, nil
}
