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

// PoolRepository реализация репозитория бассейнов для PostgreSQL
type PoolRepository struct {
	pool *pgxpool.Pool
}

// NewPoolRepository создает новый экземпляр PoolRepository
func NewPoolRepository(pool *pgxpool.Pool) repository.PoolRepository {
	return &PoolRepository{pool: pool}
}

// Create сохраняет новый бассейн в базе данных
func (r *PoolRepository) Create(ctx context.Context, pool *domain.Pool) error {
	query := `INSERT INTO pools (id, customer_id, name, volume_gallons, surface_type, sanitizer_type, is_salt, equipment_notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		pool.ID,
		pool.CustomerID,
		pool.Name,
		pool.VolumeGallons,
		pool.SurfaceType,
		pool.SanitizerType,
		pool.IsSalt,
		pool.EquipmentNotes,
		pool.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create pool: %w", err)
	}

	return nil
}

// ListByCustomer возвращает бассейны клиента с проверкой владельца
func (r *PoolRepository) ListByCustomer(ctx context.Context, customerID, userID string) ([]*domain.Pool, error) {
	query := `SELECT p.id, p.customer_id, p.name, p.volume_gallons, p.surface_type, p.sanitizer_type, p.is_salt, p.equipment_notes, p.created_at
		FROM pools p
		JOIN customers c ON c.id = p.customer_id
		WHERE p.customer_id = $1 AND c.user_id = $2
		ORDER BY p.created_at DESC`

	rows, err := r.pool.Query(ctx, query, customerID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pools: %w", err)
	}
	defer rows.Close()

	var pools []*domain.Pool
	for rows.Next() {
		var p domain.Pool
		if err := rows.Scan(
			&p.ID,
			&p.CustomerID,
			&p.Name,
			&p.VolumeGallons,
			&p.SurfaceType,
			&p.SanitizerType,
			&p.IsSalt,
			&p.EquipmentNotes,
			&p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan pool: %w", err)
		}
		pools = append(pools, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pools: %w", err)
	}

	return pools, nil
}

// FindByID возвращает бассейн по ID.
// Владелец проверяется через цепочку pool -> customer -> user
func (r *PoolRepository) FindByID(ctx context.Context, id, userID string) (*domain.Pool, error) {
	query := `SELECT p.id, p.customer_id, p.name, p.volume_gallons, p.surface_type, p.sanitizer_type, p.is_salt, p.equipment_notes, p.created_at
		FROM pools p
		JOIN customers c ON c.id = p.customer_id
		WHERE p.id = $1 AND c.user_id = $2`

	var p domain.Pool
	err := r.pool.QueryRow(ctx, query, id, userID).Scan(
		&p.ID,
		&p.CustomerID,
		&p.Name,
		&p.VolumeGallons,
		&p.SurfaceType,
		&p.SanitizerType,
		&p.IsSalt,
		&p.EquipmentNotes,
		&p.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get pool by id: %w", err)
	}

	return &p, nil
}
