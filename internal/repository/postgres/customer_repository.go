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

// CustomerRepository реализация репозитория клиентов для PostgreSQL
type CustomerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository создает новый экземпляр CustomerRepository
func NewCustomerRepository(pool *pgxpool.Pool) repository.CustomerRepository {
	return &CustomerRepository{pool: pool}
}

// Create сохраняет нового клиента в базе данных
func (r *CustomerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	query := `INSERT INTO customers (id, user_id, name, address, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		customer.ID,
		customer.UserID,
		customer.Name,
		customer.Address,
		customer.Notes,
		customer.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}

	return nil
}

// ListByUser возвращает клиентов пользователя, новые первыми
func (r *CustomerRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Customer, error) {
	query := `SELECT id, user_id, name, address, notes, created_at
		FROM customers WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	var customers []*domain.Customer
	for rows.Next() {
		var customer domain.Customer
		if err := rows.Scan(
			&customer.ID,
			&customer.UserID,
			&customer.Name,
			&customer.Address,
			&customer.Notes,
			&customer.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, &customer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate customers: %w", err)
	}

	return customers, nil
}

// FindByID возвращает клиента по ID с проверкой владельца
func (r *CustomerRepository) FindByID(ctx context.Context, id, userID string) (*domain.Customer, error) {
	query := `SELECT id, user_id, name, address, notes, created_at
		FROM customers WHERE id = $1 AND user_id = $2`

	var customer domain.Customer
	err := r.pool.QueryRow(ctx, query, id, userID).Scan(
		&customer.ID,
		&customer.UserID,
		&customer.Name,
		&customer.Address,
		&customer.Notes,
		&customer.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get customer by id: %w", err)
	}

	return &customer, nil
}
