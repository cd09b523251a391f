package repository

import (
	"context"
	"errors"

	"PoolProPlatform/internal/domain"
)

// ErrNotFound возвращается, когда запись отсутствует или принадлежит другому владельцу
var ErrNotFound = errors.New("record not found")

// UserRepository интерфейс для работы с пользователями
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
}

// CustomerRepository интерфейс для работы с клиентами
type CustomerRepository interface {
	Create(ctx context.Context, customer *domain.Customer) error
	ListByUser(ctx context.Context, userID string) ([]*domain.Customer, error)
	FindByID(ctx context.Context, id, userID string) (*domain.Customer, error)
}

// PoolRepository интерфейс для работы с бассейнами.
// Все выборки ограничены владельцем через цепочку pool -> customer -> user
type PoolRepository interface {
	Create(ctx context.Context, pool *domain.Pool) error
	ListByCustomer(ctx context.Context, customerID, userID string) ([]*domain.Pool, error)
	FindByID(ctx context.Context, id, userID string) (*domain.Pool, error)
}

// WaterTestRepository интерфейс для работы с замерами воды
type WaterTestRepository interface {
	Create(ctx context.Context, test *domain.WaterTest) error
	ListByPool(ctx context.Context, poolID string, limit int) ([]*domain.WaterTest, error)
	FindLatestByPool(ctx context.Context, poolID string) (*domain.WaterTest, error)
}

// TreatmentPlanRepository интерфейс для работы с планами лечения.
// Планы неизменяемы: интерфейс не содержит операций обновления
type TreatmentPlanRepository interface {
	Create(ctx context.Context, plan *domain.TreatmentPlan) error
	ListByPool(ctx context.Context, poolID string, limit int) ([]*domain.TreatmentPlan, error)
	FindByID(ctx context.Context, id, userID string) (*domain.TreatmentPlan, error)
}
