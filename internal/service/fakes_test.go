package service

import (
	"context"
	"sort"

	"PoolProPlatform/internal/domain"
	"PoolProPlatform/internal/repository"
)

// Фейковые репозитории в памяти для тестов сервисов

type fakeUserRepository struct {
	users map[string]*domain.User
}

func newFakeUserRepository() *fakeUserRepository {
	return &fakeUserRepository{users: make(map[string]*domain.User)}
}

func (f *fakeUserRepository) Create(_ context.Context, user *domain.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepository) FindByID(_ context.Context, id string) (*domain.User, error) {
	if user, ok := f.users[id]; ok {
		return user, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepository) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, repository.ErrNotFound
}

type fakeCustomerRepository struct {
	customers map[string]*domain.Customer
}

func newFakeCustomerRepository() *fakeCustomerRepository {
	return &fakeCustomerRepository{customers: make(map[string]*domain.Customer)}
}

func (f *fakeCustomerRepository) Create(_ context.Context, customer *domain.Customer) error {
	f.customers[customer.ID] = customer
	return nil
}

func (f *fakeCustomerRepository) ListByUser(_ context.Context, userID string) ([]*domain.Customer, error) {
	var out []*domain.Customer
	for _, c := range f.customers {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeCustomerRepository) FindByID(_ context.Context, id, userID string) (*domain.Customer, error) {
	if c, ok := f.customers[id]; ok && c.UserID == userID {
		return c, nil
	}
	return nil, repository.ErrNotFound
}

type fakePoolRepository struct {
	pools     map[string]*domain.Pool
	customers *fakeCustomerRepository
}

func newFakePoolRepository(customers *fakeCustomerRepository) *fakePoolRepository {
	return &fakePoolRepository{pools: make(map[string]*domain.Pool), customers: customers}
}

func (f *fakePoolRepository) Create(_ context.Context, pool *domain.Pool) error {
	f.pools[pool.ID] = pool
	return nil
}

func (f *fakePoolRepository) ownedBy(pool *domain.Pool, userID string) bool {
	c, ok := f.customers.customers[pool.CustomerID]
	return ok && c.UserID == userID
}

func (f *fakePoolRepository) ListByCustomer(_ context.Context, customerID, userID string) ([]*domain.Pool, error) {
	var out []*domain.Pool
	for _, p := range f.pools {
		if p.CustomerID == customerID && f.ownedBy(p, userID) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakePoolRepository) FindByID(_ context.Context, id, userID string) (*domain.Pool, error) {
	if p, ok := f.pools[id]; ok && f.ownedBy(p, userID) {
		return p, nil
	}
	return nil, repository.ErrNotFound
}

type fakeWaterTestRepository struct {
	tests map[string]*domain.WaterTest
}

func newFakeWaterTestRepository() *fakeWaterTestRepository {
	return &fakeWaterTestRepository{tests: make(map[string]*domain.WaterTest)}
}

func (f *fakeWaterTestRepository) Create(_ context.Context, test *domain.WaterTest) error {
	f.tests[test.ID] = test
	return nil
}

func (f *fakeWaterTestRepository) ListByPool(_ context.Context, poolID string, limit int) ([]*domain.WaterTest, error) {
	var out []*domain.WaterTest
	for _, t := range f.tests {
		if t.PoolID == poolID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TestedAt.After(out[j].TestedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeWaterTestRepository) FindLatestByPool(ctx context.Context, poolID string) (*domain.WaterTest, error) {
	tests, _ := f.ListByPool(ctx, poolID, 1)
	if len(tests) == 0 {
		return nil, repository.ErrNotFound
	}
	return tests[0], nil
}

type fakeTreatmentPlanRepository struct {
	plans     map[string]*domain.TreatmentPlan
	pools     *fakePoolRepository
	createErr error
}

func newFakeTreatmentPlanRepository(pools *fakePoolRepository) *fakeTreatmentPlanRepository {
	return &fakeTreatmentPlanRepository{plans: make(map[string]*domain.TreatmentPlan), pools: pools}
}

func (f *fakeTreatmentPlanRepository) Create(_ context.Context, plan *domain.TreatmentPlan) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.plans[plan.ID] = plan
	return nil
}

func (f *fakeTreatmentPlanRepository) ListByPool(_ context.Context, poolID string, limit int) ([]*domain.TreatmentPlan, error) {
	var out []*domain.TreatmentPlan
	for _, p := range f.plans {
		if p.PoolID == poolID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeTreatmentPlanRepository) FindByID(ctx context.Context, id, userID string) (*domain.TreatmentPlan, error) {
	plan, ok := f.plans[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if _, err := f.pools.FindByID(ctx, plan.PoolID, userID); err != nil {
		return nil, repository.ErrNotFound
	}
	return plan, nil
}
