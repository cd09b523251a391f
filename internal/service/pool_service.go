package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"PoolProPlatform/internal/domain"
	"PoolProPlatform/internal/repository"
	apperrors "PoolProPlatform/pkg/errors"
	"PoolProPlatform/pkg/logger"
)

// waterTestListLimit максимум замеров в списке и таймлайне
const waterTestListLimit = 50

// treatmentPlanListLimit максимум планов в таймлайне
const treatmentPlanListLimit = 50

// CreateCustomerInput входные данные создания клиента
type CreateCustomerInput struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Notes   string `json:"notes"`
}

// CreatePoolInput входные данные создания бассейна
type CreatePoolInput struct {
	Name           string  `json:"name"`
	VolumeGallons  float64 `json:"volumeGallons"`
	SurfaceType    string  `json:"surfaceType"`
	SanitizerType  string  `json:"sanitizerType"`
	IsSalt         bool    `json:"isSalt"`
	EquipmentNotes string  `json:"equipmentNotes"`
}

// CreateWaterTestInput входные данные записи замера воды
type CreateWaterTestInput struct {
	TestedAt *time.Time `json:"testedAt"`
	FC       *float64   `json:"fc"`
	CC       *float64   `json:"cc"`
	PH       *float64   `json:"ph"`
	TA       *float64   `json:"ta"`
	CH       *float64   `json:"ch"`
	CYA      *float64   `json:"cya"`
	Salt     *float64   `json:"salt"`
	TempF    *float64   `json:"tempF"`
	Symptoms string     `json:"symptoms"`
}

// Timeline история бассейна: события и сравнение последних замеров
type Timeline struct {
	Entries    []domain.TimelineEntry `json:"entries"`
	Comparison *domain.TestComparison `json:"comparison,omitempty"`
}

// PoolService интерфейс для работы с клиентами, бассейнами и замерами
type PoolService interface {
	CreateCustomer(ctx context.Context, userID string, input CreateCustomerInput) (*domain.Customer, error)
	ListCustomers(ctx context.Context, userID string) ([]*domain.Customer, error)
	CreatePool(ctx context.Context, userID, customerID string, input CreatePoolInput) (*domain.Pool, error)
	ListPools(ctx context.Context, userID, customerID string) ([]*domain.Pool, error)
	GetPool(ctx context.Context, userID, poolID string) (*domain.Pool, error)
	CreateWaterTest(ctx context.Context, userID, poolID string, input CreateWaterTestInput) (*domain.WaterTest, error)
	ListWaterTests(ctx context.Context, userID, poolID string) ([]*domain.WaterTest, error)
	GetTimeline(ctx context.Context, userID, poolID string) (*Timeline, error)
}

// poolService реализация PoolService
type poolService struct {
	customerRepository repository.CustomerRepository
	poolRepository     repository.PoolRepository
	waterTestRepo      repository.WaterTestRepository
	planRepository     repository.TreatmentPlanRepository
	log                logger.Logger
}

// NewPoolService создает новый экземпляр PoolService
func NewPoolService(
	customerRepository repository.CustomerRepository,
	poolRepository repository.PoolRepository,
	waterTestRepo repository.WaterTestRepository,
	planRepository repository.TreatmentPlanRepository,
	log logger.Logger,
) PoolService {
	return &poolService{
		customerRepository: customerRepository,
		poolRepository:     poolRepository,
		waterTestRepo:      waterTestRepo,
		planRepository:     planRepository,
		log:                log,
	}
}

// CreateCustomer создает клиента текущего пользователя
func (s *poolService) CreateCustomer(ctx context.Context, userID string, input CreateCustomerInput) (*domain.Customer, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.New(apperrors.ErrValidation, "customer name is required")
	}

	customer := &domain.Customer{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      name,
		Address:   strings.TrimSpace(input.Address),
		Notes:     strings.TrimSpace(input.Notes),
		CreatedAt: time.Now().UTC(),
	}

	if err := s.customerRepository.Create(ctx, customer); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternal, "failed to create customer")
	}

	return customer, nil
}

// ListCustomers возвращает клиентов текущего пользователя
func (s *poolService) ListCustomers(ctx context.Context, userID string) ([]*domain.Customer, error) {
	customers, err := s.customerRepository.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternal, "failed to list customers")
	}
	if customers == nil {
		customers = []*domain.Customer{}
	}
	return customers, nil
}

// CreatePool создает бассейн клиента с проверкой владельца
func (s *poolService) CreatePool(ctx context.Context, userID, customerID string, input CreatePoolInput) (*domain.Pool, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.New(apperrors.ErrValidation, "pool name is required")
	}
	if input.VolumeGallons <= 0 || input.VolumeGallons > 1_000_000 {
		return nil, apperrors.New(apperrors.ErrValidation, "pool volume must be positive and reasonable")
	}

	// Клиент должен принадлежать текущему пользователю
	if _, err := s.customerRepository.FindByID(ctx, customerID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.New(apperrors.ErrNotFound, "customer not found")
		}
		return nil, apperrors.Wrap(err, apperrors.ErrInternal, "failed to find customer")
	}

	pool := &domain.Pool{
		ID:             uuid.New().String(),
		CustomerID:     customerID,
		Name:           name,
		VolumeGallons:  input.VolumeGallons,
		SurfaceType:    strings.TrimSpace(input.SurfaceType),
		SanitizerType:  strings.TrimSpace(input.SanitizerType),
		IsSalt:         input.IsSalt,
		EquipmentNotes: strings.TrimSpace(input.EquipmentNotes),
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.poolRepository.Create(ctx, pool); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternal, "failed to create pool")
	}

	return pool, nil
}

// ListPools возвращает бассейны клиента с проверкой владельца
func (s *poolService) ListPools(ctx context.Context, userID, customerID string) ([]*domain.Pool, error) {
	if _, err := s.customerRepository.FindByID(ctx, customerID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.New(apperrors.ErrNotFound, "customer not found")
		}
		return nil, apperrors.Wrap(err, apperrors.ErrInternal, "failed to find customer")
	}

	pools, err := s.poolRepository.ListByCustomer(ctx, customerID, userID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternal, "failed to list pools")
	}
	if pools == nil {
		pools = []*domain.Pool{}
	}
	return pools, nil
}

// GetPool возвращает бассейн с проверкой владельца
func (s *poolService) GetPool(ctx context.Context, userID, poolID string) (*domain.Pool, error) {
	pool, err := s.poolRepository.FindByID(ctx, poolID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.New(apperrors.ErrNotFound, "pool not found")
		}
		return nil, apperrors.Wrap(err, apperrors.ErrInternal, "failed to find pool")
	}
	return pool, nil
}

// CreateWaterTest записывает замер воды бассейна
func (s *poolService) CreateWaterTest(ctx context.Context, userID, poolID string, input CreateWaterTestInput) (*domain.WaterTest, error) {
	if _, err := s.GetPool(ctx, userID, poolID); err != nil {
		return nil, err
	}
	if err := validateReadings(input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	testedAt := now
	if input.TestedAt != nil {
		testedAt = input.TestedAt.UTC()
	}

	test := &domain.WaterTest{
		ID:        uuid.New().String(),
		PoolID:    poolID,
		TestedAt:  testedAt,
		FC:        input.FC,
		CC:        input.CC,
		PH:        input.PH,
		TA:        input.TA,
		CH:        input.CH,
		CYA:       input.CYA,
		Salt:      input.Salt,
		TempF:     input.TempF,
		Symptoms:  strings.TrimSpace(input.Symptoms),
		CreatedAt: now,
	}

	if err := s.waterTestRepo.Create(ctx, test); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternal, "failed to create water test")
	}

	return test, nil
}

// ListWaterTests возвращает последние замеры бассейна
func (s *poolService) ListWaterTests(ctx context.Context, userID, poolID string) ([]*domain.WaterTest, error) {
	if _, err := s.GetPool(ctx, userID, poolID); err != nil {
		return nil, err
	}

	tests, err := s.waterTestRepo.ListByPool(ctx, poolID, waterTestListLimit)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternal, "failed to list water tests")
	}
	if tests == nil {
		tests = []*domain.WaterTest{}
	}
	return tests, nil
}

// GetTimeline возвращает объединенную историю замеров и планов.
// Сравнение последних двух замеров включается при их наличии
func (s *poolService) GetTimeline(ctx context.Context, userID, poolID string) (*Timeline, error) {
	if _, err := s.GetPool(ctx, userID, poolID); err != nil {
		return nil, err
	}

	tests, err := s.waterTestRepo.ListByPool(ctx, poolID, waterTestListLimit)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternal, "failed to list water tests")
	}
	plans, err := s.planRepository.ListByPool(ctx, poolID, treatmentPlanListLimit)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternal, "failed to list treatment plans")
	}

	entries := make([]domain.TimelineEntry, 0, len(tests)+len(plans))
	for _, t := range tests {
		entries = append(entries, domain.TimelineEntry{Type: "water_test", At: t.TestedAt, Data: t})
	}
	for _, p := range plans {
		entries = append(entries, domain.TimelineEntry{Type: "treatment_plan", At: p.CreatedAt, Data: p})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].At.After(entries[j].At)
	})

	timeline := &Timeline{Entries: entries}
	if len(tests) >= 2 {
		timeline.Comparison = &domain.TestComparison{
			Latest:   tests[0],
			Previous: tests[1],
		}
	}

	return timeline, nil
}

// validateReadings проверяет диапазоны показаний замера
func validateReadings(input CreateWaterTestInput) error {
	checks := []struct {
		name     string
		value    *float64
		min, max float64
	}{
		{"fc", input.FC, 0, 100},
		{"cc", input.CC, 0, 30},
		{"ph", input.PH, 0, 14},
		{"ta", input.TA, 0, 1000},
		{"ch", input.CH, 0, 5000},
		{"cya", input.CYA, 0, 500},
		{"salt", input.Salt, 0, 20000},
		{"tempF", input.TempF, -20, 180},
	}
	for _, c := range checks {
		if c.value != nil && (*c.value < c.min || *c.value > c.max) {
			return apperrors.New(apperrors.ErrValidation, "reading "+c.name+" is out of range")
		}
	}
	return nil
}
