package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"PoolProPlatform/internal/domain"
	"PoolProPlatform/internal/pkg/password"
	"PoolProPlatform/internal/repository"
	"PoolProPlatform/internal/repository/postgres"
	"PoolProPlatform/migrations"
	"PoolProPlatform/pkg/config"
	"PoolProPlatform/pkg/database"
	"PoolProPlatform/pkg/logger"
)

// Заполняет базу демонстрационными данными: пользователь, клиент,
// бассейн, замер воды и план лечения

const (
	demoEmail    = "demo@poolpro.local"
	demoPassword = "demo-password"
)

func main() {
	configFile := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Environment, cfg.Logger.Level, "poolpro-seed")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	dbConfig := database.NewConfig()
	dbConfig.Host = cfg.Database.Host
	dbConfig.Port = cfg.Database.Port
	dbConfig.Database = cfg.Database.Name
	dbConfig.User = cfg.Database.User
	dbConfig.Password = cfg.Database.Password

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Error("Failed to connect to database", logger.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	if err := database.RunMigrations(ctx, dbConfig, migrations.FS); err != nil {
		log.Error("Failed to run migrations", logger.Error(err))
		os.Exit(1)
	}

	if err := seed(ctx, db, log); err != nil {
		log.Error("Failed to seed demo data", logger.Error(err))
		os.Exit(1)
	}

	log.Info("Demo data seeded", logger.String("email", demoEmail))
}

func seed(ctx context.Context, db *database.Postgres, log logger.Logger) error {
	userRepository := postgres.NewUserRepository(db.Pool)
	customerRepository := postgres.NewCustomerRepository(db.Pool)
	poolRepository := postgres.NewPoolRepository(db.Pool)
	waterTestRepository := postgres.NewWaterTestRepository(db.Pool)
	planRepository := postgres.NewTreatmentPlanRepository(db.Pool)

	// Повторный запуск не создает дубликатов
	if existing, err := userRepository.FindByEmail(ctx, demoEmail); err == nil {
		log.Info("Demo user already exists, skipping seed", logger.String("user_id", existing.ID))
		return nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	hash, err := password.NewPBKDF2Hasher().Hash(demoPassword)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        demoEmail,
		PasswordHash: hash,
		Name:         "Demo User",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := userRepository.Create(ctx, user); err != nil {
		return err
	}

	customer := &domain.Customer{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Name:      "Jane Homeowner",
		Notes:     "Prefers evening service",
		CreatedAt: now,
	}
	if err := customerRepository.Create(ctx, customer); err != nil {
		return err
	}

	pool := &domain.Pool{
		ID:            uuid.New().String(),
		CustomerID:    customer.ID,
		Name:          "Backyard Pool",
		VolumeGallons: 15000,
		SurfaceType:   "plaster",
		SanitizerType: "chlorine",
		IsSalt:        false,
		CreatedAt:     now,
	}
	if err := poolRepository.Create(ctx, pool); err != nil {
		return err
	}

	fc, cc, ph, ta, ch, cya := 1.0, 0.6, 7.9, 90.0, 220.0, 25.0
	test := &domain.WaterTest{
		ID:        uuid.New().String(),
		PoolID:    pool.ID,
		TestedAt:  now,
		FC:        &fc,
		CC:        &cc,
		PH:        &ph,
		TA:        &ta,
		CH:        &ch,
		CYA:       &cya,
		Symptoms:  "cloudy water",
		CreatedAt: now,
	}
	if err := waterTestRepository.Create(ctx, test); err != nil {
		return err
	}

	plan := &domain.TreatmentPlan{
		ID:          uuid.New().String(),
		PoolID:      pool.ID,
		WaterTestID: &test.ID,
		Source:      domain.PlanSourceLLM,
		Diagnosis:   "Likely low sanitizer and organics causing cloudiness.",
		Confidence:  "Medium",
		Steps: []string{
			"Add chlorine in split doses",
			"Brush and run filter continuously for 24h",
		},
		ChemicalAdditions: []domain.ChemicalAddition{
			{Chemical: "liquid chlorine 10%", Amount: "64", Unit: "oz", Instructions: "Add half now and half after retest if needed."},
		},
		SafetyNotes:         []string{"Wear PPE", "Do not mix chemicals"},
		RetestInHours:       4,
		WhenToCallPro:       []string{"If cloudiness worsens after 24h or equipment pressure spikes"},
		ConversationSummary: "Cloudy water with chlorine smell; conservative oxidizing plan generated.",
		CreatedAt:           now,
	}
	return planRepository.Create(ctx, plan)
}
