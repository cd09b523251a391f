package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	handler "PoolProPlatform/internal/handler/http"
	"PoolProPlatform/internal/llm"
	"PoolProPlatform/internal/middleware"
	"PoolProPlatform/internal/pkg/password"
	"PoolProPlatform/internal/pkg/session"
	"PoolProPlatform/internal/repository/postgres"
	"PoolProPlatform/internal/service"
	"PoolProPlatform/migrations"
	"PoolProPlatform/pkg/config"
	"PoolProPlatform/pkg/database"
	"PoolProPlatform/pkg/health"
	"PoolProPlatform/pkg/logger"
	"PoolProPlatform/pkg/metrics"
	"PoolProPlatform/pkg/ratelimit"
)

const serviceName = "poolpro"

// dbPinger адаптирует пул подключений к интерфейсу проверки здоровья
type dbPinger struct {
	db *database.Postgres
}

func (p *dbPinger) Ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return p.db.Pool.Ping(ctx)
}

func main() {
	configFile := flag.String("config", "", "path to config file")
	flag.Parse()

	// Загрузка конфигурации
	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализация логгера
	log, err := logger.NewLogger(cfg.Environment, cfg.Logger.Level, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting PoolPro server",
		logger.String("environment", cfg.Environment),
		logger.Int("port", cfg.Server.Port))

	// Инициализация метрик и трассировки
	if err := metrics.InitializeOpenTelemetry(serviceName); err != nil {
		log.Error("Failed to initialize OpenTelemetry", logger.Error(err))
		os.Exit(1)
	}
	collector := metrics.NewMetrics(serviceName)

	// Подключение к базе данных
	dbConfig := database.NewConfig()
	dbConfig.Host = cfg.Database.Host
	dbConfig.Port = cfg.Database.Port
	dbConfig.Database = cfg.Database.Name
	dbConfig.User = cfg.Database.User
	dbConfig.Password = cfg.Database.Password

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := database.Connect(ctx, dbConfig)
	cancel()
	if err != nil {
		log.Error("Failed to connect to database", logger.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	// Применение миграций
	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), 60*time.Second)
	err = database.RunMigrations(migrateCtx, dbConfig, migrations.FS)
	migrateCancel()
	if err != nil {
		log.Error("Failed to run migrations", logger.Error(err))
		os.Exit(1)
	}

	// Репозитории
	userRepository := postgres.NewUserRepository(db.Pool)
	customerRepository := postgres.NewCustomerRepository(db.Pool)
	poolRepository := postgres.NewPoolRepository(db.Pool)
	waterTestRepository := postgres.NewWaterTestRepository(db.Pool)
	planRepository := postgres.NewTreatmentPlanRepository(db.Pool)

	// Компоненты аутентификации и защиты
	sessionCodec := session.NewManager(cfg.Auth.SessionSecret, time.Duration(cfg.Auth.SessionTTLSeconds)*time.Second)
	passwordHasher := password.NewPBKDF2Hasher()
	limiter := ratelimit.NewMemoryRateLimiter()
	csrfGuard := middleware.NewCsrfGuard(cfg.Auth.CsrfCookieName, cfg.Auth.CookieSecure, cfg.Environment == "test", log)

	// Генератор планов и проверки безопасности
	producer := llm.NewOpenAIProducer(cfg.LLM.APIKey, cfg.LLM.Model, log)
	enforcer := llm.NewEnforcer(log)

	// Сервисы
	authService := service.NewAuthService(userRepository, sessionCodec, passwordHasher, log)
	poolService := service.NewPoolService(customerRepository, poolRepository, waterTestRepository, planRepository, log)
	diagnoseService := service.NewDiagnoseService(
		poolRepository, waterTestRepository, planRepository,
		producer, enforcer, collector,
		time.Duration(cfg.LLM.TimeoutSeconds)*time.Second, log)

	// Проверка здоровья
	healthChecker := health.NewSimpleHealthChecker("1.0.0")
	healthChecker.AddDependency("postgres", &dbPinger{db: db})

	// HTTP сервер
	h := handler.NewHandler(authService, poolService, diagnoseService,
		sessionCodec, csrfGuard, limiter, cfg, collector, healthChecker, log)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      h.InitRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server failed", logger.Error(err))
			os.Exit(1)
		}
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", logger.Error(err))
	}

	log.Info("Server stopped")
}
