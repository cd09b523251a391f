package http

import (
	"net/http"
	"time"

	"PoolProPlatform/internal/middleware"
	"PoolProPlatform/internal/pkg/session"
	"PoolProPlatform/internal/service"
	"PoolProPlatform/pkg/config"
	"PoolProPlatform/pkg/health"
	"PoolProPlatform/pkg/logger"
	"PoolProPlatform/pkg/metrics"
	"PoolProPlatform/pkg/ratelimit"
)

// Handler обрабатывает входящие HTTP запросы
type Handler struct {
	authService     service.AuthService
	poolService     service.PoolService
	diagnoseService service.DiagnoseService
	sessionCodec    session.Codec
	csrfGuard       *middleware.CsrfGuard
	limiter         ratelimit.RateLimiter
	config          *config.Config
	collector       *metrics.Metrics
	healthChecker   health.HealthChecker
	log             logger.Logger
}

// NewHandler создает новый экземпляр Handler
func NewHandler(
	authService service.AuthService,
	poolService service.PoolService,
	diagnoseService service.DiagnoseService,
	sessionCodec session.Codec,
	csrfGuard *middleware.CsrfGuard,
	limiter ratelimit.RateLimiter,
	cfg *config.Config,
	collector *metrics.Metrics,
	healthChecker health.HealthChecker,
	log logger.Logger,
) *Handler {
	return &Handler{
		authService:     authService,
		poolService:     poolService,
		diagnoseService: diagnoseService,
		sessionCodec:    sessionCodec,
		csrfGuard:       csrfGuard,
		limiter:         limiter,
		config:          cfg,
		collector:       collector,
		healthChecker:   healthChecker,
		log:             log,
	}
}

// InitRoutes настраивает маршруты и цепочки middleware.
// Порядок защиты мутирующих маршрутов: rate limit -> CSRF -> сессия -> обработчик
func (h *Handler) InitRoutes() http.Handler {
	mux := http.NewServeMux()

	authLimit := middleware.RateLimit(h.limiter, "auth",
		h.config.RateLimiting.Auth.Limit,
		time.Duration(h.config.RateLimiting.Auth.WindowSeconds)*time.Second,
		h.collector, h.log)
	diagnoseLimit := middleware.RateLimit(h.limiter, "diagnose",
		h.config.RateLimiting.Diagnose.Limit,
		time.Duration(h.config.RateLimiting.Diagnose.WindowSeconds)*time.Second,
		h.collector, h.log)
	csrf := h.csrfGuard.Require
	auth := middleware.SessionAuth(h.sessionCodec, h.config.Auth.SessionCookieName)

	// Аутентификация
	mux.HandleFunc("GET /api/v1/auth/csrf", h.csrfToken)
	mux.Handle("POST /api/v1/auth/register", authLimit(csrf(http.HandlerFunc(h.register))))
	mux.Handle("POST /api/v1/auth/login", authLimit(csrf(http.HandlerFunc(h.login))))
	mux.Handle("POST /api/v1/auth/logout", csrf(http.HandlerFunc(h.logout)))
	mux.Handle("GET /api/v1/auth/me", auth(http.HandlerFunc(h.me)))

	// Клиенты и бассейны
	mux.Handle("GET /api/v1/customers", auth(http.HandlerFunc(h.listCustomers)))
	mux.Handle("POST /api/v1/customers", csrf(auth(http.HandlerFunc(h.createCustomer))))
	mux.Handle("GET /api/v1/customers/{customerId}/pools", auth(http.HandlerFunc(h.listPools)))
	mux.Handle("POST /api/v1/customers/{customerId}/pools", csrf(auth(http.HandlerFunc(h.createPool))))
	mux.Handle("GET /api/v1/pools/{poolId}", auth(http.HandlerFunc(h.getPool)))

	// Замеры воды и таймлайн
	mux.Handle("GET /api/v1/pools/{poolId}/water-tests", auth(http.HandlerFunc(h.listWaterTests)))
	mux.Handle("POST /api/v1/pools/{poolId}/water-tests", csrf(auth(http.HandlerFunc(h.createWaterTest))))
	mux.Handle("GET /api/v1/pools/{poolId}/timeline", auth(http.HandlerFunc(h.timeline)))

	// Диагностика и планы
	mux.Handle("POST /api/v1/pools/{poolId}/diagnose", diagnoseLimit(csrf(auth(http.HandlerFunc(h.diagnose)))))
	mux.Handle("POST /api/v1/treatment-plans/{planId}/repeat", csrf(auth(http.HandlerFunc(h.repeatPlan))))
	mux.Handle("POST /api/v1/calculator/dose", csrf(auth(http.HandlerFunc(h.calculateDose))))

	// Служебные эндпоинты
	mux.HandleFunc("GET /health", health.Handler(h.healthChecker))
	mux.HandleFunc("GET /ready", health.ReadyHandler())
	mux.HandleFunc("GET /live", health.LiveHandler())
	mux.Handle("GET /metrics", h.collector.GetHandler())

	// Глобальная цепочка middleware
	var handler http.Handler = mux
	handler = h.collector.Middleware(handler)
	handler = middleware.LoggingMiddleware(h.log)(handler)
	handler = middleware.RecoveryMiddleware(h.log)(handler)

	return handler
}
