package health

import (
	"encoding/json"
	"net/http"
	"time"
)

// HealthChecker интерфейс для проверки здоровья сервиса
type HealthChecker interface {
	Check() *HealthStatus
}

// HealthStatus представляет статус здоровья сервиса
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]Status `json:"services,omitempty"`
	Version   string            `json:"version,omitempty"`
}

// Status представляет статус сервиса
type Status struct {
	Status  string `json:"status"`
	Details string `json:"details,omitempty"`
}

// Pinger интерфейс для проверки доступности зависимости
type Pinger interface {
	Ping() error
}

// SimpleHealthChecker реализация HealthChecker с проверкой зависимостей
type SimpleHealthChecker struct {
	version      string
	dependencies map[string]Pinger
}

// NewSimpleHealthChecker создает новый SimpleHealthChecker
func NewSimpleHealthChecker(version string) *SimpleHealthChecker {
	return &SimpleHealthChecker{
		version:      version,
		dependencies: make(map[string]Pinger),
	}
}

// AddDependency регистрирует зависимость для проверки здоровья
func (s *SimpleHealthChecker) AddDependency(name string, pinger Pinger) {
	s.dependencies[name] = pinger
}

// Check проверяет здоровье сервиса и его зависимостей
func (s *SimpleHealthChecker) Check() *HealthStatus {
	status := &HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   s.version,
	}

	if len(s.dependencies) > 0 {
		status.Services = make(map[string]Status)
		for name, pinger := range s.dependencies {
			if err := pinger.Ping(); err != nil {
				status.Status = "degraded"
				status.Services[name] = Status{Status: "unhealthy", Details: err.Error()}
			} else {
				status.Services[name] = Status{Status: "healthy"}
			}
		}
	}

	return status
}

// Handler создает HTTP обработчик для health check эндпоинта
func Handler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := checker.Check()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		// Отправляем JSON ответ
		json.NewEncoder(w).Encode(status)
	}
}

// ReadyHandler создает HTTP обработчик для ready check эндпоинта
// Возвращает 200 если сервис готов принимать трафик
func ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		response := map[string]string{
			"status": "ready",
		}
		json.NewEncoder(w).Encode(response)
	}
}

// LiveHandler создает HTTP обработчик для live check эндпоинта
// Возвращает 200 если сервис жив
func LiveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		response := map[string]string{
			"status": "alive",
		}
		json.NewEncoder(w).Encode(response)
	}
}
