package ratelimit

import (
	"sync"
	"time"
)

// Result представляет результат проверки лимита для одного запроса
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// RateLimiter интерфейс для ограничения частоты запросов.
// Построение ключа (например "scope:client_ip") является обязанностью вызывающего.
type RateLimiter interface {
	// Consume учитывает один запрос для заданного ключа
	// и возвращает результат: разрешен ли запрос, сколько осталось
	// и когда окно будет сброшено
	Consume(key string, limit int, window time.Duration) Result
}

// bucket представляет счетчик запросов в пределах одного окна
type bucket struct {
	count   int
	resetAt time.Time
}

// MemoryRateLimiter реализация RateLimiter в памяти процесса.
// Использует fixed window алгоритм: окна для каждого ключа сбрасываются
// независимо, состояние не переживает перезапуск процесса.
type MemoryRateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

// NewMemoryRateLimiter создает новый экземпляр MemoryRateLimiter
func NewMemoryRateLimiter() *MemoryRateLimiter {
	return &MemoryRateLimiter{
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

// NewMemoryRateLimiterWithClock создает limiter с заданными часами.
// Используется в тестах для контроля времени.
func NewMemoryRateLimiterWithClock(now func() time.Time) *MemoryRateLimiter {
	return &MemoryRateLimiter{
		buckets: make(map[string]*bucket),
		now:     now,
	}
}

// Consume учитывает один запрос для заданного ключа.
// Алгоритм:
// 1. Если бакета нет или его окно истекло, создаем новый с count=1
// 2. Если счетчик достиг лимита, запрос отклоняется и resetAt не меняется
// 3. Иначе увеличиваем счетчик
// Проверка и изменение выполняются под мьютексом: конкурирующие запросы
// по одному ключу не могут одновременно занять последний слот.
func (l *MemoryRateLimiter) Consume(key string, limit int, window time.Duration) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	current, exists := l.buckets[key]
	if !exists || !current.resetAt.After(now) {
		// Новое окно: бакет заменяется целиком, а не инкрементируется
		resetAt := now.Add(window)
		l.buckets[key] = &bucket{count: 1, resetAt: resetAt}
		l.reapExpired(now)
		return Result{Allowed: true, Remaining: maxInt(0, limit-1), ResetAt: resetAt}
	}

	if current.count >= limit {
		return Result{Allowed: false, Remaining: 0, ResetAt: current.resetAt}
	}

	current.count++
	return Result{Allowed: true, Remaining: maxInt(0, limit-current.count), ResetAt: current.resetAt}
}

// reapThreshold минимальный размер карты, при котором запускается ленивая очистка
const reapThreshold = 1024

// reapExpired лениво удаляет истекшие бакеты.
// Вызывается под мьютексом при создании нового окна, чтобы карта
// не росла бесконечно от одноразовых ключей.
func (l *MemoryRateLimiter) reapExpired(now time.Time) {
	if len(l.buckets) < reapThreshold {
		return
	}
	for key, b := range l.buckets {
		if !b.resetAt.After(now) {
			delete(l.buckets, key)
		}
	}
}

// maxInt возвращает большее из двух значений
func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
