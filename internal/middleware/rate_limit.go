package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"PoolProPlatform/pkg/errors"
	"PoolProPlatform/pkg/logger"
	"PoolProPlatform/pkg/metrics"
	"PoolProPlatform/pkg/ratelimit"
)

// RateLimit создает middleware для ограничения частоты запросов.
// Ключ строится как "scope:client_ip": окна для разных клиентов
// и областей независимы.
func RateLimit(limiter ratelimit.RateLimiter, scope string, limit int, window time.Duration, collector *metrics.Metrics, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := scope + ":" + ClientIP(r)

			result := limiter.Consume(key, limit, window)
			if !result.Allowed {
				retryAfterMs := time.Until(result.ResetAt).Milliseconds()
				if retryAfterMs < 0 {
					retryAfterMs = 0
				}

				log.Warn("Rate limit exceeded",
					logger.String("key", key),
					logger.Int("limit", limit),
					logger.String("window", window.String()),
					logger.String("method", r.Method),
					logger.String("path", r.URL.Path))

				if collector != nil {
					collector.RateLimitRejections.WithLabelValues(scope).Inc()
				}

				errors.WriteHTTP(w, errors.New(errors.ErrTooManyRequests, "too many requests").
					WithDetails(fmt.Sprintf("retryAfterMs=%d", retryAfterMs)))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP извлекает IP адрес клиента из запроса
func ClientIP(r *http.Request) string {
	// Проверяем X-Forwarded-For заголовок; берем первый адрес из цепочки
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}

	// Проверяем X-Real-IP заголовок
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return strings.TrimSpace(realIP)
	}

	// Возвращаем RemoteAddr как последний вариант.
	// SplitHostPort корректно обрабатывает IPv6 адреса вида "[::1]:50000"
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
