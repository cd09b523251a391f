package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PoolProPlatform/pkg/logger"
	"PoolProPlatform/pkg/ratelimit"
)

func TestRateLimit_BlocksOverLimit(t *testing.T) {
	log, err := logger.NewLogger("test", "debug", "poolpro-test")
	require.NoError(t, err)

	limiter := ratelimit.NewMemoryRateLimiter()
	handler := RateLimit(limiter, "auth", 3, time.Minute, nil, log)(okHandler())

	// Первые три запроса проходят
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	}

	// Четвертый отклоняется с retryAfterMs в деталях
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	req.RemoteAddr = "10.0.0.1:5000"
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "TOO_MANY_REQUESTS")
	assert.Contains(t, rec.Body.String(), "retryAfterMs=")
}

func TestRateLimit_IndependentClients(t *testing.T) {
	log, err := logger.NewLogger("test", "debug", "poolpro-test")
	require.NoError(t, err)

	limiter := ratelimit.NewMemoryRateLimiter()
	handler := RateLimit(limiter, "auth", 1, time.Minute, nil, log)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	req.RemoteAddr = "10.0.0.1:5000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Другой клиент имеет собственное окно
	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	req.RemoteAddr = "10.0.0.2:5000"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Первый клиент уже исчерпал лимит
	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	req.RemoteAddr = "10.0.0.1:5001"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRateLimit_IndependentScopes(t *testing.T) {
	log, err := logger.NewLogger("test", "debug", "poolpro-test")
	require.NoError(t, err)

	limiter := ratelimit.NewMemoryRateLimiter()
	authHandler := RateLimit(limiter, "auth", 1, time.Minute, nil, log)(okHandler())
	diagnoseHandler := RateLimit(limiter, "diagnose", 1, time.Minute, nil, log)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	req.RemoteAddr = "10.0.0.1:5000"
	rec := httptest.NewRecorder()
	authHandler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Та же IP в другой области не ограничена
	req = httptest.NewRequest(http.MethodPost, "/api/v1/pools/p1/diagnose", nil)
	req.RemoteAddr = "10.0.0.1:5000"
	rec = httptest.NewRecorder()
	diagnoseHandler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"X-Forwarded-For первый адрес", map[string]string{"X-Forwarded-For": "203.0.113.5, 70.41.3.18"}, "10.0.0.1:5000", "203.0.113.5"},
		{"X-Real-IP", map[string]string{"X-Real-IP": "203.0.113.9"}, "10.0.0.1:5000", "203.0.113.9"},
		{"RemoteAddr без заголовков", nil, "10.0.0.1:5000", "10.0.0.1"},
		{"RemoteAddr IPv6 с портом", nil, "[::1]:50000", "::1"},
		{"RemoteAddr IPv6 полный", nil, "[2001:db8::7]:443", "2001:db8::7"},
		{"RemoteAddr без порта", nil, "10.0.0.1", "10.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			assert.Equal(t, tt.want, ClientIP(req))
		})
	}
}
