package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PoolProPlatform/pkg/logger"
)

const testCsrfCookie = "poolpro_csrf"

func newTestCsrfGuard(t *testing.T, bypassOrigin bool) *CsrfGuard {
	t.Helper()
	log, err := logger.NewLogger("test", "debug", "poolpro-test")
	require.NoError(t, err)
	return NewCsrfGuard(testCsrfCookie, false, bypassOrigin, log)
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCsrfGuard_SafeMethodsSkipped(t *testing.T) {
	guard := newTestCsrfGuard(t, false)
	handler := guard.Require(okHandler())

	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodOptions} {
		req := httptest.NewRequest(method, "http://example.com/api/v1/customers", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, method)
	}
}

func TestCsrfGuard_DoubleSubmitMatrix(t *testing.T) {
	guard := newTestCsrfGuard(t, true)
	handler := guard.Require(okHandler())

	tests := []struct {
		name       string
		header     string
		cookie     string
		wantStatus int
	}{
		{"совпадающая пара", "token-1", "token-1", http.StatusOK},
		{"несовпадающая пара", "token-1", "token-2", http.StatusForbidden},
		{"только заголовок", "token-1", "", http.StatusForbidden},
		{"только cookie", "", "token-1", http.StatusForbidden},
		{"оба отсутствуют", "", "", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "http://example.com/api/v1/customers", nil)
			if tt.header != "" {
				req.Header.Set(CsrfHeaderName, tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: testCsrfCookie, Value: tt.cookie})
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusForbidden {
				assert.Contains(t, rec.Body.String(), "FORBIDDEN")
			}
		})
	}
}

func TestCsrfGuard_OriginValidation(t *testing.T) {
	guard := newTestCsrfGuard(t, false)
	handler := guard.Require(okHandler())

	tests := []struct {
		name       string
		origin     string
		forwarded  map[string]string
		host       string
		wantStatus int
	}{
		{"совпадающий origin", "http://app.example.com", nil, "app.example.com", http.StatusOK},
		{"чужой origin", "http://evil.example.com", nil, "app.example.com", http.StatusForbidden},
		{"отсутствующий origin", "", nil, "app.example.com", http.StatusForbidden},
		{"несовпадающая схема", "https://app.example.com", nil, "app.example.com", http.StatusForbidden},
		{
			"X-Forwarded-Host приоритетнее Host",
			"https://public.example.com",
			map[string]string{"X-Forwarded-Host": "public.example.com", "X-Forwarded-Proto": "https"},
			"internal:8080",
			http.StatusOK,
		},
		{
			"X-Forwarded-Proto учитывается",
			"http://public.example.com",
			map[string]string{"X-Forwarded-Host": "public.example.com", "X-Forwarded-Proto": "https"},
			"internal:8080",
			http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "http://"+tt.host+"/api/v1/customers", nil)
			req.Host = tt.host
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			for k, v := range tt.forwarded {
				req.Header.Set(k, v)
			}
			// Валидная double-submit пара, чтобы проверить только origin
			req.Header.Set(CsrfHeaderName, "token-1")
			req.AddCookie(&http.Cookie{Name: testCsrfCookie, Value: "token-1"})
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestCsrfGuard_EnsureTokenIdempotent(t *testing.T) {
	guard := newTestCsrfGuard(t, false)

	// Первый вызов выдает новый токен и устанавливает cookie
	req := httptest.NewRequest(http.MethodGet, "http://example.com/api/v1/auth/csrf", nil)
	rec := httptest.NewRecorder()

	token, err := guard.EnsureToken(rec, req)

	require.NoError(t, err)
	assert.Len(t, token, csrfTokenBytes*2)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, testCsrfCookie, cookies[0].Name)
	assert.Equal(t, token, cookies[0].Value)
	assert.False(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookies[0].SameSite)
	assert.Equal(t, csrfCookieMaxAge, cookies[0].MaxAge)

	// Повторный вызов с существующей cookie возвращает тот же токен
	req = httptest.NewRequest(http.MethodGet, "http://example.com/api/v1/auth/csrf", nil)
	req.AddCookie(&http.Cookie{Name: testCsrfCookie, Value: token})
	rec = httptest.NewRecorder()

	again, err := guard.EnsureToken(rec, req)

	require.NoError(t, err)
	assert.Equal(t, token, again)
	assert.Empty(t, rec.Result().Cookies())
}
