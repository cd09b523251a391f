package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PoolProPlatform/internal/pkg/session"
)

const testSessionCookie = "poolpro_session"

func TestSessionAuth_ValidSession(t *testing.T) {
	codec := session.NewManager("test-secret", time.Hour)
	token, err := codec.Sign("user-1", "tech@example.com")
	require.NoError(t, err)

	var gotUserID string
	handler := SessionAuth(codec, testSessionCookie)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := SessionFromContext(r.Context())
		require.True(t, ok)
		gotUserID = sess.UserID
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: testSessionCookie, Value: token})
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", gotUserID)
}

func TestSessionAuth_UniformRejection(t *testing.T) {
	codec := session.NewManager("test-secret", time.Hour)

	// Токен, подписанный другим секретом
	foreign := session.NewManager("other-secret", time.Hour)
	forged, err := foreign.Sign("user-1", "tech@example.com")
	require.NoError(t, err)

	// Истекший токен
	past := time.Now().Add(-48 * time.Hour)
	expiredCodec := session.NewManagerWithClock("test-secret", time.Hour, func() time.Time { return past })
	expired, err := expiredCodec.Sign("user-1", "tech@example.com")
	require.NoError(t, err)

	tests := []struct {
		name   string
		cookie *http.Cookie
	}{
		{"без cookie", nil},
		{"пустая cookie", &http.Cookie{Name: testSessionCookie, Value: ""}},
		{"мусорный токен", &http.Cookie{Name: testSessionCookie, Value: "not-a-jwt"}},
		{"чужая подпись", &http.Cookie{Name: testSessionCookie, Value: forged}},
		{"истекший токен", &http.Cookie{Name: testSessionCookie, Value: expired}},
	}

	handler := SessionAuth(codec, testSessionCookie)(okHandler())

	var bodies []string
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			bodies = append(bodies, rec.Body.String())
		})
	}

	// Все причины отказа дают одинаковое тело ответа
	for i := 1; i < len(bodies); i++ {
		assert.Equal(t, bodies[0], bodies[i])
	}
}

func TestSessionFromContext_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	_, ok := SessionFromContext(req.Context())

	assert.False(t, ok)
}
