package middleware

import (
	"context"
	"net/http"

	"PoolProPlatform/internal/pkg/session"
	"PoolProPlatform/pkg/errors"
)

// sessionContextKey ключ для хранения сессии в контексте запроса
type sessionContextKey struct{}

// SessionAuth проверяет аутентификацию запроса по сессионной cookie.
// Запрос без валидной сессии отклоняется с единым unauthorized ответом:
// истекший и подделанный токены для клиента неразличимы.
func SessionAuth(codec session.Codec, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				errors.WriteHTTP(w, errors.New(errors.ErrUnauthorized, "unauthorized"))
				return
			}

			sess, err := codec.Verify(cookie.Value)
			if err != nil {
				errors.WriteHTTP(w, errors.New(errors.ErrUnauthorized, "unauthorized"))
				return
			}

			// Добавляем сессию в контекст
			ctx := context.WithValue(r.Context(), sessionContextKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext извлекает сессию из контекста запроса
func SessionFromContext(ctx context.Context) (*session.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey{}).(*session.Session)
	return sess, ok
}
