package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"net/url"

	"PoolProPlatform/pkg/errors"
	"PoolProPlatform/pkg/logger"
)

// CsrfHeaderName заголовок, в котором клиент дублирует CSRF токен
const CsrfHeaderName = "x-csrf-token"

// csrfTokenBytes размер CSRF токена до hex кодирования
const csrfTokenBytes = 24

// csrfCookieMaxAge срок жизни CSRF cookie (7 дней).
// Токен не ротируется после выдачи.
const csrfCookieMaxAge = 7 * 24 * 60 * 60

// CsrfGuard реализует защиту от CSRF: проверку источника запроса
// и double-submit сравнение токена из cookie и заголовка
type CsrfGuard struct {
	cookieName   string
	cookieSecure bool
	// bypassOrigin отключает проверку Origin (только для test окружения)
	bypassOrigin bool
	log          logger.Logger
}

// NewCsrfGuard создает новый CsrfGuard
func NewCsrfGuard(cookieName string, cookieSecure, bypassOrigin bool, log logger.Logger) *CsrfGuard {
	return &CsrfGuard{
		cookieName:   cookieName,
		cookieSecure: cookieSecure,
		bypassOrigin: bypassOrigin,
		log:          log,
	}
}

// Require создает middleware, проверяющее CSRF для мутирующих запросов.
// Безопасные методы (GET, HEAD, OPTIONS) пропускаются без проверки.
// Порядок проверок фиксирован: сначала origin, затем токены.
// Внешний ответ одинаков для обеих причин, различие только в логах.
func (g *CsrfGuard) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		if !g.validateOrigin(r) {
			g.log.Warn("CSRF check failed",
				logger.String("reason", "csrf_origin_invalid"),
				logger.String("method", r.Method),
				logger.String("path", r.URL.Path))
			errors.WriteHTTP(w, errors.New(errors.ErrForbidden, "csrf validation failed"))
			return
		}

		if !g.validateTokenPair(r) {
			g.log.Warn("CSRF check failed",
				logger.String("reason", "csrf_token_invalid"),
				logger.String("method", r.Method),
				logger.String("path", r.URL.Path))
			errors.WriteHTTP(w, errors.New(errors.ErrForbidden, "csrf validation failed"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// validateOrigin проверяет, что Origin запроса совпадает с эффективным
// хостом и схемой. Заголовки X-Forwarded-Host и X-Forwarded-Proto имеют
// приоритет: сервис работает за reverse proxy.
// Отсутствующий Origin отклоняется.
func (g *CsrfGuard) validateOrigin(r *http.Request) bool {
	if g.bypassOrigin {
		return true
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		return false
	}

	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	if host == "" {
		return false
	}

	proto := r.Header.Get("X-Forwarded-Proto")
	if proto == "" {
		if r.TLS != nil {
			proto = "https"
		} else {
			proto = "http"
		}
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}

	return originURL.Host == host && originURL.Scheme == proto
}

// validateTokenPair проверяет double-submit пару: токен из заголовка
// должен точно совпадать с токеном из cookie, оба обязательны
func (g *CsrfGuard) validateTokenPair(r *http.Request) bool {
	headerToken := r.Header.Get(CsrfHeaderName)
	cookie, err := r.Cookie(g.cookieName)
	if err != nil {
		return false
	}

	return headerToken != "" && cookie.Value != "" && headerToken == cookie.Value
}

// EnsureToken возвращает существующий CSRF токен из cookie или выдает новый.
// Cookie доступна клиентскому скрипту (не HttpOnly), чтобы клиент мог
// продублировать токен в заголовке. Повторный вызов идемпотентен.
func (g *CsrfGuard) EnsureToken(w http.ResponseWriter, r *http.Request) (string, error) {
	if cookie, err := r.Cookie(g.cookieName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	raw := make([]byte, csrfTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	token := hex.EncodeToString(raw)

	http.SetCookie(w, &http.Cookie{
		Name:     g.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   csrfCookieMaxAge,
		HttpOnly: false,
		Secure:   g.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	})

	return token, nil
}
