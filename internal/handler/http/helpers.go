package http

import (
	"encoding/json"
	"net/http"

	"PoolProPlatform/internal/middleware"
	"PoolProPlatform/internal/pkg/session"
	apperrors "PoolProPlatform/pkg/errors"
	"PoolProPlatform/pkg/logger"
)

// maxBodyBytes максимальный размер тела запроса
const maxBodyBytes = 1 << 20

// writeJSON сериализует ответ с заданным статусом
func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Error("Failed to encode JSON response", logger.Error(err))
	}
}

// writeError отправляет типизированную ошибку в JSON формате
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	apperrors.WriteHTTP(w, apperrors.FromError(err))
}

// decodeJSON разбирает тело запроса с ограничением размера
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		return apperrors.New(apperrors.ErrValidation, "invalid JSON body")
	}
	return nil
}

// currentSession извлекает сессию, установленную middleware аутентификации
func (h *Handler) currentSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		h.writeError(w, apperrors.New(apperrors.ErrUnauthorized, "unauthorized"))
		return nil, false
	}
	return sess, true
}

// setSessionCookie устанавливает сессионную cookie
func (h *Handler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.config.Auth.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   h.config.Auth.SessionTTLSeconds,
		HttpOnly: true,
		Secure:   h.config.Auth.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie сбрасывает сессионную cookie
func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.config.Auth.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.Auth.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
