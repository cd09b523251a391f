package http

import (
	"net/http"

	apperrors "PoolProPlatform/pkg/errors"
	"PoolProPlatform/pkg/logger"
)

// registerRequest тело запроса регистрации
type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// loginRequest тело запроса входа
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// csrfToken выдает или переиспользует CSRF токен через double-submit cookie
func (h *Handler) csrfToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.csrfGuard.EnsureToken(w, r)
	if err != nil {
		h.log.Error("Failed to mint CSRF token", logger.Error(err))
		h.writeError(w, apperrors.New(apperrors.ErrInternal, "internal server error"))
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"csrfToken": token})
}

// register создает пользователя и открывает сессию
func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	user, token, err := h.authService.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.setSessionCookie(w, token)
	h.writeJSON(w, http.StatusCreated, map[string]interface{}{"user": user})
}

// login проверяет учетные данные и открывает сессию
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	user, token, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.setSessionCookie(w, token)
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

// logout закрывает сессию. Состояние на сервере не хранится,
// достаточно сбросить cookie
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	h.clearSessionCookie(w)
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// me возвращает текущего пользователя и скользяще продлевает сессию
func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.currentSession(w, r)
	if !ok {
		return
	}

	user, err := h.authService.GetUser(r.Context(), sess.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	// Скользящее продление: свежий токен на каждый запрос профиля
	token, err := h.authService.RefreshToken(user)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.setSessionCookie(w, token)

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}
