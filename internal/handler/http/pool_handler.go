package http

import (
	"net/http"

	"PoolProPlatform/internal/service"
)

// listCustomers возвращает клиентов текущего пользователя
func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.currentSession(w, r)
	if !ok {
		return
	}

	customers, err := h.poolService.ListCustomers(r.Context(), sess.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"customers": customers})
}

// createCustomer создает клиента текущего пользователя
func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.currentSession(w, r)
	if !ok {
		return
	}

	var input service.CreateCustomerInput
	if err := h.decodeJSON(w, r, &input); err != nil {
		h.writeError(w, err)
		return
	}

	customer, err := h.poolService.CreateCustomer(r.Context(), sess.UserID, input)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]interface{}{"customer": customer})
}

// listPools возвращает бассейны клиента
func (h *Handler) listPools(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.currentSession(w, r)
	if !ok {
		return
	}

	pools, err := h.poolService.ListPools(r.Context(), sess.UserID, r.PathValue("customerId"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"pools": pools})
}

// createPool создает бассейн клиента
func (h *Handler) createPool(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.currentSession(w, r)
	if !ok {
		return
	}

	var input service.CreatePoolInput
	if err := h.decodeJSON(w, r, &input); err != nil {
		h.writeError(w, err)
		return
	}

	pool, err := h.poolService.CreatePool(r.Context(), sess.UserID, r.PathValue("customerId"), input)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]interface{}{"pool": pool})
}

// getPool возвращает бассейн по ID
func (h *Handler) getPool(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.currentSession(w, r)
	if !ok {
		return
	}

	pool, err := h.poolService.GetPool(r.Context(), sess.UserID, r.PathValue("poolId"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"pool": pool})
}

// listWaterTests возвращает последние замеры бассейна
func (h *Handler) listWaterTests(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.currentSession(w, r)
	if !ok {
		return
	}

	tests, err := h.poolService.ListWaterTests(r.Context(), sess.UserID, r.PathValue("poolId"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"waterTests": tests})
}

// createWaterTest записывает новый замер воды
func (h *Handler) createWaterTest(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.currentSession(w, r)
	if !ok {
		return
	}

	var input service.CreateWaterTestInput
	if err := h.decodeJSON(w, r, &input); err != nil {
		h.writeError(w, err)
		return
	}

	test, err := h.poolService.CreateWaterTest(r.Context(), sess.UserID, r.PathValue("poolId"), input)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]interface{}{"waterTest": test})
}

// timeline возвращает историю бассейна со сравнением последних замеров
func (h *Handler) timeline(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.currentSession(w, r)
	if !ok {
		return
	}

	timeline, err := h.poolService.GetTimeline(r.Context(), sess.UserID, r.PathValue("poolId"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, timeline)
}
