package http

import (
	"net/http"

	"PoolProPlatform/internal/chemistry"
	"PoolProPlatform/internal/service"
)

// diagnose выполняет конвейер диагностики бассейна
func (h *Handler) diagnose(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.currentSession(w, r)
	if !ok {
		return
	}

	var input service.DiagnoseInput
	if err := h.decodeJSON(w, r, &input); err != nil {
		h.writeError(w, err)
		return
	}

	result, err := h.diagnoseService.Diagnose(r.Context(), sess.UserID, r.PathValue("poolId"), input)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// repeatPlan создает новую копию исторического плана лечения
func (h *Handler) repeatPlan(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.currentSession(w, r)
	if !ok {
		return
	}

	plan, err := h.diagnoseService.RepeatPlan(r.Context(), sess.UserID, r.PathValue("planId"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]interface{}{"plan": plan})
}

// calculateDose прямой доступ к детерминированному калькулятору дозирования
func (h *Handler) calculateDose(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.currentSession(w, r); !ok {
		return
	}

	var input chemistry.CalculatorInput
	if err := h.decodeJSON(w, r, &input); err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, chemistry.CalculateDosing(input))
}
