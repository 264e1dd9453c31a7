package httppresentation

import (
	"errors"
	"net/http"

	apppay "github.com/Zhima-Mochi/minishop-retail/internal/application/payment"
	dompay "github.com/Zhima-Mochi/minishop-retail/internal/domain/payment"
)

type PaymentsHandler struct {
	svc *apppay.Service
}

func NewPaymentsHandler(svc *apppay.Service) *PaymentsHandler {
	return &PaymentsHandler{svc: svc}
}

func (h *PaymentsHandler) Register(rt *Router) {
	rt.HandleFunc("POST /api/payments/intents", h.handleCreate)
	rt.HandleFunc("POST /api/payments/confirm", h.handleConfirm)
	rt.HandleFunc("GET /health", handleHealth)
}

type createIntentRequest struct {
	Amount float64 `json:"amount"`
}

func (h *PaymentsHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createIntentRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeErrorCode(w, http.StatusBadRequest, "invalid_request")
		return
	}
	intent, err := h.svc.CreateIntent(r.Context(), req.Amount)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, intent)
	case errors.Is(err, dompay.ErrInvalidAmount):
		writeErrorCode(w, http.StatusBadRequest, "invalid_amount")
	default:
		writeErrorCode(w, http.StatusInternalServerError, "internal")
	}
}

type confirmIntentRequest struct {
	ID string `json:"id"`
}

func (h *PaymentsHandler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	var req confirmIntentRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeErrorCode(w, http.StatusBadRequest, "invalid_request")
		return
	}
	intent, err := h.svc.Confirm(r.Context(), req.ID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, intent)
	case errors.Is(err, dompay.ErrNotFound):
		writeErrorCode(w, http.StatusNotFound, "not_found")
	default:
		writeErrorCode(w, http.StatusInternalServerError, "internal")
	}
}
