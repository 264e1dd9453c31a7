package httppresentation

import (
	"errors"
	"net/http"
	"time"

	appinv "github.com/Zhima-Mochi/minishop-retail/internal/application/inventory"
	"github.com/Zhima-Mochi/minishop-retail/internal/domain/apperr"
	dominv "github.com/Zhima-Mochi/minishop-retail/internal/domain/inventory"
)

type InventoryHandler struct {
	svc *appinv.Service
}

func NewInventoryHandler(svc *appinv.Service) *InventoryHandler {
	return &InventoryHandler{svc: svc}
}

func (h *InventoryHandler) Register(rt *Router) {
	rt.HandleFunc("POST /api/inventory/seed", h.handleSeed)
	rt.HandleFunc("GET /api/inventory/stock", h.handleStock)
	rt.HandleFunc("POST /api/inventory/reservations", h.handleReserve)
	rt.HandleFunc("POST /api/inventory/confirm", h.handleConfirm)
	rt.HandleFunc("GET /health", handleHealth)
}

type stockView struct {
	StoreID   string    `json:"store_id"`
	SKU       string    `json:"sku"`
	Available int       `json:"available"`
	Reserved  int       `json:"reserved"`
	UpdatedAt time.Time `json:"updated_at"`
}

type movementRequest struct {
	StoreID string `json:"store_id"`
	SKU     string `json:"sku"`
	Qty     int    `json:"qty"`
}

func (m movementRequest) input() appinv.MovementInput {
	return appinv.MovementInput{StoreID: m.StoreID, SKU: m.SKU, Quantity: m.Qty}
}

type okResponse struct {
	OK bool `json:"ok"`
}

func (h *InventoryHandler) handleSeed(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Seed(r.Context()); err != nil {
		writeReason(w, http.StatusInternalServerError, "internal")
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (h *InventoryHandler) handleStock(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rows, err := h.svc.List(r.Context(), dominv.Filter{StoreID: q.Get("store"), SKU: q.Get("sku")})
	if err != nil {
		writeReason(w, http.StatusInternalServerError, "internal")
		return
	}
	out := make([]stockView, 0, len(rows))
	for _, s := range rows {
		out = append(out, stockView{
			StoreID:   s.StoreID,
			SKU:       s.SKU,
			Available: s.Available,
			Reserved:  s.Reserved,
			UpdatedAt: s.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *InventoryHandler) handleReserve(w http.ResponseWriter, r *http.Request) {
	var req movementRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeReason(w, http.StatusBadRequest, "invalid_request")
		return
	}
	_, err := h.svc.Reserve(r.Context(), req.input())
	if err != nil {
		writeMovementError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, okResponse{OK: true})
}

func (h *InventoryHandler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	var req movementRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeReason(w, http.StatusBadRequest, "invalid_request")
		return
	}
	_, err := h.svc.Confirm(r.Context(), req.input())
	if err != nil {
		writeMovementError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func writeMovementError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, dominv.ErrInsufficientStock):
		writeReason(w, http.StatusConflict, "no_stock")
	case errors.Is(err, dominv.ErrNothingReserved):
		writeReason(w, http.StatusConflict, "no_reserved")
	case errors.Is(err, apperr.ErrValidation):
		writeReason(w, http.StatusBadRequest, "invalid_request")
	default:
		writeReason(w, http.StatusInternalServerError, "internal")
	}
}
