package httppresentation

import (
	"errors"
	"net/http"

	apppricing "github.com/Zhima-Mochi/minishop-retail/internal/application/pricing"
	"github.com/Zhima-Mochi/minishop-retail/internal/domain/apperr"
	dompricing "github.com/Zhima-Mochi/minishop-retail/internal/domain/pricing"
)

type PricingHandler struct {
	svc *apppricing.Service
}

func NewPricingHandler(svc *apppricing.Service) *PricingHandler {
	return &PricingHandler{svc: svc}
}

func (h *PricingHandler) Register(rt *Router) {
	rt.HandleFunc("GET /api/pricing/price", h.handlePrice)
	rt.HandleFunc("POST /api/pricing/coupons/validate", h.handleValidate)
	rt.HandleFunc("GET /health", handleHealth)
}

type priceResponse struct {
	OK    bool    `json:"ok"`
	SKU   string  `json:"sku"`
	Price float64 `json:"price"`
}

func (h *PricingHandler) handlePrice(w http.ResponseWriter, r *http.Request) {
	sku := r.URL.Query().Get("sku")
	price, err := h.svc.Price(r.Context(), sku)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, priceResponse{OK: true, SKU: sku, Price: price})
	case errors.Is(err, dompricing.ErrPriceNotFound):
		writeReason(w, http.StatusNotFound, "no_price")
	default:
		writeReason(w, http.StatusInternalServerError, "internal")
	}
}

type validateCouponRequest struct {
	Code       string  `json:"code"`
	ItemsTotal float64 `json:"itemsTotal"`
}

type validateCouponResponse struct {
	Valid    bool     `json:"valid"`
	Discount *float64 `json:"discount,omitempty"`
	Final    *float64 `json:"final,omitempty"`
	Reason   string   `json:"reason,omitempty"`
}

func (h *PricingHandler) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateCouponRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeReason(w, http.StatusBadRequest, "invalid_request")
		return
	}

	quote, valid, err := h.svc.ValidateCoupon(r.Context(), req.Code, req.ItemsTotal)
	switch {
	case err == nil && !valid:
		writeJSON(w, http.StatusOK, validateCouponResponse{Reason: "invalid"})
	case err == nil:
		writeJSON(w, http.StatusOK, validateCouponResponse{Valid: true, Discount: &quote.Discount, Final: &quote.Final})
	case errors.Is(err, apperr.ErrValidation):
		writeReason(w, http.StatusBadRequest, "invalid_total")
	default:
		writeReason(w, http.StatusInternalServerError, "internal")
	}
}
