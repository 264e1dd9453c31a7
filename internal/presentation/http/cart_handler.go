package httppresentation

import (
	"errors"
	"net/http"

	appcart "github.com/Zhima-Mochi/minishop-retail/internal/application/cart"
	domcart "github.com/Zhima-Mochi/minishop-retail/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-retail/internal/domain/apperr"
)

// HeaderUser carries the caller's identity into cart and wallet. The gateway
// is trusted to set it.
const HeaderUser = "X-User"

type CartHandler struct {
	svc *appcart.Service
}

func NewCartHandler(svc *appcart.Service) *CartHandler {
	return &CartHandler{svc: svc}
}

func (h *CartHandler) Register(rt *Router) {
	rt.HandleFunc("POST /api/cart/items", h.handleAddItem)
	rt.HandleFunc("POST /api/cart/apply-coupon", h.handleApplyCoupon)
	rt.HandleFunc("GET /api/cart", h.handleGet)
	rt.HandleFunc("GET /health", handleHealth)
}

type couponView struct {
	Code     string  `json:"code"`
	Discount float64 `json:"discount"`
}

type cartView struct {
	Items  []domcart.LineItem `json:"items"`
	Total  float64            `json:"total"`
	Coupon *couponView        `json:"coupon,omitempty"`
	Final  *float64           `json:"final,omitempty"`
}

func newCartView(c domcart.Cart) cartView {
	v := cartView{Items: c.Items, Total: c.Total()}
	if v.Items == nil {
		v.Items = []domcart.LineItem{}
	}
	if d := c.Discount; d != nil {
		final := d.Final
		v.Coupon = &couponView{Code: d.Code, Discount: d.Amount}
		v.Final = &final
	}
	return v
}

type addItemRequest struct {
	SKU string `json:"sku"`
	Qty int    `json:"qty"`
}

func (h *CartHandler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeReason(w, http.StatusBadRequest, "invalid_request")
		return
	}

	c, err := h.svc.AddItem.Execute(r.Context(), appcart.AddItemInput{
		UserID:   r.Header.Get(HeaderUser),
		SKU:      req.SKU,
		Quantity: req.Qty,
	})
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, newCartView(c))
	case errors.Is(err, domcart.ErrPriceUnavailable):
		writeReason(w, http.StatusBadRequest, "no_price")
	case errors.Is(err, apperr.ErrValidation):
		writeReason(w, http.StatusBadRequest, "invalid_request")
	default:
		writeReason(w, http.StatusInternalServerError, "internal")
	}
}

type applyCouponRequest struct {
	Code string `json:"code"`
}

func (h *CartHandler) handleApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var req applyCouponRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeReason(w, http.StatusBadRequest, "invalid_request")
		return
	}

	res, err := h.svc.ApplyCoupon.Execute(r.Context(), appcart.ApplyCouponInput{
		UserID: r.Header.Get(HeaderUser),
		Code:   req.Code,
	})
	switch {
	case err == nil && !res.Applied:
		writeReason(w, http.StatusOK, "invalid_coupon")
	case err == nil:
		writeJSON(w, http.StatusOK, newCartView(res.Cart))
	case errors.Is(err, domcart.ErrNotFound):
		writeReason(w, http.StatusNotFound, "empty")
	case errors.Is(err, domcart.ErrInvalidCode):
		writeReason(w, http.StatusBadRequest, "missing_code")
	case errors.Is(err, domcart.ErrPricingUnavailable):
		writeReason(w, http.StatusBadGateway, "pricing_unavailable")
	default:
		writeReason(w, http.StatusInternalServerError, "internal")
	}
}

func (h *CartHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Get.Execute(r.Context(), r.Header.Get(HeaderUser))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, newCartView(c))
	case errors.Is(err, domcart.ErrNotFound):
		writeReason(w, http.StatusNotFound, "empty")
	default:
		writeReason(w, http.StatusInternalServerError, "internal")
	}
}
