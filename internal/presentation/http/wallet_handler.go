package httppresentation

import (
	"net/http"

	appwallet "github.com/Zhima-Mochi/minishop-retail/internal/application/wallet"
)

type WalletHandler struct {
	svc *appwallet.Service
}

func NewWalletHandler(svc *appwallet.Service) *WalletHandler {
	return &WalletHandler{svc: svc}
}

func (h *WalletHandler) Register(rt *Router) {
	rt.HandleFunc("GET /api/wallet", h.handleGet)
	rt.HandleFunc("GET /health", handleHealth)
}

func (h *WalletHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	wallet, err := h.svc.Get(r.Context(), r.Header.Get(HeaderUser))
	if err != nil {
		writeReason(w, http.StatusInternalServerError, "internal")
		return
	}
	writeJSON(w, http.StatusOK, wallet)
}
