package httppresentation

import (
	"errors"
	"net/http"
	"strings"

	appaccount "github.com/Zhima-Mochi/minishop-retail/internal/application/account"
	domaccount "github.com/Zhima-Mochi/minishop-retail/internal/domain/account"
	"github.com/Zhima-Mochi/minishop-retail/internal/domain/apperr"
)

// AuthHandler serves the bearer-token identity API.
type AuthHandler struct {
	svc *appaccount.Service
}

func NewAuthHandler(svc *appaccount.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

func (h *AuthHandler) Register(rt *Router) {
	rt.HandleFunc("GET /{$}", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	rt.HandleFunc("GET /health", healthVia("/health"))
	rt.HandleFunc("GET /api/auth/health", healthVia("/api/auth/health"))
	rt.HandleFunc("POST /api/auth/register", h.handleRegister)
	rt.HandleFunc("POST /api/auth/login", h.handleLogin)
	rt.HandleFunc("POST /api/auth/google", h.handleGoogle)
	rt.HandleFunc("GET /me", h.handleMe("/me"))
	rt.HandleFunc("GET /api/auth/me", h.handleMe("/api/auth/me"))
}

func healthVia(via string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "via": via})
	}
}

type userView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Provider string `json:"provider,omitempty"`
}

type authResponse struct {
	OK    bool     `json:"ok"`
	Token string   `json:"token"`
	User  userView `json:"user"`
}

type meResponse struct {
	OK   bool     `json:"ok"`
	User userView `json:"user"`
	Via  string   `json:"via"`
}

func newUserView(u domaccount.User, withProvider bool) userView {
	v := userView{ID: u.ID, Name: u.Name, Phone: u.Phone, Email: u.Email}
	if withProvider {
		v.Provider = string(u.Provider)
	}
	return v
}

type registerRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeErrorCode(w, http.StatusBadRequest, "missing_fields")
		return
	}
	res, err := h.svc.Register(r.Context(), domaccount.Registration{
		Name:     req.Name,
		Phone:    req.Phone,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{OK: true, Token: res.Token, User: newUserView(res.User, false)})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeErrorCode(w, http.StatusBadRequest, "missing_fields")
		return
	}
	res, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{OK: true, Token: res.Token, User: newUserView(res.User, false)})
}

type googleRequest struct {
	IDToken string `json:"id_token"`
}

func (h *AuthHandler) handleGoogle(w http.ResponseWriter, r *http.Request) {
	var req googleRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeErrorCode(w, http.StatusBadRequest, "missing_id_token")
		return
	}
	res, err := h.svc.Google(r.Context(), req.IDToken)
	if err != nil {
		writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{OK: true, Token: res.Token, User: newUserView(res.User, true)})
}

func (h *AuthHandler) handleMe(via string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := h.svc.Me(r.Context(), bearerToken(r))
		if err != nil {
			writeAuthError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, meResponse{OK: true, User: newUserView(u, true), Via: via})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domaccount.ErrMissingFields):
		writeErrorCode(w, http.StatusBadRequest, "missing_fields")
	case errors.Is(err, domaccount.ErrInvalidEmail):
		writeErrorCode(w, http.StatusBadRequest, "invalid_email")
	case errors.Is(err, domaccount.ErrEmailInUse):
		writeErrorCode(w, http.StatusConflict, "email_in_use")
	case errors.Is(err, domaccount.ErrInvalidCredentials):
		writeErrorCode(w, http.StatusUnauthorized, "invalid_credentials")
	case errors.Is(err, appaccount.ErrGoogleNotConfigured):
		writeErrorCode(w, http.StatusInternalServerError, "google_not_configured")
	case errors.Is(err, appaccount.ErrMissingIDToken):
		writeErrorCode(w, http.StatusBadRequest, "missing_id_token")
	case errors.Is(err, appaccount.ErrNoToken):
		writeErrorCode(w, http.StatusUnauthorized, "no_token")
	case errors.Is(err, appaccount.ErrInvalidToken):
		writeErrorCode(w, http.StatusUnauthorized, "invalid_token")
	case errors.Is(err, domaccount.ErrNotFound):
		writeErrorCode(w, http.StatusNotFound, "user_not_found")
	case errors.Is(err, apperr.ErrAuthentication):
		writeErrorCode(w, http.StatusUnauthorized, "invalid_google_token")
	default:
		writeErrorCode(w, http.StatusInternalServerError, "server_error")
	}
}
