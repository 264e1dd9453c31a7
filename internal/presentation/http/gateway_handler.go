package httppresentation

import (
	"errors"
	"net/http"
	"time"

	appgateway "github.com/Zhima-Mochi/minishop-retail/internal/application/gateway"
	"github.com/Zhima-Mochi/minishop-retail/internal/domain/session"
	"github.com/Zhima-Mochi/minishop-retail/internal/infrastructure/proxy"
	"github.com/Zhima-Mochi/minishop-retail/internal/observability"
	"github.com/Zhima-Mochi/minishop-retail/internal/observability/logctx"
)

const (
	CookieSession    = "session"
	CookieOAuthState = "oauth_state"

	oauthStateTTL = 5 * time.Minute

	msgNotAuthenticated = "No autenticado"
	msgNotAuthorized    = "No autorizado"
	msgCatalogExhausted = "Catálogo no disponible (fallback agotado)"
	msgCatalogError     = "Error al obtener catálogo"
)

// Route names of the gateway table.
const (
	RouteCatalog   = "catalog"
	RouteUploads   = "uploads"
	RouteInventory = "inventory"
	RoutePricing   = "pricing"
	RouteCart      = "cart"
	RoutePayments  = "payments"
	RouteWallet    = "wallet"
	RouteAuth      = "auth"
)

// GatewayUpstreams are the base URLs the gateway forwards to.
type GatewayUpstreams struct {
	Catalog   string
	Inventory string
	Pricing   string
	Cart      string
	Payments  string
	Wallet    string
	Auth      string
	// UploadsPath is where the catalog serves images; /uploads is rewritten to it.
	UploadsPath string
}

// NewGatewayTable builds the fixed prefix table of the gateway.
func NewGatewayTable(u GatewayUpstreams) (*proxy.Table, error) {
	uploads := u.UploadsPath
	if uploads == "" {
		uploads = "/uploads"
	}
	return proxy.NewTable(
		proxy.RouteSpec{Name: RouteCatalog, Prefix: "/api/catalog", Target: u.Catalog},
		proxy.RouteSpec{Name: RouteUploads, Prefix: "/uploads", Target: u.Catalog, Rewrite: proxy.ReplacePrefix("/uploads", uploads)},
		proxy.RouteSpec{Name: RouteInventory, Prefix: "/api/inventory", Target: u.Inventory},
		proxy.RouteSpec{Name: RoutePricing, Prefix: "/api/pricing", Target: u.Pricing},
		proxy.RouteSpec{Name: RouteCart, Prefix: "/api/cart", Target: u.Cart},
		proxy.RouteSpec{Name: RoutePayments, Prefix: "/api/payments", Target: u.Payments},
		proxy.RouteSpec{Name: RouteWallet, Prefix: "/api/wallet", Target: u.Wallet},
		proxy.RouteSpec{Name: RouteAuth, Prefix: "/api/auth", Target: u.Auth},
	)
}

// AuthDebug is what /auth/debug reveals about the sign-in configuration.
// Secrets are reported only as set or unset.
type AuthDebug struct {
	GoogleClientID     bool     `json:"google_client_id"`
	GoogleCallback     string   `json:"google_callback"`
	LocalEnabled       bool     `json:"local_auth_enabled"`
	LocalEmail         string   `json:"local_admin_email"`
	LocalPasswordPlain bool     `json:"local_password_plain"`
	AdminEmails        []string `json:"admin_emails"`
}

type GatewayDeps struct {
	Auth   *appgateway.AuthService
	Table  *proxy.Table
	Proxy  proxy.Options
	Prober *proxy.Prober
	// CatalogBasePath is empty when the probe picks the path on its own.
	CatalogBasePath string
	UploadsPath     string
	SecureCookies   bool
	Debug           AuthDebug
	Tel             observability.Observability
}

// GatewayHandler serves browser sign-in and forwards everything else to the
// upstream services. Catalog writes need an admin session.
type GatewayHandler struct {
	auth     *appgateway.AuthService
	table    *proxy.Table
	proxies  map[string]*proxy.Proxy
	prober   *proxy.Prober
	basePath string
	uploads  string
	secure   bool
	debug    AuthDebug
	log      observability.Logger
	now      func() time.Time
}

func NewGatewayHandler(d GatewayDeps) *GatewayHandler {
	if d.Tel == nil {
		d.Tel = observability.Nop()
	}
	h := &GatewayHandler{
		auth:     d.Auth,
		table:    d.Table,
		proxies:  make(map[string]*proxy.Proxy),
		prober:   d.Prober,
		basePath: d.CatalogBasePath,
		uploads:  d.UploadsPath,
		secure:   d.SecureCookies,
		debug:    d.Debug,
		log:      d.Tel.Logger().With(observability.F("component", "gateway")),
		now:      time.Now,
	}
	for _, rt := range d.Table.Routes() {
		h.proxies[rt.Name] = proxy.New(rt, d.Proxy, d.Tel)
	}
	return h
}

func (h *GatewayHandler) Register(rt *Router) {
	rt.HandleFunc("GET /__ping", h.handlePing)
	rt.HandleFunc("GET /__targets", h.handleTargets)
	rt.HandleFunc("GET /__probe/catalog", h.handleProbe)
	rt.HandleFunc("GET /auth/debug", h.handleDebug)
	rt.HandleFunc("POST /auth/local/login", h.handleLocalLogin)
	rt.HandleFunc("GET /auth/google", h.handleGoogleBegin)
	rt.HandleFunc("GET /auth/google/callback", h.handleGoogleCallback)
	rt.HandleFunc("GET /auth/me", h.handleMe)
	rt.HandleFunc("POST /auth/logout", h.handleLogout)
	rt.HandleFunc("GET /api/catalog", h.handleCatalogRead)
	rt.HandleFunc("/", h.handleForward)
}

// isRead reports whether method leaves the catalog untouched.
func isRead(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// principal reads the browser session. Missing, forged and expired cookies
// all mean anonymous.
func (h *GatewayHandler) principal(r *http.Request) (session.Principal, bool) {
	c, err := r.Cookie(CookieSession)
	if err != nil {
		return session.Principal{}, false
	}
	return h.auth.Verify(c.Value)
}

func (h *GatewayHandler) handleForward(w http.ResponseWriter, r *http.Request) {
	route, ok := h.table.Match(r.URL.Path)
	if !ok {
		writeMessage(w, http.StatusNotFound, "Not found")
		return
	}
	RefineRoute(r.Context(), route.Prefix)

	p, authed := h.principal(r)
	// Only /api/catalog writes are gated; /uploads passes through whatever the method.
	if route.Name == RouteCatalog && !isRead(r.Method) {
		if !authed {
			writeMessage(w, http.StatusUnauthorized, msgNotAuthenticated)
			return
		}
		if !p.IsAdmin() {
			writeMessage(w, http.StatusForbidden, msgNotAuthorized)
			return
		}
	}
	if authed && (route.Name == RouteCart || route.Name == RouteWallet) {
		r.Header.Set(HeaderUser, p.Email)
	}
	h.proxies[route.Name].ServeHTTP(w, r)
}

func (h *GatewayHandler) handleCatalogRead(w http.ResponseWriter, r *http.Request) {
	res, err := h.prober.FetchQuery(r.Context(), r.URL.RawQuery)
	switch {
	case errors.Is(err, proxy.ErrExhausted):
		w.Header().Set(proxy.HeaderGatewayError, "catalog_exhausted")
		writeMessage(w, http.StatusBadGateway, msgCatalogExhausted)
		return
	case err != nil:
		logctx.FromOr(r.Context(), h.log).Warn("catalog_read_failed", observability.Err(err))
		writeMessage(w, http.StatusBadGateway, msgCatalogError)
		return
	}
	ctype := res.ContentType
	if ctype == "" {
		ctype = "application/json"
	}
	w.Header().Set("Content-Type", ctype)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Body)
}

type candidateStatus struct {
	Candidate string `json:"candidate"`
	URL       string `json:"url"`
	// Status is the HTTP status, or "ERR" when the candidate was unreachable.
	Status any `json:"status"`
}

func (h *GatewayHandler) handleProbe(w http.ResponseWriter, r *http.Request) {
	attempts := h.prober.Diagnose(r.Context())
	out := make([]candidateStatus, 0, len(attempts))
	for _, a := range attempts {
		cs := candidateStatus{Candidate: a.Candidate, URL: a.URL, Status: a.Status}
		if a.Err != nil && a.Status == 0 {
			cs.Status = "ERR"
		}
		out = append(out, cs)
	}
	writeJSON(w, http.StatusOK, map[string]any{"base": h.prober.Base(), "candidates": out})
}

func (h *GatewayHandler) handlePing(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "when": h.now().UTC().Format(time.RFC3339Nano)})
}

func (h *GatewayHandler) handleTargets(w http.ResponseWriter, _ *http.Request) {
	out := make(map[string]any)
	for _, rt := range h.table.Routes() {
		out[rt.Name] = rt.Target.String()
	}
	base := h.basePath
	if base == "" {
		base = "(auto)"
	}
	out["catalog_base_path"] = base
	out["catalog_uploads_path"] = h.uploads
	writeJSON(w, http.StatusOK, out)
}

func (h *GatewayHandler) handleDebug(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.debug)
}

type localLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type localLoginResponse struct {
	OK   bool         `json:"ok"`
	Role session.Role `json:"role"`
}

func (h *GatewayHandler) handleLocalLogin(w http.ResponseWriter, r *http.Request) {
	var req localLoginRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeDomainError(w, err)
		return
	}
	sess, err := h.auth.LocalLogin(r.Context(), req.Email, req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.setSession(w, sess)
	writeJSON(w, http.StatusOK, localLoginResponse{OK: true, Role: sess.Principal.Role})
}

func (h *GatewayHandler) handleGoogleBegin(w http.ResponseWriter, r *http.Request) {
	state, redirect, err := h.auth.BeginOAuth(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	http.SetCookie(w, h.cookie(CookieOAuthState, state, oauthStateTTL))
	http.Redirect(w, r, redirect, http.StatusFound)
}

func (h *GatewayHandler) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	saved := ""
	if c, err := r.Cookie(CookieOAuthState); err == nil {
		saved = c.Value
	}
	http.SetCookie(w, h.cookie(CookieOAuthState, "", -1))

	sess, err := h.auth.CompleteOAuth(r.Context(), q.Get("code"), q.Get("state"), saved)
	if err != nil {
		status := statusFor(err)
		msg := err.Error()
		if status == http.StatusInternalServerError && !errors.Is(err, appgateway.ErrOAuthNotConfigured) {
			msg = "oauth callback failed"
		}
		http.Error(w, msg, status)
		return
	}
	h.setSession(w, sess)
	http.Redirect(w, r, "/", http.StatusFound)
}

type meView struct {
	Authenticated bool         `json:"authenticated"`
	Email         string       `json:"email,omitempty"`
	Name          string       `json:"name,omitempty"`
	Picture       string       `json:"picture,omitempty"`
	Role          session.Role `json:"role,omitempty"`
}

func (h *GatewayHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(r)
	if !ok {
		writeJSON(w, http.StatusOK, meView{})
		return
	}
	writeJSON(w, http.StatusOK, meView{
		Authenticated: true,
		Email:         p.Email,
		Name:          p.Name,
		Picture:       p.Picture,
		Role:          p.Role,
	})
}

func (h *GatewayHandler) handleLogout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, h.cookie(CookieSession, "", -1))
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (h *GatewayHandler) setSession(w http.ResponseWriter, s appgateway.Session) {
	c := h.cookie(CookieSession, s.Token, s.ExpiresAt.Sub(h.now()))
	c.Expires = s.ExpiresAt
	http.SetCookie(w, c)
}

// cookie builds an httpOnly, lax cookie. A negative ttl deletes it.
func (h *GatewayHandler) cookie(name, value string, ttl time.Duration) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if ttl < 0 {
		c.MaxAge = -1
	} else {
		c.MaxAge = int(ttl / time.Second)
	}
	return c
}
