package httppresentation

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	appgateway "github.com/Zhima-Mochi/minishop-retail/internal/application/gateway"
	"github.com/Zhima-Mochi/minishop-retail/internal/domain/account"
	"github.com/Zhima-Mochi/minishop-retail/internal/domain/session"
	"github.com/Zhima-Mochi/minishop-retail/internal/infrastructure/proxy"
	"github.com/Zhima-Mochi/minishop-retail/internal/infrastructure/sessiontoken"
)

type fakeOAuth struct {
	exchangeFn func(ctx context.Context, code string) (account.ExternalIdentity, error)
}

func (f *fakeOAuth) AuthCodeURL(state string) string {
	return "https://accounts.example.test/auth?state=" + url.QueryEscape(state)
}

func (f *fakeOAuth) Exchange(ctx context.Context, code string) (account.ExternalIdentity, error) {
	return f.exchangeFn(ctx, code)
}

type gatewayFixture struct {
	rt      *Router
	codec   *sessiontoken.Codec
	now     *time.Time
	catalog *httptest.Server
}

type upstreamSet struct {
	catalog http.Handler
	cart    http.Handler
	oauth   appgateway.OAuthProvider
	probe   proxy.ProbeOptions
}

func newGatewayFixture(t *testing.T, up upstreamSet) *gatewayFixture {
	t.Helper()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	f := &gatewayFixture{now: &now}

	codec, err := sessiontoken.New("gateway-secret", sessiontoken.BrowserSession,
		sessiontoken.WithClock(func() time.Time { return *f.now }))
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	f.codec = codec

	if up.catalog == nil {
		up.catalog = http.NotFoundHandler()
	}
	f.catalog = httptest.NewServer(up.catalog)
	t.Cleanup(f.catalog.Close)
	if up.cart == nil {
		up.cart = http.NotFoundHandler()
	}
	cart := httptest.NewServer(up.cart)
	t.Cleanup(cart.Close)

	table, err := NewGatewayTable(GatewayUpstreams{
		Catalog:     f.catalog.URL,
		Inventory:   "http://127.0.0.1:1",
		Pricing:     "http://127.0.0.1:1",
		Cart:        cart.URL,
		Payments:    "http://127.0.0.1:1",
		Wallet:      "http://127.0.0.1:1",
		Auth:        "http://127.0.0.1:1",
		UploadsPath: "/static",
	})
	if err != nil {
		t.Fatalf("table: %v", err)
	}

	base, _ := url.Parse(f.catalog.URL)
	if up.probe.Timeout == 0 {
		up.probe.Timeout = time.Second
	}
	prober := proxy.NewProber(base, proxy.Candidates("", "/catalog", "/productos"), up.probe, nil)

	auth := appgateway.NewAuthService(appgateway.Deps{
		Local:    appgateway.LocalLogin{Enabled: true, Email: "boss@shop.test", PasswordPlain: "letmein"},
		Admins:   session.NewAdminList("boss@shop.test"),
		Sessions: codec,
		OAuth:    up.oauth,
	})
	h := NewGatewayHandler(GatewayDeps{
		Auth:        auth,
		Table:       table,
		Proxy:       proxy.Options{Timeout: time.Second},
		Prober:      prober,
		UploadsPath: "/static",
	})
	h.now = func() time.Time { return *f.now }

	f.rt = NewRouter(nil)
	h.Register(f.rt)
	return f
}

func (f *gatewayFixture) cookie(t *testing.T, email string, role session.Role) map[string]string {
	t.Helper()
	token, _, err := f.codec.Issue(session.Principal{Subject: email, Email: email, Role: role})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return map[string]string{"Cookie": CookieSession + "=" + token}
}

func TestGatewayCatalogWriteAuthorization(t *testing.T) {
	var forwarded atomic.Int64
	f := newGatewayFixture(t, upstreamSet{catalog: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		forwarded.Add(1)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id_producto":9}`))
	})})

	tests := []struct {
		name       string
		headers    map[string]string
		wantStatus int
		wantMsg    string
	}{
		{"anonymous", nil, http.StatusUnauthorized, msgNotAuthenticated},
		{"forged cookie", map[string]string{"Cookie": CookieSession + "=forged"}, http.StatusUnauthorized, msgNotAuthenticated},
		{"user role", f.cookie(t, "ana@shop.test", session.RoleUser), http.StatusForbidden, msgNotAuthorized},
		{"admin role", f.cookie(t, "boss@shop.test", session.RoleAdmin), http.StatusCreated, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := forwarded.Load()
			rec := do(t, f.rt, http.MethodPost, "/api/catalog/x", `{"nom_producto":"Mesa"}`, tt.headers)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status %d body %s", rec.Code, rec.Body)
			}
			if tt.wantMsg != "" {
				if got := decode[message](t, rec); got.Message != tt.wantMsg {
					t.Fatalf("message %q", got.Message)
				}
				if forwarded.Load() != before {
					t.Fatalf("rejected request reached the upstream")
				}
			}
		})
	}

	// The bare collection path is gated too.
	if rec := do(t, f.rt, http.MethodPost, "/api/catalog", `{}`, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("POST /api/catalog: status %d", rec.Code)
	}
	if rec := do(t, f.rt, http.MethodDelete, "/api/catalog/3", "", f.cookie(t, "ana@shop.test", session.RoleUser)); rec.Code != http.StatusForbidden {
		t.Fatalf("DELETE as user: status %d", rec.Code)
	}
}

func TestGatewayCatalogReadFallsBack(t *testing.T) {
	var hitsA, hitsB atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/api/catalog", func(w http.ResponseWriter, _ *http.Request) {
		hitsA.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/catalog", func(w http.ResponseWriter, _ *http.Request) {
		hitsB.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id_producto":1,"nom_producto":"Silla"}]`))
	})
	f := newGatewayFixture(t, upstreamSet{catalog: mux})

	first := do(t, f.rt, http.MethodGet, "/api/catalog", "", nil)
	second := do(t, f.rt, http.MethodGet, "/api/catalog", "", nil)
	if first.Code != http.StatusOK || first.Body.String() != `[{"id_producto":1,"nom_producto":"Silla"}]` {
		t.Fatalf("status %d body %s", first.Code, first.Body)
	}
	if second.Body.String() != first.Body.String() {
		t.Fatalf("repeated reads differ: %s vs %s", first.Body, second.Body)
	}
	if hitsA.Load() != 2 || hitsB.Load() != 2 {
		t.Fatalf("hits A=%d B=%d", hitsA.Load(), hitsB.Load())
	}
}

func TestGatewayCatalogReadKeepsQuery(t *testing.T) {
	var seen atomic.Value
	f := newGatewayFixture(t, upstreamSet{catalog: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.Store(r.URL.RawQuery)
		_, _ = w.Write([]byte(`[]`))
	})})

	if rec := do(t, f.rt, http.MethodGet, "/api/catalog?cat=Hogar", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if got, _ := seen.Load().(string); got != "cat=Hogar" {
		t.Fatalf("upstream query %q", got)
	}
}

func TestGatewayCatalogReadExhausted(t *testing.T) {
	f := newGatewayFixture(t, upstreamSet{catalog: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})})

	rec := do(t, f.rt, http.MethodGet, "/api/catalog", "", nil)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status %d", rec.Code)
	}
	if got := decode[message](t, rec); got.Message != msgCatalogExhausted {
		t.Fatalf("message %q", got.Message)
	}
	if rec.Header().Get(proxy.HeaderGatewayError) == "" {
		t.Fatalf("exhaustion must be tagged as a gateway failure")
	}
}

func TestGatewayHungCatalogAnswersBeforeWriteDeadline(t *testing.T) {
	release := make(chan struct{})
	f := newGatewayFixture(t, upstreamSet{
		catalog: http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-release:
			}
		}),
		// Three candidates at 250ms each would outlast the write deadline.
		probe: proxy.ProbeOptions{Timeout: 250 * time.Millisecond, Budget: 300 * time.Millisecond},
	})
	t.Cleanup(func() { close(release) })

	gw := httptest.NewUnstartedServer(f.rt)
	gw.Config.ReadTimeout = 500 * time.Millisecond
	gw.Config.WriteTimeout = 600 * time.Millisecond
	gw.Start()
	t.Cleanup(gw.Close)

	resp, err := gw.Client().Get(gw.URL + "/api/catalog")
	if err != nil {
		t.Fatalf("client saw a transport error instead of a 502: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var got message
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Message != msgCatalogExhausted {
		t.Fatalf("message %q", got.Message)
	}
}

func TestGatewayProbeDiagnostic(t *testing.T) {
	f := newGatewayFixture(t, upstreamSet{catalog: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/productos" {
			_, _ = w.Write([]byte(`[]`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})})

	rec := do(t, f.rt, http.MethodGet, "/__probe/catalog", "", nil)
	got := decode[struct {
		Base       string `json:"base"`
		Candidates []struct {
			Candidate string `json:"candidate"`
			Status    any    `json:"status"`
		} `json:"candidates"`
	}](t, rec)
	if got.Base != f.catalog.URL || len(got.Candidates) != 3 {
		t.Fatalf("unexpected %+v", got)
	}
	want := map[string]float64{"/api/catalog": 404, "/catalog": 404, "/productos": 200}
	for _, c := range got.Candidates {
		if c.Status != want[c.Candidate] {
			t.Fatalf("candidate %s status %v", c.Candidate, c.Status)
		}
	}
}

func TestGatewayForwardsWithSessionUser(t *testing.T) {
	var seenUser atomic.Value
	f := newGatewayFixture(t, upstreamSet{cart: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUser.Store(r.Header.Get(HeaderUser))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[],"total":0}`))
	})})

	rec := do(t, f.rt, http.MethodGet, "/api/cart", "", f.cookie(t, "ana@shop.test", session.RoleUser))
	if rec.Code != http.StatusOK || seenUser.Load() != "ana@shop.test" {
		t.Fatalf("status %d user %v", rec.Code, seenUser.Load())
	}

	rec = do(t, f.rt, http.MethodGet, "/api/cart", "", map[string]string{HeaderUser: "jp"})
	if rec.Code != http.StatusOK || seenUser.Load() != "jp" {
		t.Fatalf("anonymous caller header must pass through, got %v", seenUser.Load())
	}
}

func TestGatewayUpstreamDown(t *testing.T) {
	f := newGatewayFixture(t, upstreamSet{})

	rec := do(t, f.rt, http.MethodGet, "/api/inventory/stock", "", nil)
	if rec.Code != http.StatusBadGateway || rec.Header().Get(proxy.HeaderGatewayError) != proxy.FailureUnavailable {
		t.Fatalf("status %d header %q", rec.Code, rec.Header().Get(proxy.HeaderGatewayError))
	}
	if rec := do(t, f.rt, http.MethodGet, "/nowhere", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown path: status %d", rec.Code)
	}
}

func TestGatewayUploadsRewrite(t *testing.T) {
	var seenPath atomic.Value
	f := newGatewayFixture(t, upstreamSet{catalog: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenPath.Store(r.URL.Path)
		_, _ = io.WriteString(w, "img")
	})})

	rec := do(t, f.rt, http.MethodGet, "/uploads/chair.jpg", "", nil)
	if rec.Code != http.StatusOK || seenPath.Load() != "/static/chair.jpg" {
		t.Fatalf("status %d path %v", rec.Code, seenPath.Load())
	}

	// Uploads carry no auth requirement, writes included.
	rec = do(t, f.rt, http.MethodPost, "/uploads/new.jpg", "x", nil)
	if rec.Code != http.StatusOK || seenPath.Load() != "/static/new.jpg" {
		t.Fatalf("anonymous upload write: status %d path %v", rec.Code, seenPath.Load())
	}
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == CookieSession {
			return c
		}
	}
	return nil
}

func TestGatewayLocalLoginAndSessionLifecycle(t *testing.T) {
	f := newGatewayFixture(t, upstreamSet{})

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"missing fields", `{"email":"boss@shop.test"}`, http.StatusBadRequest},
		{"wrong email", `{"email":"ana@shop.test","password":"letmein"}`, http.StatusUnauthorized},
		{"wrong password", `{"email":"boss@shop.test","password":"nope"}`, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, f.rt, http.MethodPost, "/auth/local/login", tt.body, nil)
			if rec.Code != tt.wantStatus || sessionCookie(rec) != nil {
				t.Fatalf("status %d body %s", rec.Code, rec.Body)
			}
		})
	}

	rec := do(t, f.rt, http.MethodPost, "/auth/local/login", `{"email":"Boss@Shop.test","password":"letmein"}`, nil)
	c := sessionCookie(rec)
	if rec.Code != http.StatusOK || c == nil || !c.HttpOnly || c.SameSite != http.SameSiteLaxMode {
		t.Fatalf("login: status %d cookie %+v", rec.Code, c)
	}
	if c.MaxAge != int((7 * 24 * time.Hour).Seconds()) {
		t.Fatalf("session cookie max-age %d", c.MaxAge)
	}
	if got := decode[localLoginResponse](t, rec); got.Role != session.RoleAdmin {
		t.Fatalf("role %q", got.Role)
	}

	cookie := map[string]string{"Cookie": CookieSession + "=" + c.Value}
	me := decode[meView](t, do(t, f.rt, http.MethodGet, "/auth/me", "", cookie))
	if !me.Authenticated || me.Email != "boss@shop.test" || me.Role != session.RoleAdmin {
		t.Fatalf("me %+v", me)
	}

	// Past the session lifetime the cookie is just anonymous.
	*f.now = f.now.Add(7*24*time.Hour + time.Minute)
	if me := decode[meView](t, do(t, f.rt, http.MethodGet, "/auth/me", "", cookie)); me.Authenticated {
		t.Fatalf("expired session must be anonymous: %+v", me)
	}
	if rec := do(t, f.rt, http.MethodPost, "/api/catalog/1", `{}`, cookie); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expired session must not write the catalog: %d", rec.Code)
	}

	rec = do(t, f.rt, http.MethodPost, "/auth/logout", "", nil)
	if c := sessionCookie(rec); rec.Code != http.StatusOK || c == nil || c.MaxAge >= 0 {
		t.Fatalf("logout must clear the cookie: %d %+v", rec.Code, c)
	}
}

func TestGatewayGoogleFlow(t *testing.T) {
	oauth := &fakeOAuth{exchangeFn: func(_ context.Context, code string) (account.ExternalIdentity, error) {
		if code != "good" {
			return account.ExternalIdentity{}, errors.New("bad code")
		}
		return account.ExternalIdentity{Provider: account.ProviderGoogle, Subject: "g-1", Email: "ana@shop.test", Name: "Ana"}, nil
	}}
	f := newGatewayFixture(t, upstreamSet{oauth: oauth})

	rec := do(t, f.rt, http.MethodGet, "/auth/google", "", nil)
	if rec.Code != http.StatusFound {
		t.Fatalf("begin: status %d", rec.Code)
	}
	var state string
	for _, c := range rec.Result().Cookies() {
		if c.Name == CookieOAuthState {
			state = c.Value
			if c.MaxAge != 300 || !c.HttpOnly {
				t.Fatalf("state cookie %+v", c)
			}
		}
	}
	if state == "" || !strings.Contains(rec.Header().Get("Location"), url.QueryEscape(state)) {
		t.Fatalf("state %q location %q", state, rec.Header().Get("Location"))
	}
	stateCookie := map[string]string{"Cookie": CookieOAuthState + "=" + state}

	tests := []struct {
		name       string
		query      string
		headers    map[string]string
		wantStatus int
	}{
		{"state mismatch", "?code=good&state=other", stateCookie, http.StatusBadRequest},
		{"no state cookie", "?code=good&state=" + state, nil, http.StatusBadRequest},
		{"missing code", "?state=" + state, stateCookie, http.StatusBadRequest},
		{"exchange fails", "?code=bad&state=" + state, stateCookie, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, f.rt, http.MethodGet, "/auth/google/callback"+tt.query, "", tt.headers)
			if rec.Code != tt.wantStatus || sessionCookie(rec) != nil {
				t.Fatalf("status %d body %s", rec.Code, rec.Body)
			}
		})
	}

	rec = do(t, f.rt, http.MethodGet, "/auth/google/callback?code=good&state="+url.QueryEscape(state), "", stateCookie)
	c := sessionCookie(rec)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/" || c == nil {
		t.Fatalf("callback: status %d location %q", rec.Code, rec.Header().Get("Location"))
	}
	me := decode[meView](t, do(t, f.rt, http.MethodGet, "/auth/me", "", map[string]string{"Cookie": CookieSession + "=" + c.Value}))
	if !me.Authenticated || me.Role != session.RoleUser || me.Name != "Ana" {
		t.Fatalf("me %+v", me)
	}
}

func TestGatewayGoogleNotConfigured(t *testing.T) {
	f := newGatewayFixture(t, upstreamSet{})
	if rec := do(t, f.rt, http.MethodGet, "/auth/google", "", nil); rec.Code != http.StatusInternalServerError {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestGatewayInfoEndpoints(t *testing.T) {
	f := newGatewayFixture(t, upstreamSet{})

	ping := decode[map[string]any](t, do(t, f.rt, http.MethodGet, "/__ping", "", nil))
	if ping["ok"] != true || ping["when"] != "2025-03-01T12:00:00Z" {
		t.Fatalf("ping %+v", ping)
	}
	targets := decode[map[string]string](t, do(t, f.rt, http.MethodGet, "/__targets", "", nil))
	if targets[RouteCart] == "" || targets["catalog_base_path"] != "(auto)" || targets["catalog_uploads_path"] != "/static" {
		t.Fatalf("targets %+v", targets)
	}
	var dbg AuthDebug
	if err := json.Unmarshal(do(t, f.rt, http.MethodGet, "/auth/debug", "", nil).Body.Bytes(), &dbg); err != nil {
		t.Fatalf("debug: %v", err)
	}
}
