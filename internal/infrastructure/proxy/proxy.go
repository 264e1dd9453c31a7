package proxy

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httputil"
	"time"

	"github.com/Zhima-Mochi/minishop-retail/internal/observability"
	"github.com/Zhima-Mochi/minishop-retail/internal/observability/logctx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const (
	HeaderGatewayError = "X-Gateway-Error"

	FailureUnavailable = "upstream_unavailable"
	FailureTimeout     = "upstream_timeout"
)

type Options struct {
	// Timeout bounds the whole upstream call, response body included.
	Timeout     time.Duration
	DialTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	if o.DialTimeout <= 0 || o.DialTimeout > o.Timeout {
		o.DialTimeout = o.Timeout
	}
	return o
}

// Proxy forwards requests for one route. Method, headers, query and body pass
// through; Host becomes the upstream host; the upstream status and body come
// back untouched. Connection failures answer 502 and timeouts 504, both
// tagged with X-Gateway-Error so they never look like an upstream reply.
type Proxy struct {
	route   Route
	rp      *httputil.ReverseProxy
	timeout time.Duration
	log     observability.Logger
	counter observability.Counter
}

func New(route Route, opts Options, tel observability.Observability) *Proxy {
	opts = opts.withDefaults()
	if tel == nil {
		tel = observability.Nop()
	}
	p := &Proxy{
		route:   route,
		timeout: opts.Timeout,
		log: tel.Logger().With(
			observability.F("component", "proxy"),
			observability.F("upstream", route.Name),
		),
		counter: tel.Metrics().Counter(observability.MProxyRequests),
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: opts.DialTimeout, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		ResponseHeaderTimeout: opts.Timeout,
	}

	p.rp = &httputil.ReverseProxy{
		Rewrite:        p.rewrite,
		Transport:      transport,
		ModifyResponse: p.modifyResponse,
		ErrorHandler:   p.handleError,
	}
	return p
}

func (p *Proxy) Route() Route { return p.route }

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), p.timeout)
	defer cancel()
	p.rp.ServeHTTP(w, r.WithContext(ctx))
}

func (p *Proxy) rewrite(pr *httputil.ProxyRequest) {
	pr.SetURL(p.route.Target)
	pr.Out.URL.Path = p.route.UpstreamPath(pr.In.URL.Path)
	pr.Out.URL.RawPath = ""
	pr.SetXForwarded()
	otel.GetTextMapPropagator().Inject(pr.Out.Context(), propagation.HeaderCarrier(pr.Out.Header))

	logctx.FromOr(pr.In.Context(), p.log).Debug("proxy_forward",
		observability.F("method", pr.In.Method),
		observability.F("path", pr.In.URL.Path),
		observability.F("upstream_path", pr.Out.URL.Path),
	)
}

func (p *Proxy) modifyResponse(resp *http.Response) error {
	p.counter.Add(1,
		observability.L("upstream", p.route.Name),
		observability.L("outcome", "success"),
	)
	return nil
}

func (p *Proxy) handleError(w http.ResponseWriter, r *http.Request, err error) {
	status, failure := http.StatusBadGateway, FailureUnavailable
	if isTimeout(err) {
		status, failure = http.StatusGatewayTimeout, FailureTimeout
	}

	p.counter.Add(1,
		observability.L("upstream", p.route.Name),
		observability.L("outcome", failure),
	)
	logctx.FromOr(r.Context(), p.log).Warn("proxy_upstream_error",
		observability.F("method", r.Method),
		observability.F("path", r.URL.Path),
		observability.F("status", status),
		observability.Err(err),
	)

	WriteFailure(w, status, failure)
}

// WriteFailure writes the gateway's own error body.
func WriteFailure(w http.ResponseWriter, status int, failure string) {
	w.Header().Set(HeaderGatewayError, failure)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"message":"gateway error","error":"` + failure + `"}`))
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
