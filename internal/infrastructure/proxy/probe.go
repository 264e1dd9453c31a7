package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-retail/internal/domain/apperr"
	"github.com/Zhima-Mochi/minishop-retail/internal/observability"
	"github.com/Zhima-Mochi/minishop-retail/internal/observability/logctx"
)

var ErrExhausted = apperr.New(apperr.ErrUpstreamUnavailable, "proxy: no catalog candidate answered")

// DefaultCatalogCandidates are tried after the configured base path.
var DefaultCatalogCandidates = []string{"/catalog", "/productos", "/api/productos", "/items", "/api/items", "/"}

const maxProbeBody = 8 << 20

// Candidates puts basePath (or /api/catalog) first, then the given fallbacks,
// dropping blanks and repeats while keeping order.
func Candidates(basePath string, fallbacks ...string) []string {
	if basePath == "" {
		basePath = "/api/catalog"
	}
	all := append([]string{basePath}, fallbacks...)
	seen := make(map[string]bool, len(all))
	out := make([]string, 0, len(all))
	for _, c := range all {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// Accept decides whether a candidate's answer is usable.
type Accept func(status int, body []byte) bool

// AcceptJSON takes any 2xx answer whose body is non-null JSON.
func AcceptJSON(status int, body []byte) bool {
	if status < 200 || status > 299 {
		return false
	}
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) && json.Valid(trimmed)
}

type ProbeResult struct {
	Path        string
	Status      int
	ContentType string
	Body        []byte
}

// Attempt is the outcome of one candidate in a diagnostic run. Status is 0 when
// the candidate could not be reached.
type Attempt struct {
	Candidate string
	URL       string
	Status    int
	Err       error
}

type ProbeOptions struct {
	// Timeout bounds each candidate request.
	Timeout time.Duration
	// Budget bounds the whole walk; candidates left when it runs out count
	// as unreachable. Zero means no overall bound.
	Budget time.Duration
	Accept  Accept
	Client  *http.Client
}

// Prober reads the catalog from the first candidate path that answers acceptably.
type Prober struct {
	base       *url.URL
	candidates []string
	accept     Accept
	timeout    time.Duration
	budget     time.Duration
	client     *http.Client
	log        observability.Logger
	attempts   observability.Counter
}

func NewProber(base *url.URL, candidates []string, opts ProbeOptions, tel observability.Observability) *Prober {
	if tel == nil {
		tel = observability.Nop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Accept == nil {
		opts.Accept = AcceptJSON
	}
	if opts.Client == nil {
		opts.Client = &http.Client{}
	}
	return &Prober{
		base:       base,
		candidates: append([]string(nil), candidates...),
		accept:     opts.Accept,
		timeout:    opts.Timeout,
		budget:     opts.Budget,
		client:     opts.Client,
		log:        tel.Logger().With(observability.F("component", "catalog_probe")),
		attempts:   tel.Metrics().Counter(observability.MCatalogProbeAttempts),
	}
}

func (p *Prober) Candidates() []string { return append([]string(nil), p.candidates...) }

// Fetch walks the candidates in order and returns the first accepted answer.
// When none is accepted, or the budget runs out first, it returns ErrExhausted.
// A cancelled caller context is returned as is.
func (p *Prober) Fetch(ctx context.Context) (ProbeResult, error) {
	return p.FetchQuery(ctx, "")
}

// FetchQuery is Fetch with rawQuery appended to every candidate URL.
func (p *Prober) FetchQuery(ctx context.Context, rawQuery string) (ProbeResult, error) {
	logger := logctx.FromOr(ctx, p.log)
	walk := ctx
	if p.budget > 0 {
		var cancel context.CancelFunc
		walk, cancel = context.WithTimeout(ctx, p.budget)
		defer cancel()
	}
	for _, c := range p.candidates {
		if err := ctx.Err(); err != nil {
			return ProbeResult{}, err
		}
		if walk.Err() != nil {
			logger.Warn("catalog_probe_budget_spent", observability.F("budget", p.budget.String()))
			break
		}
		status, ctype, body, err := p.get(walk, c, rawQuery)
		outcome := "accepted"
		switch {
		case err != nil:
			outcome = "unreachable"
		case !p.accept(status, body):
			outcome = "rejected"
		}
		p.attempts.Add(1, observability.L("candidate", c), observability.L("outcome", outcome))

		if outcome != "accepted" {
			logger.Debug("catalog_candidate_skipped",
				observability.F("candidate", c),
				observability.F("status", status),
				observability.Err(err),
			)
			continue
		}
		logger.Info("catalog_candidate_used", observability.F("candidate", c))
		return ProbeResult{Path: c, Status: status, ContentType: ctype, Body: body}, nil
	}
	if err := ctx.Err(); err != nil {
		return ProbeResult{}, err
	}
	logger.Warn("catalog_candidates_exhausted", observability.F("candidates", len(p.candidates)))
	return ProbeResult{}, ErrExhausted
}

// Diagnose requests every candidate and reports what each answered.
func (p *Prober) Diagnose(ctx context.Context) []Attempt {
	out := make([]Attempt, 0, len(p.candidates))
	for _, c := range p.candidates {
		status, _, _, err := p.get(ctx, c, "")
		out = append(out, Attempt{Candidate: c, URL: p.resolve(c, ""), Status: status, Err: err})
	}
	return out
}

func (p *Prober) Base() string { return p.base.String() }

func (p *Prober) resolve(candidate, rawQuery string) string {
	return p.base.ResolveReference(&url.URL{Path: candidate, RawQuery: rawQuery}).String()
}

func (p *Prober) get(ctx context.Context, candidate, rawQuery string) (int, string, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.resolve(candidate, rawQuery), nil)
	if err != nil {
		return 0, "", nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, "", nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProbeBody))
	if err != nil {
		return resp.StatusCode, "", nil, err
	}
	return resp.StatusCode, resp.Header.Get("Content-Type"), body, nil
}
