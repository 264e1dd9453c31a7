// Package pricingclient calls the pricing service over HTTP.
package pricingclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-retail/internal/domain/apperr"
	"github.com/Zhima-Mochi/minishop-retail/internal/domain/pricing"
	"github.com/Zhima-Mochi/minishop-retail/internal/observability"
	"github.com/Zhima-Mochi/minishop-retail/internal/observability/logctx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

var ErrUnavailable = apperr.New(apperr.ErrUpstreamUnavailable, "pricingclient: pricing service unavailable")

const (
	peer               = "pricing"
	endpointPrice      = "price"
	endpointValidate   = "coupons.validate"
	pricePath          = "/api/pricing/price"
	validatePath       = "/api/pricing/coupons/validate"
	maxResponseBytes   = 1 << 20
	defaultHTTPTimeout = 3 * time.Second
)

type Client struct {
	baseURL string
	http    *http.Client
	log     observability.Logger

	extCounter   observability.Counter
	extHistogram observability.Histogram
}

// New builds a client for baseURL. A zero timeout uses three seconds.
func New(baseURL string, timeout time.Duration, tel observability.Observability) *Client {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	if tel == nil {
		tel = observability.Nop()
	}
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		http:         &http.Client{Timeout: timeout},
		log:          tel.Logger().With(observability.F("component", "pricing_client")),
		extCounter:   tel.Metrics().Counter(observability.MExternalRequests),
		extHistogram: tel.Metrics().Histogram(observability.MExternalRequestDuration),
	}
}

type priceResponse struct {
	OK    bool     `json:"ok"`
	SKU   string   `json:"sku"`
	Price *float64 `json:"price"`
}

// Price returns the unit price for sku. Any non-2xx answer or malformed body is ErrUnavailable.
func (c *Client) Price(ctx context.Context, sku string) (float64, error) {
	u := c.baseURL + pricePath + "?sku=" + url.QueryEscape(sku)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, fmt.Errorf("pricingclient: build request: %w", err)
	}

	var body priceResponse
	if err := c.do(req, endpointPrice, &body); err != nil {
		return 0, err
	}
	if body.Price == nil || *body.Price < 0 {
		return 0, fmt.Errorf("%w: malformed price payload", ErrUnavailable)
	}
	return *body.Price, nil
}

type validateRequest struct {
	Code       string  `json:"code"`
	ItemsTotal float64 `json:"itemsTotal"`
}

type validateResponse struct {
	Valid    *bool   `json:"valid"`
	Discount float64 `json:"discount"`
	Final    float64 `json:"final"`
	Reason   string  `json:"reason,omitempty"`
}

// ValidateCoupon asks the pricing service to price code against itemsTotal.
// An invalid coupon is reported through valid=false, not as an error.
func (c *Client) ValidateCoupon(ctx context.Context, code string, itemsTotal float64) (pricing.Quote, bool, error) {
	payload, err := json.Marshal(validateRequest{Code: code, ItemsTotal: itemsTotal})
	if err != nil {
		return pricing.Quote{}, false, fmt.Errorf("pricingclient: encode: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+validatePath, bytes.NewReader(payload))
	if err != nil {
		return pricing.Quote{}, false, fmt.Errorf("pricingclient: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var body validateResponse
	if err := c.do(req, endpointValidate, &body); err != nil {
		return pricing.Quote{}, false, err
	}
	if body.Valid == nil {
		return pricing.Quote{}, false, fmt.Errorf("%w: malformed coupon payload", ErrUnavailable)
	}
	if !*body.Valid {
		return pricing.Quote{}, false, nil
	}
	return pricing.Quote{Discount: body.Discount, Final: body.Final}, true, nil
}

func (c *Client) do(req *http.Request, endpoint string, dst any) (err error) {
	ctx := req.Context()
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	start := time.Now()
	outcome := "success"
	defer func() {
		if err != nil {
			outcome = "error"
			logctx.FromOr(ctx, c.log).Warn("pricing_call_failed",
				observability.F("endpoint", endpoint),
				observability.Err(err),
			)
		}
		c.extCounter.Add(1,
			observability.L("peer", peer),
			observability.L("endpoint", endpoint),
			observability.L("outcome", outcome),
		)
		c.extHistogram.Observe(time.Since(start).Seconds(),
			observability.L("peer", peer),
			observability.L("endpoint", endpoint),
		)
	}()

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read body: %w", ErrUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: decode: %w", ErrUnavailable, err)
	}
	return nil
}
