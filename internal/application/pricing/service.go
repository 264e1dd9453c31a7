package pricing

import (
	"context"
	"errors"
	"strings"

	"github.com/Zhima-Mochi/minishop-retail/internal/application"
	domain "github.com/Zhima-Mochi/minishop-retail/internal/domain/pricing"
	"github.com/Zhima-Mochi/minishop-retail/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	pricingService     = "pricing-service"
	useCasePriceLookup = "pricing.price"
	useCaseValidate    = "pricing.validate_coupon"
)

// Service answers price and coupon queries from a fixed catalog.
type Service struct {
	catalog *domain.Catalog
	inst    *application.Instruments
}

func NewService(catalog *domain.Catalog, tel observability.Observability) *Service {
	return &Service{
		catalog: catalog,
		inst:    application.NewInstruments(pricingService, tel),
	}
}

func (s *Service) Price(ctx context.Context, sku string) (_ float64, err error) {
	_, run := s.inst.Begin(ctx, useCasePriceLookup, "Price", attribute.String("pricing.sku", sku))
	defer func() { run.End(err) }()

	p, err := s.catalog.Price(strings.TrimSpace(sku))
	if err != nil {
		run.Fail("NO_PRICE")
		return 0, err
	}
	return p, nil
}

// ValidateCoupon returns valid=false for unknown or inactive codes.
func (s *Service) ValidateCoupon(ctx context.Context, code string, itemsTotal float64) (_ domain.Quote, _ bool, err error) {
	_, run := s.inst.Begin(ctx, useCaseValidate, "ValidateCoupon",
		attribute.String("pricing.coupon", code),
		attribute.Float64("pricing.items_total", itemsTotal),
	)
	defer func() { run.End(err) }()

	q, err := s.catalog.Validate(strings.TrimSpace(code), itemsTotal)
	switch {
	case errors.Is(err, domain.ErrCouponInvalid):
		run.Status("INVALID_COUPON")
		return domain.Quote{}, false, nil
	case err != nil:
		run.Fail("COUPON_REJECTED")
		return domain.Quote{}, false, err
	}
	run.Annotate(
		observability.F("discount", q.Discount),
		observability.F("final", q.Final),
	)
	return q, true, nil
}
