// Package pricing holds the price list and coupon arithmetic.
package pricing

import (
	"strings"

	"github.com/Zhima-Mochi/minishop-retail/internal/domain/apperr"
	"github.com/shopspring/decimal"
)

var (
	ErrPriceNotFound     = apperr.New(apperr.ErrNotFound, "pricing: no price for sku")
	ErrCouponInvalid     = apperr.New(apperr.ErrNotFound, "pricing: coupon unknown or inactive")
	ErrInvalidTotal      = apperr.New(apperr.ErrValidation, "pricing: items total must not be negative")
	ErrInvalidCouponKind = apperr.New(apperr.ErrValidation, "pricing: unknown coupon kind")
)

type CouponKind string

const (
	KindPercent CouponKind = "percent"
	KindFixed   CouponKind = "fixed"
)

type Coupon struct {
	Code   string
	Kind   CouponKind
	Value  float64
	Active bool
}

// Quote is the result of applying a coupon to an items total.
type Quote struct {
	Discount float64
	Final    float64
}

// Apply computes the discount for itemsTotal. Final never drops below zero.
func (c Coupon) Apply(itemsTotal float64) (Quote, error) {
	if itemsTotal < 0 {
		return Quote{}, ErrInvalidTotal
	}
	total := decimal.NewFromFloat(itemsTotal)
	value := decimal.NewFromFloat(c.Value)

	var discount decimal.Decimal
	switch c.Kind {
	case KindPercent:
		discount = total.Mul(value).Div(decimal.NewFromInt(100))
	case KindFixed:
		discount = decimal.Min(value, total)
	default:
		return Quote{}, ErrInvalidCouponKind
	}

	final := decimal.Max(decimal.Zero, total.Sub(discount))
	return Quote{
		Discount: discount.InexactFloat64(),
		Final:    final.InexactFloat64(),
	}, nil
}

// Catalog is an immutable price list plus coupon book.
type Catalog struct {
	prices  map[string]float64
	coupons map[string]Coupon
}

func NewCatalog(prices map[string]float64, coupons []Coupon) *Catalog {
	c := &Catalog{
		prices:  make(map[string]float64, len(prices)),
		coupons: make(map[string]Coupon, len(coupons)),
	}
	for sku, p := range prices {
		c.prices[sku] = p
	}
	for _, cp := range coupons {
		c.coupons[cp.Code] = cp
	}
	return c
}

func (c *Catalog) Price(sku string) (float64, error) {
	p, ok := c.prices[sku]
	if !ok {
		return 0, ErrPriceNotFound
	}
	return p, nil
}

// Validate applies code to itemsTotal. Unknown and inactive codes both yield ErrCouponInvalid.
func (c *Catalog) Validate(code string, itemsTotal float64) (Quote, error) {
	cp, ok := c.coupons[code]
	if !ok || !cp.Active {
		return Quote{}, ErrCouponInvalid
	}
	return cp.Apply(itemsTotal)
}

// ParseKind maps configuration strings to a coupon kind.
func ParseKind(s string) (CouponKind, error) {
	switch CouponKind(strings.ToLower(strings.TrimSpace(s))) {
	case KindPercent:
		return KindPercent, nil
	case KindFixed:
		return KindFixed, nil
	}
	return "", ErrInvalidCouponKind
}
