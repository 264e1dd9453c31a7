package cart

import (
	"context"

	"github.com/Zhima-Mochi/minishop-retail/internal/domain/pricing"
)

// PriceLookup quotes the current unit price of a SKU.
type PriceLookup interface {
	Price(ctx context.Context, sku string) (float64, error)
}

// CouponValidator asks the pricing service whether code applies to itemsTotal.
// valid=false with a nil error means the code was rejected.
type CouponValidator interface {
	ValidateCoupon(ctx context.Context, code string, itemsTotal float64) (quote pricing.Quote, valid bool, err error)
}
