package cart

import (
	"github.com/Zhima-Mochi/minishop-retail/internal/domain/apperr"
	"github.com/Zhima-Mochi/minishop-retail/internal/domain/kv"
)

var (
	ErrNotFound           = apperr.New(apperr.ErrNotFound, "cart: not found")
	ErrInvalidSKU         = apperr.New(apperr.ErrValidation, "cart: sku is required")
	ErrInvalidQuantity    = apperr.New(apperr.ErrValidation, "cart: quantity must be greater than zero")
	ErrInvalidPrice       = apperr.New(apperr.ErrValidation, "cart: price must not be negative")
	ErrInvalidCode        = apperr.New(apperr.ErrValidation, "cart: coupon code is required")
	ErrPriceUnavailable   = apperr.New(apperr.ErrUpstreamUnavailable, "cart: price unavailable")
	ErrPricingUnavailable = apperr.New(apperr.ErrUpstreamUnavailable, "cart: coupon validation unavailable")
)

// Repository stores carts keyed by user identity.
type Repository = kv.Store[Cart]

// LineItem is one SKU in a cart. Price is the unit price quoted when the line was created.
type LineItem struct {
	SKU   string  `json:"sku"`
	Qty   int     `json:"qty"`
	Price float64 `json:"price"`
}

// Discount is the applied coupon together with the total the pricing service computed for it.
type Discount struct {
	Code   string  `json:"code"`
	Amount float64 `json:"discount"`
	Final  float64 `json:"final"`
}

// Cart is the basket of a single user.
// Discount is nil whenever the items changed after the last successful coupon application.
type Cart struct {
	Items    []LineItem `json:"items"`
	Discount *Discount  `json:"discount,omitempty"`
}

// Total is the sum of qty*price over all lines.
func (c Cart) Total() float64 {
	var total float64
	for _, it := range c.Items {
		total += float64(it.Qty) * it.Price
	}
	return total
}

// Empty reports whether the cart has no lines.
func (c Cart) Empty() bool { return len(c.Items) == 0 }

// Line returns the line for sku, if present.
func (c Cart) Line(sku string) (LineItem, bool) {
	for _, it := range c.Items {
		if it.SKU == sku {
			return it, true
		}
	}
	return LineItem{}, false
}

// AddLine merges qty units of sku into the cart.
// An existing line keeps the price it was created with; only its quantity grows.
// Any applied discount is dropped.
func (c *Cart) AddLine(sku string, qty int, price float64) error {
	if sku == "" {
		return ErrInvalidSKU
	}
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if price < 0 {
		return ErrInvalidPrice
	}

	merged := false
	for i := range c.Items {
		if c.Items[i].SKU == sku {
			c.Items[i].Qty += qty
			merged = true
			break
		}
	}
	if !merged {
		c.Items = append(c.Items, LineItem{SKU: sku, Qty: qty, Price: price})
	}
	c.Discount = nil
	return nil
}

// ApplyDiscount records a validated coupon. The amounts come from the pricing service as-is.
func (c *Cart) ApplyDiscount(code string, amount, final float64) error {
	if code == "" {
		return ErrInvalidCode
	}
	c.Discount = &Discount{Code: code, Amount: amount, Final: final}
	return nil
}

// Clone returns a deep copy so stores never share line slices with callers.
func (c Cart) Clone() Cart {
	out := Cart{Items: append([]LineItem(nil), c.Items...)}
	if c.Discount != nil {
		d := *c.Discount
		out.Discount = &d
	}
	return out
}
