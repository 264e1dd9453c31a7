package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Zhima-Mochi/minishop-retail/internal/application"
	domain "github.com/Zhima-Mochi/minishop-retail/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-retail/internal/domain/kv"
	domoutbox "github.com/Zhima-Mochi/minishop-retail/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-retail/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	cartService        = "cart-service"
	useCaseAddItem     = "cart.add_item"
	useCaseApplyCoupon = "cart.apply_coupon"
	useCaseGetCart     = "cart.get"
	DefaultUser        = "guest"
)

type Deps struct {
	Repo      domain.Repository
	Prices    PriceLookup
	Coupons   CouponValidator
	Publisher domoutbox.Publisher
	Tel       observability.Observability
}

// Service groups the cart use cases. They share one lock table so every
// mutation of a user's cart is serialised.
type Service struct {
	AddItem     *AddItemUseCase
	ApplyCoupon *ApplyCouponUseCase
	Get         *GetCartUseCase
}

func NewService(d Deps) *Service {
	inst := application.NewInstruments(cartService, d.Tel)
	locks := newUserLocks()
	return &Service{
		AddItem: &AddItemUseCase{
			repo: d.Repo, prices: d.Prices, publisher: d.Publisher, locks: locks, inst: inst,
		},
		ApplyCoupon: &ApplyCouponUseCase{
			repo: d.Repo, coupons: d.Coupons, publisher: d.Publisher, locks: locks, inst: inst,
		},
		Get: &GetCartUseCase{repo: d.Repo, inst: inst},
	}
}

func normalizeUser(user string) string {
	if user = strings.TrimSpace(user); user == "" {
		return DefaultUser
	}
	return user
}

type AddItemInput struct {
	UserID   string
	SKU      string
	Quantity int
}

// AddItemUseCase quotes the SKU and merges it into the user's cart.
type AddItemUseCase struct {
	repo      domain.Repository
	prices    PriceLookup
	publisher domoutbox.Publisher
	locks     *userLocks
	inst      *application.Instruments
}

var _ application.UseCase[AddItemInput, domain.Cart] = (*AddItemUseCase)(nil)

func (uc *AddItemUseCase) Execute(ctx context.Context, cmd AddItemInput) (_ domain.Cart, err error) {
	user := normalizeUser(cmd.UserID)
	ctx, run := uc.inst.Begin(ctx, useCaseAddItem, "AddItem",
		attribute.String("cart.user", user),
		attribute.String("cart.sku", cmd.SKU),
		attribute.Int("cart.qty", cmd.Quantity),
	)
	defer func() { run.End(err) }()

	if strings.TrimSpace(cmd.SKU) == "" {
		run.Fail("SKU_REQUIRED")
		return domain.Cart{}, domain.ErrInvalidSKU
	}
	if cmd.Quantity <= 0 {
		run.Fail("QUANTITY_INVALID")
		return domain.Cart{}, domain.ErrInvalidQuantity
	}

	// The quote is taken before the lock so a slow pricing call never blocks
	// the user's other cart operations.
	price, perr := uc.prices.Price(ctx, cmd.SKU)
	if perr != nil {
		run.Fail("PRICE_UNAVAILABLE")
		return domain.Cart{}, fmt.Errorf("%w: %w", domain.ErrPriceUnavailable, perr)
	}

	unlock := uc.locks.Lock(user)
	defer unlock()

	current, lerr := load(ctx, uc.repo, user)
	switch {
	case errors.Is(lerr, domain.ErrNotFound):
		current = domain.Cart{}
	case lerr != nil:
		run.Fail("CART_LOAD_FAILED")
		return domain.Cart{}, lerr
	}

	if err := current.AddLine(cmd.SKU, cmd.Quantity, price); err != nil {
		run.Fail("CART_MUTATION_REJECTED")
		return domain.Cart{}, err
	}
	if err := uc.repo.Put(ctx, user, current); err != nil {
		run.Fail("CART_SAVE_FAILED")
		return domain.Cart{}, fmt.Errorf("cart: save: %w", err)
	}

	run.Publish(uc.publisher, domain.NewItemAddedEvent(user, cmd.SKU, cmd.Quantity, price, current))
	run.Annotate(
		observability.F("lines", len(current.Items)),
		observability.F("total", current.Total()),
	)
	return current, nil
}

type ApplyCouponInput struct {
	UserID string
	Code   string
}

// ApplyCouponResult carries the cart and whether the coupon was accepted.
// A rejected coupon is an ordinary outcome, not an error.
type ApplyCouponResult struct {
	Cart    domain.Cart
	Applied bool
}

type ApplyCouponUseCase struct {
	repo      domain.Repository
	coupons   CouponValidator
	publisher domoutbox.Publisher
	locks     *userLocks
	inst      *application.Instruments
}

var _ application.UseCase[ApplyCouponInput, ApplyCouponResult] = (*ApplyCouponUseCase)(nil)

// Execute validates the code against the cart total. The lock is held across
// the validation so the discount always matches the stored items.
func (uc *ApplyCouponUseCase) Execute(ctx context.Context, cmd ApplyCouponInput) (_ ApplyCouponResult, err error) {
	user := normalizeUser(cmd.UserID)
	code := strings.TrimSpace(cmd.Code)
	ctx, run := uc.inst.Begin(ctx, useCaseApplyCoupon, "ApplyCoupon",
		attribute.String("cart.user", user),
		attribute.String("cart.coupon", code),
	)
	defer func() { run.End(err) }()

	unlock := uc.locks.Lock(user)
	defer unlock()

	current, lerr := load(ctx, uc.repo, user)
	if lerr != nil {
		if errors.Is(lerr, domain.ErrNotFound) {
			run.Fail("CART_NOT_FOUND")
		} else {
			run.Fail("CART_LOAD_FAILED")
		}
		return ApplyCouponResult{}, lerr
	}
	if code == "" {
		run.Fail("CODE_REQUIRED")
		return ApplyCouponResult{}, domain.ErrInvalidCode
	}

	total := current.Total()
	quote, valid, verr := uc.coupons.ValidateCoupon(ctx, code, total)
	if verr != nil {
		run.Fail("PRICING_UNAVAILABLE")
		return ApplyCouponResult{}, fmt.Errorf("%w: %w", domain.ErrPricingUnavailable, verr)
	}
	if !valid {
		run.Status("INVALID_COUPON")
		return ApplyCouponResult{Cart: current}, nil
	}

	if err := current.ApplyDiscount(code, quote.Discount, quote.Final); err != nil {
		run.Fail("CART_MUTATION_REJECTED")
		return ApplyCouponResult{}, err
	}
	if err := uc.repo.Put(ctx, user, current); err != nil {
		run.Fail("CART_SAVE_FAILED")
		return ApplyCouponResult{}, fmt.Errorf("cart: save: %w", err)
	}

	run.Publish(uc.publisher, domain.NewCouponAppliedEvent(user, *current.Discount))
	run.Annotate(
		observability.F("discount", quote.Discount),
		observability.F("final", quote.Final),
	)
	return ApplyCouponResult{Cart: current, Applied: true}, nil
}

type GetCartUseCase struct {
	repo domain.Repository
	inst *application.Instruments
}

func (uc *GetCartUseCase) Execute(ctx context.Context, userID string) (_ domain.Cart, err error) {
	user := normalizeUser(userID)
	ctx, run := uc.inst.Begin(ctx, useCaseGetCart, "GetCart", attribute.String("cart.user", user))
	defer func() { run.End(err) }()

	c, err := load(ctx, uc.repo, user)
	if errors.Is(err, domain.ErrNotFound) {
		run.Fail("CART_NOT_FOUND")
	}
	return c, err
}

func load(ctx context.Context, repo domain.Repository, user string) (domain.Cart, error) {
	c, err := repo.Get(ctx, user)
	switch {
	case errors.Is(err, kv.ErrNotFound):
		return domain.Cart{}, domain.ErrNotFound
	case err != nil:
		return domain.Cart{}, fmt.Errorf("cart: load: %w", err)
	}
	return c, nil
}
