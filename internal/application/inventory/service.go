package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Zhima-Mochi/minishop-retail/internal/application"
	dominv "github.com/Zhima-Mochi/minishop-retail/internal/domain/inventory"
	domoutbox "github.com/Zhima-Mochi/minishop-retail/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-retail/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	inventoryService = "inventory-service"
	useCaseSeed      = "inventory.seed"
	useCaseList      = "inventory.list"
	useCaseReserve   = "inventory.reserve"
	useCaseConfirm   = "inventory.confirm"
)

type Service struct {
	repo      dominv.Repository
	publisher domoutbox.Publisher
	seed      []dominv.Stock
	inst      *application.Instruments
}

// NewService wires the stock use cases. seed is what Seed inserts; nil uses the demo rows.
func NewService(repo dominv.Repository, publisher domoutbox.Publisher, seed []dominv.Stock, tel observability.Observability) *Service {
	if seed == nil {
		seed = dominv.DemoStock()
	}
	return &Service{
		repo:      repo,
		publisher: publisher,
		seed:      seed,
		inst:      application.NewInstruments(inventoryService, tel),
	}
}

// Seed inserts the configured rows, leaving existing ones untouched.
func (s *Service) Seed(ctx context.Context) (err error) {
	ctx, run := s.inst.Begin(ctx, useCaseSeed, "Seed", attribute.Int("inventory.rows", len(s.seed)))
	defer func() { run.End(err) }()

	if err := s.repo.Seed(ctx, s.seed); err != nil {
		run.Fail("SEED_FAILED")
		return fmt.Errorf("inventory: seed: %w", err)
	}
	return nil
}

func (s *Service) List(ctx context.Context, f dominv.Filter) (_ []dominv.Stock, err error) {
	ctx, run := s.inst.Begin(ctx, useCaseList, "ListStock",
		attribute.String("inventory.store_id", f.StoreID),
		attribute.String("inventory.sku", f.SKU),
	)
	defer func() { run.End(err) }()

	rows, err := s.repo.List(ctx, f)
	if err != nil {
		run.Fail("LIST_FAILED")
		return nil, fmt.Errorf("inventory: list: %w", err)
	}
	run.Annotate(observability.F("rows", len(rows)))
	return rows, nil
}

type MovementInput struct {
	StoreID  string
	SKU      string
	Quantity int
}

func (in MovementInput) validate() error {
	if strings.TrimSpace(in.StoreID) == "" || strings.TrimSpace(in.SKU) == "" {
		return dominv.ErrInvalidKey
	}
	if in.Quantity <= 0 {
		return dominv.ErrInvalidQuantity
	}
	return nil
}

// Reserve moves units from available to reserved. A missing row is reported as
// insufficient stock, matching what the storefront expects.
func (s *Service) Reserve(ctx context.Context, in MovementInput) (_ dominv.Stock, err error) {
	return s.move(ctx, in, useCaseReserve, "Reserve", (*dominv.Stock).Reserve, dominv.ErrInsufficientStock,
		func() domoutbox.Event { return dominv.NewReservedEvent(in.StoreID, in.SKU, in.Quantity) })
}

// Confirm consumes reserved units. A missing row is reported as nothing reserved.
func (s *Service) Confirm(ctx context.Context, in MovementInput) (_ dominv.Stock, err error) {
	return s.move(ctx, in, useCaseConfirm, "Confirm", (*dominv.Stock).Confirm, dominv.ErrNothingReserved,
		func() domoutbox.Event { return dominv.NewConfirmedEvent(in.StoreID, in.SKU, in.Quantity) })
}

func (s *Service) move(
	ctx context.Context,
	in MovementInput,
	useCase, spanName string,
	apply func(*dominv.Stock, int) error,
	missing error,
	event func() domoutbox.Event,
) (_ dominv.Stock, err error) {
	ctx, run := s.inst.Begin(ctx, useCase, spanName,
		attribute.String("inventory.store_id", in.StoreID),
		attribute.String("inventory.sku", in.SKU),
		attribute.Int("inventory.qty", in.Quantity),
	)
	defer func() { run.End(err) }()

	if err := in.validate(); err != nil {
		run.Fail("INPUT_INVALID")
		return dominv.Stock{}, err
	}

	row, err := s.repo.Mutate(ctx, in.StoreID, in.SKU, func(st *dominv.Stock) error {
		return apply(st, in.Quantity)
	})
	switch {
	case errors.Is(err, dominv.ErrNotFound):
		run.Fail("STOCK_NOT_FOUND")
		return dominv.Stock{}, missing
	case errors.Is(err, dominv.ErrInsufficientStock), errors.Is(err, dominv.ErrNothingReserved):
		run.Fail("NOT_ENOUGH_UNITS")
		return dominv.Stock{}, err
	case err != nil:
		run.Fail("MUTATE_FAILED")
		return dominv.Stock{}, fmt.Errorf("inventory: %s: %w", spanName, err)
	}

	run.Publish(s.publisher, event())
	run.Annotate(
		observability.F("available", row.Available),
		observability.F("reserved", row.Reserved),
	)
	return row, nil
}
