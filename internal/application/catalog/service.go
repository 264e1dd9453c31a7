package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Zhima-Mochi/minishop-retail/internal/application"
	domcatalog "github.com/Zhima-Mochi/minishop-retail/internal/domain/catalog"
	domorder "github.com/Zhima-Mochi/minishop-retail/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-retail/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-retail/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	catalogService      = "catalog-service"
	useCaseListProducts = "catalog.list"
	useCaseGetProduct   = "catalog.get"
	useCaseCreate       = "catalog.create"
	useCaseUpdate       = "catalog.update"
	useCaseDelete       = "catalog.delete"
	useCasePlaceOrder   = "order.place"
	useCaseListOrders   = "order.list"
)

type IDGenerator interface {
	NewID() string
}

type Deps struct {
	Products  domcatalog.Repository
	Orders    domorder.Repository
	IDs       IDGenerator
	Publisher domoutbox.Publisher
	Tel       observability.Observability
}

// Service owns the product list and the checkout receipts.
type Service struct {
	products  domcatalog.Repository
	orders    domorder.Repository
	ids       IDGenerator
	publisher domoutbox.Publisher
	inst      *application.Instruments
}

func NewService(d Deps) *Service {
	return &Service{
		products:  d.Products,
		orders:    d.Orders,
		ids:       d.IDs,
		publisher: d.Publisher,
		inst:      application.NewInstruments(catalogService, d.Tel),
	}
}

// SeedIfEmpty inserts drafts when the catalog has no products yet.
func (s *Service) SeedIfEmpty(ctx context.Context, drafts []domcatalog.Draft) (int, error) {
	existing, err := s.products.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("catalog: seed: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}
	for _, d := range drafts {
		if _, err := s.products.Create(ctx, d); err != nil {
			return 0, fmt.Errorf("catalog: seed %q: %w", d.Name, err)
		}
	}
	s.inst.Logger().Info("catalog_seeded", observability.F("products", len(drafts)))
	return len(drafts), nil
}

func (s *Service) List(ctx context.Context) (_ []domcatalog.Product, err error) {
	ctx, run := s.inst.Begin(ctx, useCaseListProducts, "ListProducts")
	defer func() { run.End(err) }()

	products, err := s.products.List(ctx)
	if err != nil {
		run.Fail("LIST_FAILED")
		return nil, fmt.Errorf("catalog: list: %w", err)
	}
	run.Annotate(observability.F("products", len(products)))
	return products, nil
}

func (s *Service) Get(ctx context.Context, id int64) (_ domcatalog.Product, err error) {
	ctx, run := s.inst.Begin(ctx, useCaseGetProduct, "GetProduct", attribute.Int64("catalog.product_id", id))
	defer func() { run.End(err) }()

	p, err := s.products.Get(ctx, id)
	if err != nil {
		run.Fail("PRODUCT_LOAD_FAILED")
		return domcatalog.Product{}, err
	}
	return p, nil
}

func (s *Service) Create(ctx context.Context, d domcatalog.Draft) (_ domcatalog.Product, err error) {
	ctx, run := s.inst.Begin(ctx, useCaseCreate, "CreateProduct", attribute.String("catalog.name", d.Name))
	defer func() { run.End(err) }()

	if err := d.Validate(); err != nil {
		run.Fail("INPUT_INVALID")
		return domcatalog.Product{}, err
	}
	d.Name, d.Category = strings.TrimSpace(d.Name), strings.TrimSpace(d.Category)
	p, err := s.products.Create(ctx, d)
	if err != nil {
		run.Fail("PRODUCT_SAVE_FAILED")
		return domcatalog.Product{}, fmt.Errorf("catalog: create: %w", err)
	}
	run.Annotate(observability.F("product_id", p.ID))
	return p, nil
}

func (s *Service) Update(ctx context.Context, id int64, d domcatalog.Draft) (_ domcatalog.Product, err error) {
	ctx, run := s.inst.Begin(ctx, useCaseUpdate, "UpdateProduct", attribute.Int64("catalog.product_id", id))
	defer func() { run.End(err) }()

	if err := d.Validate(); err != nil {
		run.Fail("INPUT_INVALID")
		return domcatalog.Product{}, err
	}
	p, err := s.products.Get(ctx, id)
	if err != nil {
		run.Fail("PRODUCT_LOAD_FAILED")
		return domcatalog.Product{}, err
	}
	p.Apply(d)
	if err := s.products.Update(ctx, p); err != nil {
		run.Fail("PRODUCT_SAVE_FAILED")
		return domcatalog.Product{}, fmt.Errorf("catalog: update: %w", err)
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id int64) (err error) {
	ctx, run := s.inst.Begin(ctx, useCaseDelete, "DeleteProduct", attribute.Int64("catalog.product_id", id))
	defer func() { run.End(err) }()

	if err := s.products.Delete(ctx, id); err != nil {
		run.Fail("PRODUCT_DELETE_FAILED")
		return err
	}
	return nil
}

type PlaceOrderInput struct {
	CustomerName string
	Total        float64
	Details      json.RawMessage
}

// PlaceOrder records a checkout receipt and announces it.
func (s *Service) PlaceOrder(ctx context.Context, in PlaceOrderInput) (_ *domorder.Order, err error) {
	ctx, run := s.inst.Begin(ctx, useCasePlaceOrder, "PlaceOrder",
		attribute.String("order.customer", in.CustomerName),
		attribute.Float64("order.total", in.Total),
	)
	defer func() { run.End(err) }()

	o, err := domorder.New(s.ids.NewID(), in.CustomerName, in.Total, in.Details)
	if err != nil {
		run.Fail("DOMAIN_CONSTRUCTION_FAILED")
		return nil, err
	}
	if err := s.orders.Save(ctx, o); err != nil {
		run.Fail("REPO_INSERT_FAILED")
		return nil, fmt.Errorf("order: save: %w", err)
	}

	run.Publish(s.publisher, domorder.NewPlacedEvent(o))
	run.Span().SetAttributes(attribute.String("order.id", o.ID))
	run.Annotate(observability.F("order_id", o.ID))
	return o, nil
}

func (s *Service) ListOrders(ctx context.Context) (_ []*domorder.Order, err error) {
	ctx, run := s.inst.Begin(ctx, useCaseListOrders, "ListOrders")
	defer func() { run.End(err) }()

	orders, err := s.orders.List(ctx)
	if err != nil {
		run.Fail("LIST_FAILED")
		return nil, fmt.Errorf("order: list: %w", err)
	}
	return orders, nil
}
