// Package catalog models the storefront product list.
package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-retail/internal/domain/apperr"
)

var (
	ErrNotFound        = apperr.New(apperr.ErrNotFound, "catalog: product not found")
	ErrInvalidName     = apperr.New(apperr.ErrValidation, "catalog: name is required")
	ErrInvalidCategory = apperr.New(apperr.ErrValidation, "catalog: category is required")
	ErrInvalidPrice    = apperr.New(apperr.ErrValidation, "catalog: price must not be negative")
	ErrInvalidStock    = apperr.New(apperr.ErrValidation, "catalog: stock must not be negative")
)

type Product struct {
	ID        int64
	Name      string
	Category  string
	Price     int64
	Stock     int
	Image     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Draft carries the editable fields of a product.
type Draft struct {
	Name     string
	Category string
	Price    int64
	Stock    int
	Image    string
}

func (d Draft) Validate() error {
	switch {
	case strings.TrimSpace(d.Name) == "":
		return ErrInvalidName
	case strings.TrimSpace(d.Category) == "":
		return ErrInvalidCategory
	case d.Price < 0:
		return ErrInvalidPrice
	case d.Stock < 0:
		return ErrInvalidStock
	}
	return nil
}

// Apply copies the draft onto p. An empty image keeps the current one.
func (p *Product) Apply(d Draft) {
	p.Name = strings.TrimSpace(d.Name)
	p.Category = strings.TrimSpace(d.Category)
	p.Price = d.Price
	p.Stock = d.Stock
	if d.Image != "" {
		p.Image = d.Image
	}
	p.UpdatedAt = time.Now().UTC()
}

type Repository interface {
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id int64) (Product, error)
	// Create assigns the ID and timestamps and returns the stored product.
	Create(ctx context.Context, d Draft) (Product, error)
	Update(ctx context.Context, p Product) error
	Delete(ctx context.Context, id int64) error
}

// DemoProducts is the storefront's sample assortment.
func DemoProducts() []Draft {
	return []Draft{
		{Name: `Televisor 50"`, Category: "Electrodomésticos", Price: 1499000, Stock: 10, Image: "/uploads/tv.jpg"},
		{Name: "Cafetera", Category: "Hogar", Price: 189000, Stock: 25, Image: "/uploads/cafetera.jpg"},
		{Name: "Camiseta básica", Category: "Ropa", Price: 35000, Stock: 100, Image: "/uploads/shirt.jpg"},
		{Name: "Pizza familiar", Category: "Comida", Price: 45000, Stock: 40, Image: "/uploads/pizza.jpg"},
	}
}
