package order

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-retail/internal/domain/apperr"
)

var (
	ErrNotFound        = apperr.New(apperr.ErrNotFound, "order: not found")
	ErrInvalidCustomer = apperr.New(apperr.ErrValidation, "order: customer name is required")
	ErrInvalidTotal    = apperr.New(apperr.ErrValidation, "order: total must be greater than zero")
	ErrMissingDetails  = apperr.New(apperr.ErrValidation, "order: details are required")
)

// Order is a checkout receipt recorded by the storefront. Details holds the
// cart lines exactly as the client sent them.
type Order struct {
	ID           string
	CustomerName string
	Total        float64
	Details      json.RawMessage
	CreatedAt    time.Time
}

func New(id, customerName string, total float64, details json.RawMessage) (*Order, error) {
	customerName = strings.TrimSpace(customerName)
	if customerName == "" {
		return nil, ErrInvalidCustomer
	}
	if total <= 0 {
		return nil, ErrInvalidTotal
	}
	if len(details) == 0 || string(details) == "null" {
		return nil, ErrMissingDetails
	}

	return &Order{
		ID:           id,
		CustomerName: customerName,
		Total:        total,
		Details:      append(json.RawMessage(nil), details...),
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// Repository keeps receipts. List returns them oldest first.
type Repository interface {
	Save(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context) ([]*Order, error)
}
