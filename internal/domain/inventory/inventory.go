package inventory

import (
	"time"

	"github.com/Zhima-Mochi/minishop-retail/internal/domain/apperr"
)

var (
	ErrNotFound          = apperr.New(apperr.ErrNotFound, "inventory: stock row not found")
	ErrInvalidQuantity   = apperr.New(apperr.ErrValidation, "inventory: quantity must be greater than zero")
	ErrInvalidKey        = apperr.New(apperr.ErrValidation, "inventory: store id and sku are required")
	ErrInsufficientStock = apperr.New(apperr.ErrConflict, "inventory: insufficient stock")
	ErrNothingReserved   = apperr.New(apperr.ErrConflict, "inventory: not enough reserved units")
)

// Stock is the per-store quantity of one SKU.
type Stock struct {
	StoreID   string
	SKU       string
	Available int
	Reserved  int
	UpdatedAt time.Time
}

func NewStock(storeID, sku string, available int) (*Stock, error) {
	if storeID == "" || sku == "" {
		return nil, ErrInvalidKey
	}
	if available < 0 {
		return nil, ErrInvalidQuantity
	}
	return &Stock{
		StoreID:   storeID,
		SKU:       sku,
		Available: available,
		UpdatedAt: time.Now().UTC(),
	}, nil
}

// Reserve moves qty units from available to reserved.
func (s *Stock) Reserve(qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if qty > s.Available {
		return ErrInsufficientStock
	}
	s.Available -= qty
	s.Reserved += qty
	s.touch()
	return nil
}

// Confirm consumes qty previously reserved units.
func (s *Stock) Confirm(qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if qty > s.Reserved {
		return ErrNothingReserved
	}
	s.Reserved -= qty
	s.touch()
	return nil
}

func (s *Stock) touch() {
	s.UpdatedAt = time.Now().UTC()
}

// DemoStock is the seed used by the storefront demo.
func DemoStock() []Stock {
	return []Stock{
		{StoreID: "S001", SKU: "SKU-001", Available: 10},
		{StoreID: "S001", SKU: "SKU-002", Available: 5},
	}
}
