package payment

import (
	"github.com/Zhima-Mochi/minishop-retail/internal/domain/apperr"
	"github.com/Zhima-Mochi/minishop-retail/internal/domain/kv"
)

var (
	ErrNotFound      = apperr.New(apperr.ErrNotFound, "payment: intent not found")
	ErrInvalidAmount = apperr.New(apperr.ErrValidation, "payment: amount must be greater than zero")
)

type Status string

const (
	StatusRequiresConfirmation Status = "requires_confirmation"
	StatusSucceeded            Status = "succeeded"
)

const DefaultCurrency = "USD"

// Intent is a pending or completed charge.
type Intent struct {
	ID       string  `json:"id"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Status   Status  `json:"status"`
}

// Repository stores intents by ID.
type Repository = kv.Store[Intent]

func NewIntent(id string, amount float64) (Intent, error) {
	if amount <= 0 {
		return Intent{}, ErrInvalidAmount
	}
	return Intent{
		ID:       id,
		Amount:   amount,
		Currency: DefaultCurrency,
		Status:   StatusRequiresConfirmation,
	}, nil
}

// Confirm marks the intent as paid. Confirming twice is a no-op.
func (i *Intent) Confirm() {
	i.Status = StatusSucceeded
}
