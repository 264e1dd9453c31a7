package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Zhima-Mochi/minishop-retail/internal/application"
	"github.com/Zhima-Mochi/minishop-retail/internal/domain/kv"
	dompay "github.com/Zhima-Mochi/minishop-retail/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-retail/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	paymentService       = "payment-service"
	useCaseCreateIntent  = "payment.create_intent"
	useCaseConfirmIntent = "payment.confirm"
)

type IDGenerator interface {
	NewID() string
}

// Service manages payment intents. No money moves: confirming an intent only
// flips its status.
type Service struct {
	repo dompay.Repository
	ids  IDGenerator
	inst *application.Instruments
}

func NewService(repo dompay.Repository, ids IDGenerator, tel observability.Observability) *Service {
	return &Service{
		repo: repo,
		ids:  ids,
		inst: application.NewInstruments(paymentService, tel),
	}
}

func (s *Service) CreateIntent(ctx context.Context, amount float64) (_ dompay.Intent, err error) {
	ctx, run := s.inst.Begin(ctx, useCaseCreateIntent, "CreateIntent", attribute.Float64("payment.amount", amount))
	defer func() { run.End(err) }()

	intent, err := dompay.NewIntent(s.ids.NewID(), amount)
	if err != nil {
		run.Fail("AMOUNT_INVALID")
		return dompay.Intent{}, err
	}
	if err := s.repo.Put(ctx, intent.ID, intent); err != nil {
		run.Fail("INTENT_SAVE_FAILED")
		return dompay.Intent{}, fmt.Errorf("payment: save: %w", err)
	}
	run.Span().SetAttributes(attribute.String("payment.intent_id", intent.ID))
	run.Annotate(observability.F("intent_id", intent.ID))
	return intent, nil
}

func (s *Service) Confirm(ctx context.Context, id string) (_ dompay.Intent, err error) {
	id = strings.TrimSpace(id)
	ctx, run := s.inst.Begin(ctx, useCaseConfirmIntent, "ConfirmIntent", attribute.String("payment.intent_id", id))
	defer func() { run.End(err) }()

	if id == "" {
		run.Fail("INTENT_NOT_FOUND")
		return dompay.Intent{}, dompay.ErrNotFound
	}
	intent, err := s.repo.Get(ctx, id)
	switch {
	case errors.Is(err, kv.ErrNotFound):
		run.Fail("INTENT_NOT_FOUND")
		return dompay.Intent{}, dompay.ErrNotFound
	case err != nil:
		run.Fail("INTENT_LOAD_FAILED")
		return dompay.Intent{}, fmt.Errorf("payment: load: %w", err)
	}

	intent.Confirm()
	if err := s.repo.Put(ctx, id, intent); err != nil {
		run.Fail("INTENT_SAVE_FAILED")
		return dompay.Intent{}, fmt.Errorf("payment: save: %w", err)
	}
	return intent, nil
}
